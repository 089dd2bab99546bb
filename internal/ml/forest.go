package ml

import (
	"fmt"

	"fraud-scorer/internal/features"
)

// Forest is an immutable random forest classifier built from an Artifact.
type Forest struct {
	trees    []Tree
	classes  [2]int
	positive int // index of class 1 in classes
	metadata ModelMetadata
}

// NewForest builds a classifier from a decoded artifact.
func NewForest(a *Artifact) (*Forest, error) {
	if a == nil {
		return nil, fmt.Errorf("artifact is nil")
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("artifact has no trees")
	}
	if len(a.Classes) != 2 {
		return nil, fmt.Errorf("expected 2 classes, got %d", len(a.Classes))
	}

	f := &Forest{
		trees:    a.Trees,
		classes:  [2]int{a.Classes[0], a.Classes[1]},
		positive: -1,
		metadata: ModelMetadata{
			Version:       a.Version,
			TrainedAt:     a.TrainedAt,
			Features:      append([]string(nil), a.Features...),
			SchemaVersion: a.SchemaVersion,
			Trees:         len(a.Trees),
			Accuracy:      a.Metrics.Accuracy,
			TrainingRows:  a.Metrics.TrainingRows,
		},
	}
	for i, c := range f.classes {
		if c == 1 {
			f.positive = i
		}
	}
	if f.positive < 0 {
		return nil, fmt.Errorf("artifact classes %v do not include 1", a.Classes)
	}

	return f, nil
}

// Infer averages the per-tree class probabilities and picks the most likely
// class, preferring the first class on an exact tie.
func (f *Forest) Infer(v features.Vector) (Inference, error) {
	if f == nil {
		return Inference{}, fmt.Errorf("forest is nil")
	}
	if err := v.Finite(); err != nil {
		return Inference{}, err
	}

	var proba [2]float64
	for i := range f.trees {
		leaf, err := f.trees[i].leaf(v)
		if err != nil {
			return Inference{}, fmt.Errorf("tree %d: %w", i, err)
		}
		total := leaf.Value[0] + leaf.Value[1]
		proba[0] += leaf.Value[0] / total
		proba[1] += leaf.Value[1] / total
	}

	n := float64(len(f.trees))
	proba[0] /= n
	proba[1] /= n

	best := 0
	if proba[1] > proba[0] {
		best = 1
	}

	return Inference{
		Label:       f.classes[best],
		Probability: proba[f.positive],
	}, nil
}

// leaf walks the tree from the root. Features are compared at float32
// precision, the precision the trees were fitted at.
func (t Tree) leaf(v features.Vector) (Node, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return Node{}, fmt.Errorf("node index %d out of range", idx)
		}
		node := t.Nodes[idx]
		if node.isLeaf() {
			return node, nil
		}
		if node.Feature < 0 || node.Feature >= features.Count {
			return Node{}, fmt.Errorf("node %d splits on unknown feature %d", idx, node.Feature)
		}
		if float64(float32(v[node.Feature])) <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return Node{}, fmt.Errorf("no leaf reached")
}

// Metadata describes the artifact the forest was built from.
func (f *Forest) Metadata() ModelMetadata {
	md := f.metadata
	md.Features = append([]string(nil), f.metadata.Features...)
	return md
}
