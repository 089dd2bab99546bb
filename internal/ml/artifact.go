package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fraud-scorer/internal/features"

	"github.com/xeipuuv/gojsonschema"
)

// FormatRandomForest is the only artifact format understood by this package.
const FormatRandomForest = "random_forest"

const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["format", "version", "features", "classes", "trees"],
  "properties": {
    "format": { "type": "string", "enum": ["random_forest"] },
    "version": { "type": "string", "minLength": 1 },
    "trained_at": { "type": "string" },
    "schema_version": { "type": "string" },
    "features": { "type": "array", "items": { "type": "string" } },
    "classes": {
      "type": "array",
      "items": { "type": "integer", "enum": [0, 1] },
      "minItems": 2,
      "maxItems": 2,
      "uniqueItems": true
    },
    "trees": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["nodes"],
        "properties": {
          "nodes": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["left", "right", "value"],
              "properties": {
                "feature": { "type": "integer" },
                "threshold": { "type": "number" },
                "left": { "type": "integer", "minimum": -1 },
                "right": { "type": "integer", "minimum": -1 },
                "value": {
                  "type": "array",
                  "items": { "type": "number", "minimum": 0 },
                  "minItems": 2,
                  "maxItems": 2
                }
              }
            }
          }
        }
      }
    },
    "metrics": { "type": "object" }
  }
}`

var artifactSchemaLoader = gojsonschema.NewStringLoader(artifactSchema)

// Artifact is the JSON export of a trained random forest.
type Artifact struct {
	Format        string          `json:"format"`
	Version       string          `json:"version"`
	TrainedAt     time.Time       `json:"trained_at"`
	SchemaVersion string          `json:"schema_version"`
	Features      []string        `json:"features"`
	Classes       []int           `json:"classes"`
	Trees         []Tree          `json:"trees"`
	Metrics       ArtifactMetrics `json:"metrics"`
}

// ArtifactMetrics carries the evaluation numbers recorded at training time.
type ArtifactMetrics struct {
	Accuracy     float64 `json:"accuracy"`
	TrainingRows int     `json:"training_rows"`
}

// Tree is one decision tree in flattened node form; node 0 is the root.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split (Left/Right >= 0) or a leaf (Left == Right == -1).
// Value holds the per-class sample weights at the node.
type Node struct {
	Feature   int        `json:"feature"`
	Threshold float64    `json:"threshold"`
	Left      int        `json:"left"`
	Right     int        `json:"right"`
	Value     [2]float64 `json:"value"`
}

func (n Node) isLeaf() bool {
	return n.Left == -1 && n.Right == -1
}

// ModelMetadata contains information about the loaded model
type ModelMetadata struct {
	Version       string    `json:"version"`
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	SchemaVersion string    `json:"schema_version"`
	Trees         int       `json:"trees"`
	Accuracy      float64   `json:"accuracy"`
	TrainingRows  int       `json:"training_rows"`
	Path          string    `json:"path"`
	Checksum      string    `json:"checksum"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// DecodeArtifact validates raw artifact bytes against the artifact schema,
// decodes them and checks the tree structure and feature schema.
func DecodeArtifact(data []byte) (*Artifact, error) {
	result, err := gojsonschema.Validate(artifactSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("artifact is not valid JSON: %w", err)
	}
	if !result.Valid() {
		var sb strings.Builder
		for _, e := range result.Errors() {
			sb.WriteString(e.String())
			sb.WriteString("; ")
		}
		return nil, fmt.Errorf("artifact does not conform to schema: %s", sb.String())
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}

	if err := features.VerifySchema(a.Features, a.SchemaVersion); err != nil {
		return nil, err
	}

	for i, tree := range a.Trees {
		if err := tree.check(); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	return &a, nil
}

func (t Tree) check() error {
	n := len(t.Nodes)
	for i, node := range t.Nodes {
		if node.isLeaf() {
			if node.Value[0]+node.Value[1] <= 0 {
				return fmt.Errorf("leaf %d has no weight", i)
			}
			continue
		}
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d has invalid children %d/%d", i, node.Left, node.Right)
		}
		if node.Feature < 0 || node.Feature >= features.Count {
			return fmt.Errorf("node %d splits on unknown feature %d", i, node.Feature)
		}
	}
	return nil
}

func artifactChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
