package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fraud-scorer/internal/common"
	"fraud-scorer/internal/storage"

	"github.com/rs/zerolog/log"
)

// ErrModelNotFound is returned when no candidate artifact path exists.
var ErrModelNotFound = errors.New("model artifact not found")

// StartupError means the model could not be loaded and the process must not
// become ready.
type StartupError struct {
	Path string
	Err  error
}

func (e *StartupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("model startup failed: %v", e.Err)
	}
	return fmt.Sprintf("model startup failed (%s): %v", e.Path, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// LoadRegistry records artifact loads across restarts.
type LoadRegistry interface {
	LastModelLoad() (*storage.ModelLoad, error)
	RecordModelLoad(rec storage.ModelLoad) error
}

// LifecycleConfig configures model loading.
type LifecycleConfig struct {
	// ModelPath overrides path resolution when set.
	ModelPath string
	Registry  LoadRegistry
	Metrics   MetricsInterface
}

// Lifecycle loads the classifier artifact exactly once and publishes it.
// Before a successful Load, Ready reports false and Classifier returns nothing.
type Lifecycle struct {
	cfg   LifecycleConfig
	once  sync.Once
	err   error
	model atomic.Pointer[Forest]
}

// NewLifecycle creates an unloaded lifecycle manager.
func NewLifecycle(cfg LifecycleConfig) *Lifecycle {
	return &Lifecycle{cfg: cfg}
}

// executable is swapped in tests.
var executable = os.Executable

// ResolveModelPath picks the artifact location: the explicit override if
// given, otherwise the working-directory relative path, otherwise the same
// relative path under the install root (the parent of the binary's directory).
func ResolveModelPath(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return override, fmt.Errorf("%w at %s: %v", ErrModelNotFound, override, err)
		}
		return override, nil
	}

	candidates := []string{common.DefaultModelPath}
	if exe, err := executable(); err == nil {
		root := filepath.Dir(filepath.Dir(exe))
		candidates = append(candidates, filepath.Join(root, common.DefaultModelPath))
	} else {
		log.Warn().Err(err).Msg("cannot determine executable path")
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w, tried %s", ErrModelNotFound, strings.Join(candidates, ", "))
}

// Load reads, validates and publishes the artifact. Only the first call does
// any work; later calls return the first outcome.
func (l *Lifecycle) Load() error {
	l.once.Do(func() {
		l.err = l.load()
		if l.err != nil {
			log.Error().Err(l.err).Msg("model load failed")
		}
	})
	return l.err
}

func (l *Lifecycle) load() error {
	path, err := ResolveModelPath(l.cfg.ModelPath)
	if err != nil {
		return &StartupError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &StartupError{Path: path, Err: fmt.Errorf("read artifact: %w", err)}
	}

	artifact, err := DecodeArtifact(data)
	if err != nil {
		return &StartupError{Path: path, Err: err}
	}

	forest, err := NewForest(artifact)
	if err != nil {
		return &StartupError{Path: path, Err: err}
	}

	forest.metadata.Path = path
	forest.metadata.Checksum = artifactChecksum(data)
	forest.metadata.LoadedAt = time.Now().UTC()

	l.record(forest.metadata)
	l.model.Store(forest)

	if l.cfg.Metrics != nil {
		l.cfg.Metrics.ModelLoadedSet(true)
		l.cfg.Metrics.ModelAgeSet(modelAge(path, forest.metadata.TrainedAt).Seconds())
	}

	log.Info().
		Str("model_path", path).
		Str("version", forest.metadata.Version).
		Str("checksum", forest.metadata.Checksum).
		Int("trees", forest.metadata.Trees).
		Msg("model loaded successfully")

	return nil
}

// record stores the load in the registry. Registry failures never block startup.
func (l *Lifecycle) record(md ModelMetadata) {
	if l.cfg.Registry == nil {
		return
	}

	if last, err := l.cfg.Registry.LastModelLoad(); err != nil {
		log.Warn().Err(err).Msg("failed to read model load history")
	} else if last != nil && last.Checksum != md.Checksum {
		log.Info().
			Str("previous_version", last.Version).
			Str("previous_checksum", last.Checksum).
			Str("version", md.Version).
			Msg("model artifact changed since last start")
	}

	err := l.cfg.Registry.RecordModelLoad(storage.ModelLoad{
		Version:       md.Version,
		Path:          md.Path,
		Checksum:      md.Checksum,
		SchemaVersion: md.SchemaVersion,
		Trees:         md.Trees,
		TrainedAt:     md.TrainedAt,
		LoadedAt:      md.LoadedAt,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record model load")
	}
}

func modelAge(path string, trainedAt time.Time) time.Duration {
	if !trainedAt.IsZero() {
		return time.Since(trainedAt)
	}
	if info, err := os.Stat(path); err == nil {
		return time.Since(info.ModTime())
	}
	return 0
}

// Ready reports whether a model has been published.
func (l *Lifecycle) Ready() bool {
	return l.model.Load() != nil
}

// Classifier returns the loaded model and whether it is ready.
func (l *Lifecycle) Classifier() (Classifier, bool) {
	f := l.model.Load()
	if f == nil {
		return nil, false
	}
	return f, true
}

// Metadata returns the loaded model's metadata.
func (l *Lifecycle) Metadata() (ModelMetadata, bool) {
	f := l.model.Load()
	if f == nil {
		return ModelMetadata{}, false
	}
	return f.Metadata(), true
}
