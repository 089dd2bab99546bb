package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu        sync.Mutex
	loaded    bool
	loadedSet int
	modelAge  float64
}

func (m *MockMetrics) ModelLoadedSet(loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = loaded
	m.loadedSet++
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

// Loaded reports the last value passed to ModelLoadedSet.
func (m *MockMetrics) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}
