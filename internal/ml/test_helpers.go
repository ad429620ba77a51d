package ml

import (
	"errors"
	"sync"

	"wine-classifier/internal/features"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions int
	failures    int
	latencySum  float64
	latencyObs  int
	modelAge    float64
	cacheHits   int
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyObs++
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) MLCacheHitsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

// Counts returns predictions, failures and cache hits recorded so far.
func (m *MockMetrics) Counts() (predictions, failures, cacheHits int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions, m.failures, m.cacheHits
}

// ErrStub is a canned inference failure for StubEstimator.Err.
var ErrStub = errors.New("stub estimator failure")

// StubEstimator is a point estimator with a fixed answer, for tests in other packages.
type StubEstimator struct {
	Label int
	Err   error
	Panic bool
	Calls int
	mu    sync.Mutex
}

func (s *StubEstimator) Predict(x features.Vector) (int, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	if s.Panic {
		panic("stub estimator panic")
	}
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Label, nil
}

// StubProbabilistic adds a fixed distribution to StubEstimator.
type StubProbabilistic struct {
	StubEstimator
	Proba    []float64
	ProbaErr error
}

func (s *StubProbabilistic) PredictProba(x features.Vector) ([]float64, error) {
	if s.ProbaErr != nil {
		return nil, s.ProbaErr
	}
	return append([]float64(nil), s.Proba...), nil
}
