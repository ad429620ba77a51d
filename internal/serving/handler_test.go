package serving

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
)

type mockMetrics struct {
	mu           sync.Mutex
	clientFaults map[string]int
	serverFaults int
	confidences  []float64
	latencies    int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{clientFaults: make(map[string]int)}
}

func (m *mockMetrics) ClientFaultsInc(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clientFaults[kind]++
}

func (m *mockMetrics) ServerFaultsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serverFaults++
}

func (m *mockMetrics) ConfidenceObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confidences = append(m.confidences, v)
}

func (m *mockMetrics) RequestLatencyObserve(float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func abc() Config {
	return Config{Schema: features.MustSchema("a", "b", "c"), ModelVersion: "v-test"}
}

func fullInput() []features.Entry {
	return []features.Entry{{Name: "a", Value: 1}, {Name: "b", Value: 2}, {Name: "c", Value: 3}}
}

func TestNewHandler_RequiresModel(t *testing.T) {
	_, err := NewHandler(abc(), nil, nil)
	assert.Error(t, err)

	_, err = NewHandler(Config{ModelVersion: "v"}, &ml.StubEstimator{}, nil)
	assert.Error(t, err)
}

func TestNewHandler_SchemaWidthMismatch(t *testing.T) {
	est, _, err := ml.Decode([]byte(`{"kind":"linear_svc","model":{"classes":[0,1],"coef":[[1,1]],"intercept":[0]}}`))
	require.NoError(t, err)
	_, err = NewHandler(abc(), est, nil)
	assert.Error(t, err)
}

func TestPredict_ProbabilisticConfidence(t *testing.T) {
	model := &ml.StubProbabilistic{
		StubEstimator: ml.StubEstimator{Label: 1},
		Proba:         []float64{0.1, 0.7, 0.2},
	}
	metrics := newMockMetrics()
	h, err := NewHandler(abc(), model, metrics)
	require.NoError(t, err)

	resp, err := h.Predict(fullInput())
	require.NoError(t, err)
	assert.Equal(t, PredictionResponse{Prediction: "1", Confidence: 0.7, ModelVersion: "v-test"}, resp)
	assert.Equal(t, []float64{0.7}, metrics.confidences)
	assert.Equal(t, 1, metrics.latencies)
}

func TestPredict_PointEstimatorConfidenceIsOne(t *testing.T) {
	h, err := NewHandler(abc(), &ml.StubEstimator{Label: 2}, nil)
	require.NoError(t, err)

	resp, err := h.Predict(fullInput())
	require.NoError(t, err)
	assert.Equal(t, "2", resp.Prediction)
	assert.Equal(t, 1.0, resp.Confidence)
	assert.Equal(t, "v-test", resp.ModelVersion)
}

func TestPredict_ValidationFaultsAreInvalidArgument(t *testing.T) {
	model := &ml.StubEstimator{Label: 0}
	metrics := newMockMetrics()
	h, err := NewHandler(abc(), model, metrics)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   []features.Entry
		message string
		reason  string
	}{
		{"empty", nil, "No features provided", "EmptyInput"},
		{"empty name", []features.Entry{{Name: "", Value: 1}}, "Feature name cannot be empty", "InvalidName"},
		{"duplicate", []features.Entry{{Name: "a", Value: 1}, {Name: "a", Value: 1}}, "Duplicate feature name: a", "DuplicateFeature"},
		{"missing", []features.Entry{{Name: "c", Value: 1}, {Name: "z", Value: 1}}, "Missing features: a, b", "MissingFeatures"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Predict(tt.input)
			require.Error(t, err)
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, CodeInvalidArgument, se.Code)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, 1, metrics.clientFaults[tt.reason])
		})
	}

	assert.Equal(t, 0, model.Calls, "model must not run on invalid input")
	assert.Equal(t, 0, metrics.serverFaults)
}

func TestPredict_ModelFailureIsInternal(t *testing.T) {
	metrics := newMockMetrics()
	h, err := NewHandler(abc(), &ml.StubEstimator{Err: errors.New("secret stack detail")}, metrics)
	require.NoError(t, err)

	_, err = h.Predict(fullInput())
	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.NotContains(t, err.Error(), "secret stack detail")
	assert.Equal(t, 1, metrics.serverFaults)
}

func TestPredict_ProbaFailuresAreInternal(t *testing.T) {
	cases := map[string]*ml.StubProbabilistic{
		"proba error":        {ProbaErr: errors.New("boom")},
		"empty distribution": {Proba: []float64{}},
		"out of range":       {Proba: []float64{1.5, -0.5}},
	}
	for name, model := range cases {
		t.Run(name, func(t *testing.T) {
			h, err := NewHandler(abc(), model, nil)
			require.NoError(t, err)
			_, err = h.Predict(fullInput())
			assert.Equal(t, CodeInternal, CodeOf(err))
		})
	}
}

func TestPredict_PanicIsRecovered(t *testing.T) {
	metrics := newMockMetrics()
	h, err := NewHandler(abc(), &ml.StubEstimator{Panic: true}, metrics)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		_, err = h.Predict(fullInput())
	})
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, 1, metrics.serverFaults)
}

func TestHealth(t *testing.T) {
	h, err := NewHandler(abc(), &ml.StubEstimator{}, nil)
	require.NoError(t, err)
	assert.Equal(t, HealthStatus{Status: "ok", ModelVersion: "v-test"}, h.Health())

	info := h.Info()
	assert.Equal(t, "point", info.Capability)
	assert.Equal(t, []string{"a", "b", "c"}, info.Features)
}

func TestPredict_Concurrent(t *testing.T) {
	model := &ml.StubProbabilistic{StubEstimator: ml.StubEstimator{Label: 1}, Proba: []float64{0.25, 0.75}}
	h, err := NewHandler(abc(), model, newMockMetrics())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := fullInput()
			in = append(in, features.Entry{Name: "extra", Value: float64(i)})
			resp, err := h.Predict(in)
			if err != nil {
				errs <- err
				return
			}
			if resp.Confidence != 0.75 || resp.Prediction != "1" {
				errs <- errors.New("unexpected response")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
	assert.Equal(t, CodeInvalidArgument, CodeOf(InvalidArgument("bad")))
}
