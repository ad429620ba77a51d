// Package serving implements the prediction request contract: validate and order the
// caller's features, run inference, and map the outcome to a response or a classified
// fault.
//
// A Handler holds only immutable state fixed at construction, so Predict may be called
// from any number of goroutines without synchronization. Faults are reported, never
// retried.
package serving

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
)

// Metrics defines the request-level metrics the handler reports.
type Metrics interface {
	ClientFaultsInc(kind string)
	ServerFaultsInc()
	ConfidenceObserve(float64)
	RequestLatencyObserve(float64)
}

// Config is the process-wide immutable serving configuration.
type Config struct {
	Schema       features.Schema
	ModelVersion string
}

// Handler serves Predict and Health.
type Handler struct {
	schema  features.Schema
	version string
	model   ml.Estimator
	proba   ml.ProbabilisticEstimator // nil for point estimators
	metrics Metrics
}

// NewHandler fixes the (schema, model, version) triple. A nil model is a
// construction-time fault: the process must not serve without one.
func NewHandler(cfg Config, model ml.Estimator, metrics Metrics) (*Handler, error) {
	if model == nil {
		return nil, errors.New("serving: model is required")
	}
	if cfg.Schema.Len() == 0 {
		return nil, errors.New("serving: feature schema is required")
	}
	if fc, ok := model.(ml.FeatureCounter); ok && fc.NumFeatures() > 0 && fc.NumFeatures() != cfg.Schema.Len() {
		return nil, fmt.Errorf("serving: model expects %d features, schema has %d", fc.NumFeatures(), cfg.Schema.Len())
	}

	h := &Handler{
		schema:  cfg.Schema,
		version: cfg.ModelVersion,
		model:   model,
		metrics: metrics,
	}
	if pe, ok := model.(ml.ProbabilisticEstimator); ok {
		h.proba = pe
	}
	return h, nil
}

// Predict validates entries against the schema and classifies them. The returned
// error, if any, is always a *StatusError.
func (h *Handler) Predict(entries []features.Entry) (resp PredictionResponse, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("model panicked during prediction")
			resp, err = PredictionResponse{}, internal("unexpected model failure")
		}
		h.observe(start, err)
	}()

	vec, err := features.BuildEntries(entries, h.schema)
	if err != nil {
		if f, ok := features.AsFault(err); ok {
			return PredictionResponse{}, invalidArgument(f.Kind.String(), f.Error())
		}
		return PredictionResponse{}, internal("feature validation failed")
	}

	label, err := h.model.Predict(vec)
	if err != nil {
		log.Error().Err(err).Str("model_version", h.version).Msg("model prediction failed")
		return PredictionResponse{}, internal("model prediction failed")
	}

	confidence, err := h.confidence(vec)
	if err != nil {
		log.Error().Err(err).Str("model_version", h.version).Msg("confidence estimation failed")
		return PredictionResponse{}, internal("confidence estimation failed")
	}
	if h.metrics != nil {
		h.metrics.ConfidenceObserve(confidence)
	}

	return PredictionResponse{
		Prediction:   strconv.Itoa(label),
		Confidence:   confidence,
		ModelVersion: h.version,
	}, nil
}

// confidence is the max class probability, or 1.0 when the model has no distribution.
func (h *Handler) confidence(vec features.Vector) (float64, error) {
	if h.proba == nil {
		return 1.0, nil
	}
	dist, err := h.proba.PredictProba(vec)
	if err != nil {
		return 0, err
	}
	if len(dist) == 0 {
		return 0, errors.New("empty probability distribution")
	}
	best := math.Inf(-1)
	for i, p := range dist {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return 0, fmt.Errorf("invalid probability %d: %v", i, p)
		}
		if p > best {
			best = p
		}
	}
	return best, nil
}

func (h *Handler) observe(start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.RequestLatencyObserve(time.Since(start).Seconds())
	if err == nil {
		return
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code == CodeInvalidArgument {
		h.metrics.ClientFaultsInc(se.Reason)
		return
	}
	h.metrics.ServerFaultsInc()
}

// Health reports readiness. A Handler only exists once a model is loaded, so it is
// always ok.
func (h *Handler) Health() HealthStatus {
	return HealthStatus{Status: StatusOK, ModelVersion: h.version}
}

// Info describes the loaded model.
func (h *Handler) Info() ModelInfo {
	capability := ml.PointEstimate
	if h.proba != nil {
		capability = ml.Probabilistic
	}
	return ModelInfo{
		ModelVersion: h.version,
		Capability:   capability.String(),
		Features:     h.schema.Names(),
	}
}

// ModelVersion returns the configured version label.
func (h *Handler) ModelVersion() string { return h.version }
