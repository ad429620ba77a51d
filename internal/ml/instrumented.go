package ml

import (
	"time"

	"wine-classifier/internal/features"
)

// NewInstrumented reports inference counts, failures and latency for e. The result has
// the same capability as e.
func NewInstrumented(e Estimator, metrics MetricsInterface) Estimator {
	if metrics == nil {
		return e
	}
	base := instrumentedPoint{next: e, metrics: metrics}
	if pe, ok := e.(ProbabilisticEstimator); ok {
		return &instrumentedProbabilistic{base, pe}
	}
	return &base
}

type instrumentedPoint struct {
	next    Estimator
	metrics MetricsInterface
}

func (i *instrumentedPoint) observe(start time.Time, err error) {
	i.metrics.MLLatencyObserve(time.Since(start).Seconds())
	if err != nil {
		i.metrics.MLFailuresInc()
		return
	}
	i.metrics.MLPredictionsInc()
}

func (i *instrumentedPoint) Predict(x features.Vector) (int, error) {
	start := time.Now()
	label, err := i.next.Predict(x)
	i.observe(start, err)
	return label, err
}

func (i *instrumentedPoint) NumFeatures() int {
	if fc, ok := i.next.(FeatureCounter); ok {
		return fc.NumFeatures()
	}
	return 0
}

type instrumentedProbabilistic struct {
	instrumentedPoint
	proba ProbabilisticEstimator
}

func (i *instrumentedProbabilistic) PredictProba(x features.Vector) ([]float64, error) {
	start := time.Now()
	p, err := i.proba.PredictProba(x)
	i.metrics.MLLatencyObserve(time.Since(start).Seconds())
	if err != nil {
		i.metrics.MLFailuresInc()
	}
	return p, err
}
