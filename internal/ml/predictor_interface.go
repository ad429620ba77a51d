// Package ml provides the model abstraction used to serve classification requests.
// A model is either a point estimator (label only) or a probabilistic estimator
// (label plus a class distribution). The variant is fixed when the model is loaded, so
// callers branch on a static type instead of probing capabilities per request.
//
// Estimators are immutable after loading and safe for concurrent use.
package ml

import "wine-classifier/internal/features"

// Estimator predicts a class label for a single feature vector.
type Estimator interface {
	Predict(x features.Vector) (int, error)
}

// PointEstimator is an Estimator that offers no uncertainty signal.
type PointEstimator = Estimator

// ProbabilisticEstimator additionally returns the class distribution for x.
type ProbabilisticEstimator interface {
	Estimator
	PredictProba(x features.Vector) ([]float64, error)
}

// FeatureCounter is implemented by estimators that know their input width.
type FeatureCounter interface {
	NumFeatures() int
}

// Capability names the estimator variant.
type Capability int

const (
	PointEstimate Capability = iota
	Probabilistic
)

func (c Capability) String() string {
	if c == Probabilistic {
		return "probabilistic"
	}
	return "point"
}

// CapabilityOf resolves which variant e is.
func CapabilityOf(e Estimator) Capability {
	if _, ok := e.(ProbabilisticEstimator); ok {
		return Probabilistic
	}
	return PointEstimate
}
