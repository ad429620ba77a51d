package serving

import "wine-classifier/internal/features"

// PredictRequest is the decoded Predict call.
type PredictRequest struct {
	Features []features.Entry `json:"features"`
}

// PredictionResponse is the wire-level answer to a Predict call.
type PredictionResponse struct {
	Prediction   string  `json:"prediction"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

// HealthStatus reports process readiness.
type HealthStatus struct {
	Status       string `json:"status"`
	ModelVersion string `json:"model_version"`
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	ModelVersion string   `json:"model_version"`
	Capability   string   `json:"capability"`
	Features     []string `json:"features"`
}

const StatusOK = "ok"
