package ml

import (
	"fmt"
	"math"

	"wine-classifier/internal/features"
)

// linearModel holds the shared weights of the linear classifiers. Coef has one row per
// class, or a single row for binary problems.
type linearModel struct {
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func (m *linearModel) validate() error {
	if len(m.Classes) < 2 {
		return fmt.Errorf("model needs at least 2 classes, got %d", len(m.Classes))
	}
	rows := len(m.Coef)
	switch {
	case len(m.Classes) == 2 && rows == 1:
	case rows == len(m.Classes):
	default:
		return fmt.Errorf("coef has %d rows for %d classes", rows, len(m.Classes))
	}
	if len(m.Intercept) != rows {
		return fmt.Errorf("intercept has %d entries, expected %d", len(m.Intercept), rows)
	}
	width := len(m.Coef[0])
	if width == 0 {
		return fmt.Errorf("coef rows are empty")
	}
	for i, row := range m.Coef {
		if len(row) != width {
			return fmt.Errorf("coef row %d has %d weights, expected %d", i, len(row), width)
		}
		for j, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("coef[%d][%d] is not finite", i, j)
			}
		}
	}
	for i, b := range m.Intercept {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return fmt.Errorf("intercept[%d] is not finite", i)
		}
	}
	return nil
}

func (m *linearModel) NumFeatures() int { return len(m.Coef[0]) }

func (m *linearModel) decision(x features.Vector) ([]float64, error) {
	if len(x) != m.NumFeatures() {
		return nil, fmt.Errorf("expected %d features, got %d", m.NumFeatures(), len(x))
	}
	scores := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		sum := m.Intercept[i]
		for j, w := range row {
			sum += w * x[j]
		}
		scores[i] = sum
	}
	return scores, nil
}

func (m *linearModel) label(scores []float64) int {
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.Classes[1]
		}
		return m.Classes[0]
	}
	return m.Classes[argmax(scores)]
}

// LogisticRegression is a multinomial (softmax) or binary (sigmoid) logistic model.
type LogisticRegression struct {
	linearModel
}

// Predict returns the most probable class.
func (m *LogisticRegression) Predict(x features.Vector) (int, error) {
	scores, err := m.decision(x)
	if err != nil {
		return 0, err
	}
	return m.label(scores), nil
}

// PredictProba returns one probability per class, in Classes order.
func (m *LogisticRegression) PredictProba(x features.Vector) ([]float64, error) {
	scores, err := m.decision(x)
	if err != nil {
		return nil, err
	}
	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(scores), nil
}

// LinearSVC is a one-vs-rest linear classifier. It has no probability output.
type LinearSVC struct {
	linearModel
}

// Predict returns the class with the largest decision value.
func (m *LinearSVC) Predict(x features.Vector) (int, error) {
	scores, err := m.decision(x)
	if err != nil {
		return 0, err
	}
	return m.label(scores), nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func softmax(scores []float64) []float64 {
	maxScore := scores[argmax(scores)]
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
