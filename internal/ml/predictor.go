package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrModelNotFound is returned when the model artifact does not exist. The process
// must not start serving without a model.
var ErrModelNotFound = errors.New("model file not found")

// MetricsInterface defines metrics methods needed by the model layer
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
	MLCacheHitsInc()
}

// artifact is the on-disk envelope. Kind selects the deserializer.
type artifact struct {
	Kind  string          `json:"kind"`
	Model json.RawMessage `json:"model"`
}

type deserializer func(raw json.RawMessage) (Estimator, error)

var deserializers = map[string]deserializer{
	"logistic_regression": func(raw json.RawMessage) (Estimator, error) {
		var lm linearModel
		if err := decodeLinear(raw, &lm); err != nil {
			return nil, err
		}
		return &LogisticRegression{linearModel: lm}, nil
	},
	"linear_svc": func(raw json.RawMessage) (Estimator, error) {
		var lm linearModel
		if err := decodeLinear(raw, &lm); err != nil {
			return nil, err
		}
		return &LinearSVC{linearModel: lm}, nil
	},
}

func decodeLinear(raw json.RawMessage, lm *linearModel) error {
	if err := json.Unmarshal(raw, lm); err != nil {
		return fmt.Errorf("decode linear model: %w", err)
	}
	return lm.validate()
}

// Kinds lists the supported artifact kinds.
func Kinds() []string {
	out := make([]string, 0, len(deserializers))
	for k := range deserializers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load reads the model artifact at path.
func Load(path string) (Estimator, error) {
	return LoadWithMetrics(path, nil)
}

// LoadWithMetrics reads the model artifact at path and reports its age.
func LoadWithMetrics(path string, metrics MetricsInterface) (Estimator, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("stat model %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	est, kind, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}

	if metrics != nil {
		metrics.MLModelAgeSet(time.Since(info.ModTime()).Seconds())
	}

	log.Info().
		Str("model_path", path).
		Str("kind", kind).
		Str("capability", CapabilityOf(est).String()).
		Msg("model loaded")

	return est, nil
}

// Decode parses an in-memory artifact and returns the estimator and its kind.
func Decode(data []byte) (Estimator, string, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, "", fmt.Errorf("parse artifact: %w", err)
	}
	d, ok := deserializers[a.Kind]
	if !ok {
		return nil, "", fmt.Errorf("unsupported model kind %q (supported: %v)", a.Kind, Kinds())
	}
	if len(a.Model) == 0 {
		return nil, "", fmt.Errorf("artifact has no model section")
	}
	est, err := d(a.Model)
	if err != nil {
		return nil, "", err
	}
	return est, a.Kind, nil
}
