package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"wine-classifier/internal/common"
)

// ModelMetadata contains information about the trained model, stored next to it
type ModelMetadata struct {
	Version       string    `json:"version"`
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	Accuracy      float64   `json:"accuracy"`
	TrainingRows  int       `json:"training_rows"`
	ValidationAcc float64   `json:"validation_accuracy"`
}

// LoadMetadata looks for model_metadata.json next to the model, falling back to the
// newest model_metadata_*.json.
func LoadMetadata(modelPath string) (*ModelMetadata, error) {
	dir := filepath.Dir(modelPath)
	primary := filepath.Join(dir, "model_metadata.json")

	if md, err := decodeMetadata(primary); err == nil {
		return md, nil
	}

	pattern := filepath.Join(dir, "model_metadata_*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("no metadata files found in %s", dir)
	}
	sort.Strings(matches) // timestamp suffix sorts chronologically
	return decodeMetadata(matches[len(matches)-1])
}

func decodeMetadata(path string) (*ModelMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var md ModelMetadata
	if err := json.NewDecoder(file).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &md, nil
}

// ResolveVersion picks the served version label: configured, then metadata, then the
// default.
func ResolveVersion(configured string, md *ModelMetadata) string {
	if configured != "" {
		return configured
	}
	if md != nil && md.Version != "" {
		return md.Version
	}
	return common.DefaultModelVersion
}

// ResolveFeatureNames picks the schema: configured names, then metadata, then the wine
// feature order.
func ResolveFeatureNames(configured []string, md *ModelMetadata) []string {
	if len(configured) > 0 {
		return configured
	}
	if md != nil && len(md.Features) > 0 {
		return md.Features
	}
	return common.WineFeatureNames
}
