package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wine-classifier/internal/common"
	"wine-classifier/internal/features"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/serving"
)

// Loads a model artifact and runs the example wine sample plus a few faulty requests
// through the same handler the service uses.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	modelPath := common.DefaultModelPath
	if len(os.Args) > 1 {
		modelPath = os.Args[1]
	}
	absPath, err := filepath.Abs(modelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve model path")
	}
	fmt.Printf("Model path: %s\n", absPath)

	model, err := ml.Load(absPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	fmt.Printf("Capability: %s\n", ml.CapabilityOf(model))

	h, err := serving.NewHandler(serving.Config{
		Schema:       features.MustSchema(common.WineFeatureNames...),
		ModelVersion: common.DefaultModelVersion,
	}, model, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("model does not fit the wine schema")
	}

	failed := false
	for _, res := range runChecks(h) {
		status := "ok"
		if !res.Passed {
			status = "FAIL"
			failed = true
		}
		if res.Err != nil {
			fmt.Printf("%-4s %-16s -> %v\n", status, res.Name, res.Err)
			continue
		}
		fmt.Printf("%-4s %-16s -> prediction=%s confidence=%.4f\n", status, res.Name, res.Response.Prediction, res.Response.Confidence)
	}
	if failed {
		os.Exit(1)
	}
}

type checkResult struct {
	Name     string
	Response serving.PredictionResponse
	Err      error
	Passed   bool
}

// runChecks sends the example sample, which must succeed, and two requests that must be
// rejected as INVALID_ARGUMENT.
func runChecks(h *serving.Handler) []checkResult {
	sample := make([]features.Entry, 0, len(common.WineFeatureNames))
	for _, name := range common.WineFeatureNames {
		sample = append(sample, features.Entry{Name: name, Value: common.ExampleWineSample[name]})
	}

	cases := []struct {
		name    string
		entries []features.Entry
		want    serving.Code
	}{
		{"example sample", sample, serving.CodeOK},
		{"empty request", nil, serving.CodeInvalidArgument},
		{"missing proline", sample[:len(sample)-1], serving.CodeInvalidArgument},
	}

	results := make([]checkResult, 0, len(cases))
	for _, tc := range cases {
		resp, err := h.Predict(tc.entries)
		results = append(results, checkResult{
			Name:     tc.name,
			Response: resp,
			Err:      err,
			Passed:   serving.CodeOf(err) == tc.want,
		})
	}
	return results
}
