package main

import (
	"encoding/json"
	"flag"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wine-classifier/internal/common"
	"wine-classifier/internal/ml"
	"wine-classifier/internal/storage"
)

// exportRecord is one served prediction flattened for retraining, features in schema order.
type exportRecord struct {
	Timestamp    int64     `json:"timestamp"`
	ModelVersion string    `json:"model_version"`
	Features     []float64 `json:"features"`
	Prediction   string    `json:"prediction"`
	Confidence   float64   `json:"confidence"`
}

// exportStats summarizes one export run.
type exportStats struct {
	Read    int
	Written int
	Dropped int
	Classes map[string]int
}

func main() {
	var (
		dataPath     = flag.String("data", "data", "Directory holding predictions.db")
		outputPath   = flag.String("output", "predictions.jsonl", "Output JSON lines file")
		version      = flag.String("version", common.DefaultModelVersion, "Model version to export")
		days         = flag.Int("days", 30, "Number of days to export (0 for all)")
		featureNames = flag.String("features", "", "Comma-separated schema (default: model metadata, then wine)")
		modelPath    = flag.String("model", common.DefaultModelPath, "Model path used to find the metadata sidecar")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	names := resolveSchema(*featureNames, *modelPath)
	log.Info().Strs("features", names).Msg("export schema")

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open prediction log")
	}
	defer store.Close()

	if total, err := store.Count(); err == nil {
		log.Info().Int("records", total).Msg("prediction log opened")
	}

	end := time.Now()
	start := time.Unix(0, 0)
	if *days > 0 {
		start = end.AddDate(0, 0, -*days)
	}

	outputFile, err := os.Create(*outputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create output file")
	}
	defer outputFile.Close()

	stats, err := export(store, *version, start, end, names, outputFile)
	if err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	if stats.Read == 0 {
		log.Warn().Str("version", *version).Msg("no records found matching criteria")
	}
	if stats.Dropped > 0 {
		log.Warn().Int("dropped", stats.Dropped).Msg("records without a finite value for every schema feature were skipped")
	}

	log.Info().Int("records", stats.Written).Str("output", *outputPath).Msg("export complete")

	classes := make([]string, 0, len(stats.Classes))
	for c := range stats.Classes {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	for _, c := range classes {
		log.Info().Str("class", c).Int("count", stats.Classes[c]).Msg("records by class")
	}
}

// resolveSchema uses the explicit list when given, otherwise the same fallbacks the
// service applies: the model metadata sidecar, then the wine feature order.
func resolveSchema(explicit, modelPath string) []string {
	var configured []string
	for _, n := range strings.Split(explicit, ",") {
		if n = strings.TrimSpace(n); n != "" {
			configured = append(configured, n)
		}
	}
	md, err := ml.LoadMetadata(modelPath)
	if err != nil {
		md = nil
	}
	return ml.ResolveFeatureNames(configured, md)
}

// export writes every record of version within [start, end] as a JSON line.
func export(store *storage.Store, version string, start, end time.Time, names []string, w io.Writer) (exportStats, error) {
	stats := exportStats{Classes: make(map[string]int)}

	records, err := store.GetPredictions(version, start, end)
	if err != nil {
		return stats, err
	}
	stats.Read = len(records)

	encoder := json.NewEncoder(w)
	for _, r := range records {
		rec, ok := flatten(r, names)
		if !ok {
			stats.Dropped++
			continue
		}
		if err := encoder.Encode(rec); err != nil {
			return stats, err
		}
		stats.Written++
		stats.Classes[r.Prediction]++
	}
	return stats, nil
}

// flatten orders features by names and drops records with missing or non-finite values.
func flatten(r storage.PredictionRecord, names []string) (exportRecord, bool) {
	values := make([]float64, len(names))
	for i, name := range names {
		v, ok := r.Features[name]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return exportRecord{}, false
		}
		values[i] = v
	}
	return exportRecord{
		Timestamp:    r.Timestamp.Unix(),
		ModelVersion: r.ModelVersion,
		Features:     values,
		Prediction:   r.Prediction,
		Confidence:   r.Confidence,
	}, true
}
