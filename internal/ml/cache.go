package ml

import (
	"encoding/binary"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"wine-classifier/internal/features"
)

// cachedPrediction is stored only once fully computed: the label, plus the distribution
// for probabilistic estimators. Entries are never updated in place.
type cachedPrediction struct {
	label int
	proba []float64
}

// predictionCache memoizes inference keyed by the exact bit pattern of the vector.
// Estimators are deterministic, so a hit returns what a fresh call would.
type predictionCache struct {
	entries *lru.Cache[string, cachedPrediction]
	metrics MetricsInterface
}

// NewCached wraps e with an LRU cache of size entries. The result has the same
// capability as e. A size of zero or less returns e unchanged.
func NewCached(e Estimator, size int, metrics MetricsInterface) (Estimator, error) {
	if size <= 0 {
		return e, nil
	}
	entries, err := lru.New[string, cachedPrediction](size)
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	pc := &predictionCache{entries: entries, metrics: metrics}
	if pe, ok := e.(ProbabilisticEstimator); ok {
		return &cachedProbabilistic{cachedPoint{next: e, cache: pc}, pe}, nil
	}
	return &cachedPoint{next: e, cache: pc}, nil
}

func cacheKey(x features.Vector) string {
	buf := make([]byte, 8*len(x))
	for i, v := range x {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return string(buf)
}

func (pc *predictionCache) get(key string) (cachedPrediction, bool) {
	entry, ok := pc.entries.Get(key)
	if ok && pc.metrics != nil {
		pc.metrics.MLCacheHitsInc()
	}
	return entry, ok
}

type cachedPoint struct {
	next  Estimator
	cache *predictionCache
}

func (c *cachedPoint) Predict(x features.Vector) (int, error) {
	key := cacheKey(x)
	if entry, ok := c.cache.get(key); ok {
		return entry.label, nil
	}
	label, err := c.next.Predict(x)
	if err != nil {
		return 0, err
	}
	c.cache.entries.Add(key, cachedPrediction{label: label})
	return label, nil
}

func (c *cachedPoint) NumFeatures() int {
	if fc, ok := c.next.(FeatureCounter); ok {
		return fc.NumFeatures()
	}
	return 0
}

// cachedProbabilistic fills label and distribution together on a miss, so either call
// for the same vector hits afterwards.
type cachedProbabilistic struct {
	cachedPoint
	proba ProbabilisticEstimator
}

func (c *cachedProbabilistic) Predict(x features.Vector) (int, error) {
	key := cacheKey(x)
	if entry, ok := c.cache.get(key); ok {
		return entry.label, nil
	}
	label, err := c.next.Predict(x)
	if err != nil {
		return 0, err
	}
	// A distribution failure is PredictProba's to report; the label still stands.
	if proba, err := c.proba.PredictProba(x); err == nil {
		c.cache.entries.Add(key, cachedPrediction{label: label, proba: proba})
	}
	return label, nil
}

func (c *cachedProbabilistic) PredictProba(x features.Vector) ([]float64, error) {
	key := cacheKey(x)
	if entry, ok := c.cache.get(key); ok {
		return append([]float64(nil), entry.proba...), nil
	}
	label, err := c.next.Predict(x)
	if err != nil {
		return nil, err
	}
	proba, err := c.proba.PredictProba(x)
	if err != nil {
		return nil, err
	}
	c.cache.entries.Add(key, cachedPrediction{label: label, proba: append([]float64(nil), proba...)})
	return proba, nil
}
