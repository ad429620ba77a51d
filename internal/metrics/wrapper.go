package metrics

// MetricsWrapper adapts Metrics to the small method sets the ml and serving packages
// depend on, so neither imports Prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// ml.MetricsInterface

func (w *MetricsWrapper) MLPredictionsInc() { w.m.MLPredictions.Inc() }

func (w *MetricsWrapper) MLFailuresInc() { w.m.MLFailures.Inc() }

func (w *MetricsWrapper) MLLatencyObserve(v float64) { w.m.MLLatency.Observe(v) }

func (w *MetricsWrapper) MLModelAgeSet(v float64) { w.m.MLModelAge.Set(v) }

func (w *MetricsWrapper) MLCacheHitsInc() { w.m.MLCacheHits.Inc() }

// serving.Metrics

func (w *MetricsWrapper) ClientFaultsInc(kind string) {
	w.m.ClientFaults.WithLabelValues(kind).Inc()
	w.m.RequestsTotal.WithLabelValues("INVALID_ARGUMENT").Inc()
}

func (w *MetricsWrapper) ServerFaultsInc() {
	w.m.ServerFaults.Inc()
	w.m.RequestsTotal.WithLabelValues("INTERNAL").Inc()
}

func (w *MetricsWrapper) ConfidenceObserve(v float64) {
	w.m.Confidence.Observe(v)
	w.m.RequestsTotal.WithLabelValues("OK").Inc()
}

func (w *MetricsWrapper) RequestLatencyObserve(v float64) { w.m.RequestLatency.Observe(v) }

// PredictionLogErrorsInc counts a failed prediction log write.
func (w *MetricsWrapper) PredictionLogErrorsInc() { w.m.PredictionLogErrors.Inc() }
