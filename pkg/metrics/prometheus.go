package metrics

import (
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var indexPattern = regexp.MustCompile(`\[\d+\]`)

// Recorder implements query.Metrics and schema.Recorder using Prometheus.
type Recorder struct {
	lookups    *prometheus.CounterVec
	fetches    *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	violations *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	entries    prometheus.Gauge
}

// New registers the dashboard metrics on reg. A nil reg means the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		lookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divdash_cache_lookups_total",
				Help: "Cache lookups by resource and outcome (hit, stale, miss)",
			},
			[]string{"resource", "outcome"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divdash_fetches_total",
				Help: "Backend fetches by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "divdash_fetch_duration_seconds",
				Help:    "Duration of backend fetches including retries and validation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
		violations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divdash_schema_violations_total",
				Help: "Schema violations by schema and field path",
			},
			[]string{"schema", "path"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "divdash_schema_fallbacks_total",
				Help: "Documents replaced by their fallback value",
			},
			[]string{"schema"},
		),
		entries: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "divdash_cache_entries",
				Help: "Number of live cache entries",
			},
		),
	}
}

// RecordLookup records a cache lookup.
func (r *Recorder) RecordLookup(resource, outcome string) {
	r.lookups.WithLabelValues(resource, outcome).Inc()
}

// RecordFetch records a settled fetch and its latency.
func (r *Recorder) RecordFetch(resource, outcome string, seconds float64) {
	r.fetches.WithLabelValues(resource, outcome).Inc()
	r.latency.WithLabelValues(resource).Observe(seconds)
}

// SetEntries sets the live entry gauge.
func (r *Recorder) SetEntries(n int) {
	r.entries.Set(float64(n))
}

// RecordViolation counts a violation. Sequence indices are folded so
// top_stocks[2].ticker and top_stocks[7].ticker share a series.
func (r *Recorder) RecordViolation(schema, path string) {
	r.violations.WithLabelValues(schema, indexPattern.ReplaceAllString(path, "[]")).Inc()
}

// RecordFallback counts a fallback substitution.
func (r *Recorder) RecordFallback(schema string) {
	r.fallbacks.WithLabelValues(schema).Inc()
}
