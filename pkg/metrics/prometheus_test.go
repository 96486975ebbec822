package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordLookup("overview", "hit")
	r.RecordLookup("overview", "hit")
	r.RecordLookup("overview", "miss")
	r.RecordFetch("overview", "success", 0.2)
	r.RecordFetch("calendar", "error", 1.5)
	r.SetEntries(3)

	if got := testutil.ToFloat64(r.lookups.WithLabelValues("overview", "hit")); got != 2 {
		t.Fatalf("hits = %v", got)
	}
	if got := testutil.ToFloat64(r.fetches.WithLabelValues("calendar", "error")); got != 1 {
		t.Fatalf("calendar errors = %v", got)
	}
	if got := testutil.CollectAndCount(r.latency); got != 2 {
		t.Fatalf("latency series = %d", got)
	}
	if got := testutil.ToFloat64(r.entries); got != 3 {
		t.Fatalf("entries = %v", got)
	}
}

func TestRecorderFoldsSequenceIndices(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordViolation("overview", "top_stocks[2].ticker")
	r.RecordViolation("overview", "top_stocks[7].ticker")
	r.RecordFallback("overview")

	if got := testutil.ToFloat64(r.violations.WithLabelValues("overview", "top_stocks[].ticker")); got != 2 {
		t.Fatalf("violations = %v", got)
	}
	if got := testutil.CollectAndCount(r.violations); got != 1 {
		t.Fatalf("violation series = %d", got)
	}
	if got := testutil.ToFloat64(r.fallbacks.WithLabelValues("overview")); got != 1 {
		t.Fatalf("fallbacks = %v", got)
	}
}
