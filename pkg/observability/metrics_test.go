package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	// Created once for all subtests: promauto registers against the
	// default registry, so a second NewMetrics in this process would
	// panic on duplicate collector registration.
	m := NewMetrics()

	t.Run("NewMetricsInitializesEveryField", func(t *testing.T) {
		if m == nil {
			t.Fatal("NewMetrics returned nil")
		}
		if m.QueriesTotal == nil || m.QueryErrors == nil || m.QueryLatency == nil || m.QueryResultSize == nil {
			t.Error("query metrics not initialized")
		}
		if m.IndexSize == nil {
			t.Error("IndexSize not initialized")
		}
		if m.IngestRowsTotal == nil || m.IngestErrorTotal == nil {
			t.Error("ingest metrics not initialized")
		}
		if m.CacheHits == nil || m.CacheMisses == nil || m.CacheSize == nil {
			t.Error("cache metrics not initialized")
		}
		if m.ConnectionsAccepted == nil || m.ConnectionsActive == nil {
			t.Error("connection metrics not initialized")
		}
	})

	t.Run("RecordQueryUpdatesCounters", func(t *testing.T) {
		m.RecordQuery("places", 0.002, 5)
		if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("places")); got != 1 {
			t.Fatalf("expected QueriesTotal=1, got %v", got)
		}
	})

	t.Run("RecordQueryErrorUpdatesCounter", func(t *testing.T) {
		m.RecordQueryError("unknown_index")
		if got := testutil.ToFloat64(m.QueryErrors.WithLabelValues("unknown_index")); got != 1 {
			t.Fatalf("expected QueryErrors=1, got %v", got)
		}
	})

	t.Run("CacheHitMissRecording", func(t *testing.T) {
		m.RecordCacheHit()
		m.RecordCacheHit()
		m.RecordCacheMiss()
		if got := testutil.ToFloat64(m.CacheHits); got != 2 {
			t.Fatalf("expected CacheHits=2, got %v", got)
		}
		if got := testutil.ToFloat64(m.CacheMisses); got != 1 {
			t.Fatalf("expected CacheMisses=1, got %v", got)
		}
	})
}
