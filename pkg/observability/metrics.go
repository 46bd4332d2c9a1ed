package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus metric the kNN service exports, adapted
// from the teacher's vector-database Metrics struct: query throughput
// and latency, per-index size, ingestion, query-cache effectiveness and
// connection handling. Only the query and cache hit/miss metrics are fed,
// by the dispatcher; the index-size, ingestion, cache-size and connection
// recorders have no caller in this service. HNSW-layer and tenant-quota gauges from the
// teacher have no analogue here (no layered graph, no multi-tenant quota
// concept) and are dropped rather than carried unused.
type Metrics struct {
	QueriesTotal    *prometheus.CounterVec
	QueryErrors     *prometheus.CounterVec
	QueryLatency    *prometheus.HistogramVec
	QueryResultSize prometheus.Histogram

	IndexSize *prometheus.GaugeVec

	IngestRowsTotal  *prometheus.CounterVec
	IngestErrorTotal *prometheus.CounterVec

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheSize   prometheus.Gauge

	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
}

// NewMetrics creates and registers every metric against the default
// Prometheus registry, exposed by the admin API's /admin/metrics handler.
func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoknn_queries_total",
				Help: "Total number of kNN queries served, by index",
			},
			[]string{"index"},
		),
		QueryErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoknn_query_errors_total",
				Help: "Total number of rejected kNN queries, by reason",
			},
			[]string{"reason"},
		),
		QueryLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geoknn_query_latency_seconds",
				Help:    "kNN query latency in seconds, by index",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"index"},
		),
		QueryResultSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geoknn_query_result_size",
				Help:    "Number of neighbors returned per query",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),
		IndexSize: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "geoknn_index_points",
				Help: "Number of points held by an index",
			},
			[]string{"index"},
		),
		IngestRowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoknn_ingest_rows_total",
				Help: "Total number of rows ingested, by index",
			},
			[]string{"index"},
		),
		IngestErrorTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geoknn_ingest_errors_total",
				Help: "Total number of rows rejected during ingestion, by index",
			},
			[]string{"index"},
		),
		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "geoknn_query_cache_hits_total",
				Help: "Total number of query cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "geoknn_query_cache_misses_total",
				Help: "Total number of query cache misses",
			},
		),
		CacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "geoknn_query_cache_size",
				Help: "Current number of entries in the query cache",
			},
		),
		ConnectionsAccepted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "geoknn_connections_accepted_total",
				Help: "Total number of TCP connections accepted by the query server",
			},
		),
		ConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "geoknn_connections_active",
				Help: "Number of connections currently being handled",
			},
		),
	}
}

// RecordQuery records one completed query's latency, index and result
// size.
func (m *Metrics) RecordQuery(index string, seconds float64, resultSize int) {
	m.QueriesTotal.WithLabelValues(index).Inc()
	m.QueryLatency.WithLabelValues(index).Observe(seconds)
	m.QueryResultSize.Observe(float64(resultSize))
}

// RecordQueryError records one rejected query, tagged with the reason
// (e.g. "unknown_index", "bad_param").
func (m *Metrics) RecordQueryError(reason string) {
	m.QueryErrors.WithLabelValues(reason).Inc()
}

// RecordCacheHit increments the cache hit counter.
func (m *Metrics) RecordCacheHit() { m.CacheHits.Inc() }

// RecordCacheMiss increments the cache miss counter.
func (m *Metrics) RecordCacheMiss() { m.CacheMisses.Inc() }

// UpdateCacheSize sets the current cache occupancy gauge.
func (m *Metrics) UpdateCacheSize(n int) { m.CacheSize.Set(float64(n)) }

// UpdateIndexSize sets the point-count gauge for an index.
func (m *Metrics) UpdateIndexSize(index string, n int) {
	m.IndexSize.WithLabelValues(index).Set(float64(n))
}

// RecordIngestRow increments the ingested-row counter for an index.
func (m *Metrics) RecordIngestRow(index string) {
	m.IngestRowsTotal.WithLabelValues(index).Inc()
}

// RecordIngestError increments the rejected-row counter for an index.
func (m *Metrics) RecordIngestError(index string) {
	m.IngestErrorTotal.WithLabelValues(index).Inc()
}

// RecordConnectionAccepted increments the accepted-connection counter.
func (m *Metrics) RecordConnectionAccepted() { m.ConnectionsAccepted.Inc() }

// SetActiveConnections sets the in-flight connection gauge.
func (m *Metrics) SetActiveConnections(n int) { m.ConnectionsActive.Set(float64(n)) }
