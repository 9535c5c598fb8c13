package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Acquisition Metrics
var (
	ChunksFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_chunks_fetched_total",
		Help: "The total number of chunks fetched from archive workers",
	})

	ChunkRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_chunk_retries_total",
		Help: "The total number of retried chunk fetches",
	})

	RecordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_records_fetched_total",
		Help: "The total number of raw block records fetched",
	})

	LastFetchedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "archive_last_fetched_block",
		Help: "The last block number covered by a fetched chunk",
	})

	ChunkFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archive_chunk_fetch_duration_seconds",
		Help:    "Time taken to fetch a single chunk from a worker",
		Buckets: prometheus.DefBuckets,
	})

	WorkerResolutions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archive_worker_resolutions_total",
		Help: "The total number of worker URL lookups against the directory",
	})
)

// Materializer Metrics
var (
	RowsMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "materializer_rows_total",
		Help: "The total number of rows materialized into columns",
	})

	ValuesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "materializer_skipped_values_total",
		Help: "The total number of values skipped due to type coercion failures",
	})

	MaterializeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "materializer_duration_seconds",
		Help:    "Time taken to materialize fetched records into a table",
		Buckets: prometheus.DefBuckets,
	})
)
