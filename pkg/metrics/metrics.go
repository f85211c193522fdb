package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Ingestion metrics
	MessagesSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_messages_synced_total",
			Help: "New messages stored by history sync",
		},
	)

	DialogsSynced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_dialogs_synced_total",
			Help: "New chats discovered by dialog sync",
		},
	)

	// Analysis metrics
	AnalysesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_analyses_created_total",
			Help: "Message analysis rows created",
		},
	)

	AnalysesUpdated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_analyses_updated_total",
			Help: "Message analysis rows refreshed in place",
		},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyzer_chat_analysis_duration_seconds",
			Help:    "Wall time of one full chat analysis run",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	IntentPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_intent_predictions_total",
			Help: "Intent predictions by label and path",
		},
		[]string{"label", "path"}, // path: "heuristic" or "semantic"
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_embedding_cache_hits_total",
			Help: "Message embeddings served from cache",
		},
	)

	// Background job metrics
	JobFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_job_failures_total",
			Help: "Background jobs that ended in error",
		},
		[]string{"kind"},
	)
)
