package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Metrics names.
	MetricNameBuildInfo        = "finalbiome_impex_build_info"
	MetricNameErrors           = "finalbiome_impex_errors_total"
	MetricNameKeysScanned      = "finalbiome_impex_keys_scanned_total"
	MetricNamePagesFetched     = "finalbiome_impex_pages_fetched_total"
	MetricNameEntitiesHydrated = "finalbiome_impex_entities_hydrated_total"
	MetricNameTransactions     = "finalbiome_impex_transactions_total"
	MetricNameReplayPhase      = "finalbiome_impex_replay_phase"

	// Labels.
	LabelVersion   = "version"
	LabelCommit    = "commit"
	LabelDate      = "date"
	LabelErrorType = "error_type"
	LabelEntity    = "entity"
	LabelCall      = "call"
	LabelResult    = "result"

	// Results.
	ResultSuccess = "success"
	ResultFailure = "failure"

	// Error types.
	ErrorTypeFetchPage   = "fetch_page"
	ErrorTypeHydrate     = "hydrate"
	ErrorTypeBuild       = "build"
	ErrorTypeTransaction = "transaction"
	ErrorTypeMissingID   = "missing_created_id"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: MetricNameBuildInfo,
			Help: "Build information of the game spec tool",
		},
		[]string{LabelVersion, LabelCommit, LabelDate},
	)

	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameErrors,
			Help: "Number of errors encountered",
		},
		[]string{LabelErrorType},
	)

	KeysScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameKeysScanned,
			Help: "Number of storage keys returned by prefix scans",
		},
	)

	PagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNamePagesFetched,
			Help: "Number of key pages requested from the node",
		},
	)

	EntitiesHydrated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEntitiesHydrated,
			Help: "Number of state entries read by point lookup",
		},
		[]string{LabelEntity},
	)

	Transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTransactions,
			Help: "Number of replay transactions by call and result",
		},
		[]string{LabelCall, LabelResult},
	)

	ReplayPhase = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameReplayPhase,
			Help: "Current replay phase, 0 when idle",
		},
	)
)
