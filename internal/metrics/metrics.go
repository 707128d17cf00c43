package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ---- log scan ----
	LogsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_logs_scanned_total",
		Help: "Total number of contract logs fetched from the log source",
	})

	LogsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mixer_logs_skipped_total",
		Help: "Logs that did not decode as Deposited or Withdrawn",
	})

	LogQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixer_log_queries_total",
			Help: "eth_getLogs calls by result",
		},
		[]string{"result"},
	)

	SenderLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixer_sender_lookups_total",
			Help: "Transaction-by-hash lookups used to attribute withdrawals, by result",
		},
		[]string{"result"},
	)

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mixer_scan_duration_seconds",
		Help:    "Duration of a full activity reconstruction pass",
		Buckets: prometheus.DefBuckets,
	})

	// ---- last snapshot ----
	UserEvents = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mixer_user_events",
			Help: "User events found in the last scan, by kind",
		},
		[]string{"kind"},
	)

	DepositLocked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mixer_deposit_locked",
		Help: "1 when a new deposit is refused until a withdrawal happens",
	})

	WithdrawEligible = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mixer_withdraw_eligible",
		Help: "1 when the 24h withdrawal timer has elapsed",
	})

	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mixer_refreshes_total",
			Help: "Dashboard refreshes by result",
		},
		[]string{"result"},
	)
)

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SetSnapshot publishes the derived state of the last successful refresh.
func SetSnapshot(deposits, withdrawals int, locked, eligible bool) {
	UserEvents.WithLabelValues("deposited").Set(float64(deposits))
	UserEvents.WithLabelValues("withdrawn").Set(float64(withdrawals))
	DepositLocked.Set(boolGauge(locked))
	WithdrawEligible.Set(boolGauge(eligible))
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }
