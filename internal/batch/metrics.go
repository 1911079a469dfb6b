package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the Prometheus metrics of batch runs. Batch jobs are short
// lived, so these are pushed to a Pushgateway rather than scraped.
type Collector struct {
	accounts        *prometheus.CounterVec
	riskLevels      *prometheus.CounterVec
	accountDuration prometheus.Histogram
	runDuration     prometheus.Gauge
	lastCompletion  prometheus.Gauge
}

// NewCollector registers the batch metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		accounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aib",
				Subsystem: "batch",
				Name:      "accounts_total",
				Help:      "Accounts processed by batch runs, by status",
			},
			[]string{"status"},
		),
		riskLevels: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "aib",
				Subsystem: "batch",
				Name:      "risk_level_total",
				Help:      "Analyzed accounts by resulting risk level",
			},
			[]string{"risk_level"},
		),
		accountDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "aib",
				Subsystem: "batch",
				Name:      "account_duration_seconds",
				Help:      "Time to load, analyze and store one account",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
		),
		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "aib",
				Subsystem: "batch",
				Name:      "run_duration_seconds",
				Help:      "Duration of the last batch run",
			},
		),
		lastCompletion: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "aib",
				Subsystem: "batch",
				Name:      "last_completion_timestamp_seconds",
				Help:      "Unix time the last batch run finished",
			},
		),
	}
}

func (c *Collector) observeAccount(status, riskLevel string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.accounts.WithLabelValues(status).Inc()
	if riskLevel != "" {
		c.riskLevels.WithLabelValues(riskLevel).Inc()
	}
	c.accountDuration.Observe(elapsed.Seconds())
}

func (c *Collector) observeRun(s *Summary, finished time.Time) {
	if c == nil {
		return
	}
	if s.Skipped > 0 {
		c.accounts.WithLabelValues("skipped").Add(float64(s.Skipped))
	}
	c.runDuration.Set(s.Duration.Seconds())
	c.lastCompletion.Set(float64(finished.Unix()))
}
