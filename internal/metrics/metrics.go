package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fxbot",
		Subsystem: "backtest",
		Name:      "runs_total",
		Help:      "Backtest runs by terminal status.",
	}, []string{"status"})

	FillsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fxbot",
		Subsystem: "backtest",
		Name:      "fills_total",
		Help:      "Simulated order fills by side and order type.",
	}, []string{"side", "type"})

	CandlesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fxbot",
		Subsystem: "backtest",
		Name:      "candles_processed_total",
		Help:      "Candles stepped through by the simulation loop.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "fxbot",
		Subsystem: "backtest",
		Name:      "run_duration_seconds",
		Help:      "Wall time of a single backtest run.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	ActiveRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fxbot",
		Subsystem: "scheduler",
		Name:      "active_runs",
		Help:      "Runs currently holding a worker slot.",
	})
)
