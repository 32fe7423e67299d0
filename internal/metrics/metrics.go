package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds all Prometheus metrics for the simulator.
type Recorder struct {
	*prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runDuration  prometheus.Histogram
	tradesTotal  *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
}

// NewRecorder creates a metrics recorder with all metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Recorder{
		Registry: reg,

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marlin_runs_total",
				Help: "Total number of backtest runs",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "marlin_run_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
		),
		tradesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marlin_trades_total",
				Help: "Total number of closed trades",
			},
			[]string{"strategy"},
		),
		signalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marlin_signals_total",
				Help: "Total number of actionable signals",
			},
			[]string{"strategy", "type"},
		),
	}

	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.signalsTotal)

	return r
}

// RecordRun records a run completion.
func (r *Recorder) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// RecordTrade records a closed trade.
func (r *Recorder) RecordTrade(strategy string) {
	r.tradesTotal.WithLabelValues(strategy).Inc()
}

// RecordSignal records a signal acted on.
func (r *Recorder) RecordSignal(strategy, signalType string) {
	r.signalsTotal.WithLabelValues(strategy, signalType).Inc()
}
