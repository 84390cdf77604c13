// Package metrics records run metrics in Prometheus form and exports them as
// a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tcm/internal/aggregator"
)

const MetricsNamespace = "tcm"

// Collector follows a run as an aggregator listener.
type Collector struct {
	registry *prometheus.Registry

	unitsTotal      *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	timeoutsTotal   prometheus.Counter
	attemptDuration prometheus.Histogram
	unitsRunning    prometheus.Gauge
	unitsSelected   prometheus.Gauge
	successRate     prometheus.Gauge
}

// NewCollector registers the run metrics on a private registry.
func NewCollector(runID string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"run_id": runID}, reg))

	return &Collector{
		registry: reg,
		unitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "units_total",
			Help:      "Test cases finished, by final outcome",
		}, []string{"outcome"}),
		attemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "attempts_total",
			Help:      "Attempts finished, by outcome",
		}, []string{"outcome"}),
		timeoutsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "attempt_timeouts_total",
			Help:      "Attempts stopped by the per-attempt timeout",
		}),
		attemptDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "attempt_duration_seconds",
			Help:      "Wall time of one attempt",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		unitsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "units_running",
			Help:      "Test cases currently running",
		}),
		unitsSelected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "units_selected",
			Help:      "Test cases selected for the run",
		}),
		successRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "success_rate_percent",
			Help:      "Share of finished test cases that passed",
		}),
	}
}

// OnEvent implements aggregator.Listener.
func (c *Collector) OnEvent(ev aggregator.Event, p aggregator.Progress) {
	c.unitsSelected.Set(float64(p.Total))
	c.unitsRunning.Set(float64(p.Running))
	c.successRate.Set(p.SuccessRate())

	switch ev.Kind {
	case aggregator.EventAttempt:
		c.attemptsTotal.WithLabelValues(ev.Result.Outcome.String()).Inc()
		c.attemptDuration.Observe(ev.Result.Duration.Seconds())
		if ev.Result.TimedOut {
			c.timeoutsTotal.Inc()
		}
	case aggregator.EventFinal:
		c.unitsTotal.WithLabelValues(ev.Result.Outcome.String()).Inc()
	}
}

// WriteFile writes the metrics in text exposition format.
func (c *Collector) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
