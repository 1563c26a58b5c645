// Package metrics keeps the process's Prometheus collectors on a private
// registry. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jarvis"

type Metrics struct {
	registry *prometheus.Registry

	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	rounds       prometheus.Histogram
	turns        *prometheus.CounterVec
	records      *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls executed by the dispatch loop.",
		}, []string{"tool", "status"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_rounds",
			Help:      "Model round trips per user turn.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 10},
		}),
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "User turns by outcome category.",
		}, []string{"outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_records_total",
			Help:      "Records visited by batch jobs.",
		}, []string{"job", "outcome"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_runs_total",
			Help:      "Scheduled job runs.",
		}, []string{"job", "status"}),
	}
	m.registry.MustRegister(
		m.toolCalls, m.toolDuration, m.rounds, m.turns, m.records, m.jobRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveTool matches tool.Observer.
func (m *Metrics) ObserveTool(tool string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status(ok)).Inc()
	if d > 0 {
		m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
	}
}

// RejectTool counts a call that was never executed (unknown tool).
func (m *Metrics) RejectTool(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, "rejected").Inc()
}

func (m *Metrics) ObserveTurn(rounds int, outcome string) {
	if m == nil {
		return
	}
	if rounds > 0 {
		m.rounds.Observe(float64(rounds))
	}
	m.turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBatch(job string, filled, skipped, failed int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(job, "filled").Add(float64(filled))
	m.records.WithLabelValues(job, "skipped").Add(float64(skipped))
	m.records.WithLabelValues(job, "failed").Add(float64(failed))
}

func (m *Metrics) ObserveJob(job string, ok bool) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status(ok)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
