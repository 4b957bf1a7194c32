// Package metrics records run counters and exports them in the Prometheus
// text format for a node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Target outcomes.
const (
	OutcomeReported = "reported"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// Recorder holds the counters of one run. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	targets      *prometheus.CounterVec
	toolRuns     *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	technologies prometheus.Counter
	results      prometheus.Counter
	interesting  prometheus.Counter
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		targets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intervention",
			Name:      "targets_total",
			Help:      "Targets processed, by outcome.",
		}, []string{"outcome"}),
		toolRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intervention",
			Name:      "tool_runs_total",
			Help:      "External tool invocations, by tool and result.",
		}, []string{"tool", "result"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intervention",
			Name:      "tool_duration_seconds",
			Help:      "Wall time of external tool invocations.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
		}, []string{"tool"}),
		technologies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervention",
			Name:      "technologies_detected_total",
			Help:      "Technologies detected across all targets.",
		}),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervention",
			Name:      "fuzz_results_total",
			Help:      "Results reported by the fuzzer before filtering.",
		}),
		interesting: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervention",
			Name:      "interesting_results_total",
			Help:      "Results kept by the occurrence filter.",
		}),
	}
	r.registry.MustRegister(r.targets, r.toolRuns, r.toolDuration, r.technologies, r.results, r.interesting)
	return r
}

// Target records a target outcome.
func (r *Recorder) Target(outcome string) {
	if r == nil {
		return
	}
	r.targets.WithLabelValues(outcome).Inc()
}

// ToolRun records one external tool invocation.
func (r *Recorder) ToolRun(tool string, seconds float64, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.toolRuns.WithLabelValues(tool, result).Inc()
	r.toolDuration.WithLabelValues(tool).Observe(seconds)
}

// Technologies adds n detected technologies.
func (r *Recorder) Technologies(n int) {
	if r == nil {
		return
	}
	r.technologies.Add(float64(n))
}

// Results adds the fuzzer result count and the retained count.
func (r *Recorder) Results(total, kept int) {
	if r == nil {
		return
	}
	r.results.Add(float64(total))
	r.interesting.Add(float64(kept))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
