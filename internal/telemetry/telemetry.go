package telemetry

import (
	"net/http"
	"time"

	"github.com/mohammad-safakhou/briefer/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item stages counted per source kind.
const (
	StageFetched    = "fetched"
	StageSummarized = "summarized"
	StageSkipped    = "skipped"
	StageFailed     = "failed"
)

// Metrics holds the prometheus collectors of the service. A nil *Metrics
// records nothing, so callers never need to check whether telemetry is on.
type Metrics struct {
	Registry *prometheus.Registry

	items       *prometheus.CounterVec
	runSeconds  *prometheus.HistogramVec
	toolCalls   *prometheus.CounterVec
	briefings   *prometheus.CounterVec
	schedulerRn *prometheus.CounterVec
}

// New returns nil when telemetry is disabled.
func New(cfg config.TelemetryConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "briefer",
			Name:      "pipeline_items_total",
			Help:      "Documents seen by the crawl pipelines, by kind and stage.",
		}, []string{"kind", "stage"}),
		runSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "briefer",
			Name:      "pipeline_run_seconds",
			Help:      "Duration of a pipeline run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"kind"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "briefer",
			Name:      "agent_tool_calls_total",
			Help:      "Agent tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		briefings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "briefer",
			Name:      "briefings_total",
			Help:      "Briefing requests by outcome.",
		}, []string{"outcome"}),
		schedulerRn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "briefer",
			Name:      "scheduler_runs_total",
			Help:      "Scheduled job runs by job and outcome.",
		}, []string{"job", "outcome"}),
	}
	reg.MustRegister(m.items, m.runSeconds, m.toolCalls, m.briefings, m.schedulerRn,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) Item(kind, stage string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(kind, stage).Inc()
}

func (m *Metrics) Items(kind, stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.items.WithLabelValues(kind, stage).Add(float64(n))
}

func (m *Metrics) ObserveRun(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.runSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) ToolCall(tool string, err error) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

func (m *Metrics) Briefing(err error) {
	if m == nil {
		return
	}
	m.briefings.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) SchedulerRun(job string, err error) {
	if m == nil {
		return
	}
	m.schedulerRn.WithLabelValues(job, outcome(err)).Inc()
}

// Handler serves the registry, or 404 when telemetry is off.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
