// Package prometheus writes session reports to a Prometheus textfile.
package prometheus

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emiliopalmerini/mobserve/internal/ports"
)

const namespace = "mobserve"

var ErrDisabled = errors.New("Prometheus exporter is disabled or textfile not configured")

// Exporter accumulates session reports in a private registry and rewrites
// the textfile after every session.
type Exporter struct {
	path     string
	registry *prometheus.Registry

	sessions    *prometheus.CounterVec
	tokens      *prometheus.CounterVec
	cost        *prometheus.CounterVec
	duration    prometheus.Histogram
	turns       prometheus.Histogram
	toolCalls   *prometheus.CounterVec
	toolSeconds *prometheus.CounterVec
	transitions prometheus.Counter
	lastSession *prometheus.GaugeVec
}

func NewExporter(cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Textfile == "" {
		return nil, ErrDisabled
	}

	e := &Exporter{
		path:     cfg.Textfile,
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of sessions, by final phase.",
		}, []string{"final_phase"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Total tokens used, by direction.",
		}, []string{"direction"}),
		cost: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cost_usd_total",
			Help:      "Total estimated cost in USD, by model.",
		}, []string{"model"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Session duration in seconds.",
			Buckets:   []float64{60, 300, 900, 1800, 3600, 7200},
		}),
		turns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_turns",
			Help:      "Number of turns per session.",
			Buckets:   prometheus.LinearBuckets(5, 5, 8),
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Timed tool invocations, by tool.",
		}, []string{"tool"}),
		toolSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds_total",
			Help:      "Time spent in tool invocations, by tool.",
		}, []string{"tool"}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Workflow phase transitions.",
		}),
		lastSession: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_session_end_timestamp_seconds",
			Help:      "Unix time the last session ended.",
		}, []string{"session_id"}),
	}

	e.registry.MustRegister(
		e.sessions, e.tokens, e.cost, e.duration, e.turns,
		e.toolCalls, e.toolSeconds, e.transitions, e.lastSession,
	)
	return e, nil
}

// ExportSessionMetrics adds the report to the counters and rewrites the textfile.
func (e *Exporter) ExportSessionMetrics(ctx context.Context, r *ports.SessionReport) error {
	phase := r.FinalPhase
	if phase == "" {
		phase = "undetermined"
	}

	e.sessions.WithLabelValues(phase).Inc()
	e.tokens.WithLabelValues("input").Add(float64(r.TokenInput))
	e.tokens.WithLabelValues("output").Add(float64(r.TokenOutput))
	e.cost.WithLabelValues(r.Model).Add(r.CostEstimateUSD)
	e.duration.Observe(r.DurationSeconds)
	e.turns.Observe(float64(r.TurnCount))
	e.transitions.Add(float64(r.PhaseTransitions))
	for _, tool := range r.Tools {
		e.toolCalls.WithLabelValues(tool.Name).Add(float64(tool.Calls))
		e.toolSeconds.WithLabelValues(tool.Name).Add(tool.TotalSeconds)
	}

	e.lastSession.Reset()
	if !r.EndedAt.IsZero() {
		e.lastSession.WithLabelValues(r.SessionID).Set(float64(r.EndedAt.Unix()))
	}

	if err := prometheus.WriteToTextfile(e.path, e.registry); err != nil {
		return fmt.Errorf("writing textfile %s: %w", e.path, err)
	}
	return nil
}

// Close writes the textfile one last time.
func (e *Exporter) Close(ctx context.Context) error {
	if err := prometheus.WriteToTextfile(e.path, e.registry); err != nil {
		return fmt.Errorf("writing textfile %s: %w", e.path, err)
	}
	return nil
}
