// Package observer fans lifecycle events out to the metrics tracker and the
// trajectory engine, drives their turn counters and exports the final report.
package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/metrics"
	"github.com/emiliopalmerini/mobserve/internal/ports"
	"github.com/emiliopalmerini/mobserve/internal/trajectory"
)

// Observer is a passive consumer of lifecycle events.
type Observer interface {
	Name() string
	Handle(ev domain.Event) []domain.Advisory
	AdvanceTurn() []domain.Advisory
}

var (
	_ Observer = (*metrics.Tracker)(nil)
	_ Observer = (*trajectory.Engine)(nil)
)

// Option configures a Hub.
type Option func(*Hub)

// WithExporters registers exporters that receive the report of every ended session.
func WithExporters(exporters ...ports.MetricsExporter) Option {
	return func(h *Hub) { h.exporters = append(h.exporters, exporters...) }
}

// WithLogger sets the logger used for export failures.
func WithLogger(logger domain.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// WithTurnOnProvider makes every provider:post count as a turn.
// Hosts that send explicit turn:advance events should disable it.
func WithTurnOnProvider(enabled bool) Option {
	return func(h *Hub) { h.turnOnProvider = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// Hub dispatches events to both observers in a fixed order: metrics first,
// then trajectory.
type Hub struct {
	mu             sync.Mutex
	metrics        *metrics.Tracker
	trajectory     *trajectory.Engine
	observers      []Observer
	exporters      []ports.MetricsExporter
	logger         domain.Logger
	now            func() time.Time
	turnOnProvider bool
	model          string
}

func NewHub(tracker *metrics.Tracker, engine *trajectory.Engine, opts ...Option) *Hub {
	h := &Hub{
		metrics:        tracker,
		trajectory:     engine,
		observers:      []Observer{tracker, engine},
		logger:         domain.NopLogger{},
		now:            time.Now,
		turnOnProvider: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Dispatch delivers one event to every observer and returns the advisories
// they raised, in observer order. Exporter failures are logged, never returned.
func (h *Hub) Dispatch(ctx context.Context, ev domain.Event) []domain.Advisory {
	h.mu.Lock()
	defer h.mu.Unlock()

	var report *ports.SessionReport
	switch e := ev.(type) {
	case *domain.SessionStartInput:
		h.model = e.Model
	case *domain.ProviderPostInput:
		if e.Model != "" {
			h.model = e.Model
		}
	case *domain.SessionEndInput:
		// observers reset on session end, so the report is taken first
		report = h.report(ev)
	}

	var out []domain.Advisory
	for _, o := range h.observers {
		out = append(out, o.Handle(ev)...)
	}

	switch ev.(type) {
	case *domain.ProviderPostInput:
		if h.turnOnProvider {
			out = append(out, h.advanceTurn()...)
		}
	case *domain.TurnAdvanceInput:
		out = append(out, h.advanceTurn()...)
	case *domain.SessionEndInput:
		h.model = ""
	}

	if report != nil {
		h.export(ctx, report)
	}
	return out
}

// AdvanceTurn ticks every observer's turn counter.
func (h *Hub) AdvanceTurn() []domain.Advisory {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.advanceTurn()
}

// Close shuts down every exporter and reports all failures at once.
func (h *Hub) Close(ctx context.Context) error {
	var result *multierror.Error
	for _, exp := range h.exporters {
		if err := exp.Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (h *Hub) advanceTurn() []domain.Advisory {
	var out []domain.Advisory
	for _, o := range h.observers {
		out = append(out, o.AdvanceTurn()...)
	}
	return out
}

func (h *Hub) report(ev domain.Event) *ports.SessionReport {
	m := h.metrics.Snapshot()
	t := h.trajectory.Snapshot()
	if m.StartedAt.IsZero() && len(t.Tools) == 0 {
		return nil
	}

	endedAt := ev.OccurredAt()
	if endedAt.IsZero() {
		endedAt = h.now()
	}
	var duration float64
	if !m.StartedAt.IsZero() && endedAt.After(m.StartedAt) {
		duration = endedAt.Sub(m.StartedAt).Seconds()
	}

	sessionID := m.SessionID
	if sessionID == "" {
		sessionID = ev.Session()
	}

	tools := make([]ports.ToolReport, 0, len(m.Tools))
	for _, s := range m.Tools {
		tools = append(tools, ports.ToolReport{Name: s.Name, Calls: s.Count, TotalSeconds: s.Total.Seconds()})
	}

	return &ports.SessionReport{
		SessionID:        sessionID,
		Model:            h.model,
		TokenInput:       m.InputTokens,
		TokenOutput:      m.OutputTokens,
		CostEstimateUSD:  m.CostUSD,
		DurationSeconds:  duration,
		TurnCount:        m.Turn,
		Tools:            tools,
		FinalPhase:       t.Phase,
		PhaseTransitions: t.Transitions,
		StartedAt:        m.StartedAt,
		EndedAt:          endedAt,
	}
}

func (h *Hub) export(ctx context.Context, r *ports.SessionReport) {
	for _, exp := range h.exporters {
		if err := exp.ExportSessionMetrics(ctx, r); err != nil {
			h.logger.Error(fmt.Sprintf("observer: exporting session %s: %v", r.SessionID, err))
			continue
		}
		h.logger.Debug(fmt.Sprintf("observer: exported session %s", r.SessionID))
	}
}
