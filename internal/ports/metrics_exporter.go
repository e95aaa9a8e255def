package ports

import (
	"context"
	"time"
)

// MetricsExporter exports session metrics to an external observability system.
type MetricsExporter interface {
	// ExportSessionMetrics exports the report of a completed session.
	ExportSessionMetrics(ctx context.Context, r *SessionReport) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// SessionReport contains the final metrics and trajectory of one session.
type SessionReport struct {
	SessionID string
	Model     string

	TokenInput      int64
	TokenOutput     int64
	CostEstimateUSD float64

	DurationSeconds float64
	TurnCount       int64
	Tools           []ToolReport

	FinalPhase       string
	PhaseTransitions int64

	StartedAt time.Time
	EndedAt   time.Time
}

// ToolReport aggregates the timed invocations of one tool kind.
type ToolReport struct {
	Name         string
	Calls        int64
	TotalSeconds float64
}
