package prometheus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/mobserve/internal/ports"
)

func TestNewExporter_Disabled(t *testing.T) {
	_, err := NewExporter(Config{Enabled: true})
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = NewExporter(Config{Textfile: "/tmp/x.prom"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestExporter_WritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mobserve.prom")
	exp, err := NewExporter(Config{Enabled: true, Textfile: path})
	require.NoError(t, err)

	report := &ports.SessionReport{
		SessionID:        "sess-1",
		Model:            "claude-sonnet-4-5",
		TokenInput:       1000,
		TokenOutput:      200,
		CostEstimateUSD:  0.006,
		DurationSeconds:  90,
		TurnCount:        4,
		FinalPhase:       "exploration",
		PhaseTransitions: 1,
		Tools:            []ports.ToolReport{{Name: "glob", Calls: 2, TotalSeconds: 0.4}},
		EndedAt:          time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, exp.ExportSessionMetrics(context.Background(), report))
	require.NoError(t, exp.ExportSessionMetrics(context.Background(), report))

	assert.InDelta(t, 2000, testutil.ToFloat64(exp.tokens.WithLabelValues("input")), 1e-9)
	assert.InDelta(t, 0.012, testutil.ToFloat64(exp.cost.WithLabelValues("claude-sonnet-4-5")), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(exp.sessions.WithLabelValues("exploration")), 1e-9)
	assert.InDelta(t, 4, testutil.ToFloat64(exp.toolCalls.WithLabelValues("glob")), 1e-9)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.Contains(text, `mobserve_sessions_total{final_phase="exploration"} 2`), text)
	assert.Contains(t, text, "mobserve_phase_transitions_total 2")
	assert.Contains(t, text, `mobserve_last_session_end_timestamp_seconds{session_id="sess-1"}`)
}

func TestExporter_UndeterminedPhase(t *testing.T) {
	exp, err := NewExporter(Config{Enabled: true, Textfile: filepath.Join(t.TempDir(), "m.prom")})
	require.NoError(t, err)

	require.NoError(t, exp.ExportSessionMetrics(context.Background(), &ports.SessionReport{SessionID: "s"}))

	assert.InDelta(t, 1, testutil.ToFloat64(exp.sessions.WithLabelValues("undetermined")), 1e-9)
	assert.NoError(t, exp.Close(context.Background()))
}
