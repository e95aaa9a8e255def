package metrics

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/emiliopalmerini/mobserve/internal/domain"
)

var t0 = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return t0.Add(time.Duration(seconds * float64(time.Second)))
}

func base(name string, seconds float64) domain.HookEventBase {
	return domain.HookEventBase{SessionID: "sess-1", HookEventName: name, Timestamp: at(seconds)}
}

func toolPre(name, id string, seconds float64) *domain.ToolPreInput {
	return &domain.ToolPreInput{HookEventBase: base(domain.EventToolPre, seconds), ToolName: name, ToolUseID: id}
}

func toolPost(name, id string, seconds float64) *domain.ToolPostInput {
	return &domain.ToolPostInput{HookEventBase: base(domain.EventToolPost, seconds), ToolName: name, ToolUseID: id}
}

func providerCost(cost float64) *domain.ProviderPostInput {
	return &domain.ProviderPostInput{HookEventBase: base(domain.EventProviderPost, 1), CostUSD: &cost}
}

func providerModel(model string, in, out int64) *domain.ProviderPostInput {
	return &domain.ProviderPostInput{
		HookEventBase: base(domain.EventProviderPost, 1),
		Model:         model,
		Usage:         domain.Usage{InputTokens: in, OutputTokens: out},
	}
}

func newTestTracker(t *testing.T, mutate func(*Config)) *Tracker {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	tr, err := New(cfg, domain.DefaultPricingTable(), WithClock(func() time.Time { return t0 }))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return tr
}

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < 0.000001
}

func assertEqual[T comparable](t *testing.T, name string, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := Config{Model: "", CostThreshold: 0, SpeedThreshold: -time.Second, InjectFrequency: 0}

	_, err := New(cfg, domain.DefaultPricingTable())
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
	for _, want := range []string{"model", "cost_threshold", "speed_threshold", "inject_frequency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %q, got %v", want, err)
		}
	}
}

func TestNew_RequiresPricing(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestTracker_EndToEndSession(t *testing.T) {
	tr := newTestTracker(t, nil)

	tr.Handle(&domain.SessionStartInput{HookEventBase: base(domain.EventSessionStart, 0)})
	tr.Handle(toolPre("glob", "t1", 0))
	tr.Handle(toolPost("glob", "t1", 0.2))
	tr.Handle(toolPre("read_file", "t2", 1))
	tr.Handle(toolPost("read_file", "t2", 1.3))
	tr.Handle(providerModel("claude-sonnet-4-5", 1000, 200))

	snap := tr.Snapshot()
	if !floatEquals(snap.CostUSD, 0.006) {
		t.Errorf("Expected cost 0.006, got %.6f", snap.CostUSD)
	}
	assertEqual(t, "inputTokens", int64(1000), snap.InputTokens)
	assertEqual(t, "outputTokens", int64(200), snap.OutputTokens)
	assertEqual(t, "tool kinds", 2, len(snap.Tools))

	byName := map[string]ToolStats{}
	for _, s := range snap.Tools {
		byName[s.Name] = s
	}
	assertEqual(t, "glob calls", int64(1), byName["glob"].Count)
	assertEqual(t, "glob avg", 200*time.Millisecond, byName["glob"].Average())
	assertEqual(t, "read_file calls", int64(1), byName["read_file"].Count)
	assertEqual(t, "read_file avg", 300*time.Millisecond, byName["read_file"].Average().Round(time.Millisecond))

	out := tr.Handle(&domain.SessionEndInput{HookEventBase: base(domain.EventSessionEnd, 2)})
	if len(out) != 1 {
		t.Fatalf("Expected one summary advisory, got %d", len(out))
	}
	summary := out[0]
	assertEqual(t, "kind", domain.Persisted, summary.Kind)
	for _, want := range []string{"Cost: $0.0060", "Tokens: 1,200", "Input:  1,000", "Output: 200", "Time: 2s", "glob", "read_file"} {
		if !strings.Contains(summary.Message, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, summary.Message)
		}
	}

	// State is discarded once the summary is produced.
	after := tr.Snapshot()
	assertEqual(t, "cost after end", 0.0, after.CostUSD)
	assertEqual(t, "tools after end", 0, len(after.Tools))
}

func TestTracker_CostThresholdWarnsOncePerMultiple(t *testing.T) {
	tr := newTestTracker(t, nil)

	costs := []float64{0.4, 0.4, 0.4, 0.5, 0.4}
	wantWarn := []bool{false, false, true, false, true}

	for i, c := range costs {
		out := tr.Handle(providerCost(c))
		if got := len(out) == 1; got != wantWarn[i] {
			t.Fatalf("call %d (cost %.1f): expected warning=%v, got %v", i+1, c, wantWarn[i], out)
		}
		if wantWarn[i] {
			if !strings.HasPrefix(out[0].Message, "Cost threshold exceeded: $") {
				t.Errorf("unexpected message %q", out[0].Message)
			}
			assertEqual(t, "level", domain.LevelWarning, out[0].Level)
		}
	}

	if out := tr.Handle(providerCost(0)); len(out) != 0 {
		t.Errorf("Expected no warning within the same multiple, got %v", out)
	}
	assertEqual(t, "warnedMultiple", int64(2), tr.Snapshot().WarnedMultiple)
}

func TestTracker_CostThresholdToleratesFloatDrift(t *testing.T) {
	tr := newTestTracker(t, nil)

	warnings := 0
	for i := 0; i < 10; i++ {
		warnings += len(tr.Handle(providerCost(0.10)))
	}

	snap := tr.Snapshot()
	if snap.CostUSD >= 1.0 {
		t.Fatalf("Expected a float sum just below 1.0, got %.17f", snap.CostUSD)
	}
	assertEqual(t, "warnings", 1, warnings)
	assertEqual(t, "warnedMultiple", int64(1), snap.WarnedMultiple)
}

func TestTracker_CostThresholdMessageShowsFourDecimals(t *testing.T) {
	tr := newTestTracker(t, func(c *Config) { c.CostThreshold = 0.5 })

	out := tr.Handle(providerCost(1.23456))
	if len(out) != 1 {
		t.Fatalf("Expected one warning, got %d", len(out))
	}
	assertEqual(t, "message", "Cost threshold exceeded: $1.2346", out[0].Message)
	// Jumping two multiples at once still records the highest one.
	assertEqual(t, "warnedMultiple", int64(2), tr.Snapshot().WarnedMultiple)
}

func TestTracker_SlowToolWarning(t *testing.T) {
	tests := []struct {
		name     string
		end      float64
		wantWarn bool
	}{
		{"slow", 12.3, true},
		{"exactly threshold", 10.0, true},
		{"fast", 3.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTracker(t, nil)
			tr.Handle(toolPre("bash", "t1", 0))
			out := tr.Handle(toolPost("bash", "t1", tt.end))

			if !tt.wantWarn {
				if len(out) != 0 {
					t.Fatalf("Expected no warning, got %v", out)
				}
				return
			}
			if len(out) != 1 {
				t.Fatalf("Expected one warning, got %d", len(out))
			}
			if !strings.Contains(out[0].Message, "bash") {
				t.Errorf("Expected tool name in %q", out[0].Message)
			}
			want := "took 12.3s"
			if tt.end == 10.0 {
				want = "took 10.0s"
			}
			if !strings.Contains(out[0].Message, want) {
				t.Errorf("Expected %q in %q", want, out[0].Message)
			}
			assertEqual(t, "kind", domain.Ephemeral, out[0].Kind)
		})
	}
}

func TestTracker_ToolPostWithoutPreIsIgnored(t *testing.T) {
	tr := newTestTracker(t, nil)

	out := tr.Handle(toolPost("grep", "missing", 30))
	if len(out) != 0 {
		t.Errorf("Expected no advisory, got %v", out)
	}
	assertEqual(t, "tool kinds", 0, len(tr.Snapshot().Tools))
}

func TestTracker_OrphanedToolPreStaysPending(t *testing.T) {
	tr := newTestTracker(t, nil)

	tr.Handle(toolPre("bash", "t1", 0))
	tr.Handle(toolPre("bash", "t2", 1))
	tr.Handle(toolPost("bash", "t2", 2))

	snap := tr.Snapshot()
	assertEqual(t, "pending", 1, snap.PendingTools)
	assertEqual(t, "bash calls", int64(1), snap.Tools[0].Count)
}

func TestTracker_ToolWithoutIDFallsBackToName(t *testing.T) {
	tr := newTestTracker(t, nil)

	tr.Handle(toolPre("grep", "", 0))
	tr.Handle(toolPost("grep", "", 0.5))

	snap := tr.Snapshot()
	assertEqual(t, "grep calls", int64(1), snap.Tools[0].Count)
	assertEqual(t, "pending", 0, snap.PendingTools)
}

func TestTracker_UnknownModelUsesDefaultPricing(t *testing.T) {
	tr := newTestTracker(t, func(c *Config) { c.Model = "claude-opus-4" })

	tr.Handle(providerModel("some-future-model", 1_000_000, 0))

	// claude-opus-4 input is $15 per million.
	if got := tr.Snapshot().CostUSD; !floatEquals(got, 15.0) {
		t.Errorf("Expected fallback cost 15.0, got %.6f", got)
	}
}

func TestTracker_DatedModelUsesPrefixPricing(t *testing.T) {
	tr := newTestTracker(t, nil)

	tr.Handle(providerModel("claude-haiku-4-5-20251001", 0, 1_000_000))

	if got := tr.Snapshot().CostUSD; !floatEquals(got, 5.0) {
		t.Errorf("Expected haiku output cost 5.0, got %.6f", got)
	}
}

func TestTracker_UnpricedCallStillCountsTokens(t *testing.T) {
	tr := newTestTracker(t, nil)

	tr.Handle(&domain.ProviderPostInput{
		HookEventBase: base(domain.EventProviderPost, 1),
		Usage:         domain.Usage{InputTokens: 500, OutputTokens: 50},
	})

	snap := tr.Snapshot()
	assertEqual(t, "cost", 0.0, snap.CostUSD)
	assertEqual(t, "input", int64(500), snap.InputTokens)
	assertEqual(t, "output", int64(50), snap.OutputTokens)
	assertEqual(t, "unpriced", int64(1), snap.UnpricedCalls)
}

func TestTracker_DirectCostTakesPrecedence(t *testing.T) {
	tr := newTestTracker(t, nil)

	cost := 0.25
	tr.Handle(&domain.ProviderPostInput{
		HookEventBase: base(domain.EventProviderPost, 1),
		Model:         "claude-opus-4",
		CostUSD:       &cost,
		Usage:         domain.Usage{InputTokens: 1_000_000},
	})

	if got := tr.Snapshot().CostUSD; !floatEquals(got, 0.25) {
		t.Errorf("Expected reported cost 0.25, got %.6f", got)
	}
}

func TestTracker_DigestCadence(t *testing.T) {
	tr := newTestTracker(t, func(c *Config) { c.InjectFrequency = 3 })
	tr.Handle(&domain.SessionStartInput{HookEventBase: base(domain.EventSessionStart, 0)})
	tr.Handle(toolPre("glob", "t1", 0))
	tr.Handle(toolPost("glob", "t1", 0.5))
	tr.Handle(providerModel("claude-sonnet-4-5", 1000, 200))
	// Last event happened at 1s; push the session clock to 75s.
	tr.Handle(&domain.TurnAdvanceInput{HookEventBase: base(domain.EventTurnAdvance, 75)})

	var emitted []int
	var digest domain.Advisory
	for turn := 1; turn <= 7; turn++ {
		if out := tr.AdvanceTurn(); len(out) > 0 {
			emitted = append(emitted, turn)
			digest = out[0]
		}
	}

	if len(emitted) != 2 || emitted[0] != 3 || emitted[1] != 6 {
		t.Fatalf("Expected digests at turns 3 and 6, got %v", emitted)
	}
	assertEqual(t, "kind", domain.Ephemeral, digest.Kind)
	for _, want := range []string{"Cost: $0.0060", "Tokens: 1,200 (1,000 in, 200 out)", "Time: 1:15 elapsed", "Tools: 1 types used, avg 0.50s per call", "Turn: 6"} {
		if !strings.Contains(digest.Message, want) {
			t.Errorf("Expected digest to contain %q, got:\n%s", want, digest.Message)
		}
	}
}

func TestTracker_SummaryOrdersToolsByTotalDuration(t *testing.T) {
	tr := newTestTracker(t, nil)

	tr.Handle(toolPre("read_file", "a", 0))
	tr.Handle(toolPost("read_file", "a", 1))
	tr.Handle(toolPre("bash", "b", 0))
	tr.Handle(toolPost("bash", "b", 5))
	tr.Handle(toolPre("glob", "c", 0))
	tr.Handle(toolPost("glob", "c", 1))

	snap := tr.Snapshot()
	got := []string{snap.Tools[0].Name, snap.Tools[1].Name, snap.Tools[2].Name}
	want := []string{"bash", "glob", "read_file"}
	for i := range want {
		assertEqual(t, "order", want[i], got[i])
	}

	out := tr.Handle(&domain.SessionEndInput{HookEventBase: base(domain.EventSessionEnd, 90)})
	msg := out[0].Message
	if strings.Index(msg, "bash") > strings.Index(msg, "glob") || strings.Index(msg, "glob") > strings.Index(msg, "read_file") {
		t.Errorf("Expected bash, glob, read_file order in summary:\n%s", msg)
	}
	if !strings.Contains(msg, "Time: 90s (1.5 min)") {
		t.Errorf("Expected elapsed seconds and minutes in summary:\n%s", msg)
	}
}

func TestTracker_SessionEndWithoutEventsIsSilent(t *testing.T) {
	tr := newTestTracker(t, nil)

	if out := tr.Handle(&domain.SessionEndInput{HookEventBase: base(domain.EventSessionEnd, 0)}); len(out) != 0 {
		t.Errorf("Expected no summary for an empty session, got %v", out)
	}
}
