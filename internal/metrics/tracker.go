// Package metrics tracks cost, token usage and tool timing of one agent session.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/ports"
)

// Source identifies advisories produced by the tracker.
const Source = "metrics"

// costEpsilon absorbs float drift when counting threshold multiples, so ten
// $0.10 calls cross $1.00. It sits far below the $0.0001 display precision.
const costEpsilon = 1e-9

// ToolStats aggregates the timed invocations of one tool kind.
type ToolStats struct {
	Name  string
	Count int64
	Total time.Duration
}

// Average returns Total / Count, or 0 when nothing was timed.
func (s ToolStats) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Snapshot is a read-only copy of the session metrics.
type Snapshot struct {
	SessionID      string
	StartedAt      time.Time
	CostUSD        float64
	InputTokens    int64
	OutputTokens   int64
	Turn           int64
	WarnedMultiple int64
	PendingTools   int
	UnpricedCalls  int64
	// Tools is ordered by descending total duration, then by name.
	Tools []ToolStats
}

// TotalTokens returns input plus output tokens.
func (s Snapshot) TotalTokens() int64 {
	return s.InputTokens + s.OutputTokens
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now for events that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger for diagnostics. The default discards everything.
func WithLogger(logger domain.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// Tracker accumulates cost, tokens and tool timings for one session.
// It is safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	cfg     Config
	pricing ports.PricingResolver
	logger  domain.Logger
	now     func() time.Time

	sessionID      string
	lastAt         time.Time
	started        bool
	startedAt      time.Time
	costUSD        float64
	inputTokens    int64
	outputTokens   int64
	unpricedCalls  int64
	tools          map[string]*ToolStats
	pending        map[string]time.Time
	turn           int64
	sinceInjection int
	warnedMultiple int64
}

// New creates a tracker. The configuration is validated up front.
func New(cfg Config, pricing ports.PricingResolver, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pricing == nil {
		return nil, fmt.Errorf("%w: pricing resolver is required", ErrInvalidConfig)
	}

	t := &Tracker{
		cfg:     cfg,
		pricing: pricing,
		logger:  domain.NopLogger{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.reset()
	return t, nil
}

func (t *Tracker) Name() string {
	return Source
}

// Handle processes one lifecycle event and returns the advisories it raised.
func (t *Tracker) Handle(ev domain.Event) []domain.Advisory {
	t.mu.Lock()
	defer t.mu.Unlock()

	at := ev.OccurredAt()
	if at.IsZero() {
		at = t.now()
	}
	t.lastAt = at
	if id := ev.Session(); id != "" {
		t.sessionID = id
	}

	switch e := ev.(type) {
	case *domain.SessionStartInput:
		t.reset()
		t.sessionID = e.SessionID
		t.start(at)
		t.logger.Debug(fmt.Sprintf("metrics: session %s started", t.sessionID))
		return nil
	case *domain.ToolPreInput:
		t.start(at)
		t.pending[toolKey(e.ToolUseID, e.ToolName)] = at
		return nil
	case *domain.ToolPostInput:
		t.start(at)
		return t.toolPost(e, at)
	case *domain.ProviderPostInput:
		t.start(at)
		return t.providerPost(e)
	case *domain.SessionEndInput:
		return t.sessionEnd(at)
	default:
		return nil
	}
}

// AdvanceTurn ticks the turn counter and emits a digest when the
// configured number of turns has passed since the last one.
func (t *Tracker) AdvanceTurn() []domain.Advisory {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.turn++
	t.sinceInjection++
	if t.sinceInjection < t.cfg.InjectFrequency {
		return nil
	}
	t.sinceInjection = 0
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Ephemeral,
		Level:   domain.LevelInfo,
		Message: formatDigest(t.snapshot(), t.elapsed(t.clock())),
	}}
}

// Snapshot returns a copy of the current session metrics.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) toolPost(e *domain.ToolPostInput, at time.Time) []domain.Advisory {
	key := toolKey(e.ToolUseID, e.ToolName)
	startedAt, ok := t.pending[key]
	if !ok {
		t.logger.Debug(fmt.Sprintf("metrics: no start time for tool %s (%s), timing skipped", e.ToolName, key))
		return nil
	}
	delete(t.pending, key)

	duration := at.Sub(startedAt)
	if duration < 0 {
		duration = 0
	}

	stats, ok := t.tools[e.ToolName]
	if !ok {
		stats = &ToolStats{Name: e.ToolName}
		t.tools[e.ToolName] = stats
	}
	stats.Count++
	stats.Total += duration

	if duration < t.cfg.SpeedThreshold {
		return nil
	}
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Ephemeral,
		Level:   domain.LevelWarning,
		Message: fmt.Sprintf("Slow tool: %s took %.1fs", e.ToolName, duration.Seconds()),
	}}
}

func (t *Tracker) providerPost(e *domain.ProviderPostInput) []domain.Advisory {
	t.inputTokens += e.Usage.InputTokens
	t.outputTokens += e.Usage.OutputTokens

	cost, ok := t.callCost(e)
	if !ok {
		t.unpricedCalls++
		t.logger.Debug(fmt.Sprintf("metrics: provider call (model %q) could not be priced, cost skipped", e.Model))
		return nil
	}
	t.costUSD += cost

	multiple := crossedMultiple(t.costUSD, t.cfg.CostThreshold)
	if multiple <= t.warnedMultiple {
		return nil
	}
	t.warnedMultiple = multiple
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Persisted,
		Level:   domain.LevelWarning,
		Message: fmt.Sprintf("Cost threshold exceeded: $%.4f", t.costUSD),
	}}
}

// crossedMultiple returns how many whole thresholds the cost has reached.
func crossedMultiple(cost, threshold float64) int64 {
	return int64(math.Floor(cost/threshold + costEpsilon))
}

// callCost prefers a cost reported by the host over pricing the tokens.
func (t *Tracker) callCost(e *domain.ProviderPostInput) (float64, bool) {
	if e.CostUSD != nil {
		if *e.CostUSD < 0 || math.IsNaN(*e.CostUSD) {
			return 0, false
		}
		return *e.CostUSD, true
	}
	if e.Model == "" {
		return 0, false
	}

	pricing, ok := t.pricing.Lookup(e.Model)
	if !ok {
		t.logger.Debug(fmt.Sprintf("metrics: unknown model %s, pricing as %s", e.Model, t.cfg.Model))
		pricing, ok = t.pricing.Lookup(t.cfg.Model)
	}
	if !ok {
		t.logger.Error(fmt.Sprintf("metrics: no pricing for fallback model %s", t.cfg.Model))
		return 0, false
	}
	return pricing.CalculateCost(e.Usage.InputTokens, e.Usage.OutputTokens), true
}

func (t *Tracker) sessionEnd(at time.Time) []domain.Advisory {
	if !t.started {
		return nil
	}
	summary := formatSummary(t.snapshot(), t.elapsed(at))
	t.logger.Debug(fmt.Sprintf("metrics: session %s ended, cost=%.6f", t.sessionID, t.costUSD))
	t.reset()
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Persisted,
		Level:   domain.LevelInfo,
		Message: summary,
	}}
}

// clock returns the time of the latest event, so replays stay deterministic.
func (t *Tracker) clock() time.Time {
	if t.lastAt.IsZero() {
		return t.now()
	}
	return t.lastAt
}

// start records the session start the first time any event is seen.
func (t *Tracker) start(at time.Time) {
	if t.started {
		return
	}
	t.started = true
	t.startedAt = at
}

func (t *Tracker) elapsed(now time.Time) time.Duration {
	if !t.started {
		return 0
	}
	if d := now.Sub(t.startedAt); d > 0 {
		return d
	}
	return 0
}

func (t *Tracker) reset() {
	t.started = false
	t.startedAt = time.Time{}
	t.costUSD = 0
	t.inputTokens = 0
	t.outputTokens = 0
	t.unpricedCalls = 0
	t.tools = make(map[string]*ToolStats)
	t.pending = make(map[string]time.Time)
	t.turn = 0
	t.sinceInjection = 0
	t.warnedMultiple = 0
}

func (t *Tracker) snapshot() Snapshot {
	tools := make([]ToolStats, 0, len(t.tools))
	for _, s := range t.tools {
		tools = append(tools, *s)
	}
	sort.Slice(tools, func(i, j int) bool {
		if tools[i].Total != tools[j].Total {
			return tools[i].Total > tools[j].Total
		}
		return tools[i].Name < tools[j].Name
	})

	return Snapshot{
		SessionID:      t.sessionID,
		StartedAt:      t.startedAt,
		CostUSD:        t.costUSD,
		InputTokens:    t.inputTokens,
		OutputTokens:   t.outputTokens,
		Turn:           t.turn,
		WarnedMultiple: t.warnedMultiple,
		PendingTools:   len(t.pending),
		UnpricedCalls:  t.unpricedCalls,
		Tools:          tools,
	}
}

// toolKey falls back to the tool name when the host sends no invocation id.
func toolKey(id, name string) string {
	if id != "" {
		return id
	}
	return "tool:" + name
}
