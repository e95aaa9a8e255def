// Package trajectory infers the workflow phase of an agent from the tools it
// invokes and predicts the phases likely to follow.
package trajectory

import (
	"fmt"
	"sync"
	"time"

	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/ports"
)

// Source identifies advisories produced by the engine.
const Source = "trajectory"

const (
	// recentToolsShown is the number of tools listed in a digest.
	recentToolsShown = 3
	// errorWindow is how long a failed tool counts toward the error context.
	errorWindow = 60 * time.Second
	// errorContextMin is the number of recent failures that switch the error bonus on.
	errorContextMin = 2
)

// PhaseSpan is one stretch of time spent in a phase.
type PhaseSpan struct {
	Phase     string
	StartedAt time.Time
	Duration  time.Duration
	Open      bool
}

// Snapshot is a read-only copy of the trajectory state.
type Snapshot struct {
	SessionID      string
	Phase          string
	Confidence     float64
	PhaseStartedAt time.Time
	Tools          []string
	Scores         []PhaseScore
	Predicted      []string
	Transitions    int64
	History        []PhaseSpan
	Turn           int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for events that carry no timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger for phase changes. The default discards everything.
func WithLogger(logger domain.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine scores a bounded tool history against a phase catalog.
// It is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	catalog ports.PhaseCatalog
	logger  domain.Logger
	now     func() time.Time

	sessionID      string
	lastAt         time.Time
	history        *window
	errors         []time.Time
	scores         []PhaseScore
	phase          string
	confidence     float64
	phaseStartedAt time.Time
	spans          []PhaseSpan
	transitions    int64
	turn           int64
	sinceInjection int
}

// New creates an engine. The configuration is validated up front.
func New(cfg Config, catalog ports.PhaseCatalog, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: phase catalog is required", ErrInvalidConfig)
	}

	e := &Engine{
		cfg:     cfg,
		catalog: catalog,
		logger:  domain.NopLogger{},
		now:     time.Now,
		history: newWindow(cfg.WindowSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Name() string {
	return Source
}

// Handle processes one lifecycle event and returns the advisories it raised.
func (e *Engine) Handle(ev domain.Event) []domain.Advisory {
	e.mu.Lock()
	defer e.mu.Unlock()

	at := ev.OccurredAt()
	if at.IsZero() {
		at = e.now()
	}
	e.lastAt = at
	if id := ev.Session(); id != "" {
		e.sessionID = id
	}

	switch ev := ev.(type) {
	case *domain.SessionStartInput:
		e.reset()
		e.sessionID = ev.SessionID
		return nil
	case *domain.ToolPostInput:
		return e.toolPost(ev, at)
	case *domain.SessionEndInput:
		return e.sessionEnd(at)
	default:
		return nil
	}
}

// AdvanceTurn ticks the turn counter and emits a digest when the
// configured number of turns has passed since the last one.
func (e *Engine) AdvanceTurn() []domain.Advisory {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.turn++
	e.sinceInjection++
	if e.sinceInjection < e.cfg.InjectFrequency {
		return nil
	}
	e.sinceInjection = 0
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Ephemeral,
		Level:   domain.LevelInfo,
		Message: e.formatDigest(e.clock()),
	}}
}

// Predict returns the likely successors of the current phase.
func (e *Engine) Predict() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.predict()
}

// Snapshot returns a copy of the current trajectory state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(e.clock())
}

func (e *Engine) toolPost(ev *domain.ToolPostInput, at time.Time) []domain.Advisory {
	e.history.push(ev.ToolName)
	if ev.Failed() {
		e.errors = append(e.errors, at)
	}
	e.pruneErrors(at)

	e.scores = Score(e.catalog.Phases(), e.history.items(), len(e.errors) >= errorContextMin)
	candidate, ok := Candidate(e.scores)
	held := e.refreshConfidence()
	if !ok || candidate.Confidence < e.cfg.ConfidenceThreshold || candidate.Phase == e.phase {
		return nil
	}
	// The held phase is only left for a strictly higher score.
	if e.phase != "" && held.Score >= candidate.Score {
		return nil
	}

	previous := e.phase
	e.closeSpan(at)
	e.phase = candidate.Phase
	e.confidence = candidate.Confidence
	e.phaseStartedAt = at
	e.transitions++
	e.logger.Debug(fmt.Sprintf("trajectory: %q -> %q (confidence %.2f)", previous, e.phase, e.confidence))

	def, _ := e.catalog.Phase(e.phase)
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Persisted,
		Level:   domain.LevelInfo,
		Message: fmt.Sprintf("Phase: %s → %s", title(def.Name), def.Description),
	}}
}

// refreshConfidence sets the confidence of the current phase from the latest
// scores and returns the score of that phase.
func (e *Engine) refreshConfidence() PhaseScore {
	if e.phase == "" {
		return PhaseScore{}
	}
	e.confidence = 0
	for _, s := range e.scores {
		if s.Phase == e.phase {
			e.confidence = s.Confidence
			return s
		}
	}
	return PhaseScore{Phase: e.phase}
}

func (e *Engine) pruneErrors(now time.Time) {
	cutoff := now.Add(-errorWindow)
	kept := e.errors[:0]
	for _, t := range e.errors {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.errors = kept
}

func (e *Engine) closeSpan(at time.Time) {
	if e.phase == "" {
		return
	}
	e.spans = append(e.spans, PhaseSpan{
		Phase:     e.phase,
		StartedAt: e.phaseStartedAt,
		Duration:  nonNegative(at.Sub(e.phaseStartedAt)),
	})
}

func (e *Engine) predict() []string {
	if e.phase == "" {
		return nil
	}
	next := e.catalog.Successors(e.phase)
	if len(next) > e.cfg.PredictionLength {
		next = next[:e.cfg.PredictionLength]
	}
	return next
}

func (e *Engine) sessionEnd(at time.Time) []domain.Advisory {
	if e.phase == "" && e.history.len() == 0 {
		return nil
	}
	report := e.formatReport(at)
	e.logger.Debug(fmt.Sprintf("trajectory: session %s ended in phase %q after %d transitions", e.sessionID, e.phase, e.transitions))
	e.reset()
	return []domain.Advisory{{
		Source:  Source,
		Kind:    domain.Persisted,
		Level:   domain.LevelInfo,
		Message: report,
	}}
}

func (e *Engine) reset() {
	e.history.reset()
	e.errors = nil
	e.scores = nil
	e.phase = ""
	e.confidence = 0
	e.phaseStartedAt = time.Time{}
	e.spans = nil
	e.transitions = 0
	e.turn = 0
	e.sinceInjection = 0
}

func (e *Engine) clock() time.Time {
	if e.lastAt.IsZero() {
		return e.now()
	}
	return e.lastAt
}

func (e *Engine) snapshot(now time.Time) Snapshot {
	history := append([]PhaseSpan(nil), e.spans...)
	if e.phase != "" {
		history = append(history, PhaseSpan{
			Phase:     e.phase,
			StartedAt: e.phaseStartedAt,
			Duration:  nonNegative(now.Sub(e.phaseStartedAt)),
			Open:      true,
		})
	}
	return Snapshot{
		SessionID:      e.sessionID,
		Phase:          e.phase,
		Confidence:     e.confidence,
		PhaseStartedAt: e.phaseStartedAt,
		Tools:          e.history.items(),
		Scores:         append([]PhaseScore(nil), e.scores...),
		Predicted:      e.predict(),
		Transitions:    e.transitions,
		History:        history,
		Turn:           e.turn,
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
