package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Lifecycle event names emitted by the host runtime.
const (
	EventSessionStart = "session:start"
	EventToolPre      = "tool:pre"
	EventToolPost     = "tool:post"
	EventProviderPost = "provider:post"
	EventTurnAdvance  = "turn:advance"
	EventSessionEnd   = "session:end"
)

var (
	ErrMissingEventName = errors.New("missing hook_event_name")
	ErrUnknownEvent     = errors.New("unknown hook event")
)

// Claude Code hook names mapped onto the lifecycle events above.
var eventAliases = map[string]string{
	"SessionStart": EventSessionStart,
	"PreToolUse":   EventToolPre,
	"PostToolUse":  EventToolPost,
	"Stop":         EventTurnAdvance,
	"SessionEnd":   EventSessionEnd,
}

// Event is a lifecycle event delivered to an observer.
type Event interface {
	EventName() string
	Session() string
	// OccurredAt returns the host timestamp, or the zero time when the host did not send one.
	OccurredAt() time.Time
}

// HookEventBase contains fields common to all lifecycle events.
type HookEventBase struct {
	SessionID     string    `json:"session_id"`
	HookEventName string    `json:"hook_event_name"`
	Timestamp     time.Time `json:"timestamp,omitzero"`
}

func (b HookEventBase) EventName() string     { return b.HookEventName }
func (b HookEventBase) Session() string       { return b.SessionID }
func (b HookEventBase) OccurredAt() time.Time { return b.Timestamp }

func (b *HookEventBase) setName(name string) { b.HookEventName = name }

// SetSessionID fills in the session of an event that arrived without one.
func (b *HookEventBase) SetSessionID(id string) { b.SessionID = id }

// SessionStartInput is sent when a session starts.
type SessionStartInput struct {
	HookEventBase
	Model string `json:"model,omitempty"`
}

// ToolPreInput is sent before a tool runs.
type ToolPreInput struct {
	HookEventBase
	ToolName  string `json:"tool_name"`
	ToolUseID string `json:"tool_use_id"`
}

// ToolPostInput is sent after a tool finished, successfully or not.
type ToolPostInput struct {
	HookEventBase
	ToolName  string `json:"tool_name"`
	ToolUseID string `json:"tool_use_id"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether the tool invocation ended with an error.
func (e *ToolPostInput) Failed() bool {
	return e.Error != ""
}

// Usage holds the token counts of a single provider call.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ProviderPostInput is sent after the model provider answered.
// Either CostUSD or Model is needed to price the call.
type ProviderPostInput struct {
	HookEventBase
	Usage   Usage    `json:"usage"`
	Model   string   `json:"model,omitempty"`
	CostUSD *float64 `json:"cost_usd,omitempty"`
}

// TurnAdvanceInput signals that the host moved to the next turn.
type TurnAdvanceInput struct {
	HookEventBase
}

// SessionEndInput is sent when a session ends.
type SessionEndInput struct {
	HookEventBase
	Reason string `json:"reason,omitempty"`
}

// ParseHookEvent parses raw JSON into the appropriate typed event struct.
func ParseHookEvent(data []byte) (Event, error) {
	var base HookEventBase
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to parse hook event: %w", err)
	}

	if base.HookEventName == "" {
		return nil, ErrMissingEventName
	}

	name := base.HookEventName
	if alias, ok := eventAliases[name]; ok {
		name = alias
	}

	var event Event
	switch name {
	case EventSessionStart:
		event = &SessionStartInput{}
	case EventToolPre:
		event = &ToolPreInput{}
	case EventToolPost:
		event = &ToolPostInput{}
	case EventProviderPost:
		event = &ProviderPostInput{}
	case EventTurnAdvance:
		event = &TurnAdvanceInput{}
	case EventSessionEnd:
		event = &SessionEndInput{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, base.HookEventName)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to parse %s event: %w", name, err)
	}
	event.(interface{ setName(string) }).setName(name)
	return event, nil
}
