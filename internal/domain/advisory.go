package domain

import "fmt"

// AdvisoryKind tells the host how long an advisory lives.
type AdvisoryKind string

const (
	// Ephemeral advisories are shown to the agent for the current turn only.
	Ephemeral AdvisoryKind = "ephemeral"
	// Persisted advisories are shown to the user and kept in history.
	Persisted AdvisoryKind = "persisted"
)

type AdvisoryLevel string

const (
	LevelInfo    AdvisoryLevel = "info"
	LevelWarning AdvisoryLevel = "warning"
)

// Advisory is a message an observer hands back to the host.
// Observers never inject it themselves.
type Advisory struct {
	Source  string
	Kind    AdvisoryKind
	Level   AdvisoryLevel
	Message string
}

func (a Advisory) String() string {
	return fmt.Sprintf("[%s/%s/%s] %s", a.Source, a.Kind, a.Level, a.Message)
}
