package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/pkg/tui/theme"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
	formatHook   = "hook"
)

type advisoryWriter interface {
	write(advisories []domain.Advisory) error
}

func newAdvisoryWriter(w io.Writer, format string) (advisoryWriter, error) {
	switch format {
	case formatJSON:
		return &jsonWriter{enc: json.NewEncoder(w)}, nil
	case formatPretty:
		return &prettyWriter{w: w, styles: theme.Default()}, nil
	case formatHook:
		return &hookWriter{w: w}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want json, pretty or hook)", format)
	}
}

// advisoryLine is the JSON form of one advisory.
type advisoryLine struct {
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) write(advisories []domain.Advisory) error {
	for _, a := range advisories {
		if err := j.enc.Encode(advisoryLine{
			Source:  a.Source,
			Kind:    string(a.Kind),
			Level:   string(a.Level),
			Message: a.Message,
		}); err != nil {
			return err
		}
	}
	return nil
}

// HookResponse is the output format Claude Code reads from a hook's stdout.
// Ephemeral advisories go to the agent, persisted ones to the user.
type HookResponse struct {
	AdditionalContext string `json:"additionalContext,omitempty"`
	SystemMessage     string `json:"systemMessage,omitempty"`
}

type hookWriter struct {
	w io.Writer
}

func (h *hookWriter) write(advisories []domain.Advisory) error {
	if len(advisories) == 0 {
		return nil
	}

	var agent, user []string
	for _, a := range advisories {
		if a.Kind == domain.Ephemeral {
			agent = append(agent, a.Message)
		} else {
			user = append(user, a.Message)
		}
	}
	return outputJSON(h.w, &HookResponse{
		AdditionalContext: strings.Join(agent, "\n\n"),
		SystemMessage:     strings.Join(user, "\n\n"),
	})
}

// outputJSON writes a HookResponse as one JSON line.
func outputJSON(w io.Writer, resp *HookResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type prettyWriter struct {
	w      io.Writer
	styles *theme.Styles
}

func (p *prettyWriter) write(advisories []domain.Advisory) error {
	for _, a := range advisories {
		tag := p.styles.SourceStyle(a.Source).Render("[" + a.Source + "]")

		var body string
		switch {
		case a.Level == domain.LevelWarning:
			body = p.styles.Warning.Render(a.Message)
		case a.Kind == domain.Persisted && strings.Contains(a.Message, "\n"):
			body = "\n" + p.styles.Card.Render(p.styles.Persisted.Render(a.Message))
		case a.Kind == domain.Persisted:
			body = p.styles.Persisted.Render(a.Message)
		default:
			body = p.styles.Ephemeral.Render(a.Message)
		}

		if _, err := fmt.Fprintf(p.w, "%s %s\n", tag, body); err != nil {
			return err
		}
	}
	return nil
}
