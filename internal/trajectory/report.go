package trajectory

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/emiliopalmerini/mobserve/internal/util"
)

const undetermined = "undetermined"

var titleCaser = cases.Title(language.English)

// title renders a phase name for display, e.g. "implementation" -> "Implementation".
func title(name string) string {
	return titleCaser.String(name)
}

func (e *Engine) formatDigest(now time.Time) string {
	var b strings.Builder
	b.WriteString("Trajectory (ephemeral, for your awareness)\n")

	if e.phase == "" {
		// best guess so far, below the threshold
		var confidence float64
		if candidate, ok := Candidate(e.scores); ok {
			confidence = candidate.Confidence
		}
		fmt.Fprintf(&b, "├─ Phase: %s\n", undetermined)
		fmt.Fprintf(&b, "├─ Confidence: %.0f%%\n", confidence*100)
	} else {
		def, _ := e.catalog.Phase(e.phase)
		fmt.Fprintf(&b, "├─ Phase: %s (%s)\n", title(e.phase), def.Description)
		fmt.Fprintf(&b, "├─ Confidence: %.0f%%\n", e.confidence*100)
		fmt.Fprintf(&b, "├─ In phase: %s\n", util.FormatSeconds(nonNegative(now.Sub(e.phaseStartedAt))))
	}

	recent := e.history.recent(recentToolsShown)
	if len(recent) == 0 {
		b.WriteString("├─ Recent tools: none\n")
	} else {
		fmt.Fprintf(&b, "├─ Recent tools: %s\n", strings.Join(recent, ", "))
	}

	fmt.Fprintf(&b, "└─ Predicted: %s", e.formatPath())
	return b.String()
}

// formatPath renders "current → next → next", or the placeholder when
// nothing can be predicted.
func (e *Engine) formatPath() string {
	if e.phase == "" {
		return undetermined
	}
	next := e.predict()
	if len(next) == 0 {
		return title(e.phase) + " (no prediction)"
	}
	parts := make([]string, 0, len(next)+1)
	parts = append(parts, title(e.phase))
	for _, p := range next {
		parts = append(parts, title(p))
	}
	return strings.Join(parts, " → ")
}

func (e *Engine) formatReport(now time.Time) string {
	snap := e.snapshot(now)

	var b strings.Builder
	b.WriteString("TRAJECTORY REPORT\n")
	final := undetermined
	if snap.Phase != "" {
		final = title(snap.Phase)
	}
	fmt.Fprintf(&b, "Final phase: %s\n", final)
	if snap.Phase != "" {
		fmt.Fprintf(&b, "Confidence: %.0f%%\n", snap.Confidence*100)
	}
	fmt.Fprintf(&b, "Transitions: %d", snap.Transitions)

	if len(snap.History) == 0 {
		return b.String()
	}
	b.WriteString("\nPhase History:")
	for _, span := range snap.History {
		fmt.Fprintf(&b, "\n  %-16s %s", title(span.Phase), util.FormatSeconds(span.Duration))
	}
	return b.String()
}
