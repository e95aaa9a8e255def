package trajectory

import "github.com/emiliopalmerini/mobserve/internal/domain"

// PhaseScore is the raw and normalized score of a phase over one window.
type PhaseScore struct {
	Phase      string
	Score      int
	Confidence float64
}

// Score sums, for every phase, the weight of each tool in the window and
// normalizes by the total over all phases. When errorContext is set, phases
// with an error bonus receive it. Scores come back in catalog order.
func Score(phases []domain.PhaseDefinition, tools []string, errorContext bool) []PhaseScore {
	scores := make([]PhaseScore, len(phases))
	total := 0
	for i, p := range phases {
		s := 0
		for _, tool := range tools {
			s += p.Weight(tool)
		}
		if errorContext {
			s += p.ErrorBonus
		}
		scores[i] = PhaseScore{Phase: p.Name, Score: s}
		total += s
	}

	if total == 0 {
		return scores
	}
	for i := range scores {
		scores[i].Confidence = float64(scores[i].Score) / float64(total)
	}
	return scores
}

// Candidate returns the highest scoring phase; the earliest phase wins ties.
// It reports false when no tool matched any phase.
func Candidate(scores []PhaseScore) (PhaseScore, bool) {
	var best PhaseScore
	found := false
	for _, s := range scores {
		if s.Score <= 0 {
			continue
		}
		if !found || s.Score > best.Score {
			best = s
			found = true
		}
	}
	return best, found
}
