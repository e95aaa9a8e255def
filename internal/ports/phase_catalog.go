package ports

import "github.com/emiliopalmerini/mobserve/internal/domain"

// PhaseCatalog supplies the phases a trajectory is scored against and the
// successors used for prediction.
type PhaseCatalog interface {
	Phases() []domain.PhaseDefinition
	Phase(name string) (domain.PhaseDefinition, bool)
	Successors(name string) []string
}
