package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	names := make([]string, 0, len(c.Phases()))
	for _, p := range c.Phases() {
		names = append(names, p.Name)
	}
	assertEqual(t, "order", "exploration,analysis,planning,implementation,verification,debugging", strings.Join(names, ","))

	impl, ok := c.Phase(PhaseImplementation)
	if !ok {
		t.Fatal("Expected implementation phase")
	}
	assertEqual(t, "write_file", 3, impl.Weight("write_file"))
	assertEqual(t, "Write_File", 3, impl.Weight("Write_File"))
	assertEqual(t, "glob", 0, impl.Weight("glob"))

	analysis, _ := c.Phase(PhaseAnalysis)
	assertEqual(t, "LSP", 3, analysis.Weight("LSP"))

	debugging, _ := c.Phase(PhaseDebugging)
	assertEqual(t, "error bonus", 10, debugging.ErrorBonus)

	assertEqual(t, "verification successors", "debugging,implementation", strings.Join(c.Successors(PhaseVerification), ","))
	assertEqual(t, "unknown successors", 0, len(c.Successors("deploy")))
}

func TestNewCatalog_Validation(t *testing.T) {
	tests := []struct {
		name   string
		phases []PhaseDefinition
		want   string
	}{
		{"missing name", []PhaseDefinition{{Weights: map[string]int{"bash": 1}}}, "without name"},
		{"duplicate", []PhaseDefinition{{Name: "a"}, {Name: "a"}}, "duplicate"},
		{"zero weight", []PhaseDefinition{{Name: "a", Weights: map[string]int{"bash": 0}}}, "must be positive"},
		{"negative bonus", []PhaseDefinition{{Name: "a", ErrorBonus: -1}}, "negative error bonus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.phases, nil)
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("Expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error to mention %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCatalog_SuccessorsSkipUnknownPhases(t *testing.T) {
	c, err := NewCatalog(
		[]PhaseDefinition{{Name: "a"}, {Name: "b"}},
		TransitionTable{"a": {"ghost", "b"}, "b": {"ghost"}},
	)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}

	assertEqual(t, "a", "b", strings.Join(c.Successors("a"), ","))
	assertEqual(t, "b", 0, len(c.Successors("b")))
}

func TestCatalog_Extend(t *testing.T) {
	base := DefaultCatalog()

	ext, err := base.Extend(
		[]PhaseDefinition{
			{Name: PhasePlanning, Description: "Writing a plan", Weights: map[string]int{"todo_write": 3}},
			{Name: "review", Description: "Reviewing a diff", Weights: map[string]int{"git_diff": 2}},
		},
		TransitionTable{PhaseVerification: {"review"}},
	)
	if err != nil {
		t.Fatalf("Extend failed: %v", err)
	}

	planning, _ := ext.Phase(PhasePlanning)
	assertEqual(t, "replaced description", "Writing a plan", planning.Description)
	assertEqual(t, "phase count", 7, len(ext.Phases()))
	assertEqual(t, "appended", "review", ext.Phases()[6].Name)
	assertEqual(t, "successors", "review", strings.Join(ext.Successors(PhaseVerification), ","))

	original, _ := base.Phase(PhasePlanning)
	assertEqual(t, "base untouched", "Designing solution architecture", original.Description)
}

func TestCatalog_TransitionsIsACopy(t *testing.T) {
	c := DefaultCatalog()
	table := c.Transitions()
	table[PhaseExploration][0] = "ghost"

	assertEqual(t, "successor", PhaseAnalysis, c.Successors(PhaseExploration)[0])
}
