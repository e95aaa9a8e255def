package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Phase names of the default catalog.
const (
	PhaseExploration    = "exploration"
	PhaseAnalysis       = "analysis"
	PhasePlanning       = "planning"
	PhaseImplementation = "implementation"
	PhaseVerification   = "verification"
	PhaseDebugging      = "debugging"
)

var ErrInvalidCatalog = errors.New("invalid phase catalog")

// PhaseDefinition describes a workflow phase by its characteristic tools.
type PhaseDefinition struct {
	Name        string
	Description string
	// Weights maps a tool name to its positive contribution to the phase score.
	// Tool names are matched case-insensitively.
	Weights map[string]int
	// ErrorBonus is added to the score while the session shows repeated tool errors.
	ErrorBonus int
}

// Weight returns the phase weight for a tool, 0 if the tool is no indicator.
func (p PhaseDefinition) Weight(tool string) int {
	return p.Weights[strings.ToLower(tool)]
}

// TransitionTable maps a phase to its plausible successors, most likely first.
type TransitionTable map[string][]string

// Catalog is an ordered, immutable set of phases plus their transition table.
// Order matters: on equal scores the earlier phase wins.
type Catalog struct {
	phases      []PhaseDefinition
	index       map[string]int
	transitions TransitionTable
}

// NewCatalog validates and copies the given phases and transitions.
func NewCatalog(phases []PhaseDefinition, transitions TransitionTable) (*Catalog, error) {
	c := &Catalog{
		phases:      make([]PhaseDefinition, 0, len(phases)),
		index:       make(map[string]int, len(phases)),
		transitions: make(TransitionTable, len(transitions)),
	}

	for _, p := range phases {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: phase without name", ErrInvalidCatalog)
		}
		if _, dup := c.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate phase %q", ErrInvalidCatalog, p.Name)
		}
		if p.ErrorBonus < 0 {
			return nil, fmt.Errorf("%w: phase %q has negative error bonus", ErrInvalidCatalog, p.Name)
		}

		weights := make(map[string]int, len(p.Weights))
		for tool, w := range p.Weights {
			if w <= 0 {
				return nil, fmt.Errorf("%w: phase %q tool %q weight must be positive, got %d", ErrInvalidCatalog, p.Name, tool, w)
			}
			weights[strings.ToLower(tool)] = w
		}
		p.Weights = weights

		c.index[p.Name] = len(c.phases)
		c.phases = append(c.phases, p)
	}

	for from, to := range transitions {
		c.transitions[from] = append([]string(nil), to...)
	}

	return c, nil
}

// Phases returns the phases in catalog order.
func (c *Catalog) Phases() []PhaseDefinition {
	return c.phases
}

func (c *Catalog) Phase(name string) (PhaseDefinition, bool) {
	i, ok := c.index[name]
	if !ok {
		return PhaseDefinition{}, false
	}
	return c.phases[i], true
}

// Successors returns the known successor phases of name, in table order.
// Names that are not in the catalog are skipped.
func (c *Catalog) Successors(name string) []string {
	var out []string
	for _, next := range c.transitions[name] {
		if _, ok := c.index[next]; ok {
			out = append(out, next)
		}
	}
	return out
}

// Transitions returns a copy of the transition table.
func (c *Catalog) Transitions() TransitionTable {
	out := make(TransitionTable, len(c.transitions))
	for k, v := range c.transitions {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Extend returns a new catalog with extra phases appended (or replacing
// phases of the same name) and extra transitions merged in.
func (c *Catalog) Extend(phases []PhaseDefinition, transitions TransitionTable) (*Catalog, error) {
	merged := append([]PhaseDefinition(nil), c.phases...)
	for _, p := range phases {
		if i, ok := c.index[p.Name]; ok {
			merged[i] = p
			continue
		}
		merged = append(merged, p)
	}

	table := c.Transitions()
	for k, v := range transitions {
		table[k] = v
	}
	return NewCatalog(merged, table)
}

// DefaultPhases returns the built-in phase definitions.
func DefaultPhases() []PhaseDefinition {
	return []PhaseDefinition{
		{
			Name:        PhaseExploration,
			Description: "Discovering codebase structure",
			Weights:     map[string]int{"glob": 2, "grep": 2, "read_file": 1, "lsp": 2},
		},
		{
			Name:        PhaseAnalysis,
			Description: "Understanding code and requirements",
			Weights:     map[string]int{"read_file": 2, "lsp": 3, "web_search": 1, "load_skill": 1},
		},
		{
			Name:        PhasePlanning,
			Description: "Designing solution architecture",
			Weights:     map[string]int{"read_file": 1, "delegate": 2},
		},
		{
			Name:        PhaseImplementation,
			Description: "Writing code",
			Weights:     map[string]int{"write_file": 3, "edit_file": 3, "bash": 1},
		},
		{
			Name:        PhaseVerification,
			Description: "Testing and validation",
			Weights:     map[string]int{"bash": 3, "python_check": 3, "read_file": 1},
		},
		{
			Name:        PhaseDebugging,
			Description: "Investigating errors",
			Weights:     map[string]int{"grep": 2, "read_file": 2, "lsp": 2, "bash": 1},
			ErrorBonus:  10,
		},
	}
}

// DefaultTransitions returns the built-in forward progression.
func DefaultTransitions() TransitionTable {
	return TransitionTable{
		PhaseExploration:    {PhaseAnalysis, PhaseExploration},
		PhaseAnalysis:       {PhasePlanning, PhaseExploration},
		PhasePlanning:       {PhaseImplementation, PhaseAnalysis},
		PhaseImplementation: {PhaseVerification, PhaseImplementation},
		PhaseVerification:   {PhaseDebugging, PhaseImplementation},
		PhaseDebugging:      {PhaseImplementation, PhaseExploration},
	}
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPhases(), DefaultTransitions())
	if err != nil {
		panic(err)
	}
	return c
}
