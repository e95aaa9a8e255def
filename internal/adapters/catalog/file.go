// Package catalog loads user extensions of the phase catalog and the
// pricing table from a TOML file.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/util"
)

// FileName is the catalog file looked up in the config directory.
const FileName = "catalog.toml"

// File is the on-disk layout of a catalog extension.
//
//	[[phases]]
//	name = "research"
//	description = "Reading documentation"
//	weights = { web_search = 3, read_file = 1 }
//
//	[transitions]
//	research = ["planning", "exploration"]
//
//	[[pricing]]
//	model = "my-model"
//	input_per_million = 1.0
//	output_per_million = 2.0
type File struct {
	Phases      []PhaseEntry        `toml:"phases"`
	Transitions map[string][]string `toml:"transitions"`
	Pricing     []PricingEntry      `toml:"pricing"`
}

type PhaseEntry struct {
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Weights     map[string]int `toml:"weights"`
	ErrorBonus  int            `toml:"error_bonus"`
}

type PricingEntry struct {
	Model            string  `toml:"model"`
	InputPerMillion  float64 `toml:"input_per_million"`
	OutputPerMillion float64 `toml:"output_per_million"`
}

// DefaultPath returns the catalog file in the XDG config directory.
func DefaultPath() (string, error) {
	dir, err := util.GetXDGConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load decodes a catalog file. Unknown keys are rejected so typos surface early.
func Load(path string) (*File, error) {
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", domain.ErrInvalidCatalog, path, strings.Join(keys, ", "))
	}
	return &f, nil
}

// LoadOptional loads path when it exists. A missing file yields an empty extension.
func LoadOptional(path string) (*File, error) {
	f, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &File{}, nil
	}
	return f, err
}

// Apply extends the base catalog and pricing table with the file's entries.
// The base table is not modified.
func (f *File) Apply(base *domain.Catalog, pricing domain.PricingTable) (*domain.Catalog, domain.PricingTable, error) {
	phases := make([]domain.PhaseDefinition, 0, len(f.Phases))
	for _, p := range f.Phases {
		phases = append(phases, domain.PhaseDefinition{
			Name:        p.Name,
			Description: p.Description,
			Weights:     p.Weights,
			ErrorBonus:  p.ErrorBonus,
		})
	}

	catalog, err := base.Extend(phases, domain.TransitionTable(f.Transitions))
	if err != nil {
		return nil, nil, err
	}

	table := make(domain.PricingTable, len(pricing)+len(f.Pricing))
	for k, v := range pricing {
		table[k] = v
	}
	for _, p := range f.Pricing {
		if p.Model == "" || p.InputPerMillion < 0 || p.OutputPerMillion < 0 {
			return nil, nil, fmt.Errorf("%w: invalid pricing entry %q", domain.ErrInvalidCatalog, p.Model)
		}
		table[p.Model] = domain.ModelPricing{
			ID:               p.Model,
			InputPerMillion:  p.InputPerMillion,
			OutputPerMillion: p.OutputPerMillion,
		}
	}

	return catalog, table, nil
}
