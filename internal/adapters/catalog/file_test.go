package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/mobserve/internal/domain"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const extension = `
[[phases]]
name = "research"
description = "Reading documentation"
weights = { Web_Search = 3, read_file = 1 }

[[phases]]
name = "implementation"
description = "Shipping code"
weights = { write_file = 4 }

[transitions]
research = ["planning", "deploy"]

[[pricing]]
model = "local-llama"
input_per_million = 0.1
output_per_million = 0.2
`

func TestLoad_AppliesPhasesAndPricing(t *testing.T) {
	f, err := Load(writeFile(t, extension))
	require.NoError(t, err)

	catalog, pricing, err := f.Apply(domain.DefaultCatalog(), domain.DefaultPricingTable())
	require.NoError(t, err)

	research, ok := catalog.Phase("research")
	require.True(t, ok)
	assert.Equal(t, 3, research.Weight("web_search"))
	assert.Equal(t, []string{domain.PhasePlanning}, catalog.Successors("research"))

	impl, ok := catalog.Phase(domain.PhaseImplementation)
	require.True(t, ok)
	assert.Equal(t, "Shipping code", impl.Description)
	assert.Equal(t, 0, impl.Weight("edit_file"))

	// replaced phases keep their position, new ones are appended
	phases := catalog.Phases()
	assert.Equal(t, domain.PhaseImplementation, phases[3].Name)
	assert.Equal(t, "research", phases[len(phases)-1].Name)

	p, ok := pricing.Lookup("local-llama")
	require.True(t, ok)
	assert.InDelta(t, 0.1, p.InputPerMillion, 1e-9)
	_, ok = pricing.Lookup("claude-sonnet-4-5")
	assert.True(t, ok)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "[[phases]]\nname = \"x\"\nweight = { a = 1 }\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	assert.Contains(t, err.Error(), "weight")
}

func TestLoad_InvalidWeights(t *testing.T) {
	f, err := Load(writeFile(t, "[[phases]]\nname = \"x\"\nweights = { bash = 0 }\n"))
	require.NoError(t, err)

	_, _, err = f.Apply(domain.DefaultCatalog(), domain.DefaultPricingTable())
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}

func TestLoad_InvalidPricing(t *testing.T) {
	f, err := Load(writeFile(t, "[[pricing]]\nmodel = \"m\"\ninput_per_million = -1.0\n"))
	require.NoError(t, err)

	_, _, err = f.Apply(domain.DefaultCatalog(), domain.DefaultPricingTable())
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}

func TestLoadOptional_MissingFile(t *testing.T) {
	f, err := LoadOptional(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	catalog, _, err := f.Apply(domain.DefaultCatalog(), domain.DefaultPricingTable())
	require.NoError(t, err)
	assert.Len(t, catalog.Phases(), len(domain.DefaultPhases()))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "mobserve", FileName), path)
}
