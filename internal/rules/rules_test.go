package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-transitions/internal/schemas"
)

func TestLoad_Embedded(t *testing.T) {
	tables, err := Load("")
	require.NoError(t, err)

	assert.NotEmpty(t, tables.Industries.Version)
	assert.Equal(t, "Other", tables.Industries.Default)
	assert.Contains(t, tables.Industries.Labels, "Consulting")
	assert.Equal(t, "Consulting", tables.Industries.Exact["mckinsey & company"])
	assert.NotEmpty(t, tables.Industries.Rules)

	assert.NotEmpty(t, tables.Lexicon.Companies)
	assert.NotEmpty(t, tables.Lexicon.Roles)
	assert.NotEmpty(t, tables.Lexicon.Cues.Compare)
	assert.NotEmpty(t, tables.Lexicon.FollowUps.Clarification)
}

func TestLoad_EmbeddedLabelsCoverRules(t *testing.T) {
	tables := Default()
	labels := make(map[string]bool)
	for _, l := range tables.Industries.Labels {
		labels[l] = true
	}
	for name, label := range tables.Industries.Exact {
		assert.True(t, labels[label], "exact entry %q has unknown label %q", name, label)
	}
	for _, rule := range tables.Industries.Rules {
		assert.True(t, labels[rule.Label], "rule has unknown label %q", rule.Label)
	}
}

func TestLoad_YAMLOverride(t *testing.T) {
	dir := t.TempDir()
	override := `
version: test-1
default: Other
labels: [Consulting, Other]
exact:
  acme strategy: Consulting
rules:
  - label: Consulting
    patterns: ["strategy"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "industries.yaml"), []byte(override), 0644))

	tables, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "test-1", tables.Industries.Version)
	assert.Equal(t, map[string]string{"acme strategy": "Consulting"}, tables.Industries.Exact)
	require.Len(t, tables.Industries.Rules, 1)

	// Lexicon falls back to the embedded table
	assert.Equal(t, Default().Lexicon.Version, tables.Lexicon.Version)
}

func TestLoad_InvalidOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "industries.json"), []byte(`{"version": "x"}`), 0644))

	_, err := Load(dir)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "industries", loadErr.Name)
	assert.Equal(t, filepath.Join(dir, "industries.json"), loadErr.Path)

	var validationErr *schemas.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lexicon.yml"), []byte("version: [unclosed"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lexicon")
}

func TestFormat(t *testing.T) {
	got := Format("Where do people go after {{.Company}}? {{.Company}}!", map[string]string{"Company": "Bain"})
	assert.Equal(t, "Where do people go after Bain? Bain!", got)

	assert.Equal(t, "no placeholders", Format("no placeholders", nil))
}
