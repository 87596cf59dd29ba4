package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"edusight-backend/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookupTables_CoverAllDomainsAndSkills(t *testing.T) {
	tables := core.DefaultLookupTables()

	for _, domain := range []string{core.DomainSTEM, core.DomainHumanities, core.DomainCommerce, core.DomainGeneral} {
		profile, ok := tables.Domains[domain]
		require.True(t, ok, "missing profile for %s", domain)
		assert.NotEmpty(t, profile.CoreSkills)
		assert.NotEmpty(t, profile.CareerPaths)
		assert.NotEmpty(t, profile.SalaryRange)
	}

	assert.Equal(t, core.ImportanceCritical, tables.Importance(core.SkillCriticalThinking))
	assert.Equal(t, core.ImportanceModerate, tables.Importance("Juggling"))
}

func TestLookupTables_UnknownDomainFallsBackToGeneral(t *testing.T) {
	tables := core.DefaultLookupTables()

	assert.Equal(t, tables.Domains[core.DomainGeneral], tables.DomainProfile("Astrology"))
}

func TestLoadLookupTables_MergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups.yaml")
	content := `
domains:
  STEM:
    core_skills: ["Systems Thinking"]
    salary_range: "50k-160k"
skill_importance:
  Creativity: critical
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tables, err := core.LoadLookupTables(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Systems Thinking"}, tables.Domains[core.DomainSTEM].CoreSkills)
	assert.Equal(t, "50k-160k", tables.Domains[core.DomainSTEM].SalaryRange)
	assert.Equal(t, core.ImportanceCritical, tables.Importance(core.SkillCreativity))

	// Untouched entries keep their defaults.
	assert.Equal(t, core.ImportanceHigh, tables.Importance(core.SkillCommunication))
	assert.NotEmpty(t, tables.Domains[core.DomainCommerce].CareerPaths)
}

func TestLoadLookupTables_RejectsInvalidImportance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookups.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skill_importance:\n  Creativity: essential\n"), 0644))

	_, err := core.LoadLookupTables(path)
	assert.Error(t, err)
}

func TestLoadLookupTables_MissingFile(t *testing.T) {
	_, err := core.LoadLookupTables(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
