package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// The lookup tables are table-driven constants, not derived from reports.
// DefaultLookupTables ships the compiled-in values; deployments can override
// individual entries with a YAML file (see LoadLookupTables).

type DomainProfile struct {
	CoreSkills          []string `yaml:"core_skills"`
	EmergingSkills      []string `yaml:"emerging_skills"`
	CareerPaths         []string `yaml:"career_paths"`
	SalaryRange         string   `yaml:"salary_range"`
	RecommendedSubjects []string `yaml:"recommended_subjects"`
}

type LookupTables struct {
	Domains         map[string]DomainProfile `yaml:"domains"`
	SkillImportance map[string]string        `yaml:"skill_importance"`
}

const (
	ImportanceCritical = "critical"
	ImportanceHigh     = "high"
	ImportanceModerate = "moderate"
)

func DefaultLookupTables() LookupTables {
	return LookupTables{
		Domains: map[string]DomainProfile{
			DomainSTEM: {
				CoreSkills:          []string{"Analytical Reasoning", "Quantitative Methods", "Programming"},
				EmergingSkills:      []string{"Machine Learning", "Data Engineering", "Robotics"},
				CareerPaths:         []string{"Software Engineer", "Data Scientist", "Research Scientist", "Mechanical Engineer"},
				SalaryRange:         "45k-140k",
				RecommendedSubjects: []string{"Mathematics", "Physics", "Computer Science"},
			},
			DomainHumanities: {
				CoreSkills:          []string{"Written Communication", "Critical Analysis", "Research"},
				EmergingSkills:      []string{"Digital Media", "Content Strategy", "UX Writing"},
				CareerPaths:         []string{"Journalist", "Teacher", "Historian", "Content Designer"},
				SalaryRange:         "30k-95k",
				RecommendedSubjects: []string{"English Literature", "History", "Philosophy"},
			},
			DomainCommerce: {
				CoreSkills:          []string{"Financial Literacy", "Negotiation", "Market Analysis"},
				EmergingSkills:      []string{"Fintech", "Business Analytics", "Digital Marketing"},
				CareerPaths:         []string{"Accountant", "Financial Analyst", "Product Manager", "Entrepreneur"},
				SalaryRange:         "35k-120k",
				RecommendedSubjects: []string{"Economics", "Accounting", "Business Studies"},
			},
			DomainGeneral: {
				CoreSkills:          []string{"Communication", "Problem Solving", "Collaboration"},
				EmergingSkills:      []string{"Digital Literacy", "Adaptability"},
				CareerPaths:         []string{"Administrator", "Coordinator", "Generalist"},
				SalaryRange:         "28k-85k",
				RecommendedSubjects: []string{"Mathematics", "English", "Science"},
			},
		},
		SkillImportance: map[string]string{
			SkillCriticalThinking: ImportanceCritical,
			SkillProblemSolving:   ImportanceCritical,
			SkillCommunication:    ImportanceHigh,
			SkillCognitive:        ImportanceHigh,
			SkillCreativity:       ImportanceHigh,
			SkillPractical:        ImportanceModerate,
			SkillSocial:           ImportanceModerate,
		},
	}
}

// LoadLookupTables reads a YAML override file and merges it over the
// defaults. Entries present in the file replace the default entry wholesale;
// everything else keeps its compiled-in value.
func LoadLookupTables(path string) (LookupTables, error) {
	tables := DefaultLookupTables()

	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("error reading lookup tables file %s: %w", path, err)
	}

	var override LookupTables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return tables, fmt.Errorf("error parsing lookup tables file %s: %w", path, err)
	}

	for domain, profile := range override.Domains {
		tables.Domains[domain] = profile
	}
	for skill, importance := range override.SkillImportance {
		switch importance {
		case ImportanceCritical, ImportanceHigh, ImportanceModerate:
			tables.SkillImportance[skill] = importance
		default:
			return tables, fmt.Errorf("invalid importance %q for skill %q in %s", importance, skill, path)
		}
	}

	return tables, nil
}

// DomainProfile returns the profile for a domain, falling back to General so
// rollups never produce an insights row with empty static fields.
func (t LookupTables) DomainProfile(domain string) DomainProfile {
	if profile, ok := t.Domains[domain]; ok {
		return profile
	}
	return t.Domains[DomainGeneral]
}

// Importance returns the lookup importance for a skill, defaulting to
// moderate for skills outside the table.
func (t LookupTables) Importance(skill string) string {
	if importance, ok := t.SkillImportance[skill]; ok {
		return importance
	}
	return ImportanceModerate
}
