package core

import (
	"sort"
	"strings"
)

const (
	DomainSTEM       = "STEM"
	DomainHumanities = "Arts & Humanities"
	DomainCommerce   = "Commerce & Business"
	DomainGeneral    = "General"
)

var domainVocabularies = map[string][]string{
	DomainSTEM: {
		"math", "mathematics", "physics", "chemistry", "biology", "science",
		"computer", "technology", "engineering", "statistics", "informatics",
	},
	DomainHumanities: {
		"english", "literature", "history", "geography", "art", "music",
		"language", "philosophy", "drama", "civics", "social",
	},
	DomainCommerce: {
		"economics", "business", "accounting", "accountancy", "commerce",
		"finance", "marketing", "entrepreneurship",
	},
}

// ClassifyDomains maps a subject->score map to the set of broad domains it
// represents, by case-insensitive substring matching against the fixed
// vocabularies. A subject may land in more than one domain. The result is
// never empty: with no recognizable subject it is exactly {General}. The
// returned slice is sorted for determinism.
func ClassifyDomains(subjectScores map[string]float64) []string {
	found := make(map[string]struct{})
	for subject := range subjectScores {
		for _, domain := range matchDomains(subject) {
			found[domain] = struct{}{}
		}
	}

	if len(found) == 0 {
		return []string{DomainGeneral}
	}

	domains := make([]string, 0, len(found))
	for domain := range found {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}

func matchDomains(subject string) []string {
	lower := strings.ToLower(subject)

	var matches []string
	for domain, keywords := range domainVocabularies {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matches = append(matches, domain)
				break
			}
		}
	}
	return matches
}

// DomainSubjectScores returns the subject scores belonging to one domain.
// For General (or a domain with no matching subjects) it falls back to the
// full map, so the domain performance average is always fed from something.
func DomainSubjectScores(domain string, subjectScores map[string]float64) map[string]float64 {
	if domain == DomainGeneral {
		return subjectScores
	}

	matched := make(map[string]float64)
	for subject, score := range subjectScores {
		for _, d := range matchDomains(subject) {
			if d == domain {
				matched[subject] = score
				break
			}
		}
	}
	if len(matched) == 0 {
		return subjectScores
	}
	return matched
}
