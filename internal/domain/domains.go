package domain

import "strings"

// DomainMixed samples questions across every available domain.
const DomainMixed = "Mixed"

// domainSynonyms maps common alternate spellings to canonical domain names.
var domainSynonyms = map[string]string{
	"quant":        "Quantitative",
	"quantitative": "Quantitative",
	"math":         "Quantitative",
	"maths":        "Quantitative",
	"verbal":       "Verbal",
	"english":      "Verbal",
	"gk":           "General Knowledge",
	"general":      "General Knowledge",
}

// ResolveDomain matches a requested question domain against the known set:
// exact first, then case-insensitive, then the synonym table. Returns the
// canonical name.
func ResolveDomain(requested string, known []string) (string, bool) {
	if requested == DomainMixed || strings.EqualFold(requested, DomainMixed) {
		return DomainMixed, true
	}
	for _, k := range known {
		if k == requested {
			return k, true
		}
	}
	for _, k := range known {
		if strings.EqualFold(k, requested) {
			return k, true
		}
	}
	if canonical, ok := domainSynonyms[strings.ToLower(requested)]; ok {
		for _, k := range known {
			if k == canonical {
				return canonical, true
			}
		}
	}
	return "", false
}
