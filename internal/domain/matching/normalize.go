package matching

import (
	"regexp"
	"strings"
)

// legalForms lists the corporate-form tokens dropped from company names
// before comparison. Moroccan suppliers commonly appear with and without
// them on invoices and bank statements.
var legalForms = map[string]struct{}{
	"sarl":          {},
	"sa":            {},
	"sas":           {},
	"eurl":          {},
	"snc":           {},
	"scs":           {},
	"societe":       {},
	"société":       {},
	"ste":           {},
	"ets":           {},
	"etablissement": {},
}

var (
	punctuationPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s]+`)
	digitRunPattern    = regexp.MustCompile(`\d+`)
)

// NormalizeCompanyName lowercases a company name, strips legal-form tokens
// and punctuation, and collapses whitespace.
func NormalizeCompanyName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = punctuationPattern.ReplaceAllString(name, " ")

	fields := strings.Fields(name)
	kept := make([]string, 0, len(fields))
	for _, field := range fields {
		if _, isLegalForm := legalForms[field]; isLegalForm {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// NameSimilarity computes the Jaccard token similarity between two company
// names after normalization. Names that normalize to nothing, such as a bare
// legal form, carry no identity signal and score zero.
func NameSimilarity(a, b string) float64 {
	a = NormalizeCompanyName(a)
	b = NormalizeCompanyName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	tokensA := tokenSet(a)
	tokensB := tokenSet(b)

	intersection := 0
	for token := range tokensA {
		if _, shared := tokensB[token]; shared {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{}, 4)
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}

// fuzzyReferenceMatch reports whether two references share a digit run,
// tolerating truncation and OCR noise. At least one run must be four or
// more digits long so short numbers do not collide by accident.
func fuzzyReferenceMatch(a, b string) bool {
	runsA := digitRunPattern.FindAllString(a, -1)
	runsB := digitRunPattern.FindAllString(b, -1)

	for _, runA := range runsA {
		for _, runB := range runsB {
			if !strings.Contains(runA, runB) && !strings.Contains(runB, runA) {
				continue
			}
			if len(runA) >= 4 || len(runB) >= 4 {
				return true
			}
		}
	}
	return false
}
