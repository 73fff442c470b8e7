package canonicalize

import (
	"strings"
)

// corporateSuffixes are legal-entity and boilerplate words stripped from company
// names before keying, so "Acme Inc." and "ACME" collapse to the same employer.
var corporateSuffixes = map[string]struct{}{
	"inc":          {},
	"llc":          {},
	"corp":         {},
	"co":           {},
	"ltd":          {},
	"limited":      {},
	"company":      {},
	"financial":    {},
	"services":     {},
	"solutions":    {},
	"group":        {},
	"holdings":     {},
	"technologies": {},
	"systems":      {},
}

// CompanyIdentity is a normalized employer: the merge key plus the display form.
type CompanyIdentity struct {
	Key         string
	DisplayName string
}

// NormalizeCompany collapses legal-entity variants of an employer name to one
// key. Returns ok=false for blank or placeholder input.
func NormalizeCompany(raw string) (CompanyIdentity, bool) {
	display := strings.TrimSpace(raw)
	if display == "" || isPlaceholderCompany(display) {
		return CompanyIdentity{}, false
	}

	s := strings.ToLower(display)
	s = strings.NewReplacer(",", " ", ".", " ").Replace(s)

	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, drop := corporateSuffixes[w]; drop {
			continue
		}
		kept = append(kept, w)
	}

	key := strings.Join(kept, " ")
	if key == "" {
		// Name was made up entirely of suffix words; keep the lowercased
		// original so the record still groups with exact duplicates.
		key = strings.Join(words, " ")
	}

	return CompanyIdentity{Key: key, DisplayName: display}, true
}
