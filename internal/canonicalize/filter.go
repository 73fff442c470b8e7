package canonicalize

import (
	"regexp"
	"strings"

	"github.com/jonathan/profile-reconciler/internal/types"
)

// placeholderCompanies are template artifacts that carry no employer identity.
var placeholderCompanies = map[string]struct{}{
	"company name":   {},
	"your company":   {},
	"sample company": {},
	"organization":   {},
	"n/a":            {},
}

// placeholderDateRe matches strings made up only of template runs (YYYY, MM, XX,
// DD) and separators, e.g. "YYYY", "YYYY-MM", "XX/XX".
var placeholderDateRe = regexp.MustCompile(`(?i)^[^a-z0-9]*(?:(?:y{2,}|m{2,}|x{2,}|d{2,})[^a-z0-9]*)+$`)

// isPlaceholderCompany reports whether a company string is a template artifact
// rather than a real employer name.
func isPlaceholderCompany(company string) bool {
	s := strings.ToLower(strings.TrimSpace(company))
	s = strings.Trim(s, "[]{}()<>\"'.:*-_ ")
	_, ok := placeholderCompanies[s]
	return ok
}

// isPlaceholderDate reports whether a date string is a template artifact such as
// "YYYY-MM" or "not provided".
func isPlaceholderDate(date string) bool {
	s := strings.ToLower(strings.TrimSpace(date))
	if s == "" {
		return false
	}
	if strings.Contains(s, "not provided") {
		return true
	}
	return placeholderDateRe.MatchString(s)
}

// usableDate reports whether a date string is present and not a placeholder.
// The literal word "present" counts as usable.
func usableDate(date string) bool {
	s := strings.TrimSpace(date)
	return s != "" && !isPlaceholderDate(s)
}

// ShouldSkipExperience rejects records that are structurally unusable: no
// employer/title identity, or nothing but placeholder dates. A record with only
// a usable start date is open-ended, not unusable.
func ShouldSkipExperience(rec types.RawExperience) bool {
	title := strings.TrimSpace(rec.Title)
	company := strings.TrimSpace(rec.Company)

	if title == "" && (company == "" || isPlaceholderCompany(company)) {
		return true
	}

	if usableDate(rec.StartDate) || usableDate(rec.EndDate) || rec.IsCurrent {
		return false
	}
	return true
}
