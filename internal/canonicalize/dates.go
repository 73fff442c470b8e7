// Package canonicalize implements entity resolution over raw profile fragments:
// record filtering, employer-name normalization, title similarity, temporal range
// resolution, experience grouping, and skill canonicalization.
package canonicalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/profile-reconciler/internal/types"
)

// sentinelDate stands in for "ongoing/present" in interval arithmetic. It never
// escapes this package; rendered output uses the "Present" label instead.
var sentinelDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// adjacencyWindow is the maximum gap between two stints at the same employer
// that still counts as one continuous tenure.
const adjacencyWindow = 45 * 24 * time.Hour

// DateKind tags a parsed date value.
type DateKind int

const (
	// DateUnknown means the source string was absent or unparseable.
	DateUnknown DateKind = iota
	// DateKnown means a concrete calendar date was parsed.
	DateKnown
	// DatePresent means the source said "present" (or the record is current).
	DatePresent
)

// Granularity records how precise the source date string was, so canonical
// output can be re-rendered at the precision it was supplied in.
type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMonth
	GranularityYear
)

// DateValue is a parsed date: Known(time) | Present | Unknown.
type DateValue struct {
	Kind        DateKind
	Time        time.Time // valid only when Kind == DateKnown
	Granularity Granularity
}

var (
	yearRe      = regexp.MustCompile(`^\d{4}$`)
	yearMonthRe = regexp.MustCompile(`^\d{4}-\d{1,2}$`)
)

// dayLayouts are tried in order for anything that is not a bare year or
// year-month. First match wins.
var dayLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
}

// ParseDate parses a loosely formatted date string. Unparseable input yields
// Unknown, never an error: upstream extraction is noisy by nature.
func ParseDate(raw string) DateValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DateValue{Kind: DateUnknown}
	}
	if strings.EqualFold(s, "present") {
		return DateValue{Kind: DatePresent}
	}
	if yearRe.MatchString(s) {
		t, err := time.Parse("2006", s)
		if err != nil {
			return DateValue{Kind: DateUnknown}
		}
		return DateValue{Kind: DateKnown, Time: t, Granularity: GranularityYear}
	}
	if yearMonthRe.MatchString(s) {
		layout := "2006-1"
		if len(s) == 7 {
			layout = "2006-01"
		}
		t, err := time.Parse(layout, s)
		if err != nil {
			return DateValue{Kind: DateUnknown}
		}
		return DateValue{Kind: DateKnown, Time: t, Granularity: GranularityMonth}
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateValue{Kind: DateKnown, Time: t.UTC().Truncate(24 * time.Hour), Granularity: GranularityDay}
		}
	}
	return DateValue{Kind: DateUnknown}
}

// Render formats a known date at its source granularity. Present renders as
// "Present"; Unknown renders as the empty string.
func (d DateValue) Render() string {
	switch d.Kind {
	case DatePresent:
		return "Present"
	case DateKnown:
		switch d.Granularity {
		case GranularityYear:
			return d.Time.Format("2006")
		case GranularityMonth:
			return d.Time.Format("2006-01")
		default:
			return d.Time.Format("2006-01-02")
		}
	default:
		return ""
	}
}

// Range is a resolved employment interval.
type Range struct {
	Start DateValue
	End   DateValue
}

// BuildRange resolves a record's interval. A current record (or one whose end
// parses as "present") gets a Present end regardless of the end string.
func BuildRange(rec types.RawExperience) Range {
	r := Range{
		Start: ParseDate(rec.StartDate),
		End:   ParseDate(rec.EndDate),
	}
	if rec.IsCurrent || r.End.Kind == DatePresent {
		r.End = DateValue{Kind: DatePresent}
	}
	return r
}

// effectiveEnd maps Present and Unknown ends to the sentinel so that open-ended
// intervals compare as unbounded.
func (r Range) effectiveEnd() time.Time {
	if r.End.Kind == DateKnown {
		return r.End.Time
	}
	return sentinelDate
}

// OverlapsOrAdjacent reports whether two intervals overlap, or sit within the
// adjacency window of each other. An unknown start on either side cannot
// disprove overlap, so it counts as overlapping.
func OverlapsOrAdjacent(a, b Range) bool {
	if a.Start.Kind != DateKnown || b.Start.Kind != DateKnown {
		return true
	}
	aEnd, bEnd := a.effectiveEnd(), b.effectiveEnd()
	if !a.Start.Time.After(bEnd) && !b.Start.Time.After(aEnd) {
		return true
	}
	if gap := b.Start.Time.Sub(aEnd); gap >= 0 && gap <= adjacencyWindow {
		return true
	}
	if gap := a.Start.Time.Sub(bEnd); gap >= 0 && gap <= adjacencyWindow {
		return true
	}
	return false
}

// Union widens a to cover b: earliest known start, latest effective end.
func (r Range) Union(other Range) Range {
	out := r
	if out.Start.Kind != DateKnown {
		out.Start = other.Start
	} else if other.Start.Kind == DateKnown && other.Start.Time.Before(out.Start.Time) {
		out.Start = other.Start
	}
	if other.effectiveEnd().After(out.effectiveEnd()) {
		out.End = other.End
	}
	return out
}

// monthsBetween returns whole months from start to end, never negative.
func monthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
