package canonicalize

import (
	"testing"
	"time"

	"github.com/jonathan/profile-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestParseDate_YearOnly(t *testing.T) {
	d := ParseDate("2019")
	assert.Equal(t, DateKnown, d.Kind)
	assert.Equal(t, GranularityYear, d.Granularity)
	assert.Equal(t, 2019, d.Time.Year())
	assert.Equal(t, "2019", d.Render())
}

func TestParseDate_YearMonth(t *testing.T) {
	d := ParseDate("2019-07")
	assert.Equal(t, DateKnown, d.Kind)
	assert.Equal(t, GranularityMonth, d.Granularity)
	assert.Equal(t, time.July, d.Time.Month())
	assert.Equal(t, "2019-07", d.Render())
}

func TestParseDate_SingleDigitMonth(t *testing.T) {
	d := ParseDate("2019-7")
	assert.Equal(t, DateKnown, d.Kind)
	assert.Equal(t, GranularityMonth, d.Granularity)
	assert.Equal(t, "2019-07", d.Render())
}

func TestParseDate_FullDay(t *testing.T) {
	d := ParseDate("2019-07-15")
	assert.Equal(t, DateKnown, d.Kind)
	assert.Equal(t, GranularityDay, d.Granularity)
	assert.Equal(t, "2019-07-15", d.Render())
}

func TestParseDate_RFC3339(t *testing.T) {
	d := ParseDate("2019-07-15T10:30:00Z")
	assert.Equal(t, DateKnown, d.Kind)
	assert.Equal(t, GranularityDay, d.Granularity)
	assert.Equal(t, "2019-07-15", d.Render())
}

func TestParseDate_Present(t *testing.T) {
	for _, s := range []string{"present", "Present", "PRESENT"} {
		d := ParseDate(s)
		assert.Equal(t, DatePresent, d.Kind, "input %q", s)
		assert.Equal(t, "Present", d.Render())
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	for _, s := range []string{"", "  ", "sometime", "2019ish", "July of that year"} {
		d := ParseDate(s)
		assert.Equal(t, DateUnknown, d.Kind, "input %q", s)
		assert.Equal(t, "", d.Render())
	}
}

func TestBuildRange_CurrentOverridesEnd(t *testing.T) {
	r := BuildRange(types.RawExperience{
		StartDate: "2020-01",
		EndDate:   "2021-06",
		IsCurrent: true,
	})
	assert.Equal(t, DatePresent, r.End.Kind)
}

func TestBuildRange_PresentString(t *testing.T) {
	r := BuildRange(types.RawExperience{StartDate: "2020-01", EndDate: "present"})
	assert.Equal(t, DatePresent, r.End.Kind)
}

func TestOverlapsOrAdjacent_DirectOverlap(t *testing.T) {
	a := BuildRange(types.RawExperience{StartDate: "2019-01", EndDate: "2020-06"})
	b := BuildRange(types.RawExperience{StartDate: "2020-01", EndDate: "2021-01"})
	assert.True(t, OverlapsOrAdjacent(a, b))
	assert.True(t, OverlapsOrAdjacent(b, a))
}

func TestOverlapsOrAdjacent_WithinWindow(t *testing.T) {
	// One month gap: inside the 45-day window.
	a := BuildRange(types.RawExperience{StartDate: "2019-01-01", EndDate: "2019-06-01"})
	b := BuildRange(types.RawExperience{StartDate: "2019-07-01", EndDate: "2019-12-01"})
	assert.True(t, OverlapsOrAdjacent(a, b))
	assert.True(t, OverlapsOrAdjacent(b, a))
}

func TestOverlapsOrAdjacent_BeyondWindow(t *testing.T) {
	// Three month gap: distinct stints.
	a := BuildRange(types.RawExperience{StartDate: "2019-01-01", EndDate: "2019-06-01"})
	b := BuildRange(types.RawExperience{StartDate: "2019-09-15", EndDate: "2019-12-01"})
	assert.False(t, OverlapsOrAdjacent(a, b))
	assert.False(t, OverlapsOrAdjacent(b, a))
}

func TestOverlapsOrAdjacent_UnknownStartCounts(t *testing.T) {
	a := BuildRange(types.RawExperience{EndDate: "2019-06-01"})
	b := BuildRange(types.RawExperience{StartDate: "2021-01-01", EndDate: "2021-12-01"})
	assert.True(t, OverlapsOrAdjacent(a, b))
	assert.True(t, OverlapsOrAdjacent(b, a))
}

func TestOverlapsOrAdjacent_OpenEndedOverlapsLater(t *testing.T) {
	a := BuildRange(types.RawExperience{StartDate: "2018-01", IsCurrent: true})
	b := BuildRange(types.RawExperience{StartDate: "2022-03", EndDate: "2023-01"})
	assert.True(t, OverlapsOrAdjacent(a, b))
}

func TestUnion_WidensBothEnds(t *testing.T) {
	a := BuildRange(types.RawExperience{StartDate: "2020-01", EndDate: "2020-12"})
	b := BuildRange(types.RawExperience{StartDate: "2019-03", EndDate: "2021-06"})
	u := a.Union(b)
	assert.Equal(t, "2019-03", u.Start.Render())
	assert.Equal(t, "2021-06", u.End.Render())
}

func TestUnion_PresentWins(t *testing.T) {
	a := BuildRange(types.RawExperience{StartDate: "2019-01", EndDate: "2020-06"})
	b := BuildRange(types.RawExperience{StartDate: "2020-01", IsCurrent: true})
	u := a.Union(b)
	assert.Equal(t, DatePresent, u.End.Kind)
}

func TestUnion_UnknownStartFilledFromOther(t *testing.T) {
	a := BuildRange(types.RawExperience{EndDate: "2020-06"})
	b := BuildRange(types.RawExperience{StartDate: "2019-01", EndDate: "2019-12"})
	u := a.Union(b)
	assert.Equal(t, "2019-01", u.Start.Render())
}

func TestMonthsBetween(t *testing.T) {
	jan2019 := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 36, monthsBetween(jan2019, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, monthsBetween(jan2019, jan2019))
	assert.Equal(t, 0, monthsBetween(jan2019, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)))
	// Partial month does not count.
	assert.Equal(t, 5, monthsBetween(
		time.Date(2019, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC)))
}
