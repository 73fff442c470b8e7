package canonicalize

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/dedupe"
	"github.com/jonathan/profile-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	e := NewEngine(dedupe.NewEmbeddingDeduper())
	e.Now = func() time.Time {
		return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	return e
}

func rawExp(company, title, start, end string) types.RawExperience {
	return types.RawExperience{
		ID:        uuid.New(),
		Company:   company,
		Title:     title,
		StartDate: start,
		EndDate:   end,
	}
}

func TestGroupExperiences_MergesPromotionAtSameEmployer(t *testing.T) {
	e := testEngine()
	recs := []types.RawExperience{
		rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-06"),
		rawExp("ACME", "Senior Software Engineer", "2021-06", "2022-01"),
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)
	require.Len(t, out, 1)

	exp := out[0]
	assert.Equal(t, "acme", exp.CompanyKey)
	assert.Equal(t, "Acme Inc.", exp.CompanyName)
	assert.Equal(t, []string{"Senior Software Engineer", "Software Engineer"}, exp.TitleProgression)
	assert.Equal(t, "Senior Software Engineer", exp.PrimaryTitle)
	assert.Equal(t, "2019-01", exp.StartDate)
	assert.Equal(t, "2022-01", exp.EndDate)
	assert.False(t, exp.IsCurrent)
	assert.Len(t, exp.SourceExperienceIDs, 2)
}

func TestGroupExperiences_GapBeyondWindowStaysSeparate(t *testing.T) {
	e := testEngine()
	recs := []types.RawExperience{
		rawExp("Acme Inc.", "Software Engineer", "2015-01", "2017-06"),
		rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-01"),
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestGroupExperiences_DifferentRolesAtSameEmployerStaySeparate(t *testing.T) {
	e := testEngine()
	recs := []types.RawExperience{
		rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-06"),
		rawExp("Acme Inc.", "Account Manager", "2020-01", "2021-06"),
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestGroupExperiences_ExcludesPlaceholderCompany(t *testing.T) {
	e := testEngine()
	recs := []types.RawExperience{
		rawExp("Company Name", "Engineer", "2019-01", "2020-01"),
		rawExp("Acme Inc.", "Engineer", "2019-01", "2020-01"),
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "acme", out[0].CompanyKey)
}

func TestGroupExperiences_PartitionsUsableRecords(t *testing.T) {
	e := testEngine()
	recs := []types.RawExperience{
		rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-06"),
		rawExp("ACME", "Senior Software Engineer", "2021-06", "2022-01"),
		rawExp("Initech", "Data Analyst", "2016-03", "2018-11"),
		rawExp("Hooli", "Product Manager", "2022-02", "present"),
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)

	// Every usable record appears in exactly one canonical experience.
	seen := make(map[uuid.UUID]int)
	for _, exp := range out {
		for _, id := range exp.SourceExperienceIDs {
			seen[id]++
		}
	}
	require.Len(t, seen, len(recs))
	for id, n := range seen {
		assert.Equal(t, 1, n, "record %s assigned to %d groups", id, n)
	}
}

func TestGroupExperiences_CurrentSortsFirst(t *testing.T) {
	e := testEngine()
	current := rawExp("Hooli", "Product Manager", "2022-02", "")
	current.IsCurrent = true
	recs := []types.RawExperience{
		rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-06"),
		current,
		rawExp("Initech", "Data Analyst", "2016-03", "2018-11"),
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.True(t, out[0].IsCurrent)
	assert.Equal(t, "Hooli", out[0].CompanyName)
	assert.Equal(t, "Present", out[0].EndDate)
	assert.Equal(t, "Acme Inc.", out[1].CompanyName)
	assert.Equal(t, "Initech", out[2].CompanyName)
}

func TestGroupExperiences_OrderInsensitive(t *testing.T) {
	e := testEngine()
	recs := []types.RawExperience{
		rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-06"),
		rawExp("ACME", "Senior Software Engineer", "2021-06", "2022-01"),
		rawExp("Initech", "Data Analyst", "2016-03", "2018-11"),
	}
	reversed := []types.RawExperience{recs[2], recs[1], recs[0]}

	a, err := e.GroupExperiences(context.Background(), uuid.New(), recs)
	require.NoError(t, err)
	b, err := e.GroupExperiences(context.Background(), uuid.New(), reversed)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].CompanyKey, b[i].CompanyKey)
		assert.Equal(t, a[i].StartDate, b[i].StartDate)
		assert.Equal(t, a[i].EndDate, b[i].EndDate)
		assert.Equal(t, a[i].TitleProgression, b[i].TitleProgression)
	}
}

func TestGroupExperiences_MergesLocationsAndBullets(t *testing.T) {
	e := testEngine()
	a := rawExp("Acme Inc.", "Software Engineer", "2019-01", "2021-06")
	a.Location = "Boston, MA"
	a.Bullets = []types.RawBullet{
		{ID: uuid.New(), Content: "Built the billing pipeline", SourceCount: 2},
		{ID: uuid.New(), Content: "Cut deploy time in half", SourceCount: 1},
	}
	b := rawExp("ACME", "Senior Software Engineer", "2021-06", "2022-01")
	b.Location = "Remote"
	b.Bullets = []types.RawBullet{
		{ID: uuid.New(), Content: "Built the billing pipeline.", SourceCount: 1},
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), []types.RawExperience{a, b})
	require.NoError(t, err)
	require.Len(t, out, 1)

	exp := out[0]
	assert.Len(t, exp.Locations, 2)
	assert.NotEmpty(t, exp.PrimaryLocation)

	// The two billing bullets differ only by punctuation and collapse to one.
	require.Len(t, exp.Bullets, 2)
	assert.Equal(t, "Built the billing pipeline", exp.Bullets[0].Content)
	assert.Equal(t, 3, exp.Bullets[0].SourceCount)
	assert.Len(t, exp.Bullets[0].SupportingSourceIDs, 1)
}

func TestGroupExperiences_EmptyInput(t *testing.T) {
	e := testEngine()
	out, err := e.GroupExperiences(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestBulletBudget_TenureSteps(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"2017-01", "2022-06", 24}, // 65 months
		{"2018-01", "2022-02", 20}, // 49 months
		{"2019-01", "2022-01", 16}, // 36 months
		{"2020-01", "2022-01", 12}, // 24 months
		{"2021-01", "2022-01", 8},  // 12 months
		{"2021-06", "2022-01", 5},  // 7 months
		{"2021-11", "2022-01", 3},  // 2 months
	}

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range cases {
		rec := rawExp("Acme Inc.", "Engineer", tc.start, tc.end)
		g := &group{
			members: []types.RawExperience{rec},
			ranges:  []Range{BuildRange(rec)},
		}
		got := bulletBudget(g, 100, MaxCanonicalBullets, now)
		assert.Equal(t, tc.want, got, "%s to %s", tc.start, tc.end)
	}
}

func TestBulletBudget_NoUsableDatesKeepsEverything(t *testing.T) {
	rec := rawExp("Acme Inc.", "Engineer", "", "")
	g := &group{
		members: []types.RawExperience{rec},
		ranges:  []Range{BuildRange(rec)},
	}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, MaxCanonicalBullets, bulletBudget(g, 100, MaxCanonicalBullets, now))
	assert.Equal(t, 10, bulletBudget(g, 10, MaxCanonicalBullets, now))
}

func TestBulletBudget_CurrentUsesNow(t *testing.T) {
	rec := rawExp("Acme Inc.", "Engineer", "2023-01", "")
	rec.IsCurrent = true
	g := &group{
		members: []types.RawExperience{rec},
		ranges:  []Range{BuildRange(rec)},
	}

	// 17 months as of the fixed clock.
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 8, bulletBudget(g, 100, MaxCanonicalBullets, now))
}

func TestBulletBudget_ClampedToCandidates(t *testing.T) {
	rec := rawExp("Acme Inc.", "Engineer", "2017-01", "2022-06")
	g := &group{
		members: []types.RawExperience{rec},
		ranges:  []Range{BuildRange(rec)},
	}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 4, bulletBudget(g, 4, MaxCanonicalBullets, now))
	assert.Equal(t, 0, bulletBudget(g, 0, MaxCanonicalBullets, now))
}

func TestGroupExperiences_BudgetTruncatesBullets(t *testing.T) {
	e := testEngine()
	rec := rawExp("Acme Inc.", "Engineer", "2021-11", "2022-01") // budget 3
	for i := 0; i < 10; i++ {
		rec.Bullets = append(rec.Bullets, types.RawBullet{
			ID:          uuid.New(),
			Content:     fmt.Sprintf("Did distinct thing number %d", i),
			SourceCount: 10 - i,
		})
	}

	out, err := e.GroupExperiences(context.Background(), uuid.New(), []types.RawExperience{rec})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Bullets, 3)

	// Strongest bullets survive.
	assert.Equal(t, "Did distinct thing number 0", out[0].Bullets[0].Content)
}
