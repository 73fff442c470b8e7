package canonicalize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/dedupe"
	"github.com/jonathan/profile-reconciler/internal/types"
)

// MaxCanonicalBullets is the hard cap on deduplicated bullets per canonical
// experience, regardless of tenure.
const MaxCanonicalBullets = 24

// DefaultSimilarityThreshold is the dedupe threshold used when none is
// configured.
const DefaultSimilarityThreshold = 0.85

// Engine clusters raw experience fragments into canonical experiences.
type Engine struct {
	Deduper             dedupe.Deduper
	SimilarityThreshold float64
	MaxBullets          int
	// Now is injectable for deterministic tenure computation in tests.
	Now func() time.Time
}

// NewEngine returns an Engine with default limits.
func NewEngine(d dedupe.Deduper) *Engine {
	return &Engine{
		Deduper:             d,
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxBullets:          MaxCanonicalBullets,
		Now:                 time.Now,
	}
}

// group is an in-progress cluster. The first member is the anchor used for
// title comparisons.
type group struct {
	identity CompanyIdentity
	rng      Range
	members  []types.RawExperience
	ranges   []Range
}

// GroupExperiences runs the merge algorithm: filter, sort most-recent-first,
// then a single greedy pass appending each record to the first group with the
// same company key, an overlapping-or-adjacent range, and a similar anchor
// title. The pass is greedy by design: a later record merges into the first
// matching group only, it never bridges two already-formed groups.
func (e *Engine) GroupExperiences(ctx context.Context, userID uuid.UUID, recs []types.RawExperience) ([]types.CanonicalExperience, error) {
	usable := make([]types.RawExperience, 0, len(recs))
	for _, rec := range recs {
		if ShouldSkipExperience(rec) {
			continue
		}
		usable = append(usable, rec)
	}

	sort.SliceStable(usable, func(i, j int) bool {
		return BuildRange(usable[i]).effectiveEnd().After(BuildRange(usable[j]).effectiveEnd())
	})

	var groups []*group
	for _, rec := range usable {
		identity, ok := NormalizeCompany(rec.Company)
		if !ok {
			continue
		}
		rng := BuildRange(rec)

		var target *group
		for _, g := range groups {
			if g.identity.Key != identity.Key {
				continue
			}
			if !OverlapsOrAdjacent(g.rng, rng) {
				continue
			}
			if !TitlesAreSimilar(g.members[0].Title, rec.Title) {
				continue
			}
			target = g
			break
		}

		if target == nil {
			groups = append(groups, &group{
				identity: identity,
				rng:      rng,
				members:  []types.RawExperience{rec},
				ranges:   []Range{rng},
			})
			continue
		}

		target.members = append(target.members, rec)
		target.ranges = append(target.ranges, rng)
		target.rng = target.rng.Union(rng)
		if len(strings.TrimSpace(rec.Company)) > len(target.identity.DisplayName) {
			target.identity.DisplayName = strings.TrimSpace(rec.Company)
		}
	}

	out := make([]types.CanonicalExperience, 0, len(groups))
	ends := make(map[uuid.UUID]time.Time, len(groups))
	for _, g := range groups {
		exp, err := e.finalizeGroup(ctx, userID, g)
		if err != nil {
			return nil, err
		}
		ends[exp.ID] = g.rng.effectiveEnd()
		out = append(out, exp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsCurrent != out[j].IsCurrent {
			return out[i].IsCurrent
		}
		return ends[out[i].ID].After(ends[out[j].ID])
	})

	return out, nil
}

// finalizeGroup derives the canonical experience for one finished group.
func (e *Engine) finalizeGroup(ctx context.Context, userID uuid.UUID, g *group) (types.CanonicalExperience, error) {
	exp := types.CanonicalExperience{
		ID:          uuid.New(),
		UserID:      userID,
		CompanyKey:  g.identity.Key,
		CompanyName: g.identity.DisplayName,
	}

	// Locations: distinct non-blank, first-seen order.
	seenLoc := make(map[string]struct{})
	for _, m := range g.members {
		loc := strings.TrimSpace(m.Location)
		if loc == "" {
			continue
		}
		if _, ok := seenLoc[loc]; ok {
			continue
		}
		seenLoc[loc] = struct{}{}
		exp.Locations = append(exp.Locations, loc)
	}
	if len(exp.Locations) > 0 {
		exp.PrimaryLocation = exp.Locations[0]
	}

	exp.TitleProgression = titleProgression(g)
	if len(exp.TitleProgression) > 0 {
		exp.PrimaryTitle = exp.TitleProgression[0]
	} else {
		exp.PrimaryTitle = strings.TrimSpace(g.members[0].Title)
	}

	start, end, isCurrent := resolveGroupDates(g)
	exp.StartDate = start.Render()
	exp.IsCurrent = isCurrent
	if isCurrent {
		exp.EndDate = "Present"
	} else {
		exp.EndDate = end.Render()
	}

	for _, m := range g.members {
		exp.SourceExperienceIDs = append(exp.SourceExperienceIDs, m.ID)
	}

	candidates := flattenBullets(g.members)
	budget := bulletBudget(g, len(candidates), e.MaxBullets, e.Now())
	if budget > 0 {
		threshold := e.SimilarityThreshold
		if threshold == 0 {
			threshold = DefaultSimilarityThreshold
		}
		bullets, err := e.Deduper.Dedupe(ctx, candidates, dedupe.Options{
			SimilarityThreshold: threshold,
			MaxBullets:          budget,
		})
		if err != nil {
			return types.CanonicalExperience{}, fmt.Errorf("failed to dedupe bullets for %s: %w", g.identity.Key, err)
		}
		exp.Bullets = bullets
	}

	return exp, nil
}

// titleProgression returns distinct member titles ordered by member start date
// descending, ties broken by insertion order.
func titleProgression(g *group) []string {
	idx := make([]int, len(g.members))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := g.ranges[idx[a]].Start, g.ranges[idx[b]].Start
		if sa.Kind == DateKnown && sb.Kind == DateKnown {
			return sa.Time.After(sb.Time)
		}
		// Known starts sort ahead of unknown ones.
		return sa.Kind == DateKnown && sb.Kind != DateKnown
	})

	var out []string
	seen := make(map[string]struct{})
	for _, i := range idx {
		title := strings.TrimSpace(g.members[i].Title)
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

// resolveGroupDates finds the earliest member start, the latest known member
// end, and whether any member is ongoing.
func resolveGroupDates(g *group) (start, end DateValue, isCurrent bool) {
	for _, r := range g.ranges {
		if r.Start.Kind == DateKnown {
			if start.Kind != DateKnown || r.Start.Time.Before(start.Time) {
				start = r.Start
			}
		}
		switch r.End.Kind {
		case DatePresent:
			isCurrent = true
		case DateKnown:
			if end.Kind != DateKnown || r.End.Time.After(end.Time) {
				end = r.End
			}
		}
	}
	return start, end, isCurrent
}

// flattenBullets turns all member bullets into one dedupe candidate list.
func flattenBullets(members []types.RawExperience) []types.BulletCandidate {
	var out []types.BulletCandidate
	for _, m := range members {
		for _, b := range m.Bullets {
			content := strings.TrimSpace(b.Content)
			if content == "" {
				continue
			}
			count := b.SourceCount
			if count < 1 {
				count = 1
			}
			cand := types.BulletCandidate{
				SourceID:    b.ID,
				Content:     content,
				SourceCount: count,
				Embedding:   b.Embedding,
			}
			if b.Importance != nil {
				cand.Importance = *b.Importance
			}
			out = append(out, cand)
		}
	}
	return out
}

// bulletBudget maps tenure length to a bullet budget: longer stints earn more
// room. Groups without usable dates keep everything up to the hard cap.
func bulletBudget(g *group, candidateCount, maxBullets int, now time.Time) int {
	if candidateCount == 0 {
		return 0
	}
	if maxBullets <= 0 || maxBullets > MaxCanonicalBullets {
		maxBullets = MaxCanonicalBullets
	}

	start, end, isCurrent := resolveGroupDates(g)

	var budget int
	switch {
	case start.Kind != DateKnown,
		!isCurrent && end.Kind != DateKnown:
		budget = maxBullets
	default:
		until := end.Time
		if isCurrent {
			until = now
		}
		months := monthsBetween(start.Time, until)
		switch {
		case months >= 60:
			budget = 24
		case months >= 48:
			budget = 20
		case months >= 36:
			budget = 16
		case months >= 24:
			budget = 12
		case months >= 12:
			budget = 8
		case months >= 6:
			budget = 5
		default:
			budget = 3
		}
	}

	if budget > maxBullets {
		budget = maxBullets
	}
	if budget > candidateCount {
		budget = candidateCount
	}
	if budget < 1 {
		budget = 1
	}
	return budget
}
