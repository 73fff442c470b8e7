// Package dedupe provides budget-constrained semantic deduplication of
// free-text bullet candidates.
package dedupe

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/types"
)

// Options controls one dedupe invocation.
type Options struct {
	// SimilarityThreshold is the minimum cosine similarity for two candidates
	// to be treated as near-duplicates.
	SimilarityThreshold float64
	// MaxBullets caps the number of clusters returned.
	MaxBullets int
}

// Deduper clusters near-duplicate candidates and returns at most MaxBullets
// representatives. Implementations must preserve source attribution and be
// order-insensitive with respect to near-duplicate content.
type Deduper interface {
	Dedupe(ctx context.Context, candidates []types.BulletCandidate, opts Options) ([]types.DedupedBullet, error)
}

// EmbeddingDeduper clusters greedily by cosine similarity against cluster
// representatives. Candidates without embeddings only merge on normalized-text
// equality.
type EmbeddingDeduper struct{}

// NewEmbeddingDeduper returns the default deduper.
func NewEmbeddingDeduper() *EmbeddingDeduper {
	return &EmbeddingDeduper{}
}

type cluster struct {
	rep        types.BulletCandidate
	supporters []types.BulletCandidate
	sims       []float64
}

// Dedupe implements Deduper.
func (d *EmbeddingDeduper) Dedupe(ctx context.Context, candidates []types.BulletCandidate, opts Options) ([]types.DedupedBullet, error) {
	if len(candidates) == 0 || opts.MaxBullets <= 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Rank candidates so the strongest text anchors its cluster. Sorting before
	// clustering also makes the result independent of input order.
	ranked := make([]types.BulletCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.SourceCount != b.SourceCount {
			return a.SourceCount > b.SourceCount
		}
		if a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		if len(a.Content) != len(b.Content) {
			return len(a.Content) > len(b.Content)
		}
		return a.Content < b.Content
	})

	var clusters []*cluster
	for _, cand := range ranked {
		matched := false
		for _, c := range clusters {
			sim, ok := similarity(c.rep, cand, opts.SimilarityThreshold)
			if !ok {
				continue
			}
			c.supporters = append(c.supporters, cand)
			c.sims = append(c.sims, sim)
			matched = true
			break
		}
		if !matched {
			clusters = append(clusters, &cluster{rep: cand})
		}
	}

	// Strongest clusters first: total source count, then representative rank.
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusterWeight(clusters[i]) > clusterWeight(clusters[j])
	})
	if len(clusters) > opts.MaxBullets {
		clusters = clusters[:opts.MaxBullets]
	}

	out := make([]types.DedupedBullet, 0, len(clusters))
	for _, c := range clusters {
		b := types.DedupedBullet{
			ID:                     uuid.New(),
			Content:                c.rep.Content,
			RepresentativeSourceID: c.rep.SourceID,
			SourceCount:            c.rep.SourceCount,
			AvgSimilarity:          1.0,
			Embedding:              c.rep.Embedding,
		}
		for _, s := range c.supporters {
			b.SupportingSourceIDs = append(b.SupportingSourceIDs, s.SourceID)
			b.SourceCount += s.SourceCount
		}
		if len(c.sims) > 0 {
			total := 0.0
			for _, s := range c.sims {
				total += s
			}
			b.AvgSimilarity = total / float64(len(c.sims))
		}
		out = append(out, b)
	}
	return out, nil
}

func clusterWeight(c *cluster) int {
	w := c.rep.SourceCount
	for _, s := range c.supporters {
		w += s.SourceCount
	}
	return w
}

// similarity reports whether two candidates are near-duplicates and how close
// they are. Identical normalized text always merges with similarity 1.
func similarity(a, b types.BulletCandidate, threshold float64) (float64, bool) {
	if normalizeText(a.Content) == normalizeText(b.Content) {
		return 1.0, true
	}
	if len(a.Embedding) == 0 || len(b.Embedding) == 0 {
		return 0, false
	}
	sim := CosineSimilarity(a.Embedding, b.Embedding)
	if sim >= threshold {
		return sim, true
	}
	return 0, false
}

var textCollapseRe = regexp.MustCompile(`[^a-z0-9 ]+`)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = textCollapseRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// CosineSimilarity computes cosine similarity between two vectors. Mismatched
// or zero-length vectors yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
