// Package profile wires storage, entity resolution, deduplication, and
// embedding enrichment into the canonical profile rebuild operation.
package profile

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/canonicalize"
	"github.com/jonathan/profile-reconciler/internal/llm"
	"github.com/jonathan/profile-reconciler/internal/types"
	"golang.org/x/sync/errgroup"
)

// embedConcurrency bounds parallel embedding backfill calls during persistence.
const embedConcurrency = 4

// Store is the persistence surface the rebuilder needs. *db.DB satisfies it.
type Store interface {
	EnsureUser(ctx context.Context, userID uuid.UUID) error
	ListRawExperiencesByUser(ctx context.Context, userID uuid.UUID) ([]types.RawExperience, error)
	ListRawSkillsByUser(ctx context.Context, userID uuid.UUID) ([]types.RawSkill, error)
	ReplaceCanonicalProfile(ctx context.Context, userID uuid.UUID, profile *types.CanonicalProfile) error
	GetCanonicalProfile(ctx context.Context, userID uuid.UUID) (*types.CanonicalProfile, error)
	CreateRawExperience(ctx context.Context, userID uuid.UUID, req *types.CreateExperienceRequest) (*types.RawExperience, error)
	DeleteRawExperience(ctx context.Context, experienceID uuid.UUID) (uuid.UUID, error)
	CreateRawSkill(ctx context.Context, userID uuid.UUID, req *types.CreateSkillRequest) (*types.RawSkill, error)
}

// Rebuilder recomputes and replaces a user's canonical profile from raw
// fragments. Rebuilds for the same user are mutually exclusive.
type Rebuilder struct {
	store    Store
	engine   *canonicalize.Engine
	embedder llm.Embedder // nil disables embedding backfill

	mu        sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

// NewRebuilder creates a Rebuilder. embedder may be nil; bullets are then
// persisted without embeddings.
func NewRebuilder(store Store, engine *canonicalize.Engine, embedder llm.Embedder) *Rebuilder {
	return &Rebuilder{
		store:     store,
		engine:    engine,
		embedder:  embedder,
		userLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockUser returns the per-user mutex, creating it on first use.
func (r *Rebuilder) lockUser(userID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		r.userLocks[userID] = l
	}
	return l
}

// CanonicalizeProfile fully rebuilds the user's canonical profile: fetch raw
// fragments, run the grouping engine and skill canonicalizer, backfill
// embeddings, and replace stored canonical state. Repeated calls with
// unchanged raw data converge to equivalent output.
func (r *Rebuilder) CanonicalizeProfile(ctx context.Context, userID uuid.UUID) (*types.CanonicalProfile, error) {
	l := r.lockUser(userID)
	l.Lock()
	defer l.Unlock()

	if err := r.store.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	rawExps, err := r.store.ListRawExperiencesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rawSkills, err := r.store.ListRawSkillsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	experiences, err := r.engine.GroupExperiences(ctx, userID, rawExps)
	if err != nil {
		return nil, fmt.Errorf("failed to group experiences: %w", err)
	}
	skills := canonicalize.CanonicalizeSkills(userID, rawSkills)

	profile := &types.CanonicalProfile{Experiences: experiences, Skills: skills}
	r.backfillEmbeddings(ctx, profile)

	if err := r.store.ReplaceCanonicalProfile(ctx, userID, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetCanonicalProfile returns the last-persisted canonical state without
// recomputation.
func (r *Rebuilder) GetCanonicalProfile(ctx context.Context, userID uuid.UUID) (*types.CanonicalProfile, error) {
	return r.store.GetCanonicalProfile(ctx, userID)
}

// backfillEmbeddings fills missing bullet embeddings before persistence. Each
// bullet fails independently: a failed embed is logged and the bullet keeps a
// nil embedding.
func (r *Rebuilder) backfillEmbeddings(ctx context.Context, profile *types.CanonicalProfile) {
	if r.embedder == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range profile.Experiences {
		for j := range profile.Experiences[i].Bullets {
			b := &profile.Experiences[i].Bullets[j]
			if len(b.Embedding) > 0 {
				continue
			}
			g.Go(func() error {
				vec, err := r.embedder.Embed(gctx, b.Content)
				if err != nil {
					log.Printf("[rebuild] warning: failed to embed bullet %s: %v", b.ID, err)
					return nil
				}
				b.Embedding = vec
				return nil
			})
		}
	}
	_ = g.Wait() // workers never return errors
}

// AddExperience records a manual experience edit and rebuilds the profile.
func (r *Rebuilder) AddExperience(ctx context.Context, userID uuid.UUID, req *types.CreateExperienceRequest) (*types.RawExperience, *types.CanonicalProfile, error) {
	exp, err := r.store.CreateRawExperience(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}
	profile, err := r.CanonicalizeProfile(ctx, userID)
	if err != nil {
		return exp, nil, err
	}
	return exp, profile, nil
}

// RemoveExperience deletes a raw experience and rebuilds the owner's profile.
func (r *Rebuilder) RemoveExperience(ctx context.Context, experienceID uuid.UUID) (*types.CanonicalProfile, error) {
	userID, err := r.store.DeleteRawExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	return r.CanonicalizeProfile(ctx, userID)
}

// AddSkill records a manual skill edit and rebuilds the profile.
func (r *Rebuilder) AddSkill(ctx context.Context, userID uuid.UUID, req *types.CreateSkillRequest) (*types.RawSkill, *types.CanonicalProfile, error) {
	skill, err := r.store.CreateRawSkill(ctx, userID, req)
	if err != nil {
		return nil, nil, err
	}
	profile, err := r.CanonicalizeProfile(ctx, userID)
	if err != nil {
		return skill, nil, err
	}
	return skill, profile, nil
}
