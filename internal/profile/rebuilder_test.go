package profile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/profile-reconciler/internal/canonicalize"
	"github.com/jonathan/profile-reconciler/internal/dedupe"
	"github.com/jonathan/profile-reconciler/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory Store for rebuild tests.
type fakeStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]bool
	experiences map[uuid.UUID][]types.RawExperience
	skills      map[uuid.UUID][]types.RawSkill
	persisted   map[uuid.UUID]*types.CanonicalProfile
	replaceErr  error
	replaces    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[uuid.UUID]bool),
		experiences: make(map[uuid.UUID][]types.RawExperience),
		skills:      make(map[uuid.UUID][]types.RawSkill),
		persisted:   make(map[uuid.UUID]*types.CanonicalProfile),
	}
}

func (s *fakeStore) EnsureUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = true
	return nil
}

func (s *fakeStore) ListRawExperiencesByUser(_ context.Context, userID uuid.UUID) ([]types.RawExperience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.experiences[userID], nil
}

func (s *fakeStore) ListRawSkillsByUser(_ context.Context, userID uuid.UUID) ([]types.RawSkill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skills[userID], nil
}

func (s *fakeStore) ReplaceCanonicalProfile(_ context.Context, userID uuid.UUID, profile *types.CanonicalProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaces++
	s.persisted[userID] = profile
	return nil
}

func (s *fakeStore) GetCanonicalProfile(_ context.Context, userID uuid.UUID) (*types.CanonicalProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.persisted[userID]; ok {
		return p, nil
	}
	return &types.CanonicalProfile{}, nil
}

func (s *fakeStore) CreateRawExperience(_ context.Context, userID uuid.UUID, req *types.CreateExperienceRequest) (*types.RawExperience, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp := types.RawExperience{
		ID:        uuid.New(),
		UserID:    userID,
		Company:   req.Company,
		Title:     req.Title,
		Location:  req.Location,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsCurrent: req.IsCurrent,
	}
	for _, b := range req.Bullets {
		exp.Bullets = append(exp.Bullets, types.RawBullet{
			ID:          uuid.New(),
			Content:     b.Content,
			SourceCount: 1,
			Importance:  b.Importance,
		})
	}
	s.experiences[userID] = append(s.experiences[userID], exp)
	return &exp, nil
}

func (s *fakeStore) DeleteRawExperience(_ context.Context, experienceID uuid.UUID) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, exps := range s.experiences {
		for i, exp := range exps {
			if exp.ID == experienceID {
				s.experiences[userID] = append(exps[:i], exps[i+1:]...)
				return userID, nil
			}
		}
	}
	return uuid.Nil, errors.New("experience not found")
}

func (s *fakeStore) CreateRawSkill(_ context.Context, userID uuid.UUID, req *types.CreateSkillRequest) (*types.RawSkill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := req.SourceCount
	if count < 1 {
		count = 1
	}
	skill := types.RawSkill{ID: uuid.New(), UserID: userID, Name: req.Name, SourceCount: count}
	s.skills[userID] = append(s.skills[userID], skill)
	return &skill, nil
}

// fakeEmbedder returns a fixed vector, or fails for configured texts.
type fakeEmbedder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.failOn != "" && text == e.failOn {
		return nil, errors.New("embedding provider unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fakeEmbedder) Close() error { return nil }

func testRebuilder(store Store, embedder *fakeEmbedder) *Rebuilder {
	engine := canonicalize.NewEngine(dedupe.NewEmbeddingDeduper())
	if embedder == nil {
		return NewRebuilder(store, engine, nil)
	}
	return NewRebuilder(store, engine, embedder)
}

func seedExperience(store *fakeStore, userID uuid.UUID, company, title, start, end string, bullets ...string) {
	exp := types.RawExperience{
		ID:        uuid.New(),
		UserID:    userID,
		Company:   company,
		Title:     title,
		StartDate: start,
		EndDate:   end,
	}
	for _, b := range bullets {
		exp.Bullets = append(exp.Bullets, types.RawBullet{ID: uuid.New(), Content: b, SourceCount: 1})
	}
	store.experiences[userID] = append(store.experiences[userID], exp)
}

func TestCanonicalizeProfile_PersistsMergedProfile(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	seedExperience(store, userID, "Acme Inc.", "Software Engineer", "2019-01", "2021-06", "Built the pipeline")
	seedExperience(store, userID, "ACME", "Senior Software Engineer", "2021-06", "2022-01", "Led the team")
	store.skills[userID] = []types.RawSkill{
		{ID: uuid.New(), UserID: userID, Name: "Go", SourceCount: 2},
	}

	r := testRebuilder(store, nil)
	profile, err := r.CanonicalizeProfile(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile)

	require.Len(t, profile.Experiences, 1)
	assert.Equal(t, "acme", profile.Experiences[0].CompanyKey)
	require.Len(t, profile.Skills, 1)
	assert.Equal(t, "go", profile.Skills[0].Key)

	assert.True(t, store.users[userID])
	assert.Same(t, profile, store.persisted[userID])
}

func TestCanonicalizeProfile_EmptyUserPersistsEmptyProfile(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()

	r := testRebuilder(store, nil)
	profile, err := r.CanonicalizeProfile(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, profile.Experiences)
	assert.Empty(t, profile.Skills)
	assert.Equal(t, 1, store.replaces)
}

func TestCanonicalizeProfile_ReplaceFailureSurfaced(t *testing.T) {
	store := newFakeStore()
	store.replaceErr = errors.New("connection reset")

	r := testRebuilder(store, nil)
	_, err := r.CanonicalizeProfile(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestCanonicalizeProfile_BackfillsEmbeddings(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	seedExperience(store, userID, "Acme Inc.", "Engineer", "2019-01", "2022-01",
		"Built the pipeline", "Cut deploy time")

	embedder := &fakeEmbedder{}
	r := testRebuilder(store, embedder)
	profile, err := r.CanonicalizeProfile(context.Background(), userID)
	require.NoError(t, err)

	require.Len(t, profile.Experiences, 1)
	for _, b := range profile.Experiences[0].Bullets {
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, b.Embedding)
	}
	assert.Equal(t, 2, embedder.calls)
}

func TestCanonicalizeProfile_EmbeddingFailureIsNonFatal(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	seedExperience(store, userID, "Acme Inc.", "Engineer", "2019-01", "2022-01",
		"Built the pipeline", "Cut deploy time")

	embedder := &fakeEmbedder{failOn: "Cut deploy time"}
	r := testRebuilder(store, embedder)
	profile, err := r.CanonicalizeProfile(context.Background(), userID)
	require.NoError(t, err)

	embedded := 0
	for _, b := range profile.Experiences[0].Bullets {
		if len(b.Embedding) > 0 {
			embedded++
		}
	}
	assert.Equal(t, 1, embedded)
	assert.NotNil(t, store.persisted[userID])
}

func TestAddExperience_RebuildsProfile(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()

	r := testRebuilder(store, nil)
	exp, profile, err := r.AddExperience(context.Background(), userID, &types.CreateExperienceRequest{
		Company:   "Acme Inc.",
		Title:     "Engineer",
		StartDate: "2020-01",
		IsCurrent: true,
		Bullets:   []types.CreateBulletRequest{{Content: "Shipped v1"}},
	})
	require.NoError(t, err)
	require.NotNil(t, exp)
	assert.Equal(t, "Acme Inc.", exp.Company)

	require.Len(t, profile.Experiences, 1)
	assert.True(t, profile.Experiences[0].IsCurrent)
	assert.Equal(t, 1, store.replaces)
}

func TestRemoveExperience_RebuildsOwnersProfile(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	seedExperience(store, userID, "Acme Inc.", "Engineer", "2019-01", "2022-01")
	seedExperience(store, userID, "Initech", "Analyst", "2015-01", "2018-01")
	expID := store.experiences[userID][0].ID

	r := testRebuilder(store, nil)
	profile, err := r.RemoveExperience(context.Background(), expID)
	require.NoError(t, err)

	require.Len(t, profile.Experiences, 1)
	assert.Equal(t, "Initech", profile.Experiences[0].CompanyName)
}

func TestRemoveExperience_UnknownID(t *testing.T) {
	store := newFakeStore()
	r := testRebuilder(store, nil)
	_, err := r.RemoveExperience(context.Background(), uuid.New())
	assert.Error(t, err)
	assert.Equal(t, 0, store.replaces)
}

func TestAddSkill_RebuildsProfile(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()

	r := testRebuilder(store, nil)
	skill, profile, err := r.AddSkill(context.Background(), userID, &types.CreateSkillRequest{
		Name: "golang",
	})
	require.NoError(t, err)
	require.NotNil(t, skill)

	require.Len(t, profile.Skills, 1)
	assert.Equal(t, "go", profile.Skills[0].Key)
	assert.Equal(t, "Go", profile.Skills[0].Label)
}

func TestCanonicalizeProfile_ConcurrentRebuildsSameUser(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	seedExperience(store, userID, "Acme Inc.", "Engineer", "2019-01", "2022-01", "Built the pipeline")

	r := testRebuilder(store, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.CanonicalizeProfile(context.Background(), userID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, store.replaces)
	require.NotNil(t, store.persisted[userID])
	assert.Len(t, store.persisted[userID].Experiences, 1)
}
