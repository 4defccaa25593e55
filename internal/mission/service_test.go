package mission_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/mission"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

// memStore is an in-memory cache.Store.
type memStore struct {
	values map[string]string
}

func newMemStore() *memStore { return &memStore{values: map[string]string{}} }

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *memStore) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(s.values[key], 10, 64)
	n++
	s.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *memStore) Expire(context.Context, string, time.Duration) error { return nil }

// fakeRepo is an in-memory mission.Repository.
type fakeRepo struct {
	missions   map[string]*model.Mission
	skills     map[string]model.Skill
	freelances []model.Freelance

	findCalls int
	saveCalls int
	saveErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		missions: map[string]*model.Mission{},
		skills: map[string]model.Skill{
			"s-go":    {ID: "s-go", Name: "Go"},
			"s-react": {ID: "s-react", Name: "React"},
		},
	}
}

func cloneMission(m *model.Mission) *model.Mission {
	c := *m
	c.Skills = append([]model.Skill(nil), m.Skills...)
	c.Applications = append([]model.Application(nil), m.Applications...)
	return &c
}

func (r *fakeRepo) FindByID(_ context.Context, id string, _ bool) (*model.Mission, error) {
	r.findCalls++
	m, ok := r.missions[id]
	if !ok {
		return nil, mission.ErrNotFound
	}
	return cloneMission(m), nil
}

func (r *fakeRepo) FindAll(_ context.Context, f model.MissionFilter) ([]model.Mission, error) {
	out := make([]model.Mission, 0)
	for _, m := range r.missions {
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		out = append(out, *cloneMission(m))
	}
	return out, nil
}

func (r *fakeRepo) Save(_ context.Context, m *model.Mission) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.missions[m.ID] = cloneMission(m)
	return nil
}

func (r *fakeRepo) FindSkillsByIDs(_ context.Context, ids []string) ([]model.Skill, error) {
	out := make([]model.Skill, 0, len(ids))
	for _, id := range ids {
		if sk, ok := r.skills[id]; ok {
			out = append(out, sk)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActiveFreelances(context.Context) ([]model.Freelance, error) {
	return r.freelances, nil
}

func (r *fakeRepo) FreelancesByIDs(_ context.Context, ids []string) ([]model.Freelance, error) {
	out := make([]model.Freelance, 0)
	for _, f := range r.freelances {
		for _, id := range ids {
			if f.ID == id {
				out = append(out, f)
			}
		}
	}
	return out, nil
}

func (r *fakeRepo) FreelanceByID(_ context.Context, id string) (*model.Freelance, error) {
	for i := range r.freelances {
		if r.freelances[i].ID == id {
			return &r.freelances[i], nil
		}
	}
	return nil, mission.ErrNotFound
}

// fakePublisher records channel-sync calls.
type fakePublisher struct {
	publishCalls int
	updateCalls  int
	notifyCalls  int

	publishErr error
	updateErr  error
	nextID     int
}

func (p *fakePublisher) Publish(_ context.Context, _ *model.Mission) (string, error) {
	p.publishCalls++
	if p.publishErr != nil {
		return "", p.publishErr
	}
	p.nextID++
	return fmt.Sprintf("msg-%d", p.nextID), nil
}

func (p *fakePublisher) UpdatePublished(_ context.Context, _ *model.Mission) error {
	p.updateCalls++
	return p.updateErr
}

func (p *fakePublisher) NotifyMatchedSubscribers(_ context.Context, _ *model.Mission) error {
	p.notifyCalls++
	return nil
}

func newService() (*mission.Service, *fakeRepo, *fakePublisher, *memStore) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	store := newMemStore()
	svc := mission.NewService(repo, cache.New(store, nil), pub, nil)
	return svc, repo, pub, store
}

func strp(s string) *string                          { return &s }
func intp(v int) *int                                { return &v }
func statusp(s model.MissionStatus) *model.MissionStatus { return &s }

func draftInput() mission.CreateInput {
	return mission.CreateInput{
		Title:        "Backend dev",
		Description:  "Build and run the mission pipeline",
		DailyRateMin: 400,
		DailyRateMax: 600,
		Location:     model.LocationRemote,
		SkillIDs:     []string{"s-go"},
	}
}

// ─── Create ──────────────────────────────────────────────────────────────────

func TestCreate_PersistsDraftAndPopulatesCache(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, store := newService()

	m, err := svc.Create(ctx, draftInput())
	if err != nil {
		t.Fatalf("Create returned unexpected error: %v", err)
	}
	if m.Status != model.StatusDraft {
		t.Errorf("status = %s, want DRAFT", m.Status)
	}
	if len(m.Skills) != 1 || m.Skills[0].Name != "Go" {
		t.Errorf("skills = %+v, want resolved Go skill", m.Skills)
	}
	if _, ok := repo.missions[m.ID]; !ok {
		t.Error("mission was not persisted")
	}
	if _, ok := store.values["mission:"+m.ID]; !ok {
		t.Error("mission was not cached after create")
	}
}

func TestCreate_RejectsInvalidRates(t *testing.T) {
	svc, _, _, _ := newService()

	cases := []mission.CreateInput{
		func() mission.CreateInput { in := draftInput(); in.DailyRateMin = 0; return in }(),
		func() mission.CreateInput { in := draftInput(); in.DailyRateMax = 300; return in }(),
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), in)
		var ve *mission.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Create(%+v) = %v, want ValidationError", in, err)
		}
	}
}

func TestCreate_UnknownSkillIDsListed(t *testing.T) {
	svc, _, _, _ := newService()

	in := draftInput()
	in.SkillIDs = []string{"s-go", "s-nope", "s-missing"}

	_, err := svc.Create(context.Background(), in)
	var ve *mission.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Create = %v, want ValidationError", err)
	}
	if len(ve.InvalidIDs) != 2 {
		t.Errorf("InvalidIDs = %v, want the two unknown ids", ve.InvalidIDs)
	}
}

// ─── FindByID ────────────────────────────────────────────────────────────────

func TestFindByID_CacheThrough(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, store := newService()

	m, err := svc.Create(ctx, draftInput())
	if err != nil {
		t.Fatal(err)
	}

	// Cached by Create: the read must not touch the repository.
	if _, err := svc.FindByID(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if repo.findCalls != 0 {
		t.Errorf("findCalls = %d, want 0 (served from cache)", repo.findCalls)
	}

	// Drop the entry: the next read hits the repository and repopulates.
	delete(store.values, "mission:"+m.ID)
	if _, err := svc.FindByID(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	if repo.findCalls != 1 {
		t.Errorf("findCalls = %d, want 1 after invalidation", repo.findCalls)
	}
	if _, ok := store.values["mission:"+m.ID]; !ok {
		t.Error("cache was not repopulated on miss")
	}
}

func TestFindByID_NotFound(t *testing.T) {
	svc, _, _, _ := newService()
	_, err := svc.FindByID(context.Background(), "ghost")
	if !errors.Is(err, mission.ErrNotFound) {
		t.Errorf("FindByID = %v, want ErrNotFound", err)
	}
}

// ─── Publish ─────────────────────────────────────────────────────────────────

func TestPublish_CompleteData(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()

	m, _ := svc.Create(ctx, draftInput())

	published, err := svc.Publish(ctx, m.ID)
	if err != nil {
		t.Fatalf("Publish returned unexpected error: %v", err)
	}
	if published.Status != model.StatusPublished {
		t.Errorf("status = %s, want PUBLISHED", published.Status)
	}
	if published.DiscordMessageID != "msg-1" {
		t.Errorf("messageId = %q, want msg-1", published.DiscordMessageID)
	}
	if pub.publishCalls != 1 {
		t.Errorf("publishCalls = %d, want exactly one announcement", pub.publishCalls)
	}
	if pub.notifyCalls != 1 {
		t.Errorf("notifyCalls = %d, want 1", pub.notifyCalls)
	}

	stored := repo.missions[m.ID]
	if stored.Status != model.StatusPublished || stored.DiscordMessageID != "msg-1" {
		t.Errorf("persisted mission = %s/%q, want PUBLISHED/msg-1", stored.Status, stored.DiscordMessageID)
	}
}

func TestPublish_MissingSkills(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()

	in := draftInput()
	in.SkillIDs = nil
	m, _ := svc.Create(ctx, in)

	_, err := svc.Publish(ctx, m.ID)
	var ve *mission.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Publish = %v, want ValidationError", err)
	}
	if pub.publishCalls != 0 {
		t.Errorf("publishCalls = %d, want 0 for an unpublishable mission", pub.publishCalls)
	}
	if repo.missions[m.ID].Status != model.StatusDraft {
		t.Errorf("status = %s, want DRAFT untouched", repo.missions[m.ID].Status)
	}
}

func TestPublish_Twice(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newService()

	m, _ := svc.Create(ctx, draftInput())
	if _, err := svc.Publish(ctx, m.ID); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Publish(ctx, m.ID)
	var te *mission.InvalidTransitionError
	if !errors.As(err, &te) {
		t.Fatalf("second Publish = %v, want InvalidTransitionError", err)
	}
}

func TestPublish_ExternalFailureLeavesStatusUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()
	pub.publishErr = errors.New("discord 502")

	m, _ := svc.Create(ctx, draftInput())

	_, err := svc.Publish(ctx, m.ID)
	var ie *mission.IntegrationError
	if !errors.As(err, &ie) {
		t.Fatalf("Publish = %v, want IntegrationError", err)
	}

	stored := repo.missions[m.ID]
	if stored.Status != model.StatusDraft {
		t.Errorf("status = %s, want DRAFT after failed announcement", stored.Status)
	}
	if stored.DiscordMessageID != "" {
		t.Errorf("messageId = %q, want empty", stored.DiscordMessageID)
	}
}

// ─── Update ──────────────────────────────────────────────────────────────────

func TestUpdate_PublishedTriggersEditNotCreate(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()

	m, _ := svc.Create(ctx, draftInput())
	if _, err := svc.Publish(ctx, m.ID); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, m.ID, mission.UpdateInput{Title: strp("Senior backend dev")})
	if err != nil {
		t.Fatalf("Update returned unexpected error: %v", err)
	}
	if updated.Title != "Senior backend dev" {
		t.Errorf("title = %q", updated.Title)
	}
	if pub.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want exactly one edit", pub.updateCalls)
	}
	if pub.publishCalls != 1 {
		t.Errorf("publishCalls = %d, want no additional announcement", pub.publishCalls)
	}
	if repo.missions[m.ID].Title != "Senior backend dev" {
		t.Error("title change was not persisted")
	}
}

func TestUpdate_EditFailureDoesNotFailUpdate(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()

	m, _ := svc.Create(ctx, draftInput())
	if _, err := svc.Publish(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	pub.updateErr = errors.New("message edit rejected")

	_, err := svc.Update(ctx, m.ID, mission.UpdateInput{Title: strp("New title")})
	if err != nil {
		t.Fatalf("Update must swallow channel edit failures, got %v", err)
	}
	if repo.missions[m.ID].Title != "New title" {
		t.Error("persisted title must remain authoritative despite the stale message")
	}
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, _, store := newService()

	m, _ := svc.Create(ctx, draftInput())
	if _, ok := store.values["mission:"+m.ID]; !ok {
		t.Fatal("precondition: mission cached after create")
	}

	if _, err := svc.Update(ctx, m.ID, mission.UpdateInput{Title: strp("x")}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.values["mission:"+m.ID]; ok {
		t.Error("cache entry must be invalidated after update")
	}
}

func TestUpdate_PatchToPublishedRunsPublishPath(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()

	m, _ := svc.Create(ctx, draftInput())

	updated, err := svc.Update(ctx, m.ID, mission.UpdateInput{Status: statusp(model.StatusPublished)})
	if err != nil {
		t.Fatalf("Update returned unexpected error: %v", err)
	}
	if updated.Status != model.StatusPublished {
		t.Errorf("status = %s, want PUBLISHED", updated.Status)
	}
	if pub.publishCalls != 1 || pub.notifyCalls != 1 {
		t.Errorf("publish/notify = %d/%d, want 1/1", pub.publishCalls, pub.notifyCalls)
	}
	if repo.missions[m.ID].DiscordMessageID == "" {
		t.Error("message id was not persisted on patch-publish")
	}
}

func TestUpdate_PatchPublishFailureKeepsFieldChanges(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub, _ := newService()
	pub.publishErr = errors.New("discord down")

	m, _ := svc.Create(ctx, draftInput())

	_, err := svc.Update(ctx, m.ID, mission.UpdateInput{
		Title:  strp("Renamed"),
		Status: statusp(model.StatusPublished),
	})
	var ie *mission.IntegrationError
	if !errors.As(err, &ie) {
		t.Fatalf("Update = %v, want IntegrationError", err)
	}

	stored := repo.missions[m.ID]
	if stored.Status != model.StatusDraft {
		t.Errorf("status = %s, want DRAFT after failed announcement", stored.Status)
	}
	if stored.Title != "Renamed" {
		t.Error("non-status field changes should stay persisted")
	}
}

func TestUpdate_RateInvariant(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newService()

	m, _ := svc.Create(ctx, draftInput())

	_, err := svc.Update(ctx, m.ID, mission.UpdateInput{DailyRateMax: intp(100)})
	var ve *mission.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Update = %v, want ValidationError", err)
	}
	if repo.missions[m.ID].DailyRateMax != 600 {
		t.Error("rejected patch must not be persisted")
	}
}

// ─── Cancel ──────────────────────────────────────────────────────────────────

func TestCancel(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newService()

	m, _ := svc.Create(ctx, draftInput())
	cancelled, err := svc.Cancel(ctx, m.ID)
	if err != nil {
		t.Fatalf("Cancel returned unexpected error: %v", err)
	}
	if cancelled.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if repo.missions[m.ID].Status != model.StatusCancelled {
		t.Error("cancellation was not persisted")
	}

	// Re-cancelling is idempotent.
	again, err := svc.Cancel(ctx, m.ID)
	if err != nil {
		t.Fatalf("second Cancel = %v, want nil", err)
	}
	if again.Status != model.StatusCancelled {
		t.Errorf("status = %s, want CANCELLED", again.Status)
	}
}

// ─── Matching ────────────────────────────────────────────────────────────────

func TestFindMatchingFreelances_UsesResultCache(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, store := newService()

	repo.freelances = []model.Freelance{
		{ID: "f1", DiscordID: "d1", DailyRate: 500, IsActive: true,
			Skills: []model.Skill{{ID: "s-go", Name: "Go"}}},
		{ID: "f2", DiscordID: "d2", DailyRate: 500, IsActive: true,
			Skills: []model.Skill{{ID: "s-react", Name: "React"}}},
	}

	m, _ := svc.Create(ctx, draftInput())

	matched, err := svc.FindMatchingFreelances(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(matched) != 1 || matched[0].ID != "f1" {
		t.Fatalf("matched = %+v, want only f1", matched)
	}
	if _, ok := store.values["matching:"+m.ID]; !ok {
		t.Error("matching result was not cached")
	}

	// Second call is served from the cached id list.
	again, err := svc.FindMatchingFreelances(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 1 || again[0].ID != "f1" {
		t.Errorf("cached lookup = %+v, want f1", again)
	}
}
