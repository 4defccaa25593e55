package cache_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// mapStore is an in-memory Store for tests. TTLs are recorded, not enforced.
type mapStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMapStore() *mapStore {
	return &mapStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *mapStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.values[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *mapStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *mapStore) Incr(_ context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(s.values[key], 10, 64)
	n++
	s.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (s *mapStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.ttls[key] = ttl
	return nil
}

// brokenStore fails every operation, simulating a lost Redis connection.
type brokenStore struct{}

var errDown = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) (string, error)               { return "", errDown }
func (brokenStore) Set(context.Context, string, string, time.Duration) error { return errDown }
func (brokenStore) Del(context.Context, ...string) error                     { return errDown }
func (brokenStore) Incr(context.Context, string) (int64, error)              { return 0, errDown }
func (brokenStore) Expire(context.Context, string, time.Duration) error      { return errDown }

func sampleMission() *model.Mission {
	return &model.Mission{
		ID:           "m1",
		Title:        "Backend dev",
		Status:       model.StatusDraft,
		DailyRateMin: 400,
		DailyRateMax: 600,
		Skills:       []model.Skill{{ID: "s1", Name: "Go"}},
	}
}

func TestMissionRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.New(newMapStore(), nil)

	m := sampleMission()
	c.SetMission(ctx, m)

	got, ok := c.GetMission(ctx, "m1")
	if !ok {
		t.Fatal("GetMission missed after SetMission")
	}
	if got.ID != m.ID || got.Title != m.Title || got.DailyRateMax != m.DailyRateMax {
		t.Errorf("GetMission = %+v, want %+v", got, m)
	}
	if len(got.Skills) != 1 || got.Skills[0].Name != "Go" {
		t.Errorf("skills did not survive the round trip: %+v", got.Skills)
	}
}

func TestInvalidateMission(t *testing.T) {
	ctx := context.Background()
	c := cache.New(newMapStore(), nil)

	c.SetMission(ctx, sampleMission())
	c.InvalidateMission(ctx, "m1")

	if _, ok := c.GetMission(ctx, "m1"); ok {
		t.Error("GetMission should miss after InvalidateMission")
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	store.values["mission:m1"] = "{not json"

	c := cache.New(store, nil)
	if _, ok := c.GetMission(ctx, "m1"); ok {
		t.Error("undecodable entry should be treated as a miss")
	}
}

func TestBrokenStoreNeverSurfaces(t *testing.T) {
	ctx := context.Background()
	c := cache.New(brokenStore{}, nil)

	// None of these may panic or propagate the backend failure.
	c.SetMission(ctx, sampleMission())
	if _, ok := c.GetMission(ctx, "m1"); ok {
		t.Error("broken store should read as a miss")
	}
	c.InvalidateMission(ctx, "m1")
}

func TestFreelanceSecondaryKey(t *testing.T) {
	ctx := context.Background()
	c := cache.New(newMapStore(), nil)

	f := &model.Freelance{ID: "f1", DiscordID: "d1", Name: "Ada"}
	c.SetFreelance(ctx, f)

	if _, ok := c.GetFreelance(ctx, "f1"); !ok {
		t.Error("primary key lookup missed")
	}
	got, ok := c.GetFreelanceByDiscordID(ctx, "d1")
	if !ok || got.ID != "f1" {
		t.Error("discord-id lookup missed")
	}

	c.InvalidateFreelance(ctx, "f1", "d1")
	if _, ok := c.GetFreelance(ctx, "f1"); ok {
		t.Error("primary key should be gone after invalidation")
	}
	if _, ok := c.GetFreelanceByDiscordID(ctx, "d1"); ok {
		t.Error("secondary key should be gone after invalidation")
	}
}

func TestMatchingResults(t *testing.T) {
	ctx := context.Background()
	c := cache.New(newMapStore(), nil)

	c.SetMatchingResults(ctx, "m1", []string{"f1", "f2"})
	ids, ok := c.GetMatchingResults(ctx, "m1")
	if !ok || len(ids) != 2 || ids[0] != "f1" {
		t.Errorf("GetMatchingResults = %v, %v", ids, ok)
	}

	c.InvalidateMatchingResults(ctx, "m1")
	if _, ok := c.GetMatchingResults(ctx, "m1"); ok {
		t.Error("matching results should be gone after invalidation")
	}
}

func TestIncrementCounterArmsWindowOnce(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c := cache.New(store, nil)

	n, err := c.IncrementCounter(ctx, "ratelimit:test:u1", time.Minute)
	if err != nil || n != 1 {
		t.Fatalf("first increment = %d, %v", n, err)
	}
	if store.ttls["ratelimit:test:u1"] != time.Minute {
		t.Error("first increment should arm the window expiry")
	}

	if n, _ = c.IncrementCounter(ctx, "ratelimit:test:u1", time.Minute); n != 2 {
		t.Errorf("second increment = %d, want 2", n)
	}
}

func TestIncrementCounterPropagatesErrors(t *testing.T) {
	c := cache.New(brokenStore{}, nil)
	if _, err := c.IncrementCounter(context.Background(), "k", time.Minute); err == nil {
		t.Error("counter failures must propagate so callers can fail open")
	}
}
