package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/ratelimit"
)

type memStore struct {
	values map[string]string
}

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

type downStore struct{}

var errDown = errors.New("connection refused")

func (downStore) Get(context.Context, string) (string, error)               { return "", errDown }
func (downStore) Set(context.Context, string, string, time.Duration) error { return errDown }
func (downStore) Del(context.Context, ...string) error                     { return errDown }
func (downStore) Incr(context.Context, string) (int64, error)              { return 0, errDown }
func (downStore) Expire(context.Context, string, time.Duration) error      { return errDown }

func TestAllow_UnderAndOverLimit(t *testing.T) {
	c := cache.New(&memStore{values: map[string]string{}}, nil)
	l := ratelimit.New(c, "api", 3, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "u1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "u1") {
		t.Error("request over the limit should be rejected")
	}
	if !l.Allow(ctx, "u2") {
		t.Error("keys must be counted independently")
	}
}

func TestAllow_FailsOpenOnBackendError(t *testing.T) {
	c := cache.New(downStore{}, nil)
	l := ratelimit.New(c, "api", 1, time.Minute, nil)

	for i := 0; i < 5; i++ {
		if !l.Allow(context.Background(), "u1") {
			t.Fatal("backend failure must not reject requests")
		}
	}
}

func TestMiddleware(t *testing.T) {
	c := cache.New(&memStore{values: map[string]string{}}, nil)
	l := ratelimit.New(c, "api", 1, time.Minute, nil)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/missions", nil)
	req.Header.Set("x-user-id", "u1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}

	// A different user is not affected by u1's window.
	other := httptest.NewRequest(http.MethodGet, "/missions", nil)
	other.Header.Set("x-user-id", "u2")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("other user: status = %d", rec.Code)
	}
}
