package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Key namespaces and TTLs. Matching results are more volatile than entity
// projections and expire sooner.
const (
	missionPrefix          = "mission:"
	freelancePrefix        = "freelance:"
	freelanceDiscordPrefix = "freelance:discord:"
	alertPrefix            = "alert:"
	alertsUserPrefix       = "alerts:user:"
	matchingPrefix         = "matching:"

	entityTTL   = 3600 * time.Second
	matchingTTL = 1800 * time.Second
)

// Cache is the typed side-cache used by the services. All methods degrade
// gracefully: a backend error or an undecodable value is a miss.
type Cache struct {
	store Store
	log   *slog.Logger
}

// New returns a Cache on top of store.
func New(store Store, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: store, log: log}
}

// get unmarshals the value at key into v, reporting whether it was usable.
func (c *Cache) get(ctx context.Context, key string, v any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("cache get failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		// Treat a corrupt entry as a miss; it will be overwritten on the
		// next populate.
		c.log.Warn("cache entry undecodable", "key", key, "err", err)
		return false
	}
	return true
}

// set marshals v under key. Failures are logged, never surfaced.
func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache marshal failed", "key", key, "err", err)
		return
	}
	if err := c.store.Set(ctx, key, string(raw), ttl); err != nil {
		c.log.Warn("cache set failed", "key", key, "err", err)
	}
}

// del removes keys, logging failures.
func (c *Cache) del(ctx context.Context, keys ...string) {
	if err := c.store.Del(ctx, keys...); err != nil {
		c.log.Warn("cache delete failed", "keys", keys, "err", err)
	}
}

// ─── Missions ────────────────────────────────────────────────────────────────

// GetMission returns the cached mission or (nil, false) on any kind of miss.
func (c *Cache) GetMission(ctx context.Context, id string) (*model.Mission, bool) {
	var m model.Mission
	if !c.get(ctx, missionPrefix+id, &m) {
		return nil, false
	}
	return &m, true
}

// SetMission stores the mission projection under mission:<id>.
func (c *Cache) SetMission(ctx context.Context, m *model.Mission) {
	c.set(ctx, missionPrefix+m.ID, m, entityTTL)
}

// InvalidateMission removes the cached mission, forcing the next read to hit
// the repository.
func (c *Cache) InvalidateMission(ctx context.Context, id string) {
	c.del(ctx, missionPrefix+id)
}

// ─── Freelances ──────────────────────────────────────────────────────────────

// GetFreelance returns the cached freelance profile.
func (c *Cache) GetFreelance(ctx context.Context, id string) (*model.Freelance, bool) {
	var f model.Freelance
	if !c.get(ctx, freelancePrefix+id, &f) {
		return nil, false
	}
	return &f, true
}

// GetFreelanceByDiscordID looks up the secondary Discord-id key.
func (c *Cache) GetFreelanceByDiscordID(ctx context.Context, discordID string) (*model.Freelance, bool) {
	var f model.Freelance
	if !c.get(ctx, freelanceDiscordPrefix+discordID, &f) {
		return nil, false
	}
	return &f, true
}

// SetFreelance stores the profile under its id and, when known, under its
// Discord id for fast bot-side lookups.
func (c *Cache) SetFreelance(ctx context.Context, f *model.Freelance) {
	c.set(ctx, freelancePrefix+f.ID, f, entityTTL)
	if f.DiscordID != "" {
		c.set(ctx, freelanceDiscordPrefix+f.DiscordID, f, entityTTL)
	}
}

// InvalidateFreelance removes both keys of a profile.
func (c *Cache) InvalidateFreelance(ctx context.Context, id, discordID string) {
	keys := []string{freelancePrefix + id}
	if discordID != "" {
		keys = append(keys, freelanceDiscordPrefix+discordID)
	}
	c.del(ctx, keys...)
}

// ─── Alerts ──────────────────────────────────────────────────────────────────

// GetUserAlerts returns a user's cached alert list.
func (c *Cache) GetUserAlerts(ctx context.Context, userID string) ([]model.Alert, bool) {
	var alerts []model.Alert
	if !c.get(ctx, alertsUserPrefix+userID, &alerts) {
		return nil, false
	}
	return alerts, true
}

// SetUserAlerts caches a user's alert list.
func (c *Cache) SetUserAlerts(ctx context.Context, userID string, alerts []model.Alert) {
	c.set(ctx, alertsUserPrefix+userID, alerts, entityTTL)
}

// SetAlert caches a single alert under alert:<id>.
func (c *Cache) SetAlert(ctx context.Context, a *model.Alert) {
	c.set(ctx, alertPrefix+a.ID, a, entityTTL)
}

// InvalidateUserAlerts drops a user's cached alert list.
func (c *Cache) InvalidateUserAlerts(ctx context.Context, userID string) {
	c.del(ctx, alertsUserPrefix+userID)
}

// InvalidateAlert removes an alert and its owner's list entry.
func (c *Cache) InvalidateAlert(ctx context.Context, alertID, userID string) {
	c.del(ctx, alertPrefix+alertID, alertsUserPrefix+userID)
}

// ─── Matching results ────────────────────────────────────────────────────────

// GetMatchingResults returns the cached freelance ids matched to a mission.
func (c *Cache) GetMatchingResults(ctx context.Context, missionID string) ([]string, bool) {
	var ids []string
	if !c.get(ctx, matchingPrefix+missionID, &ids) {
		return nil, false
	}
	return ids, true
}

// SetMatchingResults caches the matched freelance ids for a mission.
func (c *Cache) SetMatchingResults(ctx context.Context, missionID string, freelanceIDs []string) {
	c.set(ctx, matchingPrefix+missionID, freelanceIDs, matchingTTL)
}

// InvalidateMatchingResults drops the cached match set for a mission.
func (c *Cache) InvalidateMatchingResults(ctx context.Context, missionID string) {
	c.del(ctx, matchingPrefix+missionID)
}

// ─── Counters ────────────────────────────────────────────────────────────────

// IncrementCounter bumps a fixed-window counter, arming the window's expiry
// on its first increment. Errors propagate so the caller can decide (the rate
// limiter fails open).
func (c *Cache) IncrementCounter(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.store.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.store.Expire(ctx, key, window); err != nil {
			return n, err
		}
	}
	return n, nil
}
