// Package sync wires up the cron job that keeps published missions' channel
// messages aligned with their stored state.
//
// The publish/update paths already synchronize inline; this pass bounds how
// long a message stays stale after a swallowed edit failure.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/actabi/FreelanceAcademy/internal/model"
	"github.com/actabi/FreelanceAcademy/internal/publish"
)

// MissionSource lists the missions eligible for re-projection.
type MissionSource interface {
	FindAll(ctx context.Context, f model.MissionFilter) ([]model.Mission, error)
}

// Syncer wraps robfig/cron and manages the re-sync loop.
type Syncer struct {
	cron   *cron.Cron
	source MissionSource
	pub    *publish.Publisher
	spec   string // cron spec, e.g. "@every 6h"
	log    *slog.Logger
}

// New creates a Syncer that fires every intervalHours hours.
func New(source MissionSource, pub *publish.Publisher, intervalHours int, log *slog.Logger) *Syncer {
	if log == nil {
		log = slog.Default()
	}
	return &Syncer{
		cron:   cron.New(),
		source: source,
		pub:    pub,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
		log:    log,
	}
}

// Start registers the job and starts the scheduler. Also runs one pass
// immediately so a restart repairs stale messages without waiting for the
// first tick.
func (s *Syncer) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runPass(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("message re-sync started", "spec", s.spec)

	go s.runPass(ctx)
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Syncer) Stop() {
	s.cron.Stop()
	s.log.Info("message re-sync stopped")
}

// runPass re-projects every published mission onto its channel message.
// Per-mission failures are logged and the pass continues.
func (s *Syncer) runPass(ctx context.Context) {
	missions, err := s.source.FindAll(ctx, model.MissionFilter{Status: model.StatusPublished})
	if err != nil {
		s.log.Error("re-sync pass aborted", "err", err)
		return
	}

	var synced, skipped, failed int
	for i := range missions {
		m := &missions[i]
		if m.DiscordMessageID == "" {
			skipped++
			continue
		}
		if err := s.pub.UpdatePublished(ctx, m); err != nil {
			failed++
			s.log.Warn("re-sync failed",
				"missionId", m.ID, "messageId", m.DiscordMessageID, "err", err)
			continue
		}
		synced++
	}
	s.log.Info("re-sync pass done", "synced", synced, "skipped", skipped, "failed", failed)
}
