// freelance-academy mission service
//
// Mission lifecycle and notification pipeline:
//   - mission CRUD with a Redis side-cache in front of PostgreSQL
//   - DRAFT → PUBLISHED → IN_PROGRESS → COMPLETED/CANCELLED state machine
//   - Discord announcement per published mission (create once, edit in place)
//   - alert/freelance matching with direct notification fan-out
//   - periodic re-sync of stale channel messages
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/alert"
	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/config"
	"github.com/actabi/FreelanceAcademy/internal/db"
	"github.com/actabi/FreelanceAcademy/internal/discord"
	"github.com/actabi/FreelanceAcademy/internal/freelance"
	"github.com/actabi/FreelanceAcademy/internal/mission"
	"github.com/actabi/FreelanceAcademy/internal/publish"
	"github.com/actabi/FreelanceAcademy/internal/ratelimit"
	"github.com/actabi/FreelanceAcademy/internal/repo"
	missionsync "github.com/actabi/FreelanceAcademy/internal/sync"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[mission-service] Config error: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[mission-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[mission-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	log.Println("[mission-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[mission-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[mission-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[mission-service] Redis connected ✓")

	store := cache.NewRedisStore(rdb)
	sideCache := cache.New(store, logger)
	repository := repo.New(pool)

	// ── Discord ──────────────────────────────────────────────────────────────
	var channelClient publish.ChannelClient = unavailableChannel{}
	var discordClient *discord.Client
	if cfg.DiscordEnabled {
		discordClient, err = discord.New(cfg.DiscordToken, logger)
		if err != nil {
			log.Fatalf("[mission-service] Discord: %v", err)
		}
		if err := discordClient.Open(); err != nil {
			log.Fatalf("[mission-service] Discord: %v", err)
		}
		defer discordClient.Close()

		readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
		err = discordClient.WaitUntilReady(readyCtx)
		readyCancel()
		if err != nil {
			log.Fatalf("[mission-service] Discord: %v", err)
		}
		log.Println("[mission-service] Discord connected ✓")
		channelClient = discordClient
	} else {
		log.Println("[mission-service] Discord integration disabled")
	}

	// ── Services ─────────────────────────────────────────────────────────────
	publisher := publish.New(channelClient, repository, cfg.DiscordChannelID, logger)
	missions := mission.NewService(repository, sideCache, publisher, logger)
	alerts := alert.NewService(repository, sideCache)
	freelances := freelance.NewService(repository, sideCache)

	if discordClient != nil {
		commands := discord.NewCommands(missions, alerts, freelances, logger)
		if err := commands.Register(discordClient, cfg.DiscordGuildID); err != nil {
			log.Fatalf("[mission-service] Discord commands: %v", err)
		}
	}

	// ── Message re-sync ──────────────────────────────────────────────────────
	if cfg.DiscordEnabled && cfg.DiscordChannelID != "" {
		syncer := missionsync.New(repository, publisher, cfg.ResyncIntervalHours, logger)
		if err := syncer.Start(ctx); err != nil {
			log.Fatalf("[mission-service] Re-sync: %v", err)
		}
		defer syncer.Stop()
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	mission.NewHandler(missions).RegisterRoutes(mux)
	alert.NewHandler(alerts).RegisterRoutes(mux)

	limiter := ratelimit.New(sideCache, "http", cfg.RateLimitPerMinute, time.Minute, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      limiter.Middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[mission-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[mission-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[mission-service] Shutting down…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[mission-service] Shutdown error: %v", err)
	}
	log.Println("[mission-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "mission-service",
		"version": version,
	})
}

// unavailableChannel stands in for the channel client when the Discord
// integration is disabled; every call fails with the configuration error.
type unavailableChannel struct{}

func (unavailableChannel) SendChannelMessage(context.Context, string, publish.Announcement) (string, error) {
	return "", publish.ErrChannelNotConfigured
}

func (unavailableChannel) EditChannelMessage(context.Context, string, string, publish.Announcement) error {
	return publish.ErrChannelNotConfigured
}

func (unavailableChannel) FetchMessage(context.Context, string, string) (*publish.Message, error) {
	return nil, publish.ErrChannelNotConfigured
}

func (unavailableChannel) SendDirectMessage(context.Context, string, string) error {
	return publish.ErrChannelNotConfigured
}
