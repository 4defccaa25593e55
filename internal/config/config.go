// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an
// error. Components receive the resulting Config explicitly; nothing reads
// the environment after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the mission service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string

	DiscordEnabled   bool
	DiscordToken     string
	DiscordChannelID string
	DiscordGuildID   string // empty → register commands globally

	ResyncIntervalHours int
	RateLimitPerMinute  int64
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	discordEnabled := os.Getenv("ENABLE_DISCORD") != "false"
	token := os.Getenv("DISCORD_TOKEN")
	if discordEnabled && token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required (or set ENABLE_DISCORD=false)")
	}

	interval := 6
	if s := os.Getenv("RESYNC_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("RESYNC_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	var rateLimit int64 = 60
	if s := os.Getenv("RATE_LIMIT_PER_MINUTE"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be a positive integer, got %q", s)
		}
		rateLimit = v
	}

	return &Config{
		Port:                port,
		DatabaseURL:         dbURL,
		RedisURL:            redisURL,
		DiscordEnabled:      discordEnabled,
		DiscordToken:        token,
		DiscordChannelID:    os.Getenv("DISCORD_CHANNEL_ID"),
		DiscordGuildID:      os.Getenv("DISCORD_GUILD_ID"),
		ResyncIntervalHours: interval,
		RateLimitPerMinute:  rateLimit,
	}, nil
}
