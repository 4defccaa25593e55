// Package freelance provides read and update access to freelancer profiles.
// Profiles are primarily a matching target here; registration and full CRUD
// live elsewhere.
package freelance

import (
	"context"
	"fmt"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Repository is the persistence subset this service needs.
type Repository interface {
	FreelanceByID(ctx context.Context, id string) (*model.Freelance, error)
	FreelanceByDiscordID(ctx context.Context, discordID string) (*model.Freelance, error)
	SaveFreelance(ctx context.Context, f *model.Freelance) error
}

// Service caches profile reads under both the primary and the Discord id.
type Service struct {
	repo  Repository
	cache *cache.Cache
}

// NewService returns a configured Service.
func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// FindByID is the cache-through profile read.
func (s *Service) FindByID(ctx context.Context, id string) (*model.Freelance, error) {
	if f, ok := s.cache.GetFreelance(ctx, id); ok {
		return f, nil
	}
	f, err := s.repo.FreelanceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetFreelance(ctx, f)
	return f, nil
}

// FindByDiscordID resolves a profile from a Discord user id, the lookup the
// bot commands use.
func (s *Service) FindByDiscordID(ctx context.Context, discordID string) (*model.Freelance, error) {
	if f, ok := s.cache.GetFreelanceByDiscordID(ctx, discordID); ok {
		return f, nil
	}
	f, err := s.repo.FreelanceByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}
	s.cache.SetFreelance(ctx, f)
	return f, nil
}

// UpdateInput is a partial profile patch; nil fields are left untouched.
type UpdateInput struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	DailyRate   *int    `json:"dailyRate,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	IsAvailable *bool   `json:"isAvailable,omitempty"`
}

// Update merges the patch, persists it and invalidates both cache keys.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Freelance, error) {
	f, err := s.repo.FreelanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Email != nil {
		f.Email = *in.Email
	}
	if in.DailyRate != nil {
		f.DailyRate = *in.DailyRate
	}
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
	if in.IsAvailable != nil {
		f.IsAvailable = *in.IsAvailable
	}
	f.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveFreelance(ctx, f); err != nil {
		return nil, fmt.Errorf("save freelance: %w", err)
	}
	s.cache.InvalidateFreelance(ctx, f.ID, f.DiscordID)
	return f, nil
}
