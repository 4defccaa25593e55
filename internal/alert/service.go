// Package alert manages saved mission searches owned by Discord users.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Repository is the persistence subset this service needs.
type Repository interface {
	AlertByID(ctx context.Context, id string) (*model.Alert, error)
	AlertsByUserID(ctx context.Context, userID string) ([]model.Alert, error)
	SaveAlert(ctx context.Context, a *model.Alert) error
	DeleteAlert(ctx context.Context, id string) error
}

// Service provides alert CRUD with per-user list caching.
type Service struct {
	repo  Repository
	cache *cache.Cache
}

// NewService returns a configured Service.
func NewService(repo Repository, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c}
}

// CreateInput carries a new alert's criteria.
type CreateInput struct {
	UserID   string   `json:"userId"`
	Skills   []string `json:"skills"`
	MinRate  *int     `json:"minRate,omitempty"`
	MaxRate  *int     `json:"maxRate,omitempty"`
	Location string   `json:"location,omitempty"`
}

// Create persists a new alert and invalidates the owner's cached list.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Alert, error) {
	now := time.Now().UTC()
	a := &model.Alert{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Skills:    in.Skills,
		MinRate:   in.MinRate,
		MaxRate:   in.MaxRate,
		Location:  in.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if a.Skills == nil {
		a.Skills = []string{}
	}
	if err := s.repo.SaveAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	s.cache.SetAlert(ctx, a)
	s.cache.InvalidateUserAlerts(ctx, in.UserID)
	return a, nil
}

// ListByUser returns a user's alerts, cache-through.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]model.Alert, error) {
	if alerts, ok := s.cache.GetUserAlerts(ctx, userID); ok {
		return alerts, nil
	}
	alerts, err := s.repo.AlertsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.SetUserAlerts(ctx, userID, alerts)
	return alerts, nil
}

// Update merges new criteria into an existing alert.
func (s *Service) Update(ctx context.Context, id string, in CreateInput) (*model.Alert, error) {
	a, err := s.repo.AlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Skills != nil {
		a.Skills = in.Skills
	}
	if in.MinRate != nil {
		a.MinRate = in.MinRate
	}
	if in.MaxRate != nil {
		a.MaxRate = in.MaxRate
	}
	if in.Location != "" {
		a.Location = in.Location
	}
	a.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("update alert: %w", err)
	}
	s.cache.SetAlert(ctx, a)
	s.cache.InvalidateUserAlerts(ctx, a.UserID)
	return a, nil
}

// Delete removes an alert and drops both cache entries.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.repo.AlertByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAlert(ctx, id, a.UserID)
	return nil
}
