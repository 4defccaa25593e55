package mission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/actabi/FreelanceAcademy/internal/cache"
	"github.com/actabi/FreelanceAcademy/internal/match"
	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Repository is the persistence boundary the service depends on. The repo
// package provides the pgx implementation.
type Repository interface {
	FindByID(ctx context.Context, id string, withRelations bool) (*model.Mission, error)
	FindAll(ctx context.Context, f model.MissionFilter) ([]model.Mission, error)
	Save(ctx context.Context, m *model.Mission) error
	FindSkillsByIDs(ctx context.Context, ids []string) ([]model.Skill, error)
	ListActiveFreelances(ctx context.Context) ([]model.Freelance, error)
	FreelancesByIDs(ctx context.Context, ids []string) ([]model.Freelance, error)
	FreelanceByID(ctx context.Context, id string) (*model.Freelance, error)
}

// ExternalPublisher is the channel-sync boundary (publish package).
type ExternalPublisher interface {
	Publish(ctx context.Context, m *model.Mission) (string, error)
	UpdatePublished(ctx context.Context, m *model.Mission) error
	NotifyMatchedSubscribers(ctx context.Context, m *model.Mission) error
}

// Service orchestrates repository reads/writes, cache population and
// invalidation, lifecycle transitions and channel synchronization.
type Service struct {
	repo  Repository
	cache *cache.Cache
	pub   ExternalPublisher
	log   *slog.Logger
}

// NewService returns a configured Service.
func NewService(repo Repository, c *cache.Cache, pub ExternalPublisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, cache: c, pub: pub, log: log}
}

// CreateInput carries the fields of a new mission.
type CreateInput struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	DailyRateMin int                   `json:"dailyRateMin"`
	DailyRateMax int                   `json:"dailyRateMax"`
	StartDate    *time.Time            `json:"startDate,omitempty"`
	EndDate      *time.Time            `json:"endDate,omitempty"`
	Location     model.MissionLocation `json:"location"`
	CompanyName  string                `json:"companyName,omitempty"`
	Address      string                `json:"address,omitempty"`
	SkillIDs     []string              `json:"skillIds,omitempty"`
}

// UpdateInput is a partial patch; nil fields are left untouched.
type UpdateInput struct {
	Title        *string                `json:"title,omitempty"`
	Description  *string                `json:"description,omitempty"`
	DailyRateMin *int                   `json:"dailyRateMin,omitempty"`
	DailyRateMax *int                   `json:"dailyRateMax,omitempty"`
	StartDate    *time.Time             `json:"startDate,omitempty"`
	EndDate      *time.Time             `json:"endDate,omitempty"`
	Location     *model.MissionLocation `json:"location,omitempty"`
	CompanyName  *string                `json:"companyName,omitempty"`
	Address      *string                `json:"address,omitempty"`
	Status       *model.MissionStatus   `json:"status,omitempty"`
	SkillIDs     *[]string              `json:"skillIds,omitempty"`
}

// Create persists a new DRAFT mission with its resolved skill references and
// populates the cache.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Mission, error) {
	if err := checkRates(in.DailyRateMin, in.DailyRateMax); err != nil {
		return nil, err
	}

	skills, err := s.resolveSkills(ctx, in.SkillIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m := &model.Mission{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Status:       model.StatusDraft,
		DailyRateMin: in.DailyRateMin,
		DailyRateMax: in.DailyRateMax,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Location:     in.Location,
		CompanyName:  in.CompanyName,
		Address:      in.Address,
		Skills:       skills,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save mission: %w", err)
	}
	s.cache.SetMission(ctx, m)
	return m, nil
}

// FindByID is the cache-through read path: cache first, then the repository
// with relations eagerly loaded, repopulating the cache on a miss. A mission
// absent everywhere yields ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id string) (*model.Mission, error) {
	if m, ok := s.cache.GetMission(ctx, id); ok {
		return m, nil
	}

	m, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	s.cache.SetMission(ctx, m)
	return m, nil
}

// FindAll returns missions matching the filter, newest first.
func (s *Service) FindAll(ctx context.Context, f model.MissionFilter) ([]model.Mission, error) {
	return s.repo.FindAll(ctx, f)
}

// Publish runs the full publish sequence: lifecycle validation, channel
// announcement, then the persisted status flip. The stored status changes
// only after the external send succeeded, so a failed announcement leaves the
// mission unpublished.
func (s *Service) Publish(ctx context.Context, id string) (*model.Mission, error) {
	m, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !IsTransitionAllowed(m.Status, model.StatusPublished) {
		return nil, &InvalidTransitionError{From: m.Status, To: model.StatusPublished}
	}
	if err := CheckPublishable(m); err != nil {
		return nil, err
	}

	messageID, err := s.pub.Publish(ctx, m)
	if err != nil {
		return nil, &IntegrationError{Op: "publish", Err: err}
	}

	if err := Publish(m); err != nil {
		return nil, err
	}
	m.DiscordMessageID = messageID

	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save published mission: %w", err)
	}
	s.cache.SetMission(ctx, m)

	s.notify(ctx, m)
	return m, nil
}

// Update merges the patch into the stored mission and persists it. A mission
// that was published before and after the patch gets its channel message
// re-projected best-effort; a patch that flips the status to PUBLISHED runs
// the full publish path. The cache entry is invalidated on every path.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*model.Mission, error) {
	m, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	wasPublished := m.Status == model.StatusPublished

	// Writers invalidate rather than refresh: the next read repopulates
	// from the repository.
	defer func() {
		s.cache.InvalidateMission(ctx, id)
		s.cache.InvalidateMatchingResults(ctx, id)
	}()

	if in.SkillIDs != nil {
		skills, err := s.resolveSkills(ctx, *in.SkillIDs)
		if err != nil {
			return nil, err
		}
		m.Skills = skills
	}

	applyPatch(m, in)

	if err := checkRates(m.DailyRateMin, m.DailyRateMax); err != nil {
		return nil, err
	}

	wantPublish := false
	if in.Status != nil && *in.Status != m.Status {
		if *in.Status == model.StatusPublished {
			// Validated here, executed after the other fields are saved.
			if !IsTransitionAllowed(m.Status, model.StatusPublished) {
				return nil, &InvalidTransitionError{From: m.Status, To: model.StatusPublished}
			}
			if err := CheckPublishable(m); err != nil {
				return nil, err
			}
			wantPublish = true
		} else {
			if err := Transition(m, *in.Status); err != nil {
				return nil, err
			}
		}
	}

	m.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save mission: %w", err)
	}

	switch {
	case wantPublish:
		messageID, err := s.pub.Publish(ctx, m)
		if err != nil {
			// The non-status field changes stay persisted; the mission
			// simply remains unpublished.
			return nil, &IntegrationError{Op: "publish", Err: err}
		}
		if err := Publish(m); err != nil {
			return nil, err
		}
		m.DiscordMessageID = messageID
		if err := s.repo.Save(ctx, m); err != nil {
			return nil, fmt.Errorf("save published mission: %w", err)
		}
		s.notify(ctx, m)

	case wasPublished && m.Status == model.StatusPublished:
		// Channel sync must not block the update: the stored mission is
		// authoritative even if the message is now stale.
		if err := s.pub.UpdatePublished(ctx, m); err != nil {
			s.log.Error("channel message sync failed",
				"missionId", m.ID, "messageId", m.DiscordMessageID, "err", err)
		}
	}

	return m, nil
}

// Cancel applies the cancel transition and persists it.
func (s *Service) Cancel(ctx context.Context, id string) (*model.Mission, error) {
	m, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := Cancel(m); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save cancelled mission: %w", err)
	}
	s.cache.InvalidateMission(ctx, id)
	s.cache.InvalidateMatchingResults(ctx, id)
	return m, nil
}

// FindMatchingFreelances resolves the freelances compatible with a mission,
// consulting the short-lived matching-result cache first.
func (s *Service) FindMatchingFreelances(ctx context.Context, missionID string) ([]model.Freelance, error) {
	if ids, ok := s.cache.GetMatchingResults(ctx, missionID); ok {
		return s.repo.FreelancesByIDs(ctx, ids)
	}

	m, err := s.FindByID(ctx, missionID)
	if err != nil {
		return nil, err
	}
	freelances, err := s.repo.ListActiveFreelances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list freelances: %w", err)
	}

	matched := match.MatchingFreelances(m, freelances)
	ids := make([]string, 0, len(matched))
	for _, f := range matched {
		ids = append(ids, f.ID)
	}
	s.cache.SetMatchingResults(ctx, missionID, ids)
	return matched, nil
}

// FindMatchingMissions is the inverse lookup for a freelance profile.
func (s *Service) FindMatchingMissions(ctx context.Context, freelanceID string) ([]model.Mission, error) {
	f, err := s.repo.FreelanceByID(ctx, freelanceID)
	if err != nil {
		return nil, err
	}
	missions, err := s.repo.FindAll(ctx, model.MissionFilter{Status: model.StatusPublished})
	if err != nil {
		return nil, fmt.Errorf("list published missions: %w", err)
	}
	return match.MatchingMissions(f, missions), nil
}

// notify fans out direct notifications; failures never abort the request.
func (s *Service) notify(ctx context.Context, m *model.Mission) {
	if err := s.pub.NotifyMatchedSubscribers(ctx, m); err != nil {
		s.log.Error("subscriber notification failed", "missionId", m.ID, "err", err)
	}
}

// resolveSkills loads the referenced skills, rejecting the patch when any id
// is unknown.
func (s *Service) resolveSkills(ctx context.Context, ids []string) ([]model.Skill, error) {
	if len(ids) == 0 {
		return []model.Skill{}, nil
	}
	skills, err := s.repo.FindSkillsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	if len(skills) != len(ids) {
		found := make(map[string]struct{}, len(skills))
		for _, sk := range skills {
			found[sk.ID] = struct{}{}
		}
		var invalid []string
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				invalid = append(invalid, id)
			}
		}
		return nil, &ValidationError{Msg: "unknown skill ids", InvalidIDs: invalid}
	}
	return skills, nil
}

func checkRates(min, max int) error {
	if min <= 0 {
		return &ValidationError{Msg: "dailyRateMin must be positive"}
	}
	if max < min {
		return &ValidationError{Msg: "dailyRateMax must be >= dailyRateMin"}
	}
	return nil
}

func applyPatch(m *model.Mission, in UpdateInput) {
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.DailyRateMin != nil {
		m.DailyRateMin = *in.DailyRateMin
	}
	if in.DailyRateMax != nil {
		m.DailyRateMax = *in.DailyRateMax
	}
	if in.StartDate != nil {
		m.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		m.EndDate = in.EndDate
	}
	if in.Location != nil {
		m.Location = *in.Location
	}
	if in.CompanyName != nil {
		m.CompanyName = *in.CompanyName
	}
	if in.Address != nil {
		m.Address = *in.Address
	}
}
