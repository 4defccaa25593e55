// Package model defines the shared domain structures of the mission service.
package model

import "time"

// MissionStatus mirrors the mission_status enum in PostgreSQL.
type MissionStatus string

const (
	StatusDraft      MissionStatus = "DRAFT"
	StatusPublished  MissionStatus = "PUBLISHED"
	StatusInProgress MissionStatus = "IN_PROGRESS"
	StatusCompleted  MissionStatus = "COMPLETED"
	StatusCancelled  MissionStatus = "CANCELLED"
)

// MissionLocation mirrors the mission_location enum in PostgreSQL.
type MissionLocation string

const (
	LocationRemote MissionLocation = "REMOTE"
	LocationOnSite MissionLocation = "ON_SITE"
	LocationHybrid MissionLocation = "HYBRID"
)

// Mission is a posted freelance work engagement.
type Mission struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Status           MissionStatus   `json:"status"`
	DailyRateMin     int             `json:"dailyRateMin"`
	DailyRateMax     int             `json:"dailyRateMax"`
	StartDate        *time.Time      `json:"startDate,omitempty"`
	EndDate          *time.Time      `json:"endDate,omitempty"`
	Location         MissionLocation `json:"location"`
	CompanyName      string          `json:"companyName,omitempty"`
	Address          string          `json:"address,omitempty"`
	DiscordMessageID string          `json:"discordMessageId,omitempty"`
	Skills           []Skill         `json:"skills"`
	Applications     []Application   `json:"applications,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// SkillNames returns the names of the mission's skills, in stored order.
func (m *Mission) SkillNames() []string {
	names := make([]string, 0, len(m.Skills))
	for _, s := range m.Skills {
		names = append(names, s.Name)
	}
	return names
}

// Duration returns the mission length in whole days (ceiling), or false when
// either bound of the date range is missing.
func (m *Mission) Duration() (int, bool) {
	if m.StartDate == nil || m.EndDate == nil {
		return 0, false
	}
	d := m.EndDate.Sub(*m.StartDate)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days, true
}

// Freelance is a worker profile, used here as a matching target.
type Freelance struct {
	ID          string    `json:"id"`
	DiscordID   string    `json:"discordId"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	DailyRate   int       `json:"dailyRate"`
	IsActive    bool      `json:"isActive"`
	IsAvailable bool      `json:"isAvailable"`
	Skills      []Skill   `json:"skills"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SkillNames returns the names of the freelance's skills.
func (f *Freelance) SkillNames() []string {
	names := make([]string, 0, len(f.Skills))
	for _, s := range f.Skills {
		names = append(names, s.Name)
	}
	return names
}

// Alert is a saved search owned by a Discord user. MinRate/MaxRate and
// Location are optional constraints; nil / empty means "no constraint".
type Alert struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Skills    []string  `json:"skills"`
	MinRate   *int      `json:"minRate,omitempty"`
	MaxRate   *int      `json:"maxRate,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Skill is a named tag referenced by missions and freelances.
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Application links a freelance to a mission they applied to.
type Application struct {
	ID          string    `json:"id"`
	MissionID   string    `json:"missionId"`
	FreelanceID string    `json:"freelanceId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MissionFilter narrows FindAll results. Zero-valued fields are ignored —
// absence of a filter means no constraint on that dimension.
type MissionFilter struct {
	Status   MissionStatus
	Skills   []string
	MinRate  *int
	MaxRate  *int
	Location MissionLocation
}
