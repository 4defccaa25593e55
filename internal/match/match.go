// Package match evaluates mission/alert/freelance compatibility.
//
// All functions are pure and side-effect free: callers supply already-loaded
// values, the engine never touches the database or the cache.
package match

import (
	"strings"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

// Matches reports whether mission satisfies every constraint of alert.
//
// Predicates run cheapest-first and short-circuit: rate bounds, then
// location, then the skill intersection. An alert with no skills accepts any
// skill set; otherwise one shared skill (case-insensitive) suffices.
func Matches(m *model.Mission, a *model.Alert) bool {
	if a.MinRate != nil && m.DailyRateMin < *a.MinRate {
		return false
	}
	if a.MaxRate != nil && m.DailyRateMax > *a.MaxRate {
		return false
	}
	if a.Location != "" && string(m.Location) != a.Location {
		return false
	}
	if len(a.Skills) == 0 {
		return true
	}
	return sharesSkill(m.SkillNames(), a.Skills)
}

// MatchingFreelances filters freelances down to active profiles whose daily
// rate falls inside the mission's range (inclusive) and who hold at least one
// of the mission's skills.
func MatchingFreelances(m *model.Mission, freelances []model.Freelance) []model.Freelance {
	matched := make([]model.Freelance, 0)
	for i := range freelances {
		f := &freelances[i]
		if !f.IsActive {
			continue
		}
		if f.DailyRate < m.DailyRateMin || f.DailyRate > m.DailyRateMax {
			continue
		}
		if !sharesSkill(m.SkillNames(), f.SkillNames()) {
			continue
		}
		matched = append(matched, *f)
	}
	return matched
}

// MatchingMissions is the inverse query: PUBLISHED missions sharing a skill
// with the freelance and whose rate range contains the freelance's rate.
func MatchingMissions(f *model.Freelance, missions []model.Mission) []model.Mission {
	matched := make([]model.Mission, 0)
	for i := range missions {
		m := &missions[i]
		if m.Status != model.StatusPublished {
			continue
		}
		if f.DailyRate < m.DailyRateMin || f.DailyRate > m.DailyRateMax {
			continue
		}
		if !sharesSkill(m.SkillNames(), f.SkillNames()) {
			continue
		}
		matched = append(matched, *m)
	}
	return matched
}

// sharesSkill reports whether the two name lists intersect, ignoring case.
func sharesSkill(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, name := range a {
		set[strings.ToLower(name)] = struct{}{}
	}
	for _, name := range b {
		if _, ok := set[strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}
