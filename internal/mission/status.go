// Package mission implements the mission lifecycle and its orchestration.
//
// Valid status graph:
//
//	DRAFT ──► PUBLISHED ──► IN_PROGRESS ──► COMPLETED
//	  │            │             │
//	  └────────────┴─────────────┴──► CANCELLED
//
// COMPLETED and CANCELLED are terminal states.
package mission

import (
	"fmt"
	"time"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[model.MissionStatus][]model.MissionStatus{
	model.StatusDraft:      {model.StatusPublished, model.StatusCancelled},
	model.StatusPublished:  {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
	// COMPLETED and CANCELLED are terminal — no outgoing transitions
}

// ParseStatus converts a raw string to a MissionStatus, returning an error
// for unknown values.
func ParseStatus(s string) (model.MissionStatus, error) {
	st := model.MissionStatus(s)
	switch st {
	case model.StatusDraft, model.StatusPublished, model.StatusInProgress,
		model.StatusCompleted, model.StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown mission status %q", s)
}

// ParseLocation converts a raw string to a MissionLocation.
func ParseLocation(s string) (model.MissionLocation, error) {
	loc := model.MissionLocation(s)
	switch loc {
	case model.LocationRemote, model.LocationOnSite, model.LocationHybrid:
		return loc, nil
	}
	return "", fmt.Errorf("unknown mission location %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine.
func IsTransitionAllowed(from, to model.MissionStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// CheckPublishable reports whether m carries everything a published mission
// needs: non-empty title and description, a positive rate range with
// min ≤ max, and at least one skill. Returns a ValidationError describing the
// first missing piece.
func CheckPublishable(m *model.Mission) error {
	switch {
	case m.Title == "":
		return &ValidationError{Msg: "title is required to publish"}
	case m.Description == "":
		return &ValidationError{Msg: "description is required to publish"}
	case m.DailyRateMin <= 0:
		return &ValidationError{Msg: "dailyRateMin must be positive"}
	case m.DailyRateMax < m.DailyRateMin:
		return &ValidationError{Msg: "dailyRateMax must be >= dailyRateMin"}
	case len(m.Skills) == 0:
		return &ValidationError{Msg: "at least one skill is required to publish"}
	}
	return nil
}

// Publish transitions m to PUBLISHED. It fails without mutating m when the
// mission is not in DRAFT or is missing required fields.
func Publish(m *model.Mission) error {
	if !IsTransitionAllowed(m.Status, model.StatusPublished) {
		return &InvalidTransitionError{From: m.Status, To: model.StatusPublished}
	}
	if err := CheckPublishable(m); err != nil {
		return err
	}
	m.Status = model.StatusPublished
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions m to CANCELLED. Allowed from every state except
// COMPLETED; cancelling an already-cancelled mission is an idempotent no-op.
func Cancel(m *model.Mission) error {
	if m.Status == model.StatusCompleted {
		return &InvalidTransitionError{From: m.Status, To: model.StatusCancelled}
	}
	if m.Status == model.StatusCancelled {
		return nil
	}
	m.Status = model.StatusCancelled
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// Transition moves m to an arbitrary target status, enforcing the graph and
// the publish preconditions when the target is PUBLISHED.
func Transition(m *model.Mission, to model.MissionStatus) error {
	if to == model.StatusPublished {
		return Publish(m)
	}
	if to == model.StatusCancelled {
		return Cancel(m)
	}
	if !IsTransitionAllowed(m.Status, to) {
		return &InvalidTransitionError{From: m.Status, To: to}
	}
	m.Status = to
	m.UpdatedAt = time.Now().UTC()
	return nil
}
