package publish

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

func fieldValue(t *testing.T, a Announcement, name string) string {
	t.Helper()
	for _, f := range a.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	t.Fatalf("announcement has no %q field", name)
	return ""
}

func TestRender_CompleteMission(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 30)
	m := &model.Mission{
		ID:           "m1",
		Title:        "Go backend",
		Description:  "Build the API",
		DailyRateMin: 400,
		DailyRateMax: 600,
		StartDate:    &start,
		EndDate:      &end,
		Location:     model.LocationRemote,
		Skills:       []model.Skill{{Name: "Go"}, {Name: "PostgreSQL"}},
	}

	a := Render(m)
	if a.Title != "🚀 New mission: Go backend" {
		t.Errorf("title = %q", a.Title)
	}
	if a.MissionID != "m1" {
		t.Errorf("missionId = %q", a.MissionID)
	}
	if got := fieldValue(t, a, "💰 Daily rate"); got != "400€ - 600€" {
		t.Errorf("rate = %q", got)
	}
	if got := fieldValue(t, a, "📅 Duration"); got != "30 days" {
		t.Errorf("duration = %q", got)
	}
	if got := fieldValue(t, a, "🛠️ Skills"); got != "Go, PostgreSQL" {
		t.Errorf("skills = %q", got)
	}
}

func TestRender_MissingOptionalFields(t *testing.T) {
	m := &model.Mission{Title: "x", DailyRateMin: 1, DailyRateMax: 2}

	a := Render(m)
	if got := fieldValue(t, a, "📅 Duration"); got != notSpecified {
		t.Errorf("duration = %q, want %q", got, notSpecified)
	}
	if got := fieldValue(t, a, "🛠️ Skills"); got != notSpecified {
		t.Errorf("skills = %q, want %q", got, notSpecified)
	}
}

func TestRender_DurationRoundsUp(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour + time.Hour)
	m := &model.Mission{StartDate: &start, EndDate: &end}

	if got := fieldValue(t, Render(m), "📅 Duration"); got != "2 days" {
		t.Errorf("duration = %q, want partial day counted in full", got)
	}
}

func TestRender_TruncatesLongDescription(t *testing.T) {
	m := &model.Mission{Description: strings.Repeat("a", 2000)}

	got := fieldValue(t, Render(m), "💼 Description")
	if len(got) != maxDescriptionLen {
		t.Errorf("len = %d, want %d", len(got), maxDescriptionLen)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated description must end with ellipsis marker, got %q", got[len(got)-10:])
	}
}

func TestRender_TruncationKeepsRuneBoundaries(t *testing.T) {
	// A two-byte rune straddles the byte position the marker is cut at.
	m := &model.Mission{Description: strings.Repeat("a", maxDescriptionLen-4) + "ééé"}

	got := fieldValue(t, Render(m), "💼 Description")
	if !utf8.ValidString(got) {
		t.Fatalf("truncated description is not valid UTF-8: %q", got[len(got)-10:])
	}
	if len(got) > maxDescriptionLen {
		t.Errorf("len = %d, want <= %d", len(got), maxDescriptionLen)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated description must end with ellipsis marker, got %q", got[len(got)-10:])
	}
}

func TestRender_ShortDescriptionUntouched(t *testing.T) {
	m := &model.Mission{Description: strings.Repeat("a", maxDescriptionLen)}

	got := fieldValue(t, Render(m), "💼 Description")
	if got != m.Description {
		t.Error("description at the limit must not be truncated")
	}
}

func TestRenderDirect(t *testing.T) {
	m := &model.Mission{
		ID: "m1", Title: "Go backend",
		DailyRateMin: 400, DailyRateMax: 600,
		Location: model.LocationRemote,
	}

	text := RenderDirect(m)
	for _, want := range []string{"Go backend", "400€ - 600€", "REMOTE", "/mission m1"} {
		if !strings.Contains(text, want) {
			t.Errorf("direct message missing %q:\n%s", want, text)
		}
	}
}
