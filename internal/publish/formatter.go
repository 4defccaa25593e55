package publish

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/actabi/FreelanceAcademy/internal/model"
)

// maxDescriptionLen bounds the description field of an announcement; longer
// text is cut and suffixed with an ellipsis marker.
const maxDescriptionLen = 1024

const notSpecified = "Not specified"

// Announcement is the channel-agnostic projection of a mission. The channel
// client maps it onto its platform's message format.
type Announcement struct {
	Title     string
	Fields    []Field
	MissionID string
	Timestamp time.Time
}

// Field is one labelled section of an announcement.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Render projects a mission into its announcement form.
func Render(m *model.Mission) Announcement {
	return Announcement{
		Title:     fmt.Sprintf("🚀 New mission: %s", m.Title),
		MissionID: m.ID,
		Timestamp: time.Now().UTC(),
		Fields: []Field{
			{Name: "💼 Description", Value: truncate(m.Description, maxDescriptionLen)},
			{Name: "💰 Daily rate", Value: formatRate(m), Inline: true},
			{Name: "📅 Duration", Value: formatDuration(m), Inline: true},
			{Name: "📍 Location", Value: string(m.Location), Inline: true},
			{Name: "🛠️ Skills", Value: formatSkills(m)},
		},
	}
}

// RenderDirect builds the plain-text direct message sent to a matched
// subscriber.
func RenderDirect(m *model.Mission) string {
	return fmt.Sprintf(
		"🚨 New mission matching your profile!\n\n**%s**\n💰 Daily rate: %s\n📍 Location: %s\n\nUse /mission %s for details.",
		m.Title, formatRate(m), m.Location, m.ID,
	)
}

func formatRate(m *model.Mission) string {
	return fmt.Sprintf("%d€ - %d€", m.DailyRateMin, m.DailyRateMax)
}

func formatDuration(m *model.Mission) string {
	days, ok := m.Duration()
	if !ok {
		return notSpecified
	}
	return fmt.Sprintf("%d days", days)
}

func formatSkills(m *model.Mission) string {
	names := m.SkillNames()
	if len(names) == 0 {
		return notSpecified
	}
	return strings.Join(names, ", ")
}

// truncate cuts text to max bytes, reserving room for the "..." marker and
// never splitting a multi-byte rune.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
