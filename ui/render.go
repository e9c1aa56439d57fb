// Package ui renders schedules for the terminal.
package ui

import (
	"strings"

	"devfestsched/model"
	"devfestsched/schedule"

	"github.com/charmbracelet/lipgloss"
)

const NoData = "No schedule data available to display (scraper might have found nothing or failed)."

var (
	ColorCyan   = lipgloss.Color("#00FFFF")
	ColorYellow = lipgloss.Color("#FFFF00")
	ColorGray   = lipgloss.Color("#666666")
	ColorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	DayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorYellow)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SessionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWhite)

	RuleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// Render lays out c day by day. Speaker and track are omitted when they
// carry their default values; descriptions only appear with details.
func Render(c model.Collection, eventName string, details bool) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("=== " + eventName + " Schedule ==="))
	b.WriteString("\n")

	if c.IsEmpty() {
		b.WriteString("\n" + NoData + "\n")
		return b.String()
	}

	for _, day := range c.Days() {
		sessions := c[day]
		if len(sessions) == 0 {
			continue
		}
		b.WriteString("\n" + DayStyle.Render("=== "+schedule.DayTitle(day)+" ===") + "\n")
		for _, s := range sessions {
			field(&b, "Time", s.Time)
			b.WriteString(LabelStyle.Render("  Title: ") + SessionTitleStyle.Render(s.Title) + "\n")
			if s.Room != "" {
				field(&b, "Room", s.Room)
			}
			if s.Speaker != "" && s.Speaker != schedule.DefaultSpeaker {
				field(&b, "Speaker", s.Speaker)
			}
			if s.Track != "" && s.Track != schedule.DefaultTrack {
				field(&b, "Track", s.Track)
			}
			if s.SessionType != "" {
				field(&b, "Type", s.SessionType)
			}
			if d := strings.TrimSpace(s.Description); details && d != "" {
				field(&b, "Description", d)
			}
			b.WriteString(RuleStyle.Render("  "+strings.Repeat("-", 40)) + "\n")
		}
	}
	return b.String()
}

func field(b *strings.Builder, label, value string) {
	b.WriteString(LabelStyle.Render("  "+label+": ") + value + "\n")
}
