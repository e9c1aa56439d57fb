package schedule

import (
	"fmt"
	"strings"

	"devfestsched/model"
)

const unavailablePrefix = "No schedule data currently available"

// Unavailable is the text Format produces for a collection without sessions.
func Unavailable(eventName string) string {
	return fmt.Sprintf("%s for %s from the official source.", unavailablePrefix, eventName)
}

// IsUnavailable reports whether text is the no-data sentinel from Format.
func IsUnavailable(text string) bool {
	return strings.Contains(text, unavailablePrefix)
}

// Format renders c as the plain-text schedule handed to the assistant as context.
func Format(c model.Collection, eventName string) string {
	if c.IsEmpty() {
		return Unavailable(eventName)
	}

	parts := []string{fmt.Sprintf("Schedule for %s:\n", eventName)}
	for _, day := range c.Days() {
		sessions := c[day]
		if len(sessions) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("\n--- %s ---", DayTitle(day)))
		for _, s := range sessions {
			lines := []string{
				"Title: " + s.Title,
				"Time: " + s.Time,
				"Room: " + s.Room,
				"Speaker: " + s.Speaker,
				"Track: " + s.Track,
				"Session Type: " + s.SessionType,
			}
			if d := strings.TrimSpace(s.Description); d != "" {
				lines = append(lines, "Description: "+d)
			}
			if s.AudienceType != "" {
				lines = append(lines, "Audience: "+s.AudienceType)
			}
			parts = append(parts, "\n"+strings.Join(lines, "\n"))
			parts = append(parts, strings.Repeat("-", 20))
		}
	}
	return strings.Join(parts, "\n")
}

// DayTitle turns "day1" into "Day 1".
func DayTitle(day string) string {
	return strings.Replace(day, "day", "Day ", 1)
}
