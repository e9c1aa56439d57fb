// Package schedule turns adapter output into canonical, ordered session
// collections and renders them as text, JSON or iCalendar.
package schedule

import (
	"strings"

	"devfestsched/model"
)

// Defaults applied by Normalize when a field is absent.
const (
	DefaultTitle        = "No Title"
	DefaultTime         = "Time not specified"
	DefaultRoom         = "Main Hall"
	DefaultSpeaker      = "N/A"
	DefaultTrack        = "General"
	DefaultSessionType  = "General"
	DefaultAudienceType = "IN_PERSON"
)

// Normalize maps a raw adapter record onto the canonical record for day.
func Normalize(raw model.RawSession, day string) model.Session {
	return model.Session{
		Title:        orDefault(raw.Title, DefaultTitle),
		Time:         orDefault(raw.Time, DefaultTime),
		Room:         orDefault(raw.Room, DefaultRoom),
		Speaker:      orDefault(raw.Speaker, DefaultSpeaker),
		Track:        orDefault(raw.Track, DefaultTrack),
		SessionType:  orDefault(raw.SessionType, DefaultSessionType),
		Description:  strings.TrimSpace(raw.Description),
		AudienceType: orDefault(raw.AudienceType, DefaultAudienceType),
		Day:          day,
	}
}

// Build normalizes every day of raw and sorts each day by start time.
// A raw map without sessions yields model.Empty().
func Build(raw map[string][]model.RawSession) model.Collection {
	out := model.Collection{}
	for day, records := range raw {
		sessions := make([]model.Session, 0, len(records))
		for _, r := range records {
			sessions = append(sessions, Normalize(r, day))
		}
		out[day] = Sort(sessions)
	}
	if _, ok := out["day1"]; !ok && out.IsEmpty() {
		return model.Empty()
	}
	return out
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
