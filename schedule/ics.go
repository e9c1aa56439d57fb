package schedule

import (
	"fmt"
	"strings"
	"time"

	"devfestsched/model"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
)

const defaultSessionLength = 30 * time.Minute

// CalendarInfo pins the clock-only session times to a real date.
type CalendarInfo struct {
	Location string
	Name     string
	// Date of day1, formatted 2006-01-02. Later days follow on consecutive dates.
	Date     string
	Timezone string
	Stamp    time.Time
}

// ToICS renders c as an iCalendar document. Sessions whose start time
// cannot be parsed have no place on a calendar and are left out.
func ToICS(c model.Collection, info CalendarInfo) (string, error) {
	loc := time.UTC
	if info.Timezone != "" {
		l, err := time.LoadLocation(info.Timezone)
		if err != nil {
			return "", fmt.Errorf("load timezone %q: %w", info.Timezone, err)
		}
		loc = l
	}
	base, err := time.ParseInLocation("2006-01-02", info.Date, loc)
	if err != nil {
		return "", fmt.Errorf("parse event date %q: %w", info.Date, err)
	}
	stamp := info.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//devfestsched//" + info.Name + "//EN")

	for dayIdx, day := range c.Days() {
		date := base.AddDate(0, 0, dayIdx)
		for i, s := range c[day] {
			start, end, ok := sessionSpan(s.Time, date)
			if !ok {
				continue
			}
			uid := uuid.NewSHA1(uuid.NameSpaceURL,
				[]byte(fmt.Sprintf("devfest/%s/%s/%d/%s", info.Location, day, i, s.Title))).String()
			ev := cal.AddEvent(uid)
			ev.SetDtStampTime(stamp)
			ev.SetStartAt(start)
			ev.SetEndAt(end)
			ev.SetSummary(s.Title)
			ev.SetLocation(s.Room)
			ev.SetDescription(describe(s))
		}
	}
	return cal.Serialize(), nil
}

func sessionSpan(field string, date time.Time) (time.Time, time.Time, bool) {
	startText, endText, hasEnd := strings.Cut(field, " - ")
	st, ok := ParseClock(startText)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start := at(date, st)
	end := start.Add(defaultSessionLength)
	if hasEnd {
		if et, ok := ParseClock(endText); ok && at(date, et).After(start) {
			end = at(date, et)
		}
	}
	return start, end, true
}

func at(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, date.Location())
}

func describe(s model.Session) string {
	lines := []string{
		"Speaker: " + s.Speaker,
		"Track: " + s.Track,
		"Session Type: " + s.SessionType,
	}
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	return strings.Join(lines, "\n")
}
