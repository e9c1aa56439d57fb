package schedule

import (
	"sort"
	"strings"
	"time"

	"devfestsched/model"
)

const (
	// Minutes may be one or two digits.
	clock12 = "3:4 PM"
	clock24 = "15:4"

	// unparsed sorts before every real time of day.
	unparsed = -1
)

// Sort returns sessions ordered by start time. The sort is stable, so
// sessions with equal (or equally unparseable) times keep their order.
func Sort(sessions []model.Session) []model.Session {
	type keyed struct {
		session model.Session
		start   int
	}
	ks := make([]keyed, len(sessions))
	for i, s := range sessions {
		ks[i] = keyed{session: s, start: StartMinutes(s.Time)}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		return ks[i].start < ks[j].start
	})
	out := make([]model.Session, len(ks))
	for i, k := range ks {
		out[i] = k.session
	}
	return out
}

// StartMinutes returns the minutes after midnight of the start of a time
// field such as "10:10 AM - 10:40 AM", or -1 when it cannot be parsed.
func StartMinutes(field string) int {
	start, _, _ := strings.Cut(field, " - ")
	t, ok := ParseClock(start)
	if !ok {
		return unparsed
	}
	return t.Hour()*60 + t.Minute()
}

// ParseClock parses a clock time in 12-hour "H:MM AM" form (hours 1 to 12),
// falling back to 24-hour "HH:MM".
func ParseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(clock12, strings.ToUpper(s)); err == nil && !zeroHour(s) {
		return t, true
	}
	if t, err := time.Parse(clock24, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// zeroHour reports whether s starts with an hour of 0, which time.Parse
// accepts for 12-hour clocks.
func zeroHour(s string) bool {
	h, _, _ := strings.Cut(s, ":")
	return strings.Trim(h, "0") == "" && h != ""
}
