package model

import (
	"sort"
	"strconv"
	"strings"
)

// RawSession is what a source adapter extracts before normalization.
// An empty field means the source did not provide it.
type RawSession struct {
	Title        string
	Time         string
	Room         string
	Speaker      string
	Track        string
	SessionType  string
	Description  string
	AudienceType string
}

// Session is the canonical, fully defaulted session record.
type Session struct {
	Title        string `json:"title"`
	Time         string `json:"time"`
	Room         string `json:"room"`
	Speaker      string `json:"speaker"`
	Track        string `json:"track"`
	SessionType  string `json:"session_type"`
	Description  string `json:"description"`
	AudienceType string `json:"audience_type"`
	Day          string `json:"day"`
}

// Collection maps a day label ("day1", "day2", ...) to its ordered sessions.
type Collection map[string][]Session

// Empty is the collection adapters hand back when nothing could be extracted.
func Empty() Collection {
	return Collection{"day1": []Session{}}
}

// Count returns the number of sessions across all days.
func (c Collection) Count() int {
	n := 0
	for _, sessions := range c {
		n += len(sessions)
	}
	return n
}

func (c Collection) IsEmpty() bool {
	return c.Count() == 0
}

// Days returns the day labels in natural order, so day2 comes before day10.
func (c Collection) Days() []string {
	days := make([]string, 0, len(c))
	for day := range c {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return dayLess(days[i], days[j])
	})
	return days
}

func dayLess(a, b string) bool {
	pa, na, oka := splitDay(a)
	pb, nb, okb := splitDay(b)
	if oka && okb && pa == pb {
		return na < nb
	}
	return a < b
}

// splitDay splits "day12" into ("day", 12).
func splitDay(label string) (string, int, bool) {
	i := len(label)
	for i > 0 && label[i-1] >= '0' && label[i-1] <= '9' {
		i--
	}
	if i == len(label) {
		return label, 0, false
	}
	n, err := strconv.Atoi(label[i:])
	if err != nil {
		return label, 0, false
	}
	return strings.ToLower(label[:i]), n, true
}
