package schedule

import (
	"strings"
	"testing"
	"time"

	"devfestsched/model"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToICS(t *testing.T) {
	c := model.Collection{
		"day1": {
			{Title: "Keynote", Time: "9:00 AM - 10:00 AM", Room: "Main Hall", Speaker: "Ada", Track: "General", SessionType: "Keynote"},
			{Title: "Mystery", Time: "Time not specified", Room: "Main Hall"},
			{Title: "Workshop", Time: "14:00", Room: "Rooftop Hall"},
		},
		"day2": {
			{Title: "Day two", Time: "8:00 AM", Room: "Main Hall"},
		},
	}
	out, err := ToICS(c, CalendarInfo{
		Location: "lagos",
		Name:     "DevFest Lagos 2024",
		Date:     "2024-11-16",
		Timezone: "UTC",
		Stamp:    time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 3, "the session without a parseable time is skipped")

	byTitle := map[string]*ics.VEvent{}
	for _, ev := range events {
		byTitle[ev.GetProperty(ics.ComponentPropertySummary).Value] = ev
	}

	keynote := byTitle["Keynote"]
	require.NotNil(t, keynote)
	start, err := keynote.GetStartAt()
	require.NoError(t, err)
	end, err := keynote.GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 16, 9, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2024, 11, 16, 10, 0, 0, 0, time.UTC), end.UTC())
	assert.Equal(t, "Main Hall", keynote.GetProperty(ics.ComponentPropertyLocation).Value)

	workshop := byTitle["Workshop"]
	require.NotNil(t, workshop)
	wEnd, err := workshop.GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 16, 14, 30, 0, 0, time.UTC), wEnd.UTC())

	dayTwo := byTitle["Day two"]
	require.NotNil(t, dayTwo)
	d2, err := dayTwo.GetStartAt()
	require.NoError(t, err)
	assert.Equal(t, 17, d2.UTC().Day())
}

func TestToICSDeterministicUIDs(t *testing.T) {
	c := model.Collection{"day1": {{Title: "Keynote", Time: "9:00 AM"}}}
	info := CalendarInfo{Location: "lagos", Name: "L", Date: "2024-11-16", Stamp: time.Unix(0, 0)}
	a, err := ToICS(c, info)
	require.NoError(t, err)
	b, err := ToICS(c, info)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestToICSBadDate(t *testing.T) {
	_, err := ToICS(model.Empty(), CalendarInfo{Date: "16/11/2024"})
	assert.Error(t, err)
}
