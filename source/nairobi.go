package source

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"devfestsched/jsobject"
	"devfestsched/model"
	"devfestsched/schedule"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	eventInfoPattern = regexp.MustCompile(`(?s)Globals\.eventInfo\s*=\s*(\{.*?\});`)
	roomPrefix       = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)`)
)

const (
	agendaDaysPath  = "agenda.days"
	agendaItemsPath = "agenda.days.0.agenda"

	speakerSeparator = " & "
	// Fragments this long are prose that got split, not names.
	maxSpeakerLen = 70
)

// Nairobi reads the schedule from the Globals.eventInfo object a community
// event page embeds in an inline script.
type Nairobi struct {
	fetcher *Fetcher
	log     *zap.Logger
}

func NewNairobi(f *Fetcher, log *zap.Logger) *Nairobi {
	if log == nil {
		log = zap.NewNop()
	}
	if f == nil {
		f = NewFetcher(log)
	}
	return &Nairobi{fetcher: f, log: log}
}

func (n *Nairobi) Fetch(ctx context.Context, url string) model.Collection {
	n.log.Info("nairobi: fetching schedule", zap.String("url", url))
	body, err := n.fetcher.Get(ctx, url)
	if err != nil {
		n.log.Error("nairobi: fetching schedule failed", zap.String("url", url), zap.Error(err))
		return model.Empty()
	}
	raw, err := ExtractNairobi(body)
	if err != nil {
		n.log.Warn("nairobi: could not extract schedule", zap.String("url", url), zap.Error(err))
		return model.Empty()
	}
	c := schedule.Build(raw)
	n.log.Info("nairobi: processed sessions", zap.Int("sessions", c.Count()))
	return c
}

// ExtractNairobi finds the embedded event object in body and maps the
// sessions of its first agenda day onto day1.
func ExtractNairobi(body []byte) (map[string][]model.RawSession, error) {
	m := eventInfoPattern.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("%w: no Globals.eventInfo object in page", ErrNotFound)
	}
	doc, err := jsobject.ToJSON(string(m[1]))
	if err != nil {
		return nil, fmt.Errorf("parse Globals.eventInfo: %w", err)
	}

	if days := gjson.GetBytes(doc, agendaDaysPath); len(days.Array()) == 0 {
		return nil, fmt.Errorf("%w: no days in agenda", ErrNotFound)
	}
	items := gjson.GetBytes(doc, agendaItemsPath).Array()
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no sessions in %s", ErrNotFound, agendaItemsPath)
	}

	sessions := make([]model.RawSession, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, nairobiSession(item))
	}
	return map[string][]model.RawSession{"day1": sessions}, nil
}

func nairobiSession(item gjson.Result) model.RawSession {
	room, title := splitActivity(item.Get("activity").String())
	if room == "" {
		room = schedule.DefaultRoom
	}
	return model.RawSession{
		Title:        title,
		Time:         strings.TrimSpace(item.Get("time").String()),
		Room:         room,
		Speaker:      speakers(item.Get("description").String()),
		Track:        nairobiTrack(room, title),
		SessionType:  nairobiSessionType(title),
		AudienceType: item.Get("audience_type").String(),
	}
}

// splitActivity splits "[Malewa Hall] Intro to Gemini" into its room and title.
func splitActivity(activity string) (room, title string) {
	if m := roomPrefix.FindStringSubmatch(activity); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return "", strings.TrimSpace(activity)
}

// speakers reads names out of the free-text description field, which holds
// speaker names rather than an abstract on this page.
func speakers(description string) string {
	if strings.TrimSpace(description) == "" {
		return schedule.DefaultSpeaker
	}
	joined := strings.Join(textFragments(description), speakerSeparator)
	var names []string
	for _, part := range strings.Split(joined, speakerSeparator) {
		part = strings.TrimSpace(part)
		if part == "" || utf8.RuneCountInString(part) >= maxSpeakerLen {
			continue
		}
		names = append(names, part)
	}
	if len(names) == 0 {
		return schedule.DefaultSpeaker
	}
	return strings.Join(names, speakerSeparator)
}
