package source

import (
	"bytes"
	"context"
	"fmt"

	"devfestsched/model"
	"devfestsched/schedule"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// CSS classes of the DevFest Lagos schedule page.
const (
	lagosContainer = "schedule_scheduleItemsContainer__wkWNt"

	lagosEventBlock = "EventBlock_event__UsJua"
	lagosEventTime  = "EventBlock_time__RQGQz"
	lagosEventVenue = "EventBlock_venue__wjpVu"

	lagosBreakouts      = "EventCategory_eventSchedule__events__cCu22"
	lagosBreakout       = "EventCategory_eventSchedule__event__AhbY3"
	lagosBreakoutTitle  = "EventCategory_eventSchedule__event-title__F2air"
	lagosBreakoutSpeakr = "EventCategory_eventSchedule__event-facilitator__nWvuU"
	lagosBreakoutTime   = "EventCategory_eventSchedule__event-time__f_zfq"
)

// Lagos scrapes a server-rendered schedule page by walking its DOM.
type Lagos struct {
	fetcher *Fetcher
	log     *zap.Logger
}

func NewLagos(f *Fetcher, log *zap.Logger) *Lagos {
	if log == nil {
		log = zap.NewNop()
	}
	if f == nil {
		f = NewFetcher(log)
	}
	return &Lagos{fetcher: f, log: log}
}

func (l *Lagos) Fetch(ctx context.Context, url string) model.Collection {
	body, err := l.fetcher.Get(ctx, url)
	if err != nil {
		l.log.Error("lagos: fetching schedule failed", zap.String("url", url), zap.Error(err))
		return model.Empty()
	}
	raw, err := ExtractLagos(body)
	if err != nil {
		l.log.Warn("lagos: could not extract schedule", zap.String("url", url), zap.Error(err))
		return model.Empty()
	}
	c := schedule.Build(raw)
	if c.IsEmpty() {
		l.log.Warn("lagos: scraper finished but found 0 sessions", zap.String("url", url))
	}
	l.log.Info("lagos: scraped schedule", zap.Int("sessions", c.Count()))
	return c
}

// ExtractLagos pulls the general and breakout sessions out of a page body.
// Everything lands on day1; the page does not label days.
func ExtractLagos(body []byte) (map[string][]model.RawSession, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	container := find(doc, "div", lagosContainer)
	if container == nil {
		return nil, fmt.Errorf("%w: no div.%s", ErrNotFound, lagosContainer)
	}

	sessions := generalSessions(container)
	sessions = append(sessions, breakoutSessions(container)...)
	return map[string][]model.RawSession{"day1": sessions}, nil
}

func generalSessions(container *html.Node) []model.RawSession {
	var out []model.RawSession
	for _, block := range findAll(container, "div", lagosEventBlock) {
		title := text(find(block, "h3", ""))
		out = append(out, model.RawSession{
			Title:       title,
			Time:        text(find(block, "div", lagosEventTime)),
			Room:        venue(find(block, "div", lagosEventVenue)),
			Speaker:     "N/A",
			Track:       "General",
			SessionType: lagosSessionType(title),
		})
	}
	return out
}

// venue prefers the inner span, then the whole venue block.
func venue(n *html.Node) string {
	if n == nil {
		return ""
	}
	if s := text(find(n, "span", "")); s != "" {
		return s
	}
	return text(n)
}

func breakoutSessions(container *html.Node) []model.RawSession {
	group := find(container, "div", lagosBreakouts)
	if group == nil {
		return nil
	}
	var out []model.RawSession
	for _, block := range findAll(group, "div", lagosBreakout) {
		speaker := "Not specified"
		if p := find(block, "p", lagosBreakoutSpeakr); p != nil {
			speaker = text(p)
		}
		timeBox := find(block, "div", lagosBreakoutTime)
		when := text(timeBox)
		if span := find(timeBox, "span", "text-sm"); span != nil {
			when = text(span)
		}
		out = append(out, model.RawSession{
			Title:       text(find(block, "h3", lagosBreakoutTitle)),
			Time:        when,
			Room:        "Breakout Room",
			Speaker:     speaker,
			Track:       "Breakout",
			SessionType: "Breakout Session",
		})
	}
	return out
}
