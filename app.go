package main

import (
	"errors"
	"fmt"
	"time"

	"devfestsched/archive"
	"devfestsched/config"
	"devfestsched/provider"
	"devfestsched/schedule"
	"devfestsched/source"

	"go.uber.org/zap"
)

// newRegistry wires one provider per configured event, all sharing a fetcher.
func newRegistry(c *config.Config, log *zap.Logger) (*provider.Registry, error) {
	fetcher := source.NewFetcher(log,
		source.WithTimeout(c.HTTP.GetTimeout()),
		source.WithHeaders(c.HTTP.UserAgent, c.HTTP.Accept),
		source.WithDumpDir(c.HTTP.DumpDir),
	)
	reg := provider.NewRegistry()
	for _, info := range c.EventInfos() {
		src, err := source.New(info.Source, fetcher, log)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", info.Location, err)
		}
		reg.Add(provider.New(info, src, log, provider.WithOutputDir(c.Output.Dir)))
	}
	return reg, nil
}

func openArchive(c *config.Config) (*archive.Store, error) {
	if c.Archive.Path == "" {
		return nil, errors.New("no archive configured (set archive.path or DEVFEST_ARCHIVE)")
	}
	return archive.Open(c.Archive.Path)
}

// calendarInfo pins an event's sessions to its configured first day,
// falling back to today when none is set.
func calendarInfo(c *config.Config, p *provider.Provider, now time.Time) schedule.CalendarInfo {
	ev := c.Events[p.Location()]
	date := ev.Date
	if date == "" {
		date = now.Format("2006-01-02")
	}
	return schedule.CalendarInfo{
		Location: p.Location(),
		Name:     p.Name(),
		Date:     date,
		Timezone: ev.Timezone,
		Stamp:    now,
	}
}
