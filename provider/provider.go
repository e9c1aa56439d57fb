// Package provider memoizes the schedule of each configured event and keeps
// it fresh for long-running consumers.
package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"devfestsched/model"
	"devfestsched/schedule"
	"devfestsched/source"

	"go.uber.org/zap"
)

// Provider fetches one event's schedule on first use and serves the cached
// copy until Refresh. It is safe for concurrent use; concurrent callers wait
// for a single in-flight fetch.
type Provider struct {
	info   model.EventInfo
	src    source.Source
	log    *zap.Logger
	now    func() time.Time
	outDir string

	mu        sync.Mutex
	raw       model.Collection
	text      string
	fetchedAt time.Time
}

type Option func(*Provider)

// WithOutputDir sets the directory SaveJSON writes default-named files to.
func WithOutputDir(dir string) Option {
	return func(p *Provider) { p.outDir = dir }
}

func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

func New(info model.EventInfo, src source.Source, log *zap.Logger, opts ...Option) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	if info.Name == "" {
		info.Name = DefaultName(info.Location)
	}
	p := &Provider{
		info: info,
		src:  src,
		log:  log.With(zap.String("event", info.Location)),
		now:  time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Provider) Name() string     { return p.info.Name }
func (p *Provider) Location() string { return p.info.Location }
func (p *Provider) Info() model.EventInfo {
	return p.info
}

// Raw returns the event's collection, fetching it on the first call.
func (p *Provider) Raw(ctx context.Context) model.Collection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rawLocked(ctx)
}

func (p *Provider) rawLocked(ctx context.Context) model.Collection {
	if p.raw == nil {
		c, ok := p.fetchLocked(ctx)
		if !ok {
			return c
		}
	}
	return p.raw
}

// fetchLocked fetches and caches the collection. A fetch cut short by ctx
// says nothing about the source, so its result is returned uncached and
// ok is false.
func (p *Provider) fetchLocked(ctx context.Context) (model.Collection, bool) {
	c := p.src.Fetch(ctx, p.info.URL)
	if err := ctx.Err(); err != nil {
		p.log.Warn("fetch abandoned, keeping cached schedule", zap.Error(err))
		return c, false
	}
	p.raw = c
	p.text = ""
	p.fetchedAt = p.now()
	p.log.Info("retrieved schedule", zap.Int("sessions", c.Count()))
	return c, true
}

// Text returns the formatted schedule, or the unavailability sentence when
// nothing could be fetched.
func (p *Provider) Text(ctx context.Context) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.text == "" {
		c := p.rawLocked(ctx)
		if p.raw == nil {
			return schedule.Format(c, p.info.Name)
		}
		p.text = schedule.Format(c, p.info.Name)
		if schedule.IsUnavailable(p.text) {
			p.log.Warn("no schedule data was available to format")
		} else {
			p.log.Info("formatted schedule into text")
		}
	}
	return p.text
}

// Refresh fetches the schedule again and replaces the cached copy. When ctx
// ends before the fetch completes the cached copy is kept and returned.
func (p *Provider) Refresh(ctx context.Context) model.Collection {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.fetchLocked(ctx)
	if !ok && p.raw != nil {
		return p.raw
	}
	return c
}

// Update wraps the current collection for publishing.
func (p *Provider) Update(ctx context.Context) model.Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.rawLocked(ctx)
	return model.Update{
		Event:     p.info.Location,
		Name:      p.info.Name,
		FetchedAt: p.fetchedAt,
		Sessions:  c.Count(),
		Schedule:  c,
	}
}

// SaveJSON writes the collection to filename, or to a timestamped default
// name in the output directory when filename is empty. An empty collection
// is not written and reports saved == false.
func (p *Provider) SaveJSON(ctx context.Context, filename string) (path string, saved bool, err error) {
	c := p.Raw(ctx)
	if c.IsEmpty() {
		p.log.Info("no schedule data to save")
		return "", false, nil
	}
	path = filename
	if path == "" {
		path = filepath.Join(p.outDir, schedule.DefaultFilename(p.info.Location, p.now()))
	}
	if err := schedule.SaveJSON(path, c); err != nil {
		return "", false, fmt.Errorf("save %s schedule: %w", p.info.Location, err)
	}
	p.log.Info("raw schedule saved", zap.String("path", path))
	return path, true, nil
}
