package provider

import (
	"context"
	"sync"
	"time"

	"devfestsched/model"

	"go.uber.org/zap"
)

// Publisher receives every refreshed schedule.
type Publisher interface {
	Publish(model.Update)
}

// Archiver stores refreshed schedules.
type Archiver interface {
	Save(ctx context.Context, event string, at time.Time, c model.Collection) (string, error)
}

// Loader refreshes every provider of a registry on a fixed interval.
type Loader struct {
	registry     *Registry
	publisher    Publisher
	archiver     Archiver
	loadInterval time.Duration
	log          *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type LoaderOption func(*Loader)

func WithPublisher(p Publisher) LoaderOption {
	return func(l *Loader) { l.publisher = p }
}

func WithArchiver(a Archiver) LoaderOption {
	return func(l *Loader) { l.archiver = a }
}

func NewLoader(reg *Registry, interval time.Duration, log *zap.Logger, opts ...LoaderOption) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{
		registry:     reg,
		loadInterval: interval,
		log:          log,
		stopChan:     make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Start loads every schedule immediately, then again on each tick.
func (l *Loader) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.wg.Add(1)
	go l.run(ctx)
}

// Stop cancels any in-flight fetch and waits for the loop to exit.
func (l *Loader) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopChan)
		if l.cancel != nil {
			l.cancel()
		}
	})
	l.wg.Wait()
	l.log.Info("schedule loader stopped")
}

func (l *Loader) run(ctx context.Context) {
	defer l.wg.Done()

	l.loadAll(ctx)

	ticker := time.NewTicker(l.loadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.loadAll(ctx)
		case <-l.stopChan:
			return
		}
	}
}

func (l *Loader) loadAll(ctx context.Context) {
	for _, p := range l.registry.Providers() {
		if ctx.Err() != nil {
			return
		}
		l.Refresh(ctx, p)
	}
}

// Refresh refetches one provider, publishes the result and archives it when
// an archiver is configured. Nothing is published when ctx ends first.
func (l *Loader) Refresh(ctx context.Context, p *Provider) model.Update {
	l.log.Debug("refreshing schedule", zap.String("event", p.Location()))
	p.Refresh(ctx)
	u := p.Update(ctx)
	if ctx.Err() != nil {
		// the fetch was abandoned; clients already hold the cached copy
		return u
	}

	if l.archiver != nil && u.Sessions > 0 {
		id, err := l.archiver.Save(ctx, u.Event, u.FetchedAt, u.Schedule)
		if err != nil {
			l.log.Error("archiving schedule failed", zap.String("event", u.Event), zap.Error(err))
		} else {
			l.log.Debug("archived schedule", zap.String("event", u.Event), zap.String("snapshot", id))
		}
	}
	if l.publisher != nil {
		l.publisher.Publish(u)
	}
	l.log.Info("loaded schedule", zap.String("event", u.Event), zap.Int("sessions", u.Sessions))
	return u
}
