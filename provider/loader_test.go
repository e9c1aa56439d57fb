package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"devfestsched/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []model.Update
}

func (r *recordingPublisher) Publish(u model.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingPublisher) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, u := range r.updates {
		out = append(out, u.Event)
	}
	return out
}

type recordingArchiver struct {
	saved []string
	err   error
}

func (a *recordingArchiver) Save(_ context.Context, event string, _ time.Time, _ model.Collection) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.saved = append(a.saved, event)
	return "snap-" + event, nil
}

func TestLoaderLoadsOnStartAndStops(t *testing.T) {
	lagosSrc := &countingSource{c: sampleCollection(), urls: make(chan string, 8)}
	reg := NewRegistry(New(model.EventInfo{Location: "Lagos", URL: "lagos-url"}, lagosSrc, zaptest.NewLogger(t)))
	pub := &recordingPublisher{}

	l := NewLoader(reg, time.Hour, zaptest.NewLogger(t), WithPublisher(pub))
	l.Start()

	select {
	case url := <-lagosSrc.urls:
		assert.Equal(t, "lagos-url", url)
	case <-time.After(5 * time.Second):
		t.Fatal("loader did not fetch on start")
	}
	l.Stop()
	l.Stop()

	assert.Equal(t, []string{"Lagos"}, pub.events())
}

func TestLoaderRefreshesOnTick(t *testing.T) {
	src := &countingSource{c: sampleCollection(), urls: make(chan string, 64)}
	reg := NewRegistry(New(model.EventInfo{Location: "Lagos"}, src, zaptest.NewLogger(t)))

	l := NewLoader(reg, 10*time.Millisecond, zaptest.NewLogger(t))
	l.Start()
	defer l.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-src.urls:
		case <-time.After(5 * time.Second):
			t.Fatalf("only %d fetches before timeout", i)
		}
	}
}

func TestLoaderRefreshArchivesNonEmpty(t *testing.T) {
	full := New(model.EventInfo{Location: "lagos"}, &countingSource{c: sampleCollection()}, zaptest.NewLogger(t))
	empty := New(model.EventInfo{Location: "nairobi"}, &countingSource{c: model.Empty()}, zaptest.NewLogger(t))
	arch := &recordingArchiver{}
	pub := &recordingPublisher{}
	l := NewLoader(NewRegistry(full, empty), time.Hour, zaptest.NewLogger(t), WithArchiver(arch), WithPublisher(pub))

	u := l.Refresh(context.Background(), full)
	assert.Equal(t, 2, u.Sessions)
	l.Refresh(context.Background(), empty)

	assert.Equal(t, []string{"lagos"}, arch.saved)
	assert.Equal(t, []string{"lagos", "nairobi"}, pub.events())
}

func TestLoaderRefreshArchiveFailureStillPublishes(t *testing.T) {
	p := New(model.EventInfo{Location: "lagos"}, &countingSource{c: sampleCollection()}, zaptest.NewLogger(t))
	pub := &recordingPublisher{}
	l := NewLoader(NewRegistry(p), time.Hour, zaptest.NewLogger(t),
		WithArchiver(&recordingArchiver{err: errors.New("disk full")}), WithPublisher(pub))

	l.Refresh(context.Background(), p)
	require.Len(t, pub.events(), 1)
}
