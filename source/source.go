// Package source holds the adapters that turn one event's web page into a
// schedule collection. Adapters never fail: transport errors, layout changes
// and parse errors are logged and reported as an empty collection.
package source

import (
	"context"
	"errors"
	"fmt"

	"devfestsched/model"

	"go.uber.org/zap"
)

// Source kinds accepted by New.
const (
	KindDOM      = "dom"
	KindEmbedded = "embedded"
	KindFile     = "file"
)

var (
	ErrBadStatus = errors.New("bad status")
	// ErrNotFound means the page no longer has the structure an adapter expects.
	ErrNotFound = errors.New("schedule structure not found")
)

// Source fetches one event's schedule.
type Source interface {
	Fetch(ctx context.Context, url string) model.Collection
}

// New returns the adapter for kind.
func New(kind string, f *Fetcher, log *zap.Logger) (Source, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch kind {
	case KindDOM:
		return NewLagos(f, log), nil
	case KindEmbedded:
		return NewNairobi(f, log), nil
	case KindFile:
		return NewFile(log), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", kind)
}
