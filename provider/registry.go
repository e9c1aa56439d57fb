package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"devfestsched/model"
	"devfestsched/schedule"
)

var ErrUnknownEvent = errors.New("unknown event")

// Registry holds one Provider per event location. Lookups ignore case.
type Registry struct {
	providers map[string]*Provider
}

func NewRegistry(providers ...*Provider) *Registry {
	r := &Registry{providers: make(map[string]*Provider, len(providers))}
	for _, p := range providers {
		r.Add(p)
	}
	return r
}

func (r *Registry) Add(p *Provider) {
	r.providers[strings.ToLower(p.Location())] = p
}

func (r *Registry) Get(location string) (*Provider, error) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(location))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, location)
	}
	return p, nil
}

// Locations returns the registered locations, sorted.
func (r *Registry) Locations() []string {
	out := make([]string, 0, len(r.providers))
	for k := range r.providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Providers returns the providers in Locations order.
func (r *Registry) Providers() []*Provider {
	out := make([]*Provider, 0, len(r.providers))
	for _, loc := range r.Locations() {
		out = append(out, r.providers[loc])
	}
	return out
}

// Raw returns the collection for location, or model.Empty() for an
// unknown location.
func (r *Registry) Raw(ctx context.Context, location string) model.Collection {
	p, err := r.Get(location)
	if err != nil {
		return model.Empty()
	}
	return p.Raw(ctx)
}

// Text returns the formatted schedule for location. An unknown location
// yields the unavailability sentence for its default event name.
func (r *Registry) Text(ctx context.Context, location string) string {
	p, err := r.Get(location)
	if err != nil {
		return schedule.Unavailable(DefaultName(location))
	}
	return p.Text(ctx)
}

// DefaultName is the event name used when none is configured,
// e.g. "DevFest Lagos 2024".
func DefaultName(location string) string {
	return fmt.Sprintf("DevFest %s 2024", capitalize(strings.TrimSpace(location)))
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
