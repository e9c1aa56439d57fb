package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"

	maxBody = 10 << 20
)

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Fetcher performs the single browser-like GET each adapter needs.
type Fetcher struct {
	client    httpDoer
	userAgent string
	accept    string
	dumpDir   string
	log       *zap.Logger
	now       func() time.Time
}

type FetcherOption func(*Fetcher)

func WithClient(c httpDoer) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

func WithHeaders(userAgent, accept string) FetcherOption {
	return func(f *Fetcher) {
		if userAgent != "" {
			f.userAgent = userAgent
		}
		if accept != "" {
			f.accept = accept
		}
	}
}

// WithDumpDir makes the fetcher keep a copy of every page it downloads.
func WithDumpDir(dir string) FetcherOption {
	return func(f *Fetcher) { f.dumpDir = dir }
}

func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.client = &http.Client{Timeout: d} }
}

func NewFetcher(log *zap.Logger, opts ...FetcherOption) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Fetcher{
		client:    http.DefaultClient,
		userAgent: DefaultUserAgent,
		accept:    DefaultAccept,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get returns the UTF-8 decoded body of rawURL.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", f.accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	var r io.Reader = io.LimitReader(resp.Body, maxBody)
	if ur, err := charset.NewReader(r, resp.Header.Get("Content-Type")); err == nil {
		r = ur
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.dumpDir != "" {
		f.dump(u, body)
	}
	return body, nil
}

func (f *Fetcher) dump(u *url.URL, body []byte) {
	name := fmt.Sprintf("%s_%s.html", u.Hostname(), f.now().Format("20060102_150405"))
	path := filepath.Join(f.dumpDir, name)
	if err := os.MkdirAll(f.dumpDir, 0755); err != nil {
		f.log.Warn("create dump dir", zap.String("dir", f.dumpDir), zap.Error(err))
		return
	}
	if err := os.WriteFile(path, body, 0644); err != nil {
		f.log.Warn("dump page body", zap.String("path", path), zap.Error(err))
		return
	}
	f.log.Debug("dumped page body", zap.String("path", path), zap.Int("bytes", len(body)))
}
