// Package config loads the devfest configuration from YAML, .env and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"devfestsched/model"
	"devfestsched/source"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "devfest.yaml"

// Config holds all devfest configuration.
type Config struct {
	// Events keyed by location.
	Events map[string]EventConfig `yaml:"events"`

	HTTP    HTTPConfig    `yaml:"http"`
	LLM     LLMConfig     `yaml:"llm"`
	Server  ServerConfig  `yaml:"server"`
	Archive ArchiveConfig `yaml:"archive"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// EventConfig describes where an event publishes its schedule.
type EventConfig struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Source string `yaml:"source"` // dom, embedded, file
	// Date of the first day, 2006-01-02. Only used for calendar export.
	Date     string `yaml:"date"`
	Timezone string `yaml:"timezone"`
}

type HTTPConfig struct {
	UserAgent string `yaml:"user_agent"`
	Accept    string `yaml:"accept"`
	Timeout   string `yaml:"timeout"`
	DumpDir   string `yaml:"dump_dir"`
}

type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	RefreshInterval string `yaml:"refresh_interval"`
}

type ArchiveConfig struct {
	// Path of the SQLite archive. Empty disables archiving.
	Path string `yaml:"path"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

func DefaultConfig() *Config {
	return &Config{
		Events: defaultEvents(),
		HTTP: HTTPConfig{
			UserAgent: source.DefaultUserAgent,
			Accept:    source.DefaultAccept,
			Timeout:   "30s",
		},
		LLM: LLMConfig{
			Model: "gemini-1.5-flash",
		},
		Server: ServerConfig{
			Addr:            "localhost:8080",
			RefreshInterval: "8h",
		},
		Output:  OutputConfig{Dir: "."},
		Logging: LoggingConfig{Level: "info"},
	}
}

func defaultEvents() map[string]EventConfig {
	return map[string]EventConfig{
		"lagos": {
			Name:     "DevFest Lagos 2024",
			URL:      "https://2024.devfestlagos.com/schedule",
			Source:   source.KindDOM,
			Date:     "2024-11-16",
			Timezone: "Africa/Lagos",
		},
		"nairobi": {
			Name:     "DevFest Nairobi 2024",
			URL:      "https://gdg.community.dev/events/details/google-gdg-nairobi-presents-devfest-nairobi-2024-1/",
			Source:   source.KindEmbedded,
			Date:     "2024-11-16",
			Timezone: "Africa/Nairobi",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.fillEventDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// fillEventDefaults completes partially configured built-in events, since
// YAML replaces a map entry wholesale.
func (c *Config) fillEventDefaults() {
	defaults := defaultEvents()
	normalized := make(map[string]EventConfig, len(c.Events))
	for loc, ev := range c.Events {
		loc = strings.ToLower(strings.TrimSpace(loc))
		if def, ok := defaults[loc]; ok {
			ev.Name = firstNonEmpty(ev.Name, def.Name)
			ev.URL = firstNonEmpty(ev.URL, def.URL)
			ev.Source = firstNonEmpty(ev.Source, def.Source)
			ev.Date = firstNonEmpty(ev.Date, def.Date)
			ev.Timezone = firstNonEmpty(ev.Timezone, def.Timezone)
		}
		normalized[loc] = ev
	}
	c.Events = normalized
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if path := os.Getenv("DEVFEST_ARCHIVE"); path != "" {
		c.Archive.Path = path
	}
	if addr := os.Getenv("DEVFEST_LISTEN"); addr != "" {
		c.Server.Addr = addr
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	for loc, ev := range c.Events {
		switch ev.Source {
		case source.KindDOM, source.KindEmbedded, source.KindFile:
		default:
			return fmt.Errorf("event %s: unknown source %q", loc, ev.Source)
		}
		if ev.URL == "" {
			return fmt.Errorf("event %s: url is required", loc)
		}
	}
	if _, err := parseDuration(c.HTTP.Timeout); err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if _, err := parseDuration(c.Server.RefreshInterval); err != nil {
		return fmt.Errorf("server.refresh_interval: %w", err)
	}
	return nil
}

// GetTimeout returns the HTTP timeout, zero meaning none.
func (h HTTPConfig) GetTimeout() time.Duration {
	d, _ := parseDuration(h.Timeout)
	return d
}

// GetRefreshInterval returns the schedule refresh interval, 8h when unset.
func (s ServerConfig) GetRefreshInterval() time.Duration {
	d, err := parseDuration(s.RefreshInterval)
	if err != nil || d <= 0 {
		return 8 * time.Hour
	}
	return d
}

// EventInfos returns the configured events sorted by location.
func (c *Config) EventInfos() []model.EventInfo {
	locs := make([]string, 0, len(c.Events))
	for loc := range c.Events {
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	out := make([]model.EventInfo, 0, len(locs))
	for _, loc := range locs {
		ev := c.Events[loc]
		out = append(out, model.EventInfo{
			Location: loc,
			Name:     ev.Name,
			URL:      ev.URL,
			Source:   ev.Source,
		})
	}
	return out
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func firstNonEmpty(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
