package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Journal drivers.
const (
	JournalNone   = ""
	JournalMemory = "memory"
	JournalSQLite = "sqlite"
)

// Settings configures a barrier and its collaborators.
type Settings struct {
	// DefaultTimeout applies to one-shot waits that set no timeout.
	// Zero means wait forever.
	DefaultTimeout time.Duration

	// StreamIdleTimeout applies to streams that set no timeout.
	// Zero means no inactivity timeout.
	StreamIdleTimeout time.Duration

	// Metrics enables OpenTelemetry metrics.
	Metrics bool

	// Tracing enables OpenTelemetry spans around blocking waits.
	Tracing bool

	// LogLevel is a slog level name ("debug", "info", "warn", "error").
	LogLevel string

	Observer ObserverSettings
	Journal  JournalSettings
}

// ObserverSettings configures the raw observer bus.
// Publishing never blocks the producer; occurrences that do not fit a
// subscriber's buffer are dropped and logged.
type ObserverSettings struct {
	Enabled    bool
	BufferSize int
}

// JournalSettings configures where notified values are journaled.
type JournalSettings struct {
	Driver string // "", "memory" or "sqlite"
	Path   string // database file for the sqlite driver
}

// Defaults returns the settings used for keys that are not present.
func Defaults() Settings {
	return Settings{
		LogLevel: "info",
		Observer: ObserverSettings{
			BufferSize: 256,
		},
	}
}

// FromMap builds Settings from a decoded document.
// If data is nil, Defaults() is returned.
func FromMap(data map[string]any) Settings {
	s := Defaults()
	v := values(data)

	s.DefaultTimeout = v.durationOr("default_timeout", s.DefaultTimeout)
	s.StreamIdleTimeout = v.durationOr("stream_idle_timeout", s.StreamIdleTimeout)
	s.Metrics = v.boolOr("metrics", s.Metrics)
	s.Tracing = v.boolOr("tracing", s.Tracing)
	s.LogLevel = v.stringOr("log_level", s.LogLevel)

	obs := v.section("observer")
	s.Observer.Enabled = obs.boolOr("enabled", s.Observer.Enabled)
	s.Observer.BufferSize = obs.intOr("buffer_size", s.Observer.BufferSize)

	j := v.section("journal")
	s.Journal.Driver = j.stringOr("driver", s.Journal.Driver)
	s.Journal.Path = j.stringOr("path", s.Journal.Path)

	return s
}

// Validate reports settings that cannot be used.
func (s Settings) Validate() error {
	if s.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must not be negative: %s", s.DefaultTimeout)
	}
	if s.StreamIdleTimeout < 0 {
		return fmt.Errorf("stream_idle_timeout must not be negative: %s", s.StreamIdleTimeout)
	}
	if s.Observer.BufferSize <= 0 {
		return fmt.Errorf("observer.buffer_size must be positive: %d", s.Observer.BufferSize)
	}
	if _, err := s.Level(); err != nil {
		return err
	}

	switch s.Journal.Driver {
	case JournalNone:
		return nil
	case JournalMemory:
	case JournalSQLite:
		if s.Journal.Path == "" {
			return fmt.Errorf("journal.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown journal driver: %q", s.Journal.Driver)
	}
	if !s.Observer.Enabled {
		return fmt.Errorf("journal requires observer.enabled")
	}

	return nil
}

// Level parses LogLevel.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// NewLogger returns a JSON slog logger writing to w at the configured level.
// An unparsable level falls back to info.
func (s Settings) NewLogger(w io.Writer) *slog.Logger {
	level, _ := s.Level()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
