package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventbarrier/pkg/barrier/config"
)

func TestFromMap_Defaults(t *testing.T) {
	s := config.FromMap(nil)

	assert.Equal(t, config.Defaults(), s)
	assert.Zero(t, s.DefaultTimeout)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 256, s.Observer.BufferSize)
	assert.NoError(t, s.Validate())
}

func TestFromMap_DurationCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "150ms", 150 * time.Millisecond},
		{"int millis", 250, 250 * time.Millisecond},
		{"int64 millis", int64(10), 10 * time.Millisecond},
		{"float millis", 1.5, 1500 * time.Microsecond},
		{"duration", 2 * time.Second, 2 * time.Second},
		{"unparsable string keeps default", "soon", 0},
		{"wrong type keeps default", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.FromMap(map[string]any{"default_timeout": tt.value})
			assert.Equal(t, tt.want, s.DefaultTimeout)
		})
	}
}

func TestFromMap_Sections(t *testing.T) {
	s := config.FromMap(map[string]any{
		"metrics":   true,
		"tracing":   true,
		"log_level": "debug",
		"observer": map[string]any{
			"enabled":     true,
			"buffer_size": float64(64),
		},
		"journal": map[string]any{
			"driver": "memory",
		},
	})

	assert.True(t, s.Metrics)
	assert.True(t, s.Tracing)
	assert.True(t, s.Observer.Enabled)
	assert.Equal(t, 64, s.Observer.BufferSize)
	assert.Equal(t, config.JournalMemory, s.Journal.Driver)
	assert.NoError(t, s.Validate())
}

func TestFromMap_FractionalIntKeepsDefault(t *testing.T) {
	s := config.FromMap(map[string]any{
		"observer": map[string]any{"buffer_size": 1.5},
	})
	assert.Equal(t, 256, s.Observer.BufferSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Settings)
		wantErr string
	}{
		{"negative timeout", func(s *config.Settings) { s.DefaultTimeout = -time.Second }, "default_timeout"},
		{"negative idle timeout", func(s *config.Settings) { s.StreamIdleTimeout = -time.Second }, "stream_idle_timeout"},
		{"zero buffer", func(s *config.Settings) { s.Observer.BufferSize = 0 }, "buffer_size"},
		{"bad level", func(s *config.Settings) { s.LogLevel = "loud" }, "log_level"},
		{"unknown driver", func(s *config.Settings) {
			s.Observer.Enabled = true
			s.Journal.Driver = "postgres"
		}, "unknown journal driver"},
		{"sqlite without path", func(s *config.Settings) {
			s.Observer.Enabled = true
			s.Journal.Driver = config.JournalSQLite
		}, "journal.path"},
		{"journal without observer", func(s *config.Settings) {
			s.Journal.Driver = config.JournalMemory
		}, "observer.enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.Defaults()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLevel(t *testing.T) {
	s := config.Defaults()
	s.LogLevel = "debug"

	level, err := s.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestNewLogger(t *testing.T) {
	s := config.Defaults()
	s.LogLevel = "warn"

	var buf bytes.Buffer
	logger := s.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromYAML(t *testing.T) {
	s, err := config.FromYAML([]byte(`
default_timeout: 30s
stream_idle_timeout: 500
observer:
  enabled: true
  buffer_size: 32
journal:
  driver: sqlite
  path: ./journal.db
`))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, s.DefaultTimeout)
	assert.Equal(t, 500*time.Millisecond, s.StreamIdleTimeout)
	assert.Equal(t, 32, s.Observer.BufferSize)
	assert.Equal(t, "./journal.db", s.Journal.Path)
	assert.NoError(t, s.Validate())
}

func TestFromYAML_Invalid(t *testing.T) {
	_, err := config.FromYAML([]byte("default_timeout: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")
}

func TestFromJSON(t *testing.T) {
	s, err := config.FromJSON([]byte(`{"default_timeout": 150, "tracing": true}`))
	require.NoError(t, err)

	assert.Equal(t, 150*time.Millisecond, s.DefaultTimeout)
	assert.True(t, s.Tracing)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "barrier.yaml")
		require.NoError(t, os.WriteFile(path, []byte("default_timeout: 1s\n"), 0o600))

		s, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, time.Second, s.DefaultTimeout)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "barrier.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"metrics": true}`), 0o600))

		s, err := config.FromFile(path)
		require.NoError(t, err)
		assert.True(t, s.Metrics)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "barrier.toml")
		require.NoError(t, os.WriteFile(path, []byte("metrics = true"), 0o600))

		_, err := config.FromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported config file extension")
	})

	t.Run("invalid settings", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o600))

		_, err := config.FromFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read config file")
	})
}
