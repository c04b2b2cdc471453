package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a debug-level JSON logger writing into a buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// lastRecord decodes the last JSON line in buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestEnrichLogger(t *testing.T) {
	t.Run("adds event and kind", func(t *testing.T) {
		logger, buf := captureLogger()

		EnrichLogger(logger, "job.done", "stream").Info("pulled")

		record := lastRecord(t, buf)
		assert.Equal(t, "job.done", record["event"])
		assert.Equal(t, "stream", record["kind"])
		assert.Equal(t, "pulled", record["msg"])
	})

	t.Run("nil logger returns nil", func(t *testing.T) {
		assert.Nil(t, EnrichLogger(nil, "e", "once"))
	})
}

func TestLogWaiterRegistered(t *testing.T) {
	logger, buf := captureLogger()

	LogWaiterRegistered(EnrichLogger(logger, "foo", "once"), 150*time.Millisecond, 3)

	record := lastRecord(t, buf)
	assert.Equal(t, "DEBUG", record["level"])
	assert.Equal(t, "waiter registered", record["msg"])
	assert.Equal(t, "foo", record["event"])
	assert.Equal(t, "once", record["kind"])
	assert.Equal(t, float64(3), record["queued"])
}

func TestLogWaiterCompleted(t *testing.T) {
	logger, buf := captureLogger()

	LogWaiterCompleted(EnrichLogger(logger, "foo", "stream"), "timeout", 12.5)

	record := lastRecord(t, buf)
	assert.Equal(t, "waiter completed", record["msg"])
	assert.Equal(t, "foo", record["event"])
	assert.Equal(t, "stream", record["kind"])
	assert.Equal(t, "timeout", record["outcome"])
	assert.Equal(t, 12.5, record["duration_ms"])
}

func TestLogNotify(t *testing.T) {
	logger, buf := captureLogger()

	LogNotify(logger, "foo", 2, 1, 2)

	record := lastRecord(t, buf)
	assert.Equal(t, "event notified", record["msg"])
	assert.Equal(t, float64(2), record["woken"])
	assert.Equal(t, float64(1), record["streams"])
	assert.Equal(t, float64(2), record["remaining"])
}

func TestLogAbort(t *testing.T) {
	logger, buf := captureLogger()

	LogAbort(logger, "foo", 4, errors.New("EOF"))

	record := lastRecord(t, buf)
	assert.Equal(t, "event aborted", record["msg"])
	assert.Equal(t, float64(4), record["aborted"])
	assert.Equal(t, "EOF", record["error"])
}

func TestLogPublishError(t *testing.T) {
	logger, buf := captureLogger()

	LogPublishError(logger, "foo", errors.New("bus is closed"))

	record := lastRecord(t, buf)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "bus is closed", record["error"])
}

func TestLogObserverDrop(t *testing.T) {
	logger, buf := captureLogger()

	LogObserverDrop(logger, "foo", "sub-3")

	record := lastRecord(t, buf)
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "observer dropped occurrence", record["msg"])
	assert.Equal(t, "sub-3", record["subscriber"])
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogWaiterRegistered(nil, 0, 0)
		LogWaiterCompleted(nil, "value", 0)
		LogObserverDrop(nil, "e", "sub-1")
		LogNotify(nil, "e", 0, 0, 0)
		LogAbort(nil, "e", 0, errors.New("x"))
		LogPublishError(nil, "e", errors.New("x"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(10 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), float64(10))
}
