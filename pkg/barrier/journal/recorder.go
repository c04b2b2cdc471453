package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/eventbarrier/pkg/barrier/config"
	"github.com/randalmurphal/eventbarrier/pkg/barrier/event"
)

// Recorder is an event.Handler that appends every occurrence to a Store.
type Recorder struct {
	store  Store
	logger *slog.Logger
	retry  RetryPolicy
}

// Compile-time interface check.
var _ event.Handler = (*Recorder)(nil)

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store:  store,
		logger: slog.Default(),
		retry:  DefaultRetry,
	}
}

// WithRetry sets the retry policy for failed appends.
// Default: DefaultRetry
func (r *Recorder) WithRetry(policy RetryPolicy) *Recorder {
	r.retry = policy
	return r
}

// WithLogger sets the logger used for append failures.
func (r *Recorder) WithLogger(logger *slog.Logger) *Recorder {
	r.logger = logger
	return r
}

// Handle implements event.Handler.
// Redelivered occurrences are ignored.
func (r *Recorder) Handle(ctx context.Context, evt event.Event) error {
	_, attempts, err := appendWithRetry(ctx, r.store, Entry{
		ID:          evt.ID(),
		Event:       evt.Name(),
		Source:      evt.Source(),
		Payload:     evt.DataBytes(),
		PublishedAt: evt.Timestamp(),
	}, r.retry)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	if err != nil {
		if r.logger != nil {
			r.logger.Error("journal append failed",
				slog.String("event", evt.Name()),
				slog.String("occurrence_id", evt.ID()),
				slog.Int("attempts", attempts),
				slog.String("error", err.Error()),
			)
		}
		return fmt.Errorf("journal %s: %w", evt.Name(), err)
	}
	return nil
}

// Open returns the Store selected by settings, or nil when journaling is off.
func Open(settings config.JournalSettings) (Store, error) {
	switch settings.Driver {
	case config.JournalNone:
		return nil, nil
	case config.JournalMemory:
		return NewMemoryStore(), nil
	case config.JournalSQLite:
		return NewSQLiteStore(settings.Path)
	default:
		return nil, fmt.Errorf("unknown journal driver: %q", settings.Driver)
	}
}
