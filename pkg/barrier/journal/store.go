package journal

import (
	"context"
	"errors"
	"time"
)

// Store persists journal entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores an entry and returns it with Sequence assigned.
	// Returns ErrDuplicate if an entry with the same ID exists.
	Append(ctx context.Context, entry Entry) (Entry, error)

	// List returns entries for an event in append order.
	// An empty event lists every event; limit <= 0 means no limit.
	List(ctx context.Context, event string, limit int) ([]Entry, error)

	// Count returns the number of entries for an event ("" for all).
	Count(ctx context.Context, event string) (int, error)

	// Purge removes all entries for an event ("" for all).
	Purge(ctx context.Context, event string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Entry is one journaled notification.
type Entry struct {
	Sequence    int64     // Store-assigned, increasing in append order
	ID          string    // Occurrence ID
	Event       string    // Event name
	Source      string    // Producer
	Payload     []byte    // JSON-encoded value
	PublishedAt time.Time // When the value was notified
}

// Sentinel errors for journal operations.
var (
	// ErrDuplicate indicates an entry with the same ID was already appended.
	ErrDuplicate = errors.New("journal entry already exists")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")
)
