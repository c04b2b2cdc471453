package event

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a single occurrence observed on the raw observer channel.
// Events are immutable once created.
type Event interface {
	// Identity
	ID() string     // Unique occurrence identifier
	Name() string   // Event name the value was notified on
	Source() string // Producer that published the occurrence

	// Metadata
	Timestamp() time.Time // When the occurrence was published

	// Payload
	Data() any         // The notified value
	DataBytes() []byte // JSON-serialized value for storage
}

// Metadata contains common occurrence metadata fields.
type Metadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// Occurrence is the generic Event implementation.
// T is the type of the notified value.
type Occurrence[T any] struct {
	Meta  Metadata `json:"metadata"`
	Value T        `json:"value"`

	// Cached serialization (computed lazily, shared by subscribers)
	bytesOnce   sync.Once
	cachedBytes []byte
}

// ID returns the unique occurrence identifier.
func (o *Occurrence[T]) ID() string {
	return o.Meta.ID
}

// Name returns the event name.
func (o *Occurrence[T]) Name() string {
	return o.Meta.Name
}

// Source returns the producer that published the occurrence.
func (o *Occurrence[T]) Source() string {
	return o.Meta.Source
}

// Timestamp returns when the occurrence was published.
func (o *Occurrence[T]) Timestamp() time.Time {
	return o.Meta.Timestamp
}

// Data returns the notified value.
func (o *Occurrence[T]) Data() any {
	return o.Value
}

// TypedData returns the strongly-typed notified value.
func (o *Occurrence[T]) TypedData() T {
	return o.Value
}

// DataBytes returns the JSON encoding of the value.
// Values that cannot be encoded yield nil.
func (o *Occurrence[T]) DataBytes() []byte {
	o.bytesOnce.Do(func() {
		o.cachedBytes, _ = json.Marshal(o.Value)
	})
	return o.cachedBytes
}

// Option configures occurrence creation.
type Option func(*occurrenceConfig)

type occurrenceConfig struct {
	id        string
	timestamp time.Time
}

// WithID sets a specific occurrence ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(cfg *occurrenceConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *occurrenceConfig) {
		cfg.timestamp = t
	}
}

// New creates an occurrence of value on the named event.
func New[T any](name, source string, value T, opts ...Option) *Occurrence[T] {
	cfg := &occurrenceConfig{
		id:        uuid.New().String(),
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Occurrence[T]{
		Meta: Metadata{
			ID:        cfg.id,
			Name:      name,
			Source:    source,
			Timestamp: cfg.timestamp,
		},
		Value: value,
	}
}

// Handler observes occurrences delivered by a Bus.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// TypedHandler wraps a function that only wants values of type T.
// Occurrences carrying another type are reported as an *EventError.
func TypedHandler[T any](fn func(ctx context.Context, value T, meta Metadata) error) Handler {
	return HandlerFunc(func(ctx context.Context, evt Event) error {
		value, ok := evt.Data().(T)
		if !ok {
			return &EventError{
				Event:   evt,
				Message: "unexpected value type",
			}
		}
		return fn(ctx, value, Metadata{
			ID:        evt.ID(),
			Name:      evt.Name(),
			Source:    evt.Source(),
			Timestamp: evt.Timestamp(),
		})
	})
}
