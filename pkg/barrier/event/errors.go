package event

import (
	"errors"
	"fmt"
)

// ErrBusClosed is returned by Publish once the bus has been closed.
var ErrBusClosed = errors.New("bus is closed")

// ErrSubscriberLimit is returned by Subscribe when MaxSubscribers is reached.
var ErrSubscriberLimit = errors.New("subscriber limit reached")

// EventError represents an error while publishing or handling an occurrence.
type EventError struct {
	Event        Event  // The occurrence involved
	SubscriberID string // Subscription that failed (if known)
	Message      string // Error message
	Err          error  // Underlying error
}

// Error implements error interface.
func (e *EventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event %s (%s): %s: %v", e.Event.Name(), e.Event.ID(), e.Message, e.Err)
	}
	return fmt.Sprintf("event %s (%s): %s", e.Event.Name(), e.Event.ID(), e.Message)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Err
}
