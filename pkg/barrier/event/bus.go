package event

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
)

// Bus provides pub/sub distribution of raw occurrences with fan-out.
type Bus interface {
	// Publish sends an occurrence to all matching subscribers.
	Publish(ctx context.Context, evt Event) error

	// Subscribe creates a subscription for specific event names.
	Subscribe(names []string, handler Handler) (Subscription, error)

	// SubscribeAll subscribes to every event name.
	SubscribeAll(handler Handler) (Subscription, error)

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// Subscription represents an active subscription.
type Subscription interface {
	// ID returns the subscription identifier.
	ID() string

	// Unsubscribe removes the subscription. Safe to call more than once.
	Unsubscribe()

	// Pause temporarily stops delivery. Occurrences published while
	// paused are skipped, not queued.
	Pause()

	// Resume continues delivery after pause.
	Resume()

	// IsPaused returns true if the subscription is paused.
	IsPaused() bool
}

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer size per subscription.
	// Default: 256
	BufferSize int

	// MaxSubscribers limits total subscriptions.
	// Default: 0 (unlimited)
	MaxSubscribers int

	// NonBlocking makes Publish non-blocking (drops occurrences if a buffer is full).
	// Default: false (blocking)
	NonBlocking bool

	// OnDrop is called when an occurrence is dropped (non-blocking mode).
	OnDrop func(evt Event, subscriberID string)

	// OnError is called when a handler returns an error.
	OnError func(evt Event, subscriberID string, err error)
}

// DefaultBusConfig provides reasonable defaults.
var DefaultBusConfig = BusConfig{
	BufferSize: 256,
}

// LocalBus is an in-memory Bus implementation.
type LocalBus struct {
	config BusConfig

	mu            sync.RWMutex
	subscriptions map[string]*subscription
	byName        map[string]map[string]*subscription // event name -> subscription ID -> subscription
	wildcards     map[string]*subscription            // subscriptions for all names

	nextID  atomic.Int64
	closed  atomic.Bool
	closeCh chan struct{}
}

// Compile-time interface check.
var _ Bus = (*LocalBus)(nil)

// NewBus creates a new local bus.
func NewBus(config BusConfig) *LocalBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBusConfig.BufferSize
	}

	return &LocalBus{
		config:        config,
		subscriptions: make(map[string]*subscription),
		byName:        make(map[string]map[string]*subscription),
		wildcards:     make(map[string]*subscription),
		closeCh:       make(chan struct{}),
	}
}

type subscription struct {
	id       string
	names    []string // empty = all names
	handler  Handler
	events   chan Event
	paused   atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
	bus      *LocalBus
}

// TryPublisher is implemented by buses that can publish without blocking.
type TryPublisher interface {
	// TryPublish delivers to every matching subscriber that has buffer
	// room and drops the occurrence for the rest.
	TryPublish(evt Event) error
}

// Compile-time interface check.
var _ TryPublisher = (*LocalBus)(nil)

// Publish sends an occurrence to all matching subscribers.
func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	return b.deliver(ctx, evt, b.config.NonBlocking)
}

// TryPublish sends an occurrence without ever blocking, whatever the
// configured mode. Full subscriptions are reported through OnDrop.
func (b *LocalBus) TryPublish(evt Event) error {
	return b.deliver(context.Background(), evt, true)
}

func (b *LocalBus) deliver(ctx context.Context, evt Event, nonBlocking bool) error {
	if b.closed.Load() {
		return &EventError{
			Event:   evt,
			Message: "publish",
			Err:     ErrBusClosed,
		}
	}

	b.mu.RLock()
	subs := b.matching(evt.Name())
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.paused.Load() {
			continue
		}

		if nonBlocking {
			select {
			case sub.events <- evt:
			default:
				if b.config.OnDrop != nil {
					b.config.OnDrop(evt, sub.id)
				}
			}
			continue
		}

		select {
		case sub.events <- evt:
		case <-sub.done:
			// Unsubscribed while we were waiting
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closeCh:
			return &EventError{
				Event:   evt,
				Message: "bus closed during publish",
				Err:     ErrBusClosed,
			}
		}
	}

	return nil
}

// Subscribe creates a subscription for specific event names.
func (b *LocalBus) Subscribe(names []string, handler Handler) (Subscription, error) {
	sub, err := b.subscribe(names, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// SubscribeAll subscribes to every event name.
func (b *LocalBus) SubscribeAll(handler Handler) (Subscription, error) {
	sub, err := b.subscribe(nil, handler)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (b *LocalBus) subscribe(names []string, handler Handler) (*subscription, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.config.MaxSubscribers > 0 && len(b.subscriptions) >= b.config.MaxSubscribers {
		return nil, ErrSubscriberLimit
	}

	sub := &subscription{
		id:      "sub-" + strconv.FormatInt(b.nextID.Add(1), 10),
		names:   names,
		handler: handler,
		events:  make(chan Event, b.config.BufferSize),
		done:    make(chan struct{}),
		bus:     b,
	}

	b.subscriptions[sub.id] = sub

	if len(names) == 0 {
		b.wildcards[sub.id] = sub
	} else {
		for _, name := range names {
			if b.byName[name] == nil {
				b.byName[name] = make(map[string]*subscription)
			}
			b.byName[name][sub.id] = sub
		}
	}

	go sub.process()

	return sub, nil
}

// matching returns all subscriptions for an event name.
// Caller must hold b.mu.
func (b *LocalBus) matching(name string) []*subscription {
	subs := make([]*subscription, 0, len(b.byName[name])+len(b.wildcards))
	for _, sub := range b.byName[name] {
		subs = append(subs, sub)
	}
	for _, sub := range b.wildcards {
		subs = append(subs, sub)
	}
	return subs
}

// Subscribers returns the number of active subscriptions.
func (b *LocalBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

// Close shuts down the bus.
func (b *LocalBus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}

	close(b.closeCh)

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subscriptions {
		sub.stop()
		delete(b.subscriptions, id)
	}
	b.byName = make(map[string]map[string]*subscription)
	b.wildcards = make(map[string]*subscription)

	return nil
}

// process delivers queued occurrences to the handler in publish order.
func (s *subscription) process() {
	for {
		select {
		case evt := <-s.events:
			if s.paused.Load() {
				continue
			}

			if err := s.handler.Handle(context.Background(), evt); err != nil && s.bus.config.OnError != nil {
				s.bus.config.OnError(evt, s.id, err)
			}

		case <-s.done:
			return
		}
	}
}

func (s *subscription) stop() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

// ID returns the subscription identifier.
func (s *subscription) ID() string {
	return s.id
}

// Unsubscribe removes the subscription.
func (s *subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.subscriptions, s.id)
	delete(s.bus.wildcards, s.id)

	for _, name := range s.names {
		if subs, ok := s.bus.byName[name]; ok {
			delete(subs, s.id)
			if len(subs) == 0 {
				delete(s.bus.byName, name)
			}
		}
	}

	s.stop()
}

// Pause temporarily stops delivery.
func (s *subscription) Pause() {
	s.paused.Store(true)
}

// Resume continues delivery after pause.
func (s *subscription) Resume() {
	s.paused.Store(false)
}

// IsPaused returns true if the subscription is paused.
func (s *subscription) IsPaused() bool {
	return s.paused.Load()
}
