package journal

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory journal for tests and short-lived processes.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	ids     map[string]struct{}
	nextSeq int64
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory journal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, entry Entry) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Entry{}, ErrStoreClosed
	}
	if _, exists := m.ids[entry.ID]; exists {
		return Entry{}, ErrDuplicate
	}

	m.nextSeq++
	entry.Sequence = m.nextSeq

	// Copy payload to avoid retaining caller's slice
	payload := make([]byte, len(entry.Payload))
	copy(payload, entry.Payload)
	entry.Payload = payload

	m.entries = append(m.entries, entry)
	m.ids[entry.ID] = struct{}{}
	return entry, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, event string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []Entry
	for _, e := range m.entries {
		if event != "" && e.Event != event {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count implements Store.
func (m *MemoryStore) Count(_ context.Context, event string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	if event == "" {
		return len(m.entries), nil
	}
	n := 0
	for _, e := range m.entries {
		if e.Event == event {
			n++
		}
	}
	return n, nil
}

// Purge implements Store.
func (m *MemoryStore) Purge(_ context.Context, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	kept := m.entries[:0]
	for _, e := range m.entries {
		if event == "" || e.Event == event {
			delete(m.ids, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	m.ids = nil
	return nil
}
