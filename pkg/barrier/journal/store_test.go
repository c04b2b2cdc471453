package journal_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/eventbarrier/pkg/barrier/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories runs each contract test against every Store implementation.
func storeFactories(t *testing.T) map[string]func() journal.Store {
	t.Helper()
	return map[string]func() journal.Store{
		"memory": func() journal.Store {
			return journal.NewMemoryStore()
		},
		"sqlite": func() journal.Store {
			store, err := journal.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
			require.NoError(t, err)
			return store
		},
	}
}

func entry(id, event string, payload string) journal.Entry {
	return journal.Entry{
		ID:          id,
		Event:       event,
		Source:      "test",
		Payload:     []byte(payload),
		PublishedAt: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
	}
}

func TestStore_AppendAssignsIncreasingSequence(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			first, err := store.Append(ctx, entry("a", "foo", `1`))
			require.NoError(t, err)
			second, err := store.Append(ctx, entry("b", "bar", `2`))
			require.NoError(t, err)

			assert.Greater(t, first.Sequence, int64(0))
			assert.Greater(t, second.Sequence, first.Sequence)
		})
	}
}

func TestStore_ListFiltersAndOrders(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			for i, ev := range []string{"foo", "bar", "foo", "foo"} {
				_, err := store.Append(ctx, entry(fmt.Sprintf("id-%d", i), ev, fmt.Sprintf(`%d`, i)))
				require.NoError(t, err)
			}

			foo, err := store.List(ctx, "foo", 0)
			require.NoError(t, err)
			require.Len(t, foo, 3)
			assert.Equal(t, []byte(`0`), foo[0].Payload)
			assert.Equal(t, []byte(`2`), foo[1].Payload)
			assert.Equal(t, []byte(`3`), foo[2].Payload)
			assert.Equal(t, "test", foo[0].Source)
			assert.True(t, foo[0].PublishedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)))

			limited, err := store.List(ctx, "foo", 2)
			require.NoError(t, err)
			assert.Len(t, limited, 2)

			all, err := store.List(ctx, "", 0)
			require.NoError(t, err)
			assert.Len(t, all, 4)
			assert.Equal(t, "bar", all[1].Event)

			none, err := store.List(ctx, "missing", 0)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStore_DuplicateID(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			_, err := store.Append(ctx, entry("same", "foo", `1`))
			require.NoError(t, err)
			_, err = store.Append(ctx, entry("same", "foo", `2`))
			assert.ErrorIs(t, err, journal.ErrDuplicate)

			n, err := store.Count(ctx, "foo")
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStore_CountAndPurge(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			_, _ = store.Append(ctx, entry("1", "foo", `1`))
			_, _ = store.Append(ctx, entry("2", "foo", `2`))
			_, _ = store.Append(ctx, entry("3", "bar", `3`))

			n, err := store.Count(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			require.NoError(t, store.Purge(ctx, "foo"))

			n, err = store.Count(ctx, "foo")
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			n, err = store.Count(ctx, "bar")
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			// Purged IDs may be appended again
			_, err = store.Append(ctx, entry("1", "foo", `1`))
			assert.NoError(t, err)

			require.NoError(t, store.Purge(ctx, ""))
			n, err = store.Count(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestStore_Closed(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			ctx := context.Background()

			require.NoError(t, store.Close())
			assert.NoError(t, store.Close(), "close should be idempotent")

			_, err := store.Append(ctx, entry("a", "foo", `1`))
			assert.ErrorIs(t, err, journal.ErrStoreClosed)

			_, err = store.List(ctx, "foo", 0)
			assert.ErrorIs(t, err, journal.ErrStoreClosed)

			_, err = store.Count(ctx, "foo")
			assert.ErrorIs(t, err, journal.ErrStoreClosed)

			assert.ErrorIs(t, store.Purge(ctx, "foo"), journal.ErrStoreClosed)
		})
	}
}

func TestStore_Concurrent(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			const numGoroutines = 20
			const numOps = 10

			var wg sync.WaitGroup
			wg.Add(numGoroutines)
			for i := 0; i < numGoroutines; i++ {
				go func(g int) {
					defer wg.Done()
					for j := 0; j < numOps; j++ {
						_, _ = store.Append(ctx, entry(fmt.Sprintf("%d-%d", g, j), "foo", `0`))
						_, _ = store.List(ctx, "foo", 5)
					}
				}(i)
			}
			wg.Wait()

			n, err := store.Count(ctx, "foo")
			require.NoError(t, err)
			assert.Equal(t, numGoroutines*numOps, n)
		})
	}
}

func TestMemoryStore_CopiesPayload(t *testing.T) {
	store := journal.NewMemoryStore()
	ctx := context.Background()

	payload := []byte(`"original"`)
	_, err := store.Append(ctx, journal.Entry{ID: "a", Event: "foo", Payload: payload})
	require.NoError(t, err)

	payload[1] = 'X'

	entries, err := store.List(ctx, "foo", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte(`"original"`), entries[0].Payload)
}
