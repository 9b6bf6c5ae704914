package fs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/pkg/adapters/fs"
	"github.com/aretw0/shelter/pkg/core"
)

// waitForEvent reads events until one matches or the timeout expires.
func waitForEvent(t *testing.T, events <-chan core.Event, want core.EventType, table string) core.Event {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "event channel closed while waiting for %s %s", want, table)
			require.Equal(t, table, e.Table, "event for unexpected table: %s", e)
			if e.Type == want {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s %s", want, table)
		}
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := setupStore(t)
	seed(t, store, "existing", core.NewRecord("a", 1))

	events, err := store.Watch(ctx, "user*")
	require.NoError(t, err)
	assert.True(t, store.State().(fs.StoreState).WatcherActive)

	_, err = store.Create(ctx, "orders", core.NewRecord("a", 1)) // filtered out
	require.NoError(t, err)

	_, err = store.Create(ctx, "users", core.NewRecord("name", "ada"))
	require.NoError(t, err)
	e := waitForEvent(t, events, core.EventCreate, "users")
	assert.False(t, e.Timestamp.IsZero())

	_, err = store.Update(ctx, "users", 1, core.NewRecord("name", "ada l."))
	require.NoError(t, err)
	waitForEvent(t, events, core.EventModify, "users")

	_, err = store.Drop(ctx, "users")
	require.NoError(t, err)
	waitForEvent(t, events, core.EventDelete, "users")

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(3 * time.Second):
		t.Fatal("event channel not closed after cancel")
	}
}

func TestWatchExistingTableIsModify(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := setupStore(t)
	seed(t, store, "users", core.NewRecord("name", "ada"))

	events, err := store.Watch(ctx, "")
	require.NoError(t, err)

	_, err = store.Create(ctx, "users", core.NewRecord("name", "bob"))
	require.NoError(t, err)
	waitForEvent(t, events, core.EventModify, "users")
}

func TestWatchInvalidPattern(t *testing.T) {
	store := setupStore(t)
	_, err := store.Watch(context.Background(), "[")
	assert.ErrorIs(t, err, core.ErrValidation)
}
