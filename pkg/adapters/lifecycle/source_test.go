package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/shelter/pkg/adapters/lifecycle"
	"github.com/aretw0/shelter/pkg/core"
)

type fakeWatcher struct {
	events  chan core.Event
	pattern string
	err     error
}

func (f *fakeWatcher) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	f.pattern = pattern
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func TestSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &fakeWatcher{events: make(chan core.Event, 1)}
	src := lifecycle.NewSource(w, "users")
	require.NoError(t, src.Start(ctx))
	assert.Equal(t, "users", w.pattern)

	w.events <- core.Event{Type: core.EventCreate, Table: "users", Timestamp: time.Now()}

	select {
	case e := <-src.Events():
		assert.Equal(t, "CREATE users", e.String())
	case <-time.After(2 * time.Second):
		t.Fatal("event not bridged")
	}

	close(w.events)
	select {
	case _, ok := <-src.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("source not closed after watch ended")
	}
}

func TestSourceStartError(t *testing.T) {
	boom := errors.New("boom")
	src := lifecycle.NewSource(&fakeWatcher{err: boom}, "")
	assert.ErrorIs(t, src.Start(context.Background()), boom)
}
