package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRefresh returns docs unless failing is set.
type flakyRefresh struct {
	mu      sync.Mutex
	docs    []Document
	failing bool
}

func (f *flakyRefresh) set(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *flakyRefresh) refresh(context.Context, Query) ([]Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, ErrUnavailable
	}
	return f.docs, nil
}

func TestWatchersRedeliverAfterError(t *testing.T) {
	src := &flakyRefresh{docs: []Document{{ID: "e1", Collection: Events, Fields: Fields{"name": "Conf"}}}}
	w := newWatchers(src.refresh)

	var (
		mu  sync.Mutex
		log []string
	)
	record := func(kind string) {
		mu.Lock()
		defer mu.Unlock()
		log = append(log, kind)
	}
	seen := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), log...)
	}

	cancel := w.add(Query{Collection: Events},
		func([]Document) { record("data") },
		func(err error) {
			assert.True(t, errors.Is(err, ErrUnavailable))
			record("error")
		})
	defer cancel()

	// 1. Initial delivery
	require.Eventually(t, func() bool { return len(seen()) == 1 }, time.Second, 5*time.Millisecond)

	// 2. The store fails
	src.set(true)
	w.poke(Events)
	require.Eventually(t, func() bool { return len(seen()) == 2 }, time.Second, 5*time.Millisecond)

	// 3. It recovers with the same result set; the subscriber still hears about it
	src.set(false)
	w.poke("")
	require.Eventually(t, func() bool { return len(seen()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"data", "error", "data"}, seen())

	// 4. An unchanged refresh after recovery stays quiet
	w.poke(Events)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, seen(), 3)
}
