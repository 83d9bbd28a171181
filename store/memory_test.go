package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects subscription deliveries for assertions.
type recorder struct {
	mu    sync.Mutex
	sets  [][]Document
	errs  []error
	calls int
}

func (r *recorder) onData(docs []Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sets = append(r.sets, docs)
	r.calls++
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) latest() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sets) == 0 {
		return nil
	}
	return r.sets[len(r.sets)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func names(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.String("name")
	}
	return out
}

func TestMemoryCreateStampsTimestamps(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, Events, Fields{"name": "Conf", "createdAt": "forged", "id": "forged"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := m.Get(ctx, Events, id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Conf", doc.String("name"))
	assert.False(t, doc.Has("createdAt"), "reserved keys are not stored as fields")
	assert.False(t, doc.Has("id"))
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

func TestMemoryUpdateMergesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, Events, Fields{"name": "Conf", "date": "2025-01-01", "venue": "Hall A"})
	require.NoError(t, err)
	before, err := m.Get(ctx, Events, id)
	require.NoError(t, err)

	require.NoError(t, m.Update(ctx, Events, id, Fields{"venue": "Hall B", "createdAt": time.Time{}}))

	after, err := m.Get(ctx, Events, id)
	require.NoError(t, err)
	assert.Equal(t, "Conf", after.String("name"))
	assert.Equal(t, "2025-01-01", after.String("date"))
	assert.Equal(t, "Hall B", after.String("venue"))
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}

func TestMemoryMissingDocuments(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, Events, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Update(ctx, Events, "nope", Fields{"name": "x"}), ErrNotFound)
	assert.ErrorIs(t, m.Delete(ctx, Events, "nope"), ErrNotFound)
}

func TestMemoryListOrderFilterLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, f := range []Fields{
		{"name": "a", "type": "core"},
		{"name": "b", "type": "faculty"},
		{"name": "c", "type": "core"},
	} {
		_, err := m.Create(ctx, Members, f)
		require.NoError(t, err)
	}

	all, err := m.List(ctx, Query{Collection: Members})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, names(all))

	core, err := m.List(ctx, Where(Members, "type", "core"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, names(core))

	limited, err := m.List(ctx, Query{Collection: Members, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, names(limited))

	_, err = m.List(ctx, Where(Members, "type; DROP", "x"))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestMemoryListReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	id, err := m.Create(ctx, Events, Fields{"name": "Conf"})
	require.NoError(t, err)

	docs, err := m.List(ctx, Query{Collection: Events})
	require.NoError(t, err)
	docs[0].Fields["name"] = "changed"

	doc, err := m.Get(ctx, Events, id)
	require.NoError(t, err)
	assert.Equal(t, "Conf", doc.String("name"))
}

func TestMemorySubscribeDeliversChanges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := &recorder{}

	cancel := m.Subscribe(Query{Collection: Events}, rec.onData, rec.onError)
	defer cancel()

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.latest())

	id, err := m.Create(ctx, Events, Fields{"name": "Conf"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(rec.latest()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Update(ctx, Events, id, Fields{"name": "Conf 2"}))
	require.Eventually(t, func() bool {
		docs := rec.latest()
		return len(docs) == 1 && docs[0].String("name") == "Conf 2"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Delete(ctx, Events, id))
	require.Eventually(t, func() bool { return len(rec.latest()) == 0 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.errs)
}

func TestMemorySubscribeSkipsUnaffectedQueries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := &recorder{}

	cancel := m.Subscribe(Where(Members, "type", "core"), rec.onData, rec.onError)
	defer cancel()
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	_, err := m.Create(ctx, Members, Fields{"name": "f", "type": "faculty"})
	require.NoError(t, err)
	_, err = m.Create(ctx, Awards, Fields{"title": "x"})
	require.NoError(t, err)
	_, err = m.Create(ctx, Members, Fields{"name": "c", "type": "core"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.latest()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, rec.count())
	assert.Equal(t, "c", rec.latest()[0].String("name"))
}

func TestMemorySubscribeCancelStopsDelivery(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rec := &recorder{}

	cancel := m.Subscribe(Query{Collection: Events}, rec.onData, rec.onError)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	cancel()
	assert.Equal(t, 0, m.watch.count())

	_, err := m.Create(ctx, Events, Fields{"name": "late"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestMemorySubscribeInvalidQuery(t *testing.T) {
	m := NewMemory()
	rec := &recorder{}

	cancel := m.Subscribe(Query{}, rec.onData, rec.onError)
	defer cancel()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.errs) == 1
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, rec.errs[0], ErrInvalidQuery)
	assert.Equal(t, 0, rec.count())
}

func TestUnavailableFailsEverything(t *testing.T) {
	var s Store = Unavailable{}
	ctx := context.Background()

	_, err := s.List(ctx, Query{Collection: Events})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.Create(ctx, Events, Fields{})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), ErrUnavailable)

	errs := make(chan error, 1)
	cancel := s.Subscribe(Query{Collection: Events}, func([]Document) {}, func(err error) { errs <- err })
	defer cancel()
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrUnavailable)
	case <-time.After(time.Second):
		t.Fatal("onError was not called")
	}
}

func TestDocumentAccessors(t *testing.T) {
	d := Document{ID: "x", Fields: Fields{"year": float64(2024), "isUpcoming": true, "name": "n"}}
	assert.Equal(t, "2024", d.String("year"))
	assert.Equal(t, "", d.String("missing"))
	v, ok := d.Bool("isUpcoming")
	assert.True(t, ok)
	assert.True(t, v)
	_, ok = d.Bool("name")
	assert.False(t, ok)
}

func TestMemoryUpdateNilRemovesField(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Create(ctx, Members, Fields{"type": "core", "position": "Chairperson", "ghost": nil})
	require.NoError(t, err)
	doc, err := m.Get(ctx, Members, id)
	require.NoError(t, err)
	assert.False(t, doc.Has("ghost"))

	require.NoError(t, m.Update(ctx, Members, id, Fields{"type": "faculty", "position": nil}))
	doc, err = m.Get(ctx, Members, id)
	require.NoError(t, err)
	assert.Equal(t, "faculty", doc.String("type"))
	assert.False(t, doc.Has("position"))
}
