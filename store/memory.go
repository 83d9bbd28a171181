package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ieeesou/pkg/metrics"
)

// Memory is an in-process Store. It backs the "memory" driver and tests.
type Memory struct {
	mu    sync.RWMutex
	data  map[string]map[string]Document
	last  time.Time
	watch *watchers
	now   func() time.Time
}

func NewMemory() *Memory {
	m := &Memory{
		data: make(map[string]map[string]Document),
		now:  time.Now,
	}
	m.watch = newWatchers(m.List)
	return m
}

// stamp returns a strictly increasing timestamp so creation order is total.
func (m *Memory) stamp() time.Time {
	t := m.now().UTC()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *Memory) List(ctx context.Context, q Query) ([]Document, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	docs := make([]Document, 0, len(m.data[q.Collection]))
	for _, d := range m.data[q.Collection] {
		if q.matches(d) {
			docs = append(docs, d.Clone())
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(docs)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	metrics.ObserveStore("list", q.Collection, nil)
	return docs, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	d, ok := m.data[collection][id]
	m.mu.RUnlock()
	if !ok {
		metrics.ObserveStore("get", collection, ErrNotFound)
		return Document{}, ErrNotFound
	}
	metrics.ObserveStore("get", collection, nil)
	return d.Clone(), nil
}

func (m *Memory) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	if collection == "" {
		return "", ErrInvalidQuery
	}
	id := uuid.NewString()
	set, _ := split(writable(fields))

	m.mu.Lock()
	now := m.stamp()
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]Document)
	}
	m.data[collection][id] = Document{
		ID:         id,
		Collection: collection,
		Fields:     set,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.mu.Unlock()

	metrics.ObserveStore("create", collection, nil)
	m.watch.poke(collection)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields Fields) error {
	m.mu.Lock()
	d, ok := m.data[collection][id]
	if !ok {
		m.mu.Unlock()
		metrics.ObserveStore("update", collection, ErrNotFound)
		return ErrNotFound
	}
	d = d.Clone()
	set, removed := split(writable(fields))
	for k, v := range set {
		d.Fields[k] = v
	}
	for _, k := range removed {
		delete(d.Fields, k)
	}
	d.UpdatedAt = m.stamp()
	m.data[collection][id] = d
	m.mu.Unlock()

	metrics.ObserveStore("update", collection, nil)
	m.watch.poke(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	if _, ok := m.data[collection][id]; !ok {
		m.mu.Unlock()
		metrics.ObserveStore("delete", collection, ErrNotFound)
		return ErrNotFound
	}
	delete(m.data[collection], id)
	m.mu.Unlock()

	metrics.ObserveStore("delete", collection, nil)
	m.watch.poke(collection)
	return nil
}

func (m *Memory) Subscribe(q Query, onData func([]Document), onError func(error)) func() {
	if err := q.validate(); err != nil {
		if onError != nil {
			go onError(err)
		}
		return func() {}
	}
	return m.watch.add(q, onData, onError)
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func sortNewestFirst(docs []Document) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
}
