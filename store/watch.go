package store

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"
	"time"

	"ieeesou/pkg/logger"
	"ieeesou/pkg/metrics"
)

const refreshTimeout = 10 * time.Second

type refreshFunc func(ctx context.Context, q Query) ([]Document, error)

// watchers tracks live subscriptions for a backend. Each subscription runs its
// own goroutine that re-reads the query when poked, so deliveries for one
// subscription are ordered and always reflect the state at read time.
type watchers struct {
	mu      sync.Mutex
	next    uint64
	subs    map[uint64]*subscription
	refresh refreshFunc
}

type subscription struct {
	query   Query
	refresh refreshFunc
	onData  func([]Document)
	onError func(error)
	dirty   chan struct{}
	done    chan struct{}
	once    sync.Once

	delivered bool
	last      uint64
}

func newWatchers(refresh refreshFunc) *watchers {
	return &watchers{subs: make(map[uint64]*subscription), refresh: refresh}
}

func (w *watchers) add(q Query, onData func([]Document), onError func(error)) func() {
	if onError == nil {
		onError = func(error) {}
	}
	s := &subscription{
		query:   q,
		refresh: w.refresh,
		onData:  onData,
		onError: onError,
		dirty:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	w.mu.Lock()
	id := w.next
	w.next++
	w.subs[id] = s
	w.mu.Unlock()
	metrics.Subscriptions.Inc()

	s.poke()
	go s.run()

	return func() {
		s.once.Do(func() {
			w.mu.Lock()
			delete(w.subs, id)
			w.mu.Unlock()
			close(s.done)
			metrics.Subscriptions.Dec()
		})
	}
}

// poke marks every subscription on collection as stale. An empty collection
// pokes all of them.
func (w *watchers) poke(collection string) {
	w.mu.Lock()
	targets := make([]*subscription, 0, len(w.subs))
	for _, s := range w.subs {
		if collection == "" || s.query.Collection == collection {
			targets = append(targets, s)
		}
	}
	w.mu.Unlock()

	for _, s := range targets {
		s.poke()
	}
}

func (w *watchers) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

func (s *subscription) poke() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.dirty:
		}

		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		docs, err := s.refresh(ctx, s.query)
		cancel()

		select {
		case <-s.done:
			return
		default:
		}

		if err != nil {
			logger.Sugar.Errorf("Subscription refresh failed for %s: %v", s.query.Collection, err)
			s.onError(err)
			// The subscriber now shows the error; the next good read must reach it.
			s.delivered = false
			continue
		}

		// A change elsewhere in the collection may leave this result set as it
		// was; only push when it actually moved.
		sum := fingerprint(docs)
		if s.delivered && sum == s.last {
			continue
		}
		s.delivered = true
		s.last = sum
		s.onData(docs)
	}
}

func fingerprint(docs []Document) uint64 {
	h := fnv.New64a()
	b, err := json.Marshal(docs)
	if err != nil {
		return 0
	}
	h.Write(b)
	return h.Sum64()
}
