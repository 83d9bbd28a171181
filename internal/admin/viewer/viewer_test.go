package viewer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ieeesou/internal/content/model"
	"ieeesou/store"
)

// waitView polls until cond holds for the viewer's snapshot.
func waitView(t *testing.T, v *Viewer, cond func(View) bool) View {
	t.Helper()
	var last View
	require.Eventually(t, func() bool {
		last = v.View()
		return cond(last)
	}, 2*time.Second, 5*time.Millisecond, "last view: %+v", last)
	return last
}

func titles(v View) []string {
	out := make([]string, len(v.Cards))
	for i, c := range v.Cards {
		out[i] = c.Title
	}
	return out
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) add(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) snapshot() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func mustCreate(t *testing.T, s store.Store, collection string, f store.Fields) string {
	t.Helper()
	id, err := s.Create(context.Background(), collection, f)
	require.NoError(t, err)
	return id
}

func TestLiveUpdatesWithoutLoadingFlash(t *testing.T) {
	s := store.NewMemory()
	mustCreate(t, s, store.Events, store.Fields{"name": "First"})

	log := &stateLog{}
	var v *Viewer
	v = New(model.KindEvent, s, Options{OnChange: func() { log.add(v.View().State) }})
	assert.Equal(t, StateLoading, v.View().State)

	v.Mount()
	defer v.Unmount()
	waitView(t, v, func(view View) bool { return view.State == StateDisplaying })

	// 1. Create shows up on top.
	id := mustCreate(t, s, store.Events, store.Fields{"name": "Conf", "date": "2025-01-01"})
	view := waitView(t, v, func(view View) bool { return len(view.Cards) == 2 })
	assert.Equal(t, []string{"Conf", "First"}, titles(view))
	assert.Equal(t, []Line{{Label: "Date", Value: "January 1, 2025"}}, view.Cards[0].Lines)

	// 2. Update is reflected in place.
	require.NoError(t, s.Update(context.Background(), store.Events, id, store.Fields{"name": "Conf 2025"}))
	waitView(t, v, func(view View) bool { return len(view.Cards) == 2 && view.Cards[0].Title == "Conf 2025" })

	// 3. Delete removes it.
	require.NoError(t, s.Delete(context.Background(), store.Events, id))
	waitView(t, v, func(view View) bool { return len(view.Cards) == 1 })

	for _, st := range log.snapshot() {
		assert.NotEqual(t, StateLoading, st)
	}
}

func TestSearchIsRepeatable(t *testing.T) {
	s := store.NewMemory()
	mustCreate(t, s, store.Events, store.Fields{"name": "ABC Summit"})
	mustCreate(t, s, store.Events, store.Fields{"name": "Workshop", "venue": "Lab abc-2"})
	mustCreate(t, s, store.Events, store.Fields{"name": "Hackathon", "speakers": "Dr. X"})

	v := New(model.KindEvent, s, Options{})
	v.Mount()
	defer v.Unmount()
	waitView(t, v, func(view View) bool { return len(view.Cards) == 3 })

	v.Search("abc")
	first := titles(v.View())
	assert.Equal(t, []string{"Workshop", "ABC Summit"}, first)

	v.Search("")
	assert.Len(t, v.View().Cards, 3)

	v.Search("abc")
	assert.Equal(t, first, titles(v.View()))

	v.Search("dr. x")
	assert.Equal(t, []string{"Hackathon"}, titles(v.View()))
}

func TestPagination(t *testing.T) {
	s := store.NewMemory()
	ids := make([]string, 0, 17)
	for i := 1; i <= 17; i++ {
		ids = append(ids, mustCreate(t, s, store.Awards, store.Fields{"title": fmt.Sprintf("A%02d", i)}))
	}

	v := New(model.KindAward, s, Options{})
	v.Mount()
	defer v.Unmount()
	view := waitView(t, v, func(view View) bool { return view.Page.Total == 17 })

	assert.Equal(t, []string{"A17", "A16", "A15", "A14", "A13", "A12", "A11", "A10"}, titles(view))
	assert.False(t, view.HasPrev)
	assert.True(t, view.HasNext)

	v.Next()
	view = v.View()
	assert.Equal(t, []string{"A09", "A08", "A07", "A06", "A05", "A04", "A03", "A02"}, titles(view))

	v.Next()
	view = v.View()
	assert.Equal(t, 3, view.Page.Page)
	assert.Equal(t, []string{"A01"}, titles(view))
	assert.False(t, view.HasNext)
	assert.True(t, view.HasPrev)

	v.Next()
	assert.Equal(t, 3, v.View().Page.Page)

	// Shrinking below the current page clamps it.
	for _, id := range ids[:8] {
		require.NoError(t, s.Delete(context.Background(), store.Awards, id))
	}
	view = waitView(t, v, func(view View) bool { return view.Page.Total == 9 })
	assert.Equal(t, 2, view.Page.Page)
	assert.Equal(t, []string{"A09"}, titles(view))

	v.Prev()
	v.Prev()
	assert.Equal(t, 1, v.View().Page.Page)

	v.Next()
	v.Search("A1")
	assert.Equal(t, 1, v.View().Page.Page)
}

func TestTwoStepDelete(t *testing.T) {
	s := store.NewMemory()
	a := mustCreate(t, s, store.Members, store.Fields{"name": "Ana", "type": "faculty"})
	b := mustCreate(t, s, store.Members, store.Fields{"name": "Ben", "type": "core"})

	v := New(model.KindMember, s, Options{})
	v.Mount()
	defer v.Unmount()
	waitView(t, v, func(view View) bool { return len(view.Cards) == 2 })

	_, ok := v.Confirm()
	assert.False(t, ok)
	assert.False(t, v.Arm("missing"))

	require.True(t, v.Arm(a))
	require.True(t, v.Arm(b))
	view := v.View()
	assert.Equal(t, b, view.Armed)
	for _, c := range view.Cards {
		assert.Equal(t, c.ID == b, c.Armed)
	}

	v.Disarm()
	_, ok = v.Confirm()
	assert.False(t, ok)

	require.True(t, v.Arm(a))
	id, ok := v.Confirm()
	assert.True(t, ok)
	assert.Equal(t, a, id)
	assert.Empty(t, v.View().Armed)

	// Arming alone never touches the store.
	docs, err := s.List(context.Background(), store.Query{Collection: store.Members})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestStudentAwardWithoutNameHasNoRecipient(t *testing.T) {
	s := store.NewMemory()
	mustCreate(t, s, store.Awards, store.Fields{"type": "student", "title": "Scholar", "year": "2024"})
	mustCreate(t, s, store.Awards, store.Fields{"type": "student", "title": "Topper", "studentName": "Riya"})

	v := New(model.KindAward, s, Options{})
	v.Mount()
	defer v.Unmount()
	view := waitView(t, v, func(view View) bool { return len(view.Cards) == 2 })

	assert.Equal(t, []Line{{Label: "Recipient", Value: "Riya"}}, view.Cards[0].Lines)
	assert.Equal(t, []Line{{Label: "Year", Value: "2024"}}, view.Cards[1].Lines)
	assert.Equal(t, "Student Achievement", view.Cards[1].Badge)

	v.Search("riya")
	assert.Equal(t, []string{"Topper"}, titles(v.View()))
}

func TestEventModes(t *testing.T) {
	s := store.NewMemory()
	mustCreate(t, s, store.Events, store.Fields{"name": "Old", "isUpcoming": false})
	mustCreate(t, s, store.Events, store.Fields{"name": "Unflagged"})
	mustCreate(t, s, store.Events, store.Fields{"name": "Soon", "isUpcoming": true})

	v := New(model.KindEvent, s, Options{})
	v.Mount()
	defer v.Unmount()
	waitView(t, v, func(view View) bool { return len(view.Cards) == 3 })

	require.NoError(t, v.SetMode(ModeUpcoming))
	view := v.View()
	assert.Equal(t, []string{"Soon"}, titles(view))
	assert.Equal(t, "Upcoming", view.Cards[0].Badge)

	require.NoError(t, v.SetMode(ModePast))
	assert.Equal(t, []string{"Unflagged", "Old"}, titles(v.View()))

	v.Search("nothing matches")
	view = v.View()
	assert.Equal(t, StateEmpty, view.State)
	assert.Equal(t, "No past events found. Change the filter or add new events.", view.Message)

	require.NoError(t, v.SetMode(ModeAll))
	assert.Equal(t, "No events found. Add a new event to get started.", v.View().Message)

	assert.Error(t, v.SetMode("someday"))
	assert.Error(t, v.SetFacet(model.MemberCore))
}

func TestEmptyMessages(t *testing.T) {
	for kind, msg := range map[model.Kind]string{
		model.KindAward:  "No awards found. Add a new award to get started.",
		model.KindMember: "No members found. Add a new member to get started.",
	} {
		v := New(kind, store.NewMemory(), Options{})
		v.Mount()
		view := waitView(t, v, func(view View) bool { return view.State != StateLoading })
		assert.Equal(t, StateEmpty, view.State)
		assert.Equal(t, msg, view.Message)
		v.Unmount()
	}
}

func TestMemberFacet(t *testing.T) {
	s := store.NewMemory()
	mustCreate(t, s, store.Members, store.Fields{"name": "Ana", "type": "faculty"})
	mustCreate(t, s, store.Members, store.Fields{"name": "Ben", "type": "core", "position": "Chairperson"})

	v := New(model.KindMember, s, Options{})
	v.Mount()
	defer v.Unmount()
	waitView(t, v, func(view View) bool { return len(view.Cards) == 2 })

	require.NoError(t, v.SetFacet(model.MemberFaculty))
	view := waitView(t, v, func(view View) bool { return view.State == StateDisplaying && len(view.Cards) == 1 })
	assert.Equal(t, "Ana", view.Cards[0].Title)
	assert.Equal(t, model.MemberFaculty, view.Facet)

	require.NoError(t, v.SetFacet(FacetAll))
	waitView(t, v, func(view View) bool { return len(view.Cards) == 2 })

	v.Search("chair")
	assert.Equal(t, []string{"Ben"}, titles(v.View()))

	assert.Error(t, v.SetFacet("alumni"))
	assert.Error(t, v.SetMode(ModePast))
}

func TestSubscriptionError(t *testing.T) {
	var (
		mu   sync.Mutex
		errs []string
	)
	v := New(model.KindEvent, store.Unavailable{}, Options{OnError: func(msg string) {
		mu.Lock()
		errs = append(errs, msg)
		mu.Unlock()
	}})
	v.Mount()
	defer v.Unmount()

	view := waitView(t, v, func(view View) bool { return view.State == StateError })
	assert.Equal(t, "Error fetching events: document store unavailable", view.Message)
	mu.Lock()
	assert.Equal(t, []string{view.Message}, errs)
	mu.Unlock()
}

type captured struct {
	query     store.Query
	onData    func([]store.Document)
	cancelled bool
}

// captureStore hands subscription callbacks to the test instead of a backend.
type captureStore struct {
	store.Store
	mu     sync.Mutex
	subs   []*captured
	events []string
}

func (c *captureStore) Subscribe(q store.Query, onData func([]store.Document), onError func(error)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := &captured{query: q, onData: onData}
	n := len(c.subs)
	c.subs = append(c.subs, sub)
	c.events = append(c.events, fmt.Sprintf("subscribe %d", n))
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		sub.cancelled = true
		c.events = append(c.events, fmt.Sprintf("cancel %d", n))
	}
}

func TestFacetChangeReplacesSubscription(t *testing.T) {
	cs := &captureStore{Store: store.NewMemory()}
	v := New(model.KindMember, cs, Options{})

	v.Mount()
	v.Mount()
	require.NoError(t, v.SetFacet(model.MemberCore))

	cs.mu.Lock()
	require.Len(t, cs.subs, 2)
	assert.Equal(t, []string{"subscribe 0", "cancel 0", "subscribe 1"}, cs.events)
	assert.Nil(t, cs.subs[0].query.Where)
	assert.Equal(t, &store.Filter{Field: "type", Value: model.MemberCore}, cs.subs[1].query.Where)
	old, current := cs.subs[0], cs.subs[1]
	cs.mu.Unlock()

	// A late delivery from the cancelled subscription is dropped.
	old.onData([]store.Document{{ID: "stale", Fields: store.Fields{"name": "Stale"}}})
	assert.Equal(t, StateLoading, v.View().State)

	current.onData([]store.Document{{ID: "m1", Fields: store.Fields{"name": "Core", "type": "core"}}})
	assert.Equal(t, []string{"Core"}, titles(v.View()))

	v.Unmount()
	cs.mu.Lock()
	assert.True(t, current.cancelled)
	cs.mu.Unlock()

	current.onData(nil)
	view := v.View()
	assert.Equal(t, StateLoading, view.State)
	assert.Equal(t, FacetAll, view.Facet)
}

func TestDocumentReturnsCopy(t *testing.T) {
	s := store.NewMemory()
	id := mustCreate(t, s, store.Events, store.Fields{"name": "Conf"})

	v := New(model.KindEvent, s, Options{})
	v.Mount()
	defer v.Unmount()
	waitView(t, v, func(view View) bool { return len(view.Cards) == 1 })

	d, ok := v.Document(id)
	require.True(t, ok)
	d.Fields["name"] = "changed"
	again, _ := v.Document(id)
	assert.Equal(t, "Conf", again.String("name"))

	_, ok = v.Document("nope")
	assert.False(t, ok)
}
