package viewer

import (
	"fmt"
	"sync"

	"ieeesou/internal/content/model"
	"ieeesou/pkg/logger"
	"ieeesou/pkg/page"
	"ieeesou/store"
)

// PageSize is the number of cards per page in every admin list.
const PageSize = 8

type State string

const (
	StateLoading    State = "loading"
	StateDisplaying State = "displaying"
	StateEmpty      State = "empty"
	StateError      State = "error"
)

// Event list modes, applied client-side to the isUpcoming flag.
const (
	ModeAll      = "all"
	ModeUpcoming = "upcoming"
	ModePast     = "past"
)

// FacetAll shows members of every type.
const FacetAll = "all"

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var eventModes = []Option{
	{Value: ModeAll, Label: "All Events"},
	{Value: ModeUpcoming, Label: "Upcoming"},
	{Value: ModePast, Label: "Regular"},
}

var memberFacets = []Option{
	{Value: FacetAll, Label: "All Members"},
	{Value: model.MemberFaculty, Label: "Faculty"},
	{Value: model.MemberAdvisory, Label: "Advisory Board"},
	{Value: model.MemberExecutive, Label: "Executive Committee"},
	{Value: model.MemberCore, Label: "Core Committee"},
	{Value: model.MemberGeneral, Label: "Members"},
}

func has(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Options are the callbacks a viewer reports through. Both run without the
// viewer's lock held.
type Options struct {
	// OnChange runs after every state change caused by the subscription.
	OnChange func()
	// OnError receives the text of a subscription failure.
	OnError func(msg string)
}

// Viewer is a live, searchable, paginated list of one collection. It keeps at
// most one store subscription open while mounted.
type Viewer struct {
	kind  model.Kind
	store store.Store
	opts  Options

	mu      sync.Mutex
	mounted bool
	gen     uint64
	cancel  func()
	loading bool
	err     string
	docs    []store.Document
	facet   string
	mode    string
	search  string
	page    int
	armed   string
}

func New(kind model.Kind, s store.Store, opts Options) *Viewer {
	v := &Viewer{kind: kind, store: s, opts: opts}
	v.reset()
	return v
}

func (v *Viewer) Kind() model.Kind { return v.kind }

func (v *Viewer) reset() {
	v.loading = true
	v.err = ""
	v.docs = nil
	v.facet = FacetAll
	v.mode = ModeAll
	v.search = ""
	v.page = 1
	v.armed = ""
}

// Mount opens the subscription. Mounting a mounted viewer does nothing.
func (v *Viewer) Mount() {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = true
	v.mu.Unlock()
	v.subscribe()
}

// Unmount cancels the subscription and forgets all list state.
func (v *Viewer) Unmount() {
	v.mu.Lock()
	cancel := v.cancel
	v.cancel = nil
	v.mounted = false
	v.gen++
	v.reset()
	v.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (v *Viewer) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// subscribe replaces the current subscription with one for the current facet.
// The old one is cancelled before the new one is opened.
func (v *Viewer) subscribe() {
	v.mu.Lock()
	old := v.cancel
	v.cancel = nil
	v.gen++
	gen := v.gen
	v.loading = true
	v.err = ""
	v.docs = nil
	q := store.Query{Collection: v.kind.Collection()}
	if v.facet != FacetAll {
		q = store.Where(q.Collection, "type", v.facet)
	}
	v.mu.Unlock()

	if old != nil {
		old()
	}
	cancel := v.store.Subscribe(q,
		func(docs []store.Document) { v.deliver(gen, docs, nil) },
		func(err error) { v.deliver(gen, nil, err) },
	)

	v.mu.Lock()
	if v.gen == gen && v.mounted {
		v.cancel = cancel
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()
	cancel()
}

func (v *Viewer) deliver(gen uint64, docs []store.Document, err error) {
	v.mu.Lock()
	if gen != v.gen || !v.mounted {
		v.mu.Unlock()
		return
	}
	v.loading = false
	var msg string
	if err != nil {
		msg = fmt.Sprintf("Error fetching %s: %s", v.kind.Collection(), err.Error())
		v.err = msg
		v.docs = nil
		logger.Sugar.Errorf("Subscription for %s failed: %v", v.kind.Collection(), err)
	} else {
		v.err = ""
		v.docs = docs
		v.page = page.New(v.page, PageSize, len(v.filtered())).Page
		if v.armed != "" && v.indexOf(v.armed) < 0 {
			v.armed = ""
		}
	}
	v.mu.Unlock()

	if msg != "" && v.opts.OnError != nil {
		v.opts.OnError(msg)
	}
	if v.opts.OnChange != nil {
		v.opts.OnChange()
	}
}

// SetFacet narrows a member list to one type, or FacetAll. The subscription
// is replaced when the facet changes.
func (v *Viewer) SetFacet(facet string) error {
	if v.kind != model.KindMember || !has(memberFacets, facet) {
		return fmt.Errorf("unknown %s facet %q", v.kind, facet)
	}
	v.mu.Lock()
	if facet == v.facet {
		v.mu.Unlock()
		return nil
	}
	v.facet = facet
	v.page = 1
	v.armed = ""
	mounted := v.mounted
	v.mu.Unlock()
	if mounted {
		v.subscribe()
	}
	return nil
}

// SetMode filters an event list to upcoming or past events.
func (v *Viewer) SetMode(mode string) error {
	if v.kind != model.KindEvent || !has(eventModes, mode) {
		return fmt.Errorf("unknown %s mode %q", v.kind, mode)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if mode != v.mode {
		v.mode = mode
		v.page = 1
	}
	return nil
}

func (v *Viewer) Search(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = q
	v.page = 1
}

func (v *Viewer) Next() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if page.New(v.page, PageSize, len(v.filtered())).HasNext() {
		v.page++
	}
}

func (v *Viewer) Prev() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.page > 1 {
		v.page--
	}
}

// Arm puts a row into its delete-confirm state, disarming any other row. It
// reports false for ids not in the list.
func (v *Viewer) Arm(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.indexOf(id) < 0 {
		return false
	}
	v.armed = id
	return true
}

// Confirm returns the armed id and disarms it.
func (v *Viewer) Confirm() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.armed
	v.armed = ""
	return id, id != ""
}

func (v *Viewer) Disarm() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.armed = ""
}

// Document returns a copy of a listed document.
func (v *Viewer) Document(id string) (store.Document, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(id)
	if i < 0 {
		return store.Document{}, false
	}
	return v.docs[i].Clone(), true
}

func (v *Viewer) indexOf(id string) int {
	for i, d := range v.docs {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (v *Viewer) filtered() []store.Document {
	out := make([]store.Document, 0, len(v.docs))
	for _, d := range v.docs {
		if v.kind == model.KindEvent && v.mode != ModeAll {
			up, _ := d.Bool("isUpcoming")
			if up != (v.mode == ModeUpcoming) {
				continue
			}
		}
		if !page.Matches(v.search, searchable(v.kind, d)...) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// View is a render snapshot of the list.
type View struct {
	Kind    model.Kind `json:"kind"`
	State   State      `json:"state"`
	Message string     `json:"message,omitempty"`
	Search  string     `json:"search"`
	Facet   string     `json:"facet,omitempty"`
	Facets  []Option   `json:"facets,omitempty"`
	Mode    string     `json:"mode,omitempty"`
	Modes   []Option   `json:"modes,omitempty"`
	Cards   []Card     `json:"cards"`
	Page    page.Info  `json:"page"`
	HasPrev bool       `json:"hasPrev"`
	HasNext bool       `json:"hasNext"`
	Armed   string     `json:"armed,omitempty"`
}

func (v *Viewer) View() View {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := View{Kind: v.kind, Search: v.search, Armed: v.armed, Cards: []Card{}}
	switch v.kind {
	case model.KindEvent:
		out.Mode, out.Modes = v.mode, eventModes
	case model.KindMember:
		out.Facet, out.Facets = v.facet, memberFacets
	}

	docs := v.filtered()
	info := page.New(v.page, PageSize, len(docs))
	out.Page = info

	switch {
	case v.loading:
		out.State = StateLoading
		return out
	case v.err != "":
		out.State = StateError
		out.Message = v.err
		return out
	case len(docs) == 0:
		out.State = StateEmpty
		out.Message = v.emptyMessage()
		return out
	}

	out.State = StateDisplaying
	out.HasPrev = info.HasPrev()
	out.HasNext = info.HasNext()
	for _, d := range page.Slice(docs, info) {
		c := card(v.kind, d)
		c.Armed = d.ID == v.armed
		out.Cards = append(out.Cards, c)
	}
	return out
}

func (v *Viewer) emptyMessage() string {
	switch v.kind {
	case model.KindEvent:
		if v.mode != ModeAll {
			return fmt.Sprintf("No %s events found. Change the filter or add new events.", v.mode)
		}
		return "No events found. Add a new event to get started."
	case model.KindAward:
		return "No awards found. Add a new award to get started."
	}
	return "No members found. Add a new member to get started."
}
