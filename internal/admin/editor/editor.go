package editor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ieeesou/internal/content/model"
	"ieeesou/store"
)

var (
	ErrBusy   = errors.New("a save is already in progress")
	ErrClosed = errors.New("the form is not open")
)

// ValidationError maps form keys to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid " + strings.Join(parts, "; ")
}

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is what the editor wants shown after a write finished.
type Notice struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Plan is one pending write. An empty ID means create.
type Plan struct {
	Kind       model.Kind
	Collection string
	ID         string
	Fields     store.Fields
}

func (p Plan) Creating() bool { return p.ID == "" }

// Apply performs the write and returns the document id.
func (p Plan) Apply(ctx context.Context, s store.Store) (string, error) {
	if p.Creating() {
		return s.Create(ctx, p.Collection, p.Fields)
	}
	return p.ID, s.Update(ctx, p.Collection, p.ID, p.Fields)
}

// Editor is the create-or-update form for one entity kind. It is not safe for
// concurrent use; the admin shell serializes access to it.
type Editor struct {
	schema  *Schema
	open    bool
	id      string
	values  map[string]string
	errs    map[string]string
	busy    bool
	editing bool // mode of the write in flight
}

func New(schema *Schema) *Editor {
	e := &Editor{schema: schema}
	e.reset()
	return e
}

func (e *Editor) Schema() *Schema { return e.schema }

func (e *Editor) reset() {
	e.id = ""
	e.errs = nil
	e.values = make(map[string]string, len(e.schema.Fields))
	for _, f := range e.schema.Fields {
		e.values[f.Key] = ""
	}
	if e.schema.Discriminant != "" {
		e.values[e.schema.Discriminant] = e.schema.Default
	}
}

// Open shows the form. A nil doc starts a blank create form; otherwise the
// form edits doc. Every field is re-initialized either way.
func (e *Editor) Open(doc *store.Document) {
	e.reset()
	e.open = true
	if doc == nil {
		return
	}
	e.id = doc.ID
	for k, v := range e.schema.load(*doc) {
		e.values[k] = v
	}
	if d := e.schema.Discriminant; d != "" {
		if f, _ := e.schema.field(d); e.values[d] == "" || !f.allows(e.values[d]) {
			e.values[d] = e.schema.Default
			if e.schema.Fallback != "" {
				e.values[d] = e.schema.Fallback
			}
		}
	}
}

func (e *Editor) Close() {
	e.open = false
}

func (e *Editor) IsOpen() bool  { return e.open }
func (e *Editor) Busy() bool    { return e.busy }
func (e *Editor) Editing() bool { return e.id != "" }
func (e *Editor) ID() string    { return e.id }

// Value returns the current value of a form key.
func (e *Editor) Value(key string) string { return e.values[key] }

// Set changes one form value. Changing the discriminant immediately changes
// which fields are visible.
func (e *Editor) Set(key, value string) error {
	if _, ok := e.schema.field(key); !ok {
		return fmt.Errorf("unknown %s field %q", e.schema.Kind, key)
	}
	e.values[key] = value
	delete(e.errs, key)
	return nil
}

func (e *Editor) discriminant() string {
	if e.schema.Discriminant == "" {
		return ""
	}
	return e.values[e.schema.Discriminant]
}

// Visible returns the fields that apply to the current discriminant.
func (e *Editor) Visible() []Field {
	d := e.discriminant()
	out := make([]Field, 0, len(e.schema.Fields))
	for _, f := range e.schema.Fields {
		if f.visibleFor(d) {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the visible fields.
func (e *Editor) Validate() error {
	errs := map[string]string{}
	for _, f := range e.Visible() {
		v := strings.TrimSpace(e.values[f.Key])
		switch {
		case v == "":
			if f.Required {
				errs[f.Key] = "This field is required."
			}
		case !f.allows(v):
			errs[f.Key] = "Choose one of the listed options."
		case f.Input == InputNumber:
			n, err := strconv.Atoi(v)
			if err != nil || (f.Max > 0 && (n < f.Min || n > f.Max)) {
				errs[f.Key] = fmt.Sprintf("Enter a year between %d and %d.", f.Min, f.Max)
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Begin marks the form busy and returns the write to perform. It fails while
// another write from this form is in flight.
func (e *Editor) Begin() (Plan, error) {
	if !e.open {
		return Plan{}, ErrClosed
	}
	if e.busy {
		return Plan{}, ErrBusy
	}
	if err := e.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			e.errs = verr.Fields
		}
		return Plan{}, err
	}

	fields := e.schema.build(e.values)
	if e.id != "" {
		// Drop what an earlier type left behind.
		for _, k := range e.schema.managed() {
			if _, ok := fields[k]; !ok {
				fields[k] = nil
			}
		}
	}
	e.busy = true
	e.editing = e.id != ""
	return Plan{Kind: e.schema.Kind, Collection: e.schema.Kind.Collection(), ID: e.id, Fields: fields}, nil
}

// Finish ends the write started by Begin. On success the form resets and
// closes; on failure it stays open with its values so the user can retry.
func (e *Editor) Finish(err error) Notice {
	e.busy = false
	label := e.schema.Kind.Label()
	action, done := "adding", "added"
	if e.editing {
		action, done = "updating", "updated"
	}
	if err != nil {
		return Notice{Kind: NoticeError, Text: fmt.Sprintf("Error %s %s: %s", action, strings.ToLower(label), err.Error())}
	}
	e.reset()
	e.open = false
	return Notice{Kind: NoticeSuccess, Text: fmt.Sprintf("%s %s successfully!", label, done)}
}

// SubmitLabel is the text of the submit control.
func (e *Editor) SubmitLabel() string {
	switch {
	case e.busy:
		return "Saving..."
	case e.id != "":
		return "Update " + e.schema.Kind.Label()
	}
	return "Save " + e.schema.Kind.Label()
}

func (e *Editor) Title() string {
	if e.id != "" {
		return "Edit " + e.schema.Kind.Label()
	}
	return "Add New " + e.schema.Kind.Label()
}

type FieldView struct {
	Field
	Value   string   `json:"value"`
	Error   string   `json:"error,omitempty"`
	Preview *Preview `json:"preview,omitempty"`
}

type View struct {
	Kind        model.Kind  `json:"kind"`
	Open        bool        `json:"open"`
	Mode        string      `json:"mode"`
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title"`
	SubmitLabel string      `json:"submitLabel"`
	Busy        bool        `json:"busy"`
	Fields      []FieldView `json:"fields"`
}

func (e *Editor) View() View {
	v := View{
		Kind:        e.schema.Kind,
		Open:        e.open,
		Mode:        "add",
		ID:          e.id,
		Title:       e.Title(),
		SubmitLabel: e.SubmitLabel(),
		Busy:        e.busy,
	}
	if e.id != "" {
		v.Mode = "edit"
	}
	for _, f := range e.Visible() {
		fv := FieldView{Field: f, Value: e.values[f.Key], Error: e.errs[f.Key]}
		if f.Preview {
			p := PreviewImageURL(fv.Value)
			fv.Preview = &p
		}
		v.Fields = append(v.Fields, fv)
	}
	return v
}
