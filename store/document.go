package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Collection names used by the site.
const (
	Events  = "events"
	Awards  = "awards"
	Members = "members"
)

// Reserved keys are stamped by the store and never taken from written fields.
const (
	KeyID        = "id"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrUnavailable  = errors.New("document store unavailable")
	ErrInvalidQuery = errors.New("invalid query")
)

// Fields is the schemaless body of a document.
type Fields map[string]any

// Document is one record within a collection.
type Document struct {
	ID         string
	Collection string
	Fields     Fields
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// String returns the field as text. Numbers are formatted, anything else is "".
func (d Document) String(key string) string {
	switch v := d.Fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	}
	return ""
}

// Bool reports the field's value and whether it was present as a boolean.
func (d Document) Bool(key string) (bool, bool) {
	v, ok := d.Fields[key].(bool)
	return v, ok
}

// Has reports whether the field is present.
func (d Document) Has(key string) bool {
	_, ok := d.Fields[key]
	return ok
}

// Clone copies the document so callers cannot alias store state.
func (d Document) Clone() Document {
	c := d
	c.Fields = make(Fields, len(d.Fields))
	for k, v := range d.Fields {
		c.Fields[k] = v
	}
	return c
}

// MarshalJSON flattens the fields next to id and timestamps.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		out[k] = v
	}
	out[KeyID] = d.ID
	if !d.CreatedAt.IsZero() {
		out[KeyCreatedAt] = d.CreatedAt
	}
	if !d.UpdatedAt.IsZero() {
		out[KeyUpdatedAt] = d.UpdatedAt
	}
	return json.Marshal(out)
}

// Filter narrows a query to documents whose field equals Value.
type Filter struct {
	Field string
	Value string
}

// Query selects documents of one collection, newest first.
type Query struct {
	Collection string
	Where      *Filter
	Limit      int
}

// Where is a shorthand for a single-equality query.
func Where(collection, field, value string) Query {
	return Query{Collection: collection, Where: &Filter{Field: field, Value: value}}
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (q Query) validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: collection is required", ErrInvalidQuery)
	}
	if q.Where != nil && !fieldName.MatchString(q.Where.Field) {
		return fmt.Errorf("%w: bad filter field %q", ErrInvalidQuery, q.Where.Field)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

func (q Query) matches(d Document) bool {
	if q.Where == nil {
		return true
	}
	return d.String(q.Where.Field) == q.Where.Value
}

// Store is the document database the site reads and writes.
//
// Concurrent updates are not detected: the last write wins per field.
type Store interface {
	List(ctx context.Context, q Query) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create stores a new document and returns its id. createdAt and updatedAt
	// are assigned by the store.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Update merges fields into an existing document and bumps updatedAt.
	// Fields that are not given are left untouched; a nil value removes the
	// field.
	Update(ctx context.Context, collection, id string, fields Fields) error
	Delete(ctx context.Context, collection, id string) error
	// Subscribe delivers the full result set of q once, then again after every
	// change that alters it, until cancel is called.
	Subscribe(q Query, onData func([]Document), onError func(error)) (cancel func())
	Ping(ctx context.Context) error
}

func writable(fields Fields) Fields {
	out := make(Fields, len(fields))
	for k, v := range fields {
		switch k {
		case KeyID, KeyCreatedAt, KeyUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}

// split separates a patch into values to set and keys to remove.
func split(patch Fields) (set Fields, removed []string) {
	set = make(Fields, len(patch))
	removed = []string{}
	for k, v := range patch {
		if v == nil {
			removed = append(removed, k)
			continue
		}
		set[k] = v
	}
	sort.Strings(removed)
	return set, removed
}
