package service

import (
	"context"
	"errors"
	"fmt"

	"ieeesou/internal/admin/editor"
	"ieeesou/internal/content/model"
	"ieeesou/store"
)

var ErrUnknownField = errors.New("unknown field")

// ContentService writes entities through the same schemas as the admin
// editors, so the API and the admin panel persist identical field sets.
type ContentService struct {
	Store store.Store
}

func NewContentService(s store.Store) *ContentService {
	return &ContentService{Store: s}
}

// List returns kind's documents, newest first. A non-empty memberType
// narrows members to one type.
func (s *ContentService) List(ctx context.Context, kind model.Kind, memberType string) ([]store.Document, error) {
	q := store.Query{Collection: kind.Collection()}
	if kind == model.KindMember && memberType != "" {
		q = store.Where(q.Collection, "type", memberType)
	}
	return s.Store.List(ctx, q)
}

func (s *ContentService) Get(ctx context.Context, kind model.Kind, id string) (store.Document, error) {
	return s.Store.Get(ctx, kind.Collection(), id)
}

// Save creates a document when id is empty and otherwise updates it. Values
// that are not given keep their stored value on update.
func (s *ContentService) Save(ctx context.Context, kind model.Kind, id string, values map[string]string) (string, error) {
	ed := editor.New(editor.SchemaFor(kind))
	if id == "" {
		ed.Open(nil)
	} else {
		doc, err := s.Store.Get(ctx, kind.Collection(), id)
		if err != nil {
			return "", err
		}
		ed.Open(&doc)
	}
	for k, v := range values {
		if err := ed.Set(k, v); err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnknownField, err)
		}
	}
	plan, err := ed.Begin()
	if err != nil {
		return "", err
	}
	newID, err := plan.Apply(ctx, s.Store)
	ed.Finish(err)
	return newID, err
}

func (s *ContentService) Delete(ctx context.Context, kind model.Kind, id string) error {
	return s.Store.Delete(ctx, kind.Collection(), id)
}
