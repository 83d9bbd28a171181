package store

import "context"

// Unavailable stands in when no database is configured. Every operation fails
// with ErrUnavailable so pages and the admin panel show an error state instead
// of the process refusing to start.
type Unavailable struct{}

func (Unavailable) List(context.Context, Query) ([]Document, error) { return nil, ErrUnavailable }

func (Unavailable) Get(context.Context, string, string) (Document, error) {
	return Document{}, ErrUnavailable
}

func (Unavailable) Create(context.Context, string, Fields) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Update(context.Context, string, string, Fields) error { return ErrUnavailable }

func (Unavailable) Delete(context.Context, string, string) error { return ErrUnavailable }

func (Unavailable) Subscribe(_ Query, _ func([]Document), onError func(error)) func() {
	if onError != nil {
		go onError(ErrUnavailable)
	}
	return func() {}
}

func (Unavailable) Ping(context.Context) error { return ErrUnavailable }
