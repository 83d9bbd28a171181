package model

import "ieeesou/store"

// DecodeAll applies decode to every document, keeping order.
func DecodeAll[T any](docs []store.Document, decode func(store.Document) T) []T {
	out := make([]T, len(docs))
	for i, d := range docs {
		out[i] = decode(d)
	}
	return out
}
