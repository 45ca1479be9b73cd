package types

import (
	"context"
	"errors"
)

// Collection provides CRUD operations over the documents of one entity kind.
// Data maps hold JSON-compatible values; ServerTimestamp values are replaced
// by the backend's clock at write time.
type Collection interface {
	// List returns every document in the collection sorted by order. Ties
	// are broken by document ID.
	List(ctx context.Context, order Order) ([]Document, error)

	// Get retrieves the document with the given ID.
	// Returns ErrNotFound if no document exists with that ID.
	Get(ctx context.Context, id string) (Document, error)

	// Add stores a new document under a generated UUID v7 and returns the ID.
	Add(ctx context.Context, data map[string]any) (string, error)

	// Update merges data into an existing document. Fields absent from data
	// keep their stored values. Returns ErrNotFound if the document is missing.
	Update(ctx context.Context, id string, data map[string]any) error

	// Delete removes the document with the given ID.
	// Returns ErrNotFound if no document exists with that ID.
	Delete(ctx context.Context, id string) error
}

// Collection operation errors.
var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidID    = errors.New("invalid document ID")
	ErrInvalidData  = errors.New("invalid document data")
	ErrInvalidOrder = errors.New("invalid order")
)
