package types

import (
	"context"
	"errors"
)

// Library defines the interface for backend-agnostic document storage.
// Callers attach to a backend, access collections by kind, and detach when
// done.
type Library interface {
	// Collection returns the Collection holding documents of the given kind.
	// Returns ErrCollectionNotFound if the kind is not a known entity.
	Collection(kind Kind) (Collection, error)

	// Attach connects the Library to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(ctx context.Context, config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on collections return ErrLibraryDetached.
	Detach() error
}

// Library lifecycle errors.
var (
	ErrLibraryDetached    = errors.New("library is detached")
	ErrAlreadyAttached    = errors.New("library is already attached")
	ErrCollectionNotFound = errors.New("collection not found")
)
