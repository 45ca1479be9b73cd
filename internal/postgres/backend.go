// Package postgres implements the PostgreSQL storage backend for the content
// library. Documents live in a single JSONB table keyed by collection name
// and document ID.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

const createDocuments = `
    CREATE TABLE IF NOT EXISTS documents (
        collection TEXT NOT NULL,
        doc_id     TEXT NOT NULL,
        data       JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (collection, doc_id)
    )
`

// Backend implements the Library interface on a pgx connection pool.
type Backend struct {
	mu          sync.RWMutex
	attached    bool
	pool        *pgxpool.Pool
	collections map[types.Kind]*collection
	now         func() time.Time
}

// NewBackend creates a detached PostgreSQL backend.
func NewBackend() *Backend {
	return &Backend{
		collections: make(map[types.Kind]*collection),
		now:         time.Now,
	}
}

// Collection returns the Collection for the given kind.
func (b *Backend) Collection(kind types.Kind) (types.Collection, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrLibraryDetached
	}
	c, ok := b.collections[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrCollectionNotFound, kind)
	}
	return c, nil
}

// Attach opens the pool described by config and creates the documents table
// if needed.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendPostgres {
		return fmt.Errorf("%w: postgres backend cannot serve %q", types.ErrBackendUnknown, config.Backend)
	}

	pool, err := NewPool(ctx, config.DatabaseURL, PoolConfig{
		MaxConns:        config.MaxConns,
		MaxConnLifetime: config.MaxConnLifetime,
	})
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		pool.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	b.pool = pool
	b.collections = make(map[types.Kind]*collection, len(types.Kinds))
	for _, kind := range types.Kinds {
		b.collections[kind] = &collection{
			backend: b,
			name:    kind.CollectionName(config.LegacyNames),
		}
	}
	b.attached = true
	return nil
}

// Detach closes the pool. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.pool.Close()
	b.pool = nil
	b.attached = false
	b.collections = make(map[types.Kind]*collection)
	return nil
}

// acquire returns the pool if the backend is attached.
func (b *Backend) acquire() (*pgxpool.Pool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrLibraryDetached
	}
	return b.pool, nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
