// Package sqlite implements the SQLite storage backend for the content
// library. JSONL files, one per collection, are the source of truth; SQLite
// is rebuilt from them on Attach and serves queries.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// dbFileName is the query database created inside DataDir.
const dbFileName = "library.db"

// Backend implements the Library interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu          sync.RWMutex
	attached    bool
	config      types.Config
	dataDir     string
	db          *sql.DB
	collections map[types.Kind]*collection

	// now is the clock used for ServerTimestamp and row timestamps.
	now func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		collections: make(map[types.Kind]*collection),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Collection returns the Collection for the given kind.
// Returns ErrCollectionNotFound if the kind is not recognized.
// Returns ErrLibraryDetached if the backend is not attached.
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

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite database from the
// JSONL files, and creates collection accessors.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(ctx context.Context, config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: sqlite backend cannot serve %q", types.ErrBackendUnknown, config.Backend)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	collections := make(map[types.Kind]*collection, len(types.Kinds))
	for _, kind := range types.Kinds {
		collections[kind] = &collection{
			backend: b,
			kind:    kind,
			name:    kind.CollectionName(config.LegacyNames),
		}
	}

	if err := initJSONLFiles(dataDir, collections); err != nil {
		db.Close()
		return err
	}

	if err := loadAllJSONL(ctx, db, dataDir, collections, b.now()); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.collections = collections
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrLibraryDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.collections = make(map[types.Kind]*collection)
	return nil
}

// generateUUID generates a new UUID v7 for document IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
