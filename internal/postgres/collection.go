package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// collection implements types.Collection over the shared documents table.
type collection struct {
	backend *Backend
	name    string
}

// listQuery builds the ordered listing statement. The field travels as a
// parameter; only the validated direction is spliced in.
func listQuery(order types.Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}
	dir := order.Direction.SQL()
	return fmt.Sprintf(`
        SELECT doc_id, data
        FROM documents
        WHERE collection = $1
        ORDER BY data -> $2::text %s NULLS %s, doc_id %s
    `, dir, nullsPosition(order.Direction), dir), nil
}

// nullsPosition keeps documents lacking the order field first in ascending
// order and last in descending order, matching the SQLite backend.
func nullsPosition(d types.Direction) string {
	if d == types.Desc {
		return "LAST"
	}
	return "FIRST"
}

const (
	getQuery = `
        SELECT data
        FROM documents
        WHERE collection = $1 AND doc_id = $2
    `

	insertQuery = `
        INSERT INTO documents (collection, doc_id, data, created_at, updated_at)
        VALUES ($1, $2, $3::jsonb, NOW(), NOW())
    `

	// The || operator merges top-level keys, right side winning.
	mergeQuery = `
        UPDATE documents
        SET data = data || $3::jsonb, updated_at = NOW()
        WHERE collection = $1 AND doc_id = $2
    `

	deleteQuery = `
        DELETE FROM documents
        WHERE collection = $1 AND doc_id = $2
    `
)

// List returns the collection's documents sorted by order.
func (c *collection) List(ctx context.Context, order types.Order) ([]types.Document, error) {
	query, err := listQuery(order)
	if err != nil {
		return nil, err
	}
	pool, err := c.backend.acquire()
	if err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx, query, c.name, order.Field)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decodeDocument(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (c *collection) Get(ctx context.Context, id string) (types.Document, error) {
	if id == "" {
		return types.Document{}, types.ErrInvalidID
	}
	pool, err := c.backend.acquire()
	if err != nil {
		return types.Document{}, err
	}

	var raw []byte
	err = pool.QueryRow(ctx, getQuery, c.name, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Document{}, types.ErrNotFound
		}
		return types.Document{}, fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return decodeDocument(id, raw)
}

// Add inserts a new document under a UUID v7.
func (c *collection) Add(ctx context.Context, data map[string]any) (string, error) {
	if data == nil {
		return "", types.ErrInvalidData
	}
	body, err := encodeData(data, c.backend.now)
	if err != nil {
		return "", err
	}
	pool, err := c.backend.acquire()
	if err != nil {
		return "", err
	}

	id := newID()
	if _, err := pool.Exec(ctx, insertQuery, c.name, id, body); err != nil {
		return "", fmt.Errorf("insert %s: %w", c.name, err)
	}
	return id, nil
}

// Update merges data into the stored document.
func (c *collection) Update(ctx context.Context, id string, data map[string]any) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if data == nil {
		return types.ErrInvalidData
	}
	body, err := encodeData(data, c.backend.now)
	if err != nil {
		return err
	}
	pool, err := c.backend.acquire()
	if err != nil {
		return err
	}

	cmdTag, err := pool.Exec(ctx, mergeQuery, c.name, id, body)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Delete removes a document by ID.
func (c *collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	pool, err := c.backend.acquire()
	if err != nil {
		return err
	}

	cmdTag, err := pool.Exec(ctx, deleteQuery, c.name, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

// encodeData resolves server timestamps and serializes the body as JSON text
// for a ::jsonb parameter.
func encodeData(data map[string]any, now func() time.Time) (string, error) {
	b, err := json.Marshal(types.ResolveTimestamps(data, now()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return string(b), nil
}

func decodeDocument(id string, raw []byte) (types.Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return types.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return types.Document{ID: id, Data: data}, nil
}
