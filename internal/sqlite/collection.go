package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// collection implements types.Collection for one entity kind. All collections
// share the documents table and are told apart by name.
type collection struct {
	backend *Backend
	kind    types.Kind
	name    string
}

// jsonlPath returns the JSONL file backing the collection.
func (c *collection) jsonlPath(dataDir string) string {
	return filepath.Join(dataDir, c.name+".jsonl")
}

// List returns every document sorted by the order field, then by ID.
// Documents lacking the field sort first in ascending order.
func (c *collection) List(ctx context.Context, order types.Order) ([]types.Document, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	c.backend.mu.RLock()
	defer c.backend.mu.RUnlock()
	if !c.backend.attached {
		return nil, types.ErrLibraryDetached
	}

	// Direction is validated above; only the JSON path is a bound parameter.
	query := fmt.Sprintf(`SELECT doc_id, data FROM documents
    WHERE collection = ?
    ORDER BY json_extract(data, ?) %s, doc_id %s`, order.Direction.SQL(), order.Direction.SQL())

	rows, err := c.backend.db.QueryContext(ctx, query, c.name, "$."+order.Field)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.name, err)
		}
		doc, err := decodeRow(id, raw)
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
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (c *collection) Get(ctx context.Context, id string) (types.Document, error) {
	if id == "" {
		return types.Document{}, types.ErrInvalidID
	}

	c.backend.mu.RLock()
	defer c.backend.mu.RUnlock()
	if !c.backend.attached {
		return types.Document{}, types.ErrLibraryDetached
	}

	raw, err := c.getData(ctx, id)
	if err != nil {
		return types.Document{}, err
	}
	return decodeRow(id, raw)
}

// Add stores data as a new document under a generated UUID v7.
func (c *collection) Add(ctx context.Context, data map[string]any) (string, error) {
	if data == nil {
		return "", types.ErrInvalidData
	}

	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if !c.backend.attached {
		return "", types.ErrLibraryDetached
	}

	now := c.backend.now()
	body, err := encodeData(types.ResolveTimestamps(data, now))
	if err != nil {
		return "", err
	}
	stamp := now.UTC().Format(types.TimestampLayout)
	id := generateUUID()

	_, err = c.backend.db.ExecContext(ctx, `INSERT INTO documents
    (collection, doc_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.name, id, body, stamp, stamp)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", c.name, err)
	}

	if err := c.persist(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// Update merges data into the stored document. Keys in data overwrite stored
// keys; other stored keys are kept.
func (c *collection) Update(ctx context.Context, id string, data map[string]any) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if data == nil {
		return types.ErrInvalidData
	}

	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if !c.backend.attached {
		return types.ErrLibraryDetached
	}

	raw, err := c.getData(ctx, id)
	if err != nil {
		return err
	}
	var stored map[string]any
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("decode %s/%s: %w", c.name, id, err)
	}
	if stored == nil {
		stored = make(map[string]any, len(data))
	}

	now := c.backend.now()
	for k, v := range types.ResolveTimestamps(data, now) {
		stored[k] = v
	}
	body, err := encodeData(stored)
	if err != nil {
		return err
	}

	_, err = c.backend.db.ExecContext(ctx, `UPDATE documents SET data = ?, updated_at = ?
    WHERE collection = ? AND doc_id = ?`,
		body, now.UTC().Format(types.TimestampLayout), c.name, id)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", c.name, id, err)
	}
	return c.persist(ctx)
}

// Delete removes a document by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (c *collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}

	c.backend.mu.Lock()
	defer c.backend.mu.Unlock()
	if !c.backend.attached {
		return types.ErrLibraryDetached
	}

	res, err := c.backend.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND doc_id = ?`, c.name, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", c.name, id, err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return c.persist(ctx)
}

// getData returns the raw JSON body of a document. The caller must hold
// the backend lock.
func (c *collection) getData(ctx context.Context, id string) (string, error) {
	var raw string
	err := c.backend.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND doc_id = ?`, c.name, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", c.name, id, err)
	}
	return raw, nil
}

// persist rewrites the collection's JSONL file from the database. The caller
// must hold the backend write lock.
func (c *collection) persist(ctx context.Context) error {
	rows, err := c.backend.db.QueryContext(ctx, `SELECT doc_id, data, created_at, updated_at
    FROM documents WHERE collection = ? ORDER BY created_at, doc_id`, c.name)
	if err != nil {
		return fmt.Errorf("persist %s: %w", c.name, err)
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var rec record
		var data string
		if err := rows.Scan(&rec.ID, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("persist %s: %w", c.name, err)
		}
		rec.Data = json.RawMessage(data)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("persist %s: %w", c.name, err)
	}

	return writeJSONL(c.jsonlPath(c.backend.dataDir), records)
}

// encodeData serializes a document body.
func encodeData(data map[string]any) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return string(b), nil
}

// decodeRow builds a Document from a stored row.
func decodeRow(id, raw string) (types.Document, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return types.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return types.Document{ID: id, Data: data}, nil
}
