package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// loadAllJSONL reads each collection's JSONL file from dataDir and inserts the
// records into the documents table. Loading is transactional: all succeed or
// the database remains empty. Records missing timestamps get loadTime.
func loadAllJSONL(ctx context.Context, db *sql.DB, dataDir string, collections map[types.Kind]*collection, loadTime time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO documents
    (collection, doc_id, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	stamp := loadTime.UTC().Format(types.TimestampLayout)
	for _, c := range collections {
		records, err := readJSONL(c.jsonlPath(dataDir))
		if err != nil {
			return fmt.Errorf("reading %s: %w", c.name, err)
		}
		for _, rec := range records {
			created, updated := rec.CreatedAt, rec.UpdatedAt
			if created == "" {
				created = stamp
			}
			if updated == "" {
				updated = created
			}
			if _, err := stmt.ExecContext(ctx, c.name, rec.ID, string(rec.Data), created, updated); err != nil {
				return fmt.Errorf("loading %s/%s: %w", c.name, rec.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
