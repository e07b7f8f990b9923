package vector

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/viant/vecstore/internal/errs"
)

const (
	// Table holds the records.
	Table = "vector_store"
	// IndexTable holds persisted index snapshots, one row per index kind.
	IndexTable = "vector_index"
	metaTable  = "vector_meta"
)

func schemaStatements(dimensions int) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    content TEXT NOT NULL CHECK (length(trim(content)) > 0),
    embedding BLOB NOT NULL CHECK (length(embedding) = %d),
    content_type TEXT NOT NULL CHECK (length(content_type) > 0),
    reference_id INTEGER,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`, Table, dimensions*4),
		`CREATE INDEX IF NOT EXISTS idx_vector_store_content_type ON ` + Table + `(content_type)`,
		`CREATE INDEX IF NOT EXISTS idx_vector_store_reference_id ON ` + Table + `(reference_id)`,
		`CREATE TABLE IF NOT EXISTS ` + IndexTable + ` (
    kind TEXT PRIMARY KEY,
    doc_count INTEGER NOT NULL,
    max_id INTEGER NOT NULL,
    data BLOB NOT NULL,
    built_at TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS ` + metaTable + ` (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	}
}

// EnsureSchema creates the record, snapshot and meta tables if missing and
// pins the embedding dimension. Opening an existing database with a different
// dimension fails.
func EnsureSchema(ctx context.Context, db *sql.DB, dimensions int) error {
	if dimensions <= 0 {
		return errs.Newf(errs.CodeStoreSchemaFailure, "vector: invalid dimensions %d", dimensions)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, errs.CodeStoreSchemaFailure, "begin schema transaction")
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range schemaStatements(dimensions) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errs.Wrap(err, errs.CodeStoreSchemaFailure, "create schema")
		}
	}
	var stored string
	err = tx.QueryRowContext(ctx, `SELECT value FROM `+metaTable+` WHERE key = 'dimensions'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, `INSERT INTO `+metaTable+`(key, value) VALUES('dimensions', ?)`, strconv.Itoa(dimensions)); err != nil {
			return errs.Wrap(err, errs.CodeStoreSchemaFailure, "record dimensions")
		}
	case err != nil:
		return errs.Wrap(err, errs.CodeStoreSchemaFailure, "read dimensions")
	case stored != strconv.Itoa(dimensions):
		return errs.New(errs.CodeStoreSchemaFailure, "database was created with a different embedding dimension",
			errs.Field("stored", stored), errs.Field("requested", dimensions))
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, errs.CodeStoreSchemaFailure, "commit schema")
	}
	return nil
}

// StoredDimensions returns the dimension pinned by EnsureSchema.
func StoredDimensions(ctx context.Context, db *sql.DB) (int, error) {
	var stored string
	if err := db.QueryRowContext(ctx, `SELECT value FROM `+metaTable+` WHERE key = 'dimensions'`).Scan(&stored); err != nil {
		return 0, errs.Wrap(err, errs.CodeStoreSchemaFailure, "read dimensions")
	}
	return strconv.Atoi(stored)
}
