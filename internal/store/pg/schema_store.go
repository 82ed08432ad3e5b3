package pg

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaStore implements store.SchemaStore over schema_metadata.
type SchemaStore struct {
	db *sql.DB
}

func NewSchemaStore(db *sql.DB) *SchemaStore {
	return &SchemaStore{db: db}
}

func (s *SchemaStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT schema_version FROM schema_metadata LIMIT 1`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}
