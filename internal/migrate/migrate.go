// Package migrate applies the runtime's schema migrations (spec §6):
// numbered .sql files, each self-contained (its own BEGIN;...COMMIT;),
// applied in order via a single exec, tracked by schema_metadata.schema_version.
//
// golang-migrate/migrate is not used here — its model assumes a
// migrate-owned version table and up/down file pairs, neither of which
// matches the source's schema: schema_metadata is owned by the migration
// files themselves (0001-init.sql both creates it and inserts the first
// version row), and there is no down direction. A small hand-rolled runner
// over database/sql matches the source's PQexec-per-file design directly.
package migrate

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

var filenamePattern = regexp.MustCompile(`^(\d{3,4})-.*\.sql$`)

type pending struct {
	version  int
	path     string
	filename string
}

// CurrentVersion returns the schema_metadata.schema_version row, or 0 if the
// table does not exist yet (a brand-new database).
func CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT to_regclass('public.schema_metadata') IS NOT NULL`).Scan(&exists)
	if err != nil {
		return 0, id.Wrap(id.KindDBConnect, err, "check schema_metadata")
	}
	if !exists {
		return 0, nil
	}

	var version int
	if err := db.QueryRowContext(ctx, `SELECT schema_version FROM schema_metadata LIMIT 1`).Scan(&version); err != nil {
		return 0, id.Wrap(id.KindDBMigrate, err, "read schema version")
	}
	return version, nil
}

// Pending lists migration files in dir numbered greater than current,
// sorted numerically (not lexically, so "999-x" sorts before "1000-x").
func Pending(dir string, current int) ([]pending, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, id.Wrap(id.KindIO, err, "read migrations dir %s", dir)
	}

	var files []pending
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := filenamePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if v <= current {
			continue
		}
		files = append(files, pending{version: v, path: filepath.Join(dir, e.Name()), filename: e.Name()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}

// Up applies every migration in dir numbered greater than the current
// schema_metadata.schema_version, in order, each as a single exec. It
// returns the filenames applied, in application order.
func Up(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return nil, err
	}

	files, err := Pending(dir, current)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f.path)
		if err != nil {
			return applied, id.Wrap(id.KindIO, err, "read migration %s", f.filename)
		}
		if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
			return applied, id.Wrap(id.KindDBMigrate, err, "apply migration %s", f.filename)
		}
		applied = append(applied, f.filename)
	}
	return applied, nil
}
