package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("BEGIN;\nCOMMIT;\n"), 0o644))
}

func TestPending_SortsNumericallyNotLexically(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0010-ten.sql")
	writeFile(t, dir, "002-two.sql")
	writeFile(t, dir, "0001-init.sql")

	files, err := Pending(dir, 0)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []string{"0001-init.sql", "002-two.sql", "0010-ten.sql"}, []string{files[0].filename, files[1].filename, files[2].filename})
}

func TestPending_OnlyAboveCurrentVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001-init.sql")
	writeFile(t, dir, "0002-add-col.sql")

	files, err := Pending(dir, 1)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "0002-add-col.sql", files[0].filename)
}

func TestPending_IgnoresNonMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001-init.sql")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	files, err := Pending(dir, 0)
	require.NoError(t, err)
	require.Len(t, files, 1)
}
