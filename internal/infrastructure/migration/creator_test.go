package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "add_debt_notes", sanitizeName("Add debt-notes"))
	assert.Equal(t, "x", sanitizeName("  x!! "))
	assert.Equal(t, "", sanitizeName("***"))
}

func TestCreateMigration_Sequence(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create ledger")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger.up.sql"), first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "Add index")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	_, err = CreateMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_later.up.sql", "000010_later.down.sql",
		"000002_early.up.sql", "README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(2), list[0].Version)
	assert.Empty(t, list[0].DownPath)
	assert.Equal(t, "later", list[1].Name)
	assert.NotEmpty(t, list[1].DownPath)

	missing, err := ListMigrations(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRepositoryMigrationsAreListed(t *testing.T) {
	list, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, uint(1), list[0].Version)
	assert.NotEmpty(t, list[0].UpPath)
	assert.NotEmpty(t, list[0].DownPath)
}
