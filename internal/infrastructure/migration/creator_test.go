package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/Duran117/kibray-sub001/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add cost layers", "add_cost_layers"},
		{"Add-Cost-Layers", "add_cost_layers"},
		{"ADD_COST_LAYERS", "add_cost_layers"},
		{"add__cost__layers", "add_cost_layers"},
		{"Index 2", "index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create ledger tables", "initial schema")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger_tables.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger_tables.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add movement reason index", "")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "create ledger tables")
	assert.Contains(t, string(up), "initial schema")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "init", "")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	sql := &fstest.MapFile{Data: []byte("--")}
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":              sql,
		"000002_add_index.down.sql":            sql,
		"000001_create_ledger_tables.up.sql":   sql,
		"000001_create_ledger_tables.down.sql": sql,
		"000010_late.up.sql":                   sql,
		"README.md":                            {Data: []byte("docs")},
		"embed.go":                             {Data: []byte("package migrations")},
		"subdir.up.sql/x":                      sql,
	}

	names, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_ledger_tables",
		"000002_add_index",
		"000010_late",
	}, names)

	next, err := NextVersion(fsys)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), next)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, names)

	next, err := NextVersion(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
}

func TestEmbeddedSchemaIsPaired(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		_, err := migrations.FS.Open(name + ".down.sql")
		assert.NoError(t, err, "missing rollback for %s", name)
	}
}
