package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/logging"
	"github.com/ridoystarlord/schemasync/schema"
)

const fileA = `{
  "definition": [
    {"name": "users", "columns": [{"name": "id", "sqlType": "text", "primaryKey": true}]}
  ],
  "previousMigration": "none"
}`

const fileB = `{
  "definition": [
    {
      "name": "users",
      "columns": [
        {"name": "id", "sqlType": "text", "primaryKey": true},
        {"name": "email", "sqlType": "text", "notNull": true, "default": ""},
        {"name": "age", "sqlType": "integer", "default": 18}
      ],
      "indexes": [{"name": "idx_email", "columns": ["email"], "unique": true}]
    }
  ],
  "previousMigration": "A"
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestGetMigrations(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"A.json":    fileA,
		"B.json":    fileB,
		"notes.txt": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	migrations, err := NewProvider(dir).GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	a := migrations["A"]
	assert.True(t, a.IsRoot())
	assert.Nil(t, a.PreviousDefinition)
	require.Len(t, a.Definition, 1)

	b := migrations["B"]
	assert.Equal(t, "A", b.PreviousMigration)
	require.Len(t, b.Definition, 1)
	assert.Len(t, b.Definition[0].Columns, 3)
	assert.Equal(t, a.Definition, b.PreviousDefinition)
	assert.NotEqual(t, a.Checksum, b.Checksum)
	assert.Len(t, b.Checksum, 64)
}

func TestLoadOrdersByChainNotName(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"z_first.json":  fileA,
		"a_second.json": `{"definition": [], "previousMigration": "z_first"}`,
	})

	chain, err := NewProvider(dir).Load()
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, "z_first", chain[0].Key)
	assert.Equal(t, "a_second", chain[1].Key)
}

func TestMissingPredecessorIsBrokenChain(t *testing.T) {
	dir := writeFiles(t, map[string]string{"B.json": fileB})

	_, err := NewProvider(dir).GetMigrations()
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "B", loadErr.Key)
	assert.ErrorIs(t, err, ErrBrokenChain)
}

func TestMalformedFileIsLoadError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"definition": [`},
		{"missing definition", `{"previousMigration": "none"}`},
		{"missing previous", `{"definition": []}`},
		{"unknown field", `{"definition": [], "previousMigration": "none", "extra": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"A.json": tt.content})
			_, err := NewProvider(dir).GetMigrations()

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.ErrorIs(t, err, ErrInvalidMigrationFile)
		})
	}
}

func TestMissingDirectoryIsLoadError(t *testing.T) {
	_, err := NewProvider(filepath.Join(t.TempDir(), "missing")).Load()

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestEmptyDirectory(t *testing.T) {
	chain, err := NewProvider(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Empty(t, chain)
}

func TestMigrationUpAndDown(t *testing.T) {
	dir := writeFiles(t, map[string]string{"A.json": fileA, "B.json": fileB})
	migrations, err := NewProvider(dir).GetMigrations()
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := database.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer conn.Close()

	in, err := introspect.New(conn)
	require.NoError(t, err)

	require.NoError(t, migrations["A"].Up(ctx, conn, logging.Nop()))
	require.NoError(t, migrations["B"].Up(ctx, conn, logging.Nop()))

	indexes, err := in.ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_email"}, indexes)

	require.NoError(t, migrations["B"].Down(ctx, conn, logging.Nop()))

	indexes, err = in.ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, indexes)

	columns, err := in.ListColumns(ctx, "users")
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, "id", columns[0].Name)
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	p := NewProvider(dir)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	defs := []schema.TableDefinition{{
		Name:    "users",
		Columns: []schema.ColumnDefinition{{Name: "id", SQLType: "integer", PrimaryKey: true, Default: 1}},
	}}

	first, err := p.Generate("init", defs, now)
	require.NoError(t, err)
	assert.Equal(t, "20240301120000_init", first)

	same, err := p.Generate("noop", defs, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, same)

	defs[0].Columns = append(defs[0].Columns, schema.ColumnDefinition{Name: "email", SQLType: "text"})
	second, err := p.Generate("add_email", defs, now.Add(time.Hour))
	require.NoError(t, err)

	chain, err := p.Load()
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, first, chain[0].Key)
	assert.Equal(t, second, chain[1].Key)
	assert.Equal(t, first, chain[1].PreviousMigration)
}

func TestWriteMigrationFileRefusesOverwrite(t *testing.T) {
	p := NewProvider(t.TempDir())
	now := time.Now()

	_, err := p.WriteMigrationFile("init", nil, "", now)
	require.NoError(t, err)
	_, err = p.WriteMigrationFile("init", nil, "", now)
	require.Error(t, err)
}
