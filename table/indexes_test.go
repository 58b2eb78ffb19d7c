package table

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemasync/schema"
)

func TestAddMissingIndexesOnExistingTable(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	def := schema.TableDefinition{
		Name: "users",
		Columns: []schema.ColumnDefinition{
			{Name: "id", SQLType: "text", PrimaryKey: true},
			{Name: "email", SQLType: "text"},
		},
	}
	require.NoError(t, m.CreateTable(ctx, def))

	existing, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Empty(t, existing)

	def.Indexes = []schema.IndexDefinition{{Name: "idx_email", Columns: []string{"email"}, Unique: true}}
	require.NoError(t, m.AddMissingIndexes(ctx, def, existing))

	indexes, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Contains(t, indexes, "idx_email")
}

func TestAddMissingIndexesIsIdempotent(t *testing.T) {
	m, q := newManager(t)
	ctx := context.Background()

	def := usersTable()
	require.NoError(t, m.CreateTable(ctx, def))

	def.Indexes = append(def.Indexes, schema.IndexDefinition{Name: "idx_email", Columns: []string{"email"}})
	existing := []string{"idx_users_active"}

	require.NoError(t, m.AddMissingIndexes(ctx, def, existing))
	afterFirst := len(q.execs)

	require.NoError(t, m.AddMissingIndexes(ctx, def, existing))
	assert.Len(t, q.execs, afterFirst)
}

func TestDropRemovedIndexesKeepsDeclaredNames(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	def := usersTable()
	def.Indexes = append(def.Indexes, schema.IndexDefinition{Name: "idx_email", Columns: []string{"email"}})
	require.NoError(t, m.CreateTable(ctx, def))

	// idx_users_active now covers a different column list but keeps its name
	next := usersTable()
	next.Indexes = []schema.IndexDefinition{{Name: "idx_users_active", Columns: []string{"active", "email"}}}

	existing, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	require.NoError(t, m.DropRemovedIndexes(ctx, next, existing))

	indexes, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_users_active"}, indexes)
}

func TestSyncIndexes(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.CreateTable(ctx, usersTable()))

	next := usersTable()
	next.Indexes = []schema.IndexDefinition{{Name: "idx_email", Columns: []string{"email"}}}
	require.NoError(t, m.SyncIndexes(ctx, next))

	indexes, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_email"}, indexes)
}
