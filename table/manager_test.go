package table

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/logging"
	"github.com/ridoystarlord/schemasync/schema"
)

// recordingQueryer counts the statements that reach the database.
type recordingQueryer struct {
	database.Queryer
	caps  *dialect.Capabilities
	execs []string
}

func (r *recordingQueryer) Exec(ctx context.Context, query string, args ...any) error {
	r.execs = append(r.execs, query)
	return r.Queryer.Exec(ctx, query, args...)
}

func (r *recordingQueryer) Capabilities() dialect.Capabilities {
	if r.caps != nil {
		return *r.caps
	}
	return r.Queryer.Capabilities()
}

func openSQLite(t *testing.T) *recordingQueryer {
	t.Helper()
	conn, err := database.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &recordingQueryer{Queryer: conn}
}

func newManager(t *testing.T) (*Manager, *recordingQueryer) {
	t.Helper()
	q := openSQLite(t)
	m, err := New(q, logging.Nop())
	require.NoError(t, err)
	return m, q
}

func usersTable() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "users",
		Columns: []schema.ColumnDefinition{
			{Name: "id", SQLType: "text", PrimaryKey: true},
			{Name: "email", SQLType: "text", NotNull: true, Unique: true},
			{Name: "active", SQLType: "boolean", Default: true},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "idx_users_active", Columns: []string{"active"}},
		},
		Triggers: []schema.TriggerDefinition{
			{Name: "users_noop", Timing: schema.After, Event: schema.Insert, BodySQL: "SELECT 1"},
		},
	}
}

func TestCreateTableMinimal(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	def := schema.TableDefinition{
		Name:    "users",
		Columns: []schema.ColumnDefinition{{Name: "id", SQLType: "text", PrimaryKey: true}},
	}
	require.NoError(t, m.CreateTable(ctx, def))

	exists, err := m.Introspector().TableExists(ctx, "users")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateTableListsExactlyDeclaredIndexes(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	def := usersTable()
	def.Indexes = append(def.Indexes, schema.IndexDefinition{Name: "idx_email", Columns: []string{"email"}, Unique: true})
	require.NoError(t, m.CreateTable(ctx, def))

	indexes, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"idx_users_active", "idx_email"}, indexes)

	triggers, err := m.Introspector().ListTriggers(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"users_noop"}, triggers)
}

func TestCreateTableIsRepeatable(t *testing.T) {
	q := openSQLite(t)
	var out bytes.Buffer
	m, err := New(q, logging.New(&out, logging.LevelInfo))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.CreateTable(ctx, usersTable()))
	first := len(q.execs)

	require.NoError(t, m.CreateTable(ctx, usersTable()))
	assert.Len(t, q.execs, first)
	assert.Equal(t, 1, strings.Count(out.String(), "Created table users"))
}

func TestUncheckedIssuesEveryStatement(t *testing.T) {
	q := openSQLite(t)
	m, err := New(q, logging.Nop(), Unchecked())
	require.NoError(t, err)
	ctx := context.Background()

	// nothing exists yet; the drops are still issued
	require.NoError(t, m.DropIndex(ctx, usersTable(), "idx_missing"))
	assert.Equal(t, []string{`DROP INDEX IF EXISTS "idx_missing"`}, q.execs)

	require.NoError(t, m.CreateTable(ctx, usersTable()))
	before := len(q.execs)
	require.NoError(t, m.CreateIndex(ctx, usersTable(), usersTable().Indexes[0]))
	assert.Len(t, q.execs, before+1)
}

func TestInitializeCallbacks(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	var created, existed int
	cb := Callbacks{
		OnCreated: func(ctx context.Context, q database.Queryer) error {
			created++
			return q.Exec(ctx, `INSERT INTO "users" ("id", "email") VALUES ('u1', 'a@example.com')`)
		},
		OnExists: func(context.Context, database.Queryer) error {
			existed++
			return nil
		},
	}

	require.NoError(t, m.Initialize(ctx, usersTable(), cb))
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, existed)

	require.NoError(t, m.Initialize(ctx, usersTable(), cb))
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, existed)
}

func TestInitializePropagatesCallbackError(t *testing.T) {
	m, _ := newManager(t)
	boom := errors.New("seed failed")

	err := m.Initialize(context.Background(), usersTable(), Callbacks{
		OnCreated: func(context.Context, database.Queryer) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}

func TestDropTableTolerantOfAbsence(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.DropTable(ctx, usersTable()))

	require.NoError(t, m.CreateTable(ctx, usersTable()))
	require.NoError(t, m.DropTable(ctx, usersTable()))

	exists, err := m.Introspector().TableExists(ctx, "users")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRecreateTableDiscardsRows(t *testing.T) {
	m, q := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.CreateTable(ctx, usersTable()))
	require.NoError(t, q.Exec(ctx, `INSERT INTO "users" ("id", "email") VALUES ('u1', 'a@example.com')`))

	require.NoError(t, m.RecreateTable(ctx, usersTable()))

	var count int
	require.NoError(t, q.Get(ctx, &count, `SELECT COUNT(*) FROM "users"`))
	assert.Equal(t, 0, count)

	indexes, err := m.Introspector().ListIndexes(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_users_active"}, indexes)
}

func TestAddAndDropColumn(t *testing.T) {
	m, q := newManager(t)
	ctx := context.Background()

	require.NoError(t, m.CreateTable(ctx, usersTable()))
	before := len(q.execs)

	col := schema.ColumnDefinition{Name: "nickname", SQLType: "text", Default: "anon"}
	require.NoError(t, m.AddColumn(ctx, "users", col))
	require.NoError(t, m.AddColumn(ctx, "users", col))
	assert.Len(t, q.execs, before+1)

	require.NoError(t, m.DropColumn(ctx, "users", "nickname"))
	require.NoError(t, m.DropColumn(ctx, "users", "nickname"))
	assert.Len(t, q.execs, before+2)

	columns, err := m.Introspector().ListColumns(ctx, "users")
	require.NoError(t, err)
	assert.Len(t, columns, 3)
}

func TestInvalidTriggerFailsWithSQLError(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	def := usersTable()
	def.Triggers = []schema.TriggerDefinition{
		{Name: "broken", Timing: schema.Before, Event: schema.Update, BodySQL: "NOT VALID SQL"},
	}
	err := m.CreateTable(ctx, def)
	require.Error(t, err)

	var sqlErr *database.SQLError
	assert.True(t, errors.As(err, &sqlErr))
}

func TestNewRejectsUnsupportedCapabilities(t *testing.T) {
	q := openSQLite(t)
	q.caps = &dialect.Capabilities{SupportsReturning: false, SupportsTransactionalDDL: true}

	_, err := New(q, nil)
	require.Error(t, err)

	var cfgErr *dialect.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, q.execs)
}
