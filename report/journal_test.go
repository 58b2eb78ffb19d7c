package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
)

type fakeQueryer struct {
	database.Queryer
	execs []string
	fail  map[string]error
}

func (f *fakeQueryer) Exec(_ context.Context, query string, _ ...any) error {
	f.execs = append(f.execs, query)
	return f.fail[query]
}

func (f *fakeQueryer) Capabilities() dialect.Capabilities {
	return dialect.Capabilities{SupportsReturning: true, SupportsTransactionalDDL: true}
}

func TestNewAssignsRunID(t *testing.T) {
	j := New(dialect.Postgres, false)
	_, err := uuid.Parse(j.RunID)
	require.NoError(t, err)
	assert.Equal(t, "postgres", j.Dialect)
	assert.NotEqual(t, j.RunID, New(dialect.Postgres, false).RunID)
}

func TestWrapRecordsAppliedAndFailed(t *testing.T) {
	boom := errors.New("boom")
	fake := &fakeQueryer{fail: map[string]error{"CREATE INDEX b": boom}}
	j := New(dialect.Postgres, false)
	q := j.Wrap(fake)
	ctx := context.Background()

	j.Begin("0001_init", Up)
	require.NoError(t, q.Exec(ctx, "CREATE TABLE a"))
	err := q.Exec(ctx, "CREATE INDEX b")
	require.ErrorIs(t, err, boom)
	j.Fail(err)

	assert.Equal(t, []string{"CREATE TABLE a", "CREATE INDEX b"}, fake.execs)
	require.Len(t, j.Migrations, 1)
	m := j.Migrations[0]
	assert.Equal(t, "0001_init", m.Name)
	assert.Equal(t, Up, m.Direction)
	assert.Equal(t, "boom", m.Error)
	require.Len(t, m.Statements, 2)
	assert.Equal(t, Applied, m.Statements[0].Status)
	assert.Equal(t, Failed, m.Statements[1].Status)
	assert.Equal(t, 1, j.Applied())
	assert.Equal(t, dialect.Capabilities{SupportsReturning: true, SupportsTransactionalDDL: true}, q.Capabilities())
}

func TestDryRunNeverExecutes(t *testing.T) {
	fake := &fakeQueryer{}
	j := New(dialect.SQLite, true)
	q := j.Wrap(fake)

	j.Begin("0001_init", Up)
	require.NoError(t, q.Exec(context.Background(), "DROP TABLE users"))

	assert.Empty(t, fake.execs)
	statements := j.Statements()
	require.Len(t, statements, 1)
	assert.Equal(t, Planned, statements[0].Status)
	assert.Equal(t, 0, j.Applied())
}

func TestWriteFile(t *testing.T) {
	j := New(dialect.MySQL, false)
	j.Begin("0002_users", Down)
	j.record(Statement{SQL: "DROP TABLE `users`", Status: Applied})
	j.Finish()

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, j.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, j.RunID, decoded["runId"])
	assert.Equal(t, "mysql", decoded["dialect"])
	migrations := decoded["migrations"].([]any)
	require.Len(t, migrations, 1)
	assert.Equal(t, "down", migrations[0].(map[string]any)["direction"])
}
