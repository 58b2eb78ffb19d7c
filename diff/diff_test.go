package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridoystarlord/schemasync/schema"
)

func usersV1() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "users",
		Columns: []schema.ColumnDefinition{
			{Name: "id", SQLType: "text", PrimaryKey: true},
			{Name: "email", SQLType: "text", NotNull: true},
			{Name: "legacy", SQLType: "text"},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "idx_legacy", Columns: []string{"legacy"}},
		},
		Triggers: []schema.TriggerDefinition{
			{Name: "users_touch", Timing: schema.Before, Event: schema.Update, BodySQL: "SELECT 1"},
		},
	}
}

func usersV2() schema.TableDefinition {
	return schema.TableDefinition{
		Name: "users",
		Columns: []schema.ColumnDefinition{
			{Name: "id", SQLType: "text", PrimaryKey: true},
			{Name: "email", SQLType: "text", NotNull: true},
			{Name: "name", SQLType: "text"},
		},
		Indexes: []schema.IndexDefinition{
			{Name: "idx_email", Columns: []string{"email"}, Unique: true},
		},
		Triggers: []schema.TriggerDefinition{
			{Name: "users_touch", Timing: schema.Before, Event: schema.Update, BodySQL: "SELECT 2"},
		},
	}
}

func types(ops []Operation) []OperationType {
	out := make([]OperationType, len(ops))
	for i, op := range ops {
		out[i] = op.Type
	}
	return out
}

func TestPlanCreatesNewTables(t *testing.T) {
	posts := schema.TableDefinition{Name: "posts", Columns: []schema.ColumnDefinition{{Name: "id", SQLType: "integer"}}}
	ops := Plan([]schema.TableDefinition{usersV1(), posts}, nil)

	require.Len(t, ops, 2)
	assert.Equal(t, CreateTable, ops[0].Type)
	assert.Equal(t, "users", ops[0].TableName)
	assert.Equal(t, "posts", ops[1].TableName)
	assert.Len(t, ops[0].Table.Indexes, 1)
}

func TestPlanNoChanges(t *testing.T) {
	ops := Plan([]schema.TableDefinition{usersV1()}, []schema.TableDefinition{usersV1()})
	assert.Empty(t, ops)
}

func TestPlanEvolvesTable(t *testing.T) {
	ops := Plan([]schema.TableDefinition{usersV2()}, []schema.TableDefinition{usersV1()})

	assert.Equal(t, []OperationType{
		AddColumn,
		DropTrigger,
		DropIndex,
		DropColumn,
		CreateIndex,
		CreateTrigger,
	}, types(ops))

	assert.Equal(t, "name", ops[0].Column.Name)
	assert.Equal(t, "users_touch", ops[1].TriggerName)
	assert.Equal(t, "idx_legacy", ops[2].IndexName)
	assert.Equal(t, "legacy", ops[3].ColumnName)
	assert.Equal(t, "idx_email", ops[4].Index.Name)
	assert.Equal(t, "SELECT 2", ops[5].Trigger.BodySQL)
}

func TestPlanRollbackIsReversedArguments(t *testing.T) {
	ops := Plan([]schema.TableDefinition{usersV1()}, []schema.TableDefinition{usersV2()})

	require.Len(t, ops, 6)
	assert.Equal(t, "legacy", ops[0].Column.Name)
	assert.Equal(t, "idx_email", ops[2].IndexName)
	assert.Equal(t, "name", ops[3].ColumnName)
	assert.Equal(t, "idx_legacy", ops[4].Index.Name)
}

func TestPlanDropsRemovedTablesInReverseOrder(t *testing.T) {
	a := schema.TableDefinition{Name: "a"}
	b := schema.TableDefinition{Name: "b"}
	c := schema.TableDefinition{Name: "c"}

	ops := Plan([]schema.TableDefinition{b}, []schema.TableDefinition{a, b, c})

	require.Len(t, ops, 2)
	assert.Equal(t, DropTable, ops[0].Type)
	assert.Equal(t, "c", ops[0].TableName)
	assert.Equal(t, "a", ops[1].TableName)
}

func TestPlanIgnoresTriggerBodiesMissingFromSnapshot(t *testing.T) {
	live := usersV1()
	live.Triggers[0].BodySQL = ""

	ops := Plan([]schema.TableDefinition{usersV1()}, []schema.TableDefinition{live})
	assert.Empty(t, ops)
}

func TestPlanTriggerTimingChange(t *testing.T) {
	next := usersV1()
	next.Triggers[0].Timing = schema.After

	ops := Plan([]schema.TableDefinition{next}, []schema.TableDefinition{usersV1()})
	assert.Equal(t, []OperationType{DropTrigger, CreateTrigger}, types(ops))
}

func TestMissingIndexes(t *testing.T) {
	def := usersV2()
	def.Indexes = append(def.Indexes, schema.IndexDefinition{Name: "idx_name", Columns: []string{"name"}})

	missing := MissingIndexes(def, []string{"idx_email"})
	require.Len(t, missing, 1)
	assert.Equal(t, "idx_name", missing[0].Name)

	assert.Empty(t, MissingIndexes(def, []string{"idx_email", "idx_name"}))
}

func TestRemovedIndexes(t *testing.T) {
	assert.Equal(t, []string{"idx_old"}, RemovedIndexes(usersV2(), []string{"idx_email", "idx_old"}))
	assert.Empty(t, RemovedIndexes(usersV2(), []string{"idx_email"}))
}

func TestOperationString(t *testing.T) {
	idx := schema.IndexDefinition{Name: "idx_email", Columns: []string{"email"}}
	op := Operation{Type: CreateIndex, TableName: "users", Index: &idx}
	assert.Equal(t, "create index idx_email on users (email)", op.String())
}
