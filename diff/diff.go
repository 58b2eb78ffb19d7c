package diff

import (
	"fmt"
	"strings"

	"github.com/ridoystarlord/schemasync/schema"
)

type OperationType string

const (
	CreateTable   OperationType = "CREATE_TABLE"
	DropTable     OperationType = "DROP_TABLE"
	AddColumn     OperationType = "ADD_COLUMN"
	DropColumn    OperationType = "DROP_COLUMN"
	CreateIndex   OperationType = "CREATE_INDEX"
	DropIndex     OperationType = "DROP_INDEX"
	CreateTrigger OperationType = "CREATE_TRIGGER"
	DropTrigger   OperationType = "DROP_TRIGGER"
)

type Operation struct {
	Type        OperationType
	TableName   string
	Table       *schema.TableDefinition   // for CREATE_TABLE, DROP_TABLE
	Column      *schema.ColumnDefinition  // for ADD_COLUMN
	ColumnName  string                    // for DROP_COLUMN
	Index       *schema.IndexDefinition   // for CREATE_INDEX
	IndexName   string                    // for DROP_INDEX
	Trigger     *schema.TriggerDefinition // for CREATE_TRIGGER
	TriggerName string                    // for DROP_TRIGGER
}

func (op Operation) String() string {
	switch op.Type {
	case CreateTable:
		return fmt.Sprintf("create table %s", op.TableName)
	case DropTable:
		return fmt.Sprintf("drop table %s", op.TableName)
	case AddColumn:
		return fmt.Sprintf("add column %s.%s %s", op.TableName, op.Column.Name, op.Column.SQLType)
	case DropColumn:
		return fmt.Sprintf("drop column %s.%s", op.TableName, op.ColumnName)
	case CreateIndex:
		return fmt.Sprintf("create index %s on %s (%s)", op.Index.Name, op.TableName, strings.Join(op.Index.Columns, ", "))
	case DropIndex:
		return fmt.Sprintf("drop index %s on %s", op.IndexName, op.TableName)
	case CreateTrigger:
		return fmt.Sprintf("create trigger %s on %s", op.Trigger.Name, op.TableName)
	case DropTrigger:
		return fmt.Sprintf("drop trigger %s on %s", op.TriggerName, op.TableName)
	}
	return string(op.Type)
}

// Plan computes the operations that move a database from baseline to target.
// Tables, columns, indexes and triggers are matched by name only; a column
// whose type changed or an index whose columns changed is not detected.
// Triggers are the exception: one whose timing, event or body differs between
// two declared revisions is dropped and re-created.
//
// Rolling back is Plan(baseline, target).
func Plan(target, baseline []schema.TableDefinition) []Operation {
	var ops []Operation

	baselineTables := map[string]schema.TableDefinition{}
	targetTables := map[string]bool{}
	for _, t := range baseline {
		baselineTables[t.Name] = t
	}
	for _, t := range target {
		targetTables[t.Name] = true
	}

	for _, def := range target {
		old, exists := baselineTables[def.Name]
		if !exists {
			table := def
			ops = append(ops, Operation{
				Type:      CreateTable,
				TableName: def.Name,
				Table:     &table,
			})
			continue
		}
		ops = append(ops, planTable(def, old)...)
	}

	// dropped in reverse declaration order so dependents go first
	for i := len(baseline) - 1; i >= 0; i-- {
		old := baseline[i]
		if targetTables[old.Name] {
			continue
		}
		table := old
		ops = append(ops, Operation{
			Type:      DropTable,
			TableName: old.Name,
			Table:     &table,
		})
	}

	return ops
}

// planTable diffs one table present on both sides. Triggers and indexes are
// dropped before columns so nothing still references a column being removed.
func planTable(def, old schema.TableDefinition) []Operation {
	var ops []Operation

	for _, col := range def.Columns {
		if _, exists := old.Column(col.Name); !exists {
			column := col
			ops = append(ops, Operation{
				Type:      AddColumn,
				TableName: def.Name,
				Column:    &column,
			})
		}
	}

	for _, trig := range old.Triggers {
		current, exists := def.Trigger(trig.Name)
		if !exists || triggerChanged(current, trig) {
			ops = append(ops, Operation{
				Type:        DropTrigger,
				TableName:   def.Name,
				TriggerName: trig.Name,
			})
		}
	}

	for _, name := range RemovedIndexes(def, old.IndexNames()) {
		ops = append(ops, Operation{
			Type:      DropIndex,
			TableName: def.Name,
			IndexName: name,
		})
	}

	for _, col := range old.Columns {
		if _, exists := def.Column(col.Name); !exists {
			ops = append(ops, Operation{
				Type:       DropColumn,
				TableName:  def.Name,
				ColumnName: col.Name,
			})
		}
	}

	for _, idx := range MissingIndexes(def, old.IndexNames()) {
		index := idx
		ops = append(ops, Operation{
			Type:      CreateIndex,
			TableName: def.Name,
			Index:     &index,
		})
	}

	for _, trig := range def.Triggers {
		previous, exists := old.Trigger(trig.Name)
		if !exists || triggerChanged(trig, previous) {
			trigger := trig
			ops = append(ops, Operation{
				Type:      CreateTrigger,
				TableName: def.Name,
				Trigger:   &trigger,
			})
		}
	}

	return ops
}

// triggerChanged compares bodies only when both sides know them; a live
// snapshot carries trigger names without bodies.
func triggerChanged(a, b schema.TriggerDefinition) bool {
	if strings.TrimSpace(a.BodySQL) == "" || strings.TrimSpace(b.BodySQL) == "" {
		return false
	}
	return !a.Equal(b)
}

// MissingIndexes returns the indexes declared on def whose names are not in
// existing, in declaration order.
func MissingIndexes(def schema.TableDefinition, existing []string) []schema.IndexDefinition {
	present := toSet(existing)
	var missing []schema.IndexDefinition
	for _, idx := range def.Indexes {
		if !present[idx.Name] {
			missing = append(missing, idx)
		}
	}
	return missing
}

// RemovedIndexes returns the names in existing that def no longer declares.
// An index whose name is still declared is never returned, even if its
// columns changed.
func RemovedIndexes(def schema.TableDefinition, existing []string) []string {
	declared := toSet(def.IndexNames())
	var removed []string
	for _, name := range existing {
		if !declared[name] {
			removed = append(removed, name)
		}
	}
	return removed
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
