package table

import (
	"context"
	"fmt"

	"github.com/ridoystarlord/schemasync/diff"
	"github.com/ridoystarlord/schemasync/schema"
)

// SyncSchema moves the database from baseline to target.
func (m *Manager) SyncSchema(ctx context.Context, target, baseline []schema.TableDefinition) error {
	return m.Apply(ctx, diff.Plan(target, baseline))
}

// RollbackSchema reverts a SyncSchema with the same arguments.
func (m *Manager) RollbackSchema(ctx context.Context, target, baseline []schema.TableDefinition) error {
	return m.Apply(ctx, diff.Plan(baseline, target))
}

// Apply runs ops in order and stops at the first failure.
func (m *Manager) Apply(ctx context.Context, ops []diff.Operation) error {
	for _, op := range ops {
		if err := m.apply(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) apply(ctx context.Context, op diff.Operation) error {
	table := schema.TableDefinition{Name: op.TableName}

	switch op.Type {
	case diff.CreateTable:
		return m.CreateTable(ctx, *op.Table)
	case diff.DropTable:
		return m.DropTable(ctx, *op.Table)
	case diff.AddColumn:
		return m.AddColumn(ctx, op.TableName, *op.Column)
	case diff.DropColumn:
		return m.DropColumn(ctx, op.TableName, op.ColumnName)
	case diff.CreateIndex:
		return m.CreateIndex(ctx, table, *op.Index)
	case diff.DropIndex:
		return m.DropIndex(ctx, table, op.IndexName)
	case diff.CreateTrigger:
		return m.CreateTrigger(ctx, table, *op.Trigger)
	case diff.DropTrigger:
		return m.DropTrigger(ctx, table, op.TriggerName)
	}
	return fmt.Errorf("unknown operation %q", op.Type)
}
