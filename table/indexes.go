package table

import (
	"context"

	"github.com/ridoystarlord/schemasync/diff"
	"github.com/ridoystarlord/schemasync/schema"
)

// CreateIndexes creates every index declared on def that is not there yet.
func (m *Manager) CreateIndexes(ctx context.Context, def schema.TableDefinition) error {
	for _, idx := range def.Indexes {
		if err := m.CreateIndex(ctx, def, idx); err != nil {
			return err
		}
	}
	return nil
}

// AddMissingIndexes creates the indexes declared on def whose names are not
// in existing. The first failure aborts the rest of the batch.
func (m *Manager) AddMissingIndexes(ctx context.Context, def schema.TableDefinition, existing []string) error {
	for _, idx := range diff.MissingIndexes(def, existing) {
		if err := m.CreateIndex(ctx, def, idx); err != nil {
			return err
		}
	}
	return nil
}

// DropRemovedIndexes drops every index in existing that def no longer
// declares by name.
func (m *Manager) DropRemovedIndexes(ctx context.Context, def schema.TableDefinition, existing []string) error {
	for _, name := range diff.RemovedIndexes(def, existing) {
		if err := m.DropIndex(ctx, def, name); err != nil {
			return err
		}
	}
	return nil
}

// SyncIndexes reads the live indexes of def's table and reconciles them with
// the declaration.
func (m *Manager) SyncIndexes(ctx context.Context, def schema.TableDefinition) error {
	existing, err := m.intro.ListIndexes(ctx, def.Name)
	if err != nil {
		return err
	}
	if err := m.DropRemovedIndexes(ctx, def, existing); err != nil {
		return err
	}
	return m.AddMissingIndexes(ctx, def, existing)
}
