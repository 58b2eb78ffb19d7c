package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/schema"
)

// Introspector reads present-tense schema state from the system catalogs.
// Every method is read-only and safe to call repeatedly. Objects the
// database generates on its own (primary key and autoindexes) are never
// reported, so diffing declared indexes against live ones cannot flag them.
type Introspector struct {
	q       database.Queryer
	dialect dialect.Dialect
	queries catalogQueries
}

// ExistingColumn is a live column as reported by the catalog.
type ExistingColumn struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

// New resolves the handle's dialect and returns an Introspector for it.
func New(q database.Queryer) (*Introspector, error) {
	d, err := dialect.Resolve(q.Capabilities())
	if err != nil {
		return nil, err
	}
	return NewWithDialect(q, d), nil
}

func NewWithDialect(q database.Queryer, d dialect.Dialect) *Introspector {
	return &Introspector{q: q, dialect: d, queries: queriesFor(d)}
}

func (in *Introspector) Dialect() dialect.Dialect {
	return in.dialect
}

func (in *Introspector) TableExists(ctx context.Context, name string) (bool, error) {
	var count int
	if err := in.q.Get(ctx, &count, in.queries.tableExists, name); err != nil {
		return false, fmt.Errorf("checking table %s: %w", name, err)
	}
	return count > 0, nil
}

func (in *Introspector) IndexExists(ctx context.Context, name string) (bool, error) {
	if in.dialect == dialect.SQLite && isSQLiteInternal(name) {
		return false, nil
	}
	var count int
	if err := in.q.Get(ctx, &count, in.queries.indexExists, name); err != nil {
		return false, fmt.Errorf("checking index %s: %w", name, err)
	}
	return count > 0, nil
}

// ListIndexes returns the names of the explicit indexes on table.
func (in *Introspector) ListIndexes(ctx context.Context, table string) ([]string, error) {
	var names []string
	if err := in.q.Select(ctx, &names, in.queries.listIndexes, table); err != nil {
		return nil, fmt.Errorf("listing indexes of %s: %w", table, err)
	}
	if in.dialect == dialect.SQLite {
		names = dropSQLiteInternal(names)
	}
	return names, nil
}

func (in *Introspector) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	if err := in.q.Select(ctx, &names, in.queries.listTables); err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	if in.dialect == dialect.SQLite {
		names = dropSQLiteInternal(names)
	}
	return names, nil
}

func (in *Introspector) ListColumns(ctx context.Context, table string) ([]ExistingColumn, error) {
	var columns []ExistingColumn
	if err := in.q.Select(ctx, &columns, in.queries.listColumns, table); err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	return columns, nil
}

func (in *Introspector) ListTriggers(ctx context.Context, table string) ([]string, error) {
	var names []string
	if err := in.q.Select(ctx, &names, in.queries.listTriggers, table); err != nil {
		return nil, fmt.Errorf("listing triggers of %s: %w", table, err)
	}
	return names, nil
}

// Snapshot reads the live schema as table definitions. Only names and column
// types are known; index columns and trigger bodies are left empty. Tables
// named in exclude (such as the migration tracking table) are skipped.
func (in *Introspector) Snapshot(ctx context.Context, exclude ...string) ([]schema.TableDefinition, error) {
	skip := map[string]bool{}
	for _, name := range exclude {
		skip[name] = true
	}

	tableNames, err := in.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	var tables []schema.TableDefinition
	for _, tableName := range tableNames {
		if skip[tableName] {
			continue
		}

		columns, err := in.ListColumns(ctx, tableName)
		if err != nil {
			return nil, err
		}
		indexes, err := in.ListIndexes(ctx, tableName)
		if err != nil {
			return nil, err
		}
		triggers, err := in.ListTriggers(ctx, tableName)
		if err != nil {
			return nil, err
		}

		def := schema.TableDefinition{Name: tableName}
		for _, c := range columns {
			def.Columns = append(def.Columns, schema.ColumnDefinition{Name: c.Name, SQLType: c.Type})
		}
		for _, name := range indexes {
			def.Indexes = append(def.Indexes, schema.IndexDefinition{Name: name})
		}
		for _, name := range triggers {
			def.Triggers = append(def.Triggers, schema.TriggerDefinition{Name: name})
		}
		tables = append(tables, def)
	}

	return tables, nil
}

func isSQLiteInternal(name string) bool {
	return strings.HasPrefix(name, "sqlite_")
}

func dropSQLiteInternal(names []string) []string {
	kept := names[:0]
	for _, name := range names {
		if !isSQLiteInternal(name) {
			kept = append(kept, name)
		}
	}
	return kept
}
