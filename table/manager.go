package table

import (
	"context"
	"fmt"
	"slices"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/generator"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/logging"
	"github.com/ridoystarlord/schemasync/schema"
)

// Callbacks are invoked by Initialize. Exactly one of them runs, once.
type Callbacks struct {
	OnCreated func(ctx context.Context, q database.Queryer) error
	OnExists  func(ctx context.Context, q database.Queryer) error
}

// Manager turns table definitions into DDL against a live handle. Every
// creation is existence-checked first so a half-applied run can be repeated.
type Manager struct {
	q     database.Queryer
	gen   *generator.Generator
	intro *introspect.Introspector
	log   logging.Logger

	unchecked bool
}

// Option configures a Manager.
type Option func(*Manager)

// Unchecked skips the catalog existence checks, so every operation issues
// its DDL. It is for planning against a schema the database has not reached
// yet, such as later steps of a dry run.
func Unchecked() Option {
	return func(m *Manager) {
		m.unchecked = true
	}
}

// New resolves the handle's dialect. An unsupported capability pair fails
// here, before any statement is issued.
func New(q database.Queryer, log logging.Logger, opts ...Option) (*Manager, error) {
	d, err := dialect.Resolve(q.Capabilities())
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	m := &Manager{
		q:     q,
		gen:   generator.New(d),
		intro: introspect.NewWithDialect(q, d),
		log:   log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Dialect() dialect.Dialect {
	return m.gen.Dialect()
}

func (m *Manager) Introspector() *introspect.Introspector {
	return m.intro
}

// CreateTable creates the table unless it exists, then its indexes and
// triggers one at a time in declaration order.
func (m *Manager) CreateTable(ctx context.Context, def schema.TableDefinition) error {
	exists, err := m.tableExists(ctx, def.Name)
	if err != nil {
		return err
	}
	if exists {
		m.log.Debugf("Table %s already exists, skipping", def.Name)
	} else {
		stmt, err := m.gen.CreateTable(def)
		if err != nil {
			return err
		}
		if err := m.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating table %s: %w", def.Name, err)
		}
		m.log.Infof("Created table %s", def.Name)
	}

	if err := m.CreateIndexes(ctx, def); err != nil {
		return err
	}
	for _, trig := range def.Triggers {
		if err := m.CreateTrigger(ctx, def, trig); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndex creates idx on def's table unless an index with that name
// already exists.
func (m *Manager) CreateIndex(ctx context.Context, def schema.TableDefinition, idx schema.IndexDefinition) error {
	exists, err := m.indexExists(ctx, idx.Name)
	if err != nil {
		return err
	}
	if exists {
		m.log.Debugf("Index %s already exists, skipping", idx.Name)
		return nil
	}

	stmt, err := m.gen.CreateIndex(def.Name, idx)
	if err != nil {
		return err
	}
	if err := m.q.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("creating index %s: %w", idx.Name, err)
	}
	m.log.Infof("Created index %s on %s", idx.Name, def.Name)
	return nil
}

func (m *Manager) DropIndex(ctx context.Context, def schema.TableDefinition, name string) error {
	exists, err := m.indexExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists && !m.unchecked {
		m.log.Debugf("Index %s does not exist, skipping", name)
		return nil
	}
	if err := m.q.Exec(ctx, m.gen.DropIndex(def.Name, name)); err != nil {
		return fmt.Errorf("dropping index %s: %w", name, err)
	}
	m.log.Infof("Dropped index %s from %s", name, def.Name)
	return nil
}

// CreateTrigger creates trig on def's table. On postgres this is a helper
// function followed by the trigger itself.
func (m *Manager) CreateTrigger(ctx context.Context, def schema.TableDefinition, trig schema.TriggerDefinition) error {
	exists, err := m.triggerExists(ctx, def.Name, trig.Name)
	if err != nil {
		return err
	}
	if exists {
		m.log.Debugf("Trigger %s already exists, skipping", trig.Name)
		return nil
	}

	stmts, err := m.gen.CreateTrigger(def.Name, trig)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if err := m.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating trigger %s: %w", trig.Name, err)
		}
	}
	m.log.Infof("Created trigger %s on %s", trig.Name, def.Name)
	return nil
}

func (m *Manager) DropTrigger(ctx context.Context, def schema.TableDefinition, name string) error {
	for _, stmt := range m.gen.DropTrigger(def.Name, name) {
		if err := m.q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("dropping trigger %s: %w", name, err)
		}
	}
	m.log.Infof("Dropped trigger %s from %s", name, def.Name)
	return nil
}

func (m *Manager) tableExists(ctx context.Context, name string) (bool, error) {
	if m.unchecked {
		return false, nil
	}
	return m.intro.TableExists(ctx, name)
}

func (m *Manager) indexExists(ctx context.Context, name string) (bool, error) {
	if m.unchecked {
		return false, nil
	}
	return m.intro.IndexExists(ctx, name)
}

func (m *Manager) triggerExists(ctx context.Context, table, name string) (bool, error) {
	if m.unchecked {
		return false, nil
	}
	names, err := m.intro.ListTriggers(ctx, table)
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// Initialize creates def when the table is absent. OnCreated runs after a
// creation, OnExists when the table was already there.
func (m *Manager) Initialize(ctx context.Context, def schema.TableDefinition, cb Callbacks) error {
	exists, err := m.intro.TableExists(ctx, def.Name)
	if err != nil {
		return err
	}

	if exists {
		m.log.Debugf("Table %s already exists", def.Name)
		if cb.OnExists != nil {
			return cb.OnExists(ctx, m.q)
		}
		return nil
	}

	if err := m.CreateTable(ctx, def); err != nil {
		return err
	}
	if cb.OnCreated != nil {
		return cb.OnCreated(ctx, m.q)
	}
	return nil
}

// DropTable drops the table if it exists. Postgres leaves trigger helper
// functions behind, so those are dropped as well.
func (m *Manager) DropTable(ctx context.Context, def schema.TableDefinition) error {
	if err := m.q.Exec(ctx, m.gen.DropTable(def.Name)); err != nil {
		return fmt.Errorf("dropping table %s: %w", def.Name, err)
	}
	if m.Dialect() == dialect.Postgres {
		for _, trig := range def.Triggers {
			if err := m.q.Exec(ctx, m.gen.DropTriggerFunction(trig.Name)); err != nil {
				return fmt.Errorf("dropping function of trigger %s: %w", trig.Name, err)
			}
		}
	}
	m.log.Infof("Dropped table %s", def.Name)
	return nil
}

// RecreateTable drops and creates def. Only postgres can make the pair
// atomic, and only when the Manager runs inside a transaction.
func (m *Manager) RecreateTable(ctx context.Context, def schema.TableDefinition) error {
	if err := m.DropTable(ctx, def); err != nil {
		return err
	}
	return m.CreateTable(ctx, def)
}

// AddColumn adds col to an existing table unless a column with that name is
// already present.
func (m *Manager) AddColumn(ctx context.Context, table string, col schema.ColumnDefinition) error {
	exists, err := m.columnExists(ctx, table, col.Name)
	if err != nil {
		return err
	}
	if exists {
		m.log.Debugf("Column %s.%s already exists, skipping", table, col.Name)
		return nil
	}

	stmt, err := m.gen.AddColumn(table, col)
	if err != nil {
		return err
	}
	if err := m.q.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("adding column %s.%s: %w", table, col.Name, err)
	}
	m.log.Infof("Added column %s.%s", table, col.Name)
	return nil
}

func (m *Manager) DropColumn(ctx context.Context, table, column string) error {
	exists, err := m.columnExists(ctx, table, column)
	if err != nil {
		return err
	}
	if !exists && !m.unchecked {
		m.log.Debugf("Column %s.%s does not exist, skipping", table, column)
		return nil
	}
	if err := m.q.Exec(ctx, m.gen.DropColumn(table, column)); err != nil {
		return fmt.Errorf("dropping column %s.%s: %w", table, column, err)
	}
	m.log.Infof("Dropped column %s.%s", table, column)
	return nil
}

func (m *Manager) columnExists(ctx context.Context, table, column string) (bool, error) {
	if m.unchecked {
		return false, nil
	}
	columns, err := m.intro.ListColumns(ctx, table)
	if err != nil {
		return false, err
	}
	for _, c := range columns {
		if c.Name == column {
			return true, nil
		}
	}
	return false, nil
}
