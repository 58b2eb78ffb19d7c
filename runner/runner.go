package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/loader"
	"github.com/ridoystarlord/schemasync/logging"
	"github.com/ridoystarlord/schemasync/report"
	"github.com/ridoystarlord/schemasync/table"
)

// Transactor is implemented by handles that can run a function inside a
// transaction, such as *database.Conn.
type Transactor interface {
	InTx(ctx context.Context, fn func(q database.Queryer) error) error
}

type Options struct {
	// DryRun records the DDL each step would issue without executing it.
	// Introspection still reads the live database.
	DryRun bool
	Logger logging.Logger
}

// Migrator applies the migration chain of one Provider sequentially.
type Migrator struct {
	q        database.Queryer
	provider *loader.Provider
	dialect  dialect.Dialect
	dryRun   bool
	log      logging.Logger
}

type State string

const (
	StateApplied  State = "applied"
	StatePending  State = "pending"
	StateModified State = "modified"
)

// MigrationStatus is one chain entry as Status reports it.
type MigrationStatus struct {
	Name      string
	State     State
	AppliedAt time.Time
}

func New(q database.Queryer, provider *loader.Provider, opts Options) (*Migrator, error) {
	d, err := dialect.Resolve(q.Capabilities())
	if err != nil {
		return nil, &MigratorError{Op: "init", Err: err}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Migrator{q: q, provider: provider, dialect: d, dryRun: opts.DryRun, log: log}, nil
}

func (m *Migrator) Dialect() dialect.Dialect {
	return m.dialect
}

// ToLatest applies every pending migration in chain order. The first failure
// aborts the run; steps already applied stay applied.
func (m *Migrator) ToLatest(ctx context.Context) (*report.Journal, error) {
	const op = "toLatest"

	chain, applied, err := m.state(ctx)
	if err != nil {
		return nil, &MigratorError{Op: op, Err: err}
	}

	journal := report.New(m.dialect, m.dryRun)
	defer journal.Finish()

	pending := chain[len(applied):]
	if len(pending) == 0 {
		m.log.Infof("No pending migrations.")
		return journal, nil
	}

	m.log.Infof("Applying %d migration(s)...", len(pending))
	for i, mig := range pending {
		// a dry run leaves the database at the first pending step, so later
		// steps are planned from their definitions alone
		if err := m.step(ctx, journal, mig, report.Up, m.dryRun && i > 0); err != nil {
			return journal, &MigratorError{Op: op, Migration: mig.Key, Report: journal, Err: err}
		}
	}
	m.log.Infof("All migrations applied.")
	return journal, nil
}

// Up applies the next pending migration, if any.
func (m *Migrator) Up(ctx context.Context) (*report.Journal, error) {
	const op = "up"

	chain, applied, err := m.state(ctx)
	if err != nil {
		return nil, &MigratorError{Op: op, Err: err}
	}

	journal := report.New(m.dialect, m.dryRun)
	defer journal.Finish()

	if len(applied) == len(chain) {
		m.log.Infof("No pending migrations.")
		return journal, nil
	}

	next := chain[len(applied)]
	if err := m.step(ctx, journal, next, report.Up, false); err != nil {
		return journal, &MigratorError{Op: op, Migration: next.Key, Report: journal, Err: err}
	}
	return journal, nil
}

// Down reverts the most recently applied migration, if any.
func (m *Migrator) Down(ctx context.Context) (*report.Journal, error) {
	const op = "down"

	chain, applied, err := m.state(ctx)
	if err != nil {
		return nil, &MigratorError{Op: op, Err: err}
	}

	journal := report.New(m.dialect, m.dryRun)
	defer journal.Finish()

	if len(applied) == 0 {
		m.log.Infof("No migrations to roll back.")
		return journal, nil
	}

	last := chain[len(applied)-1]
	if err := m.step(ctx, journal, last, report.Down, false); err != nil {
		return journal, &MigratorError{Op: op, Migration: last.Key, Report: journal, Err: err}
	}
	return journal, nil
}

// Status lists the chain in order with each migration's state. A migration
// whose file changed after it was applied is reported as modified.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	chain, applied, err := m.state(ctx)
	if err != nil {
		return nil, &MigratorError{Op: "status", Err: err}
	}

	byName := make(map[string]Record, len(applied))
	for _, rec := range applied {
		byName[rec.Name] = rec
	}

	statuses := make([]MigrationStatus, len(chain))
	for i, mig := range chain {
		s := MigrationStatus{Name: mig.Key, State: StatePending}
		if rec, ok := byName[mig.Key]; ok {
			s.State = StateApplied
			s.AppliedAt = rec.AppliedAt
			if rec.Checksum != mig.Checksum {
				s.State = StateModified
			}
		}
		statuses[i] = s
	}
	return statuses, nil
}

// History returns the tracking table records, oldest first.
func (m *Migrator) History(ctx context.Context) ([]Record, error) {
	records, err := m.appliedRecords(ctx)
	if err != nil {
		return nil, &MigratorError{Op: "history", Err: err}
	}
	return records, nil
}

// state loads the chain and the applied records, and checks that the
// applied migrations are exactly the first len(applied) links of the chain.
func (m *Migrator) state(ctx context.Context) ([]loader.Migration, []Record, error) {
	chain, err := m.provider.Load()
	if err != nil {
		return nil, nil, err
	}
	applied, err := m.appliedRecords(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(applied) > len(chain) {
		return nil, nil, fmt.Errorf("%w: %d migrations applied but only %d on disk", ErrCorruptedHistory, len(applied), len(chain))
	}
	recorded := make(map[string]Record, len(applied))
	for _, rec := range applied {
		recorded[rec.Name] = rec
	}
	for _, mig := range chain[:len(applied)] {
		rec, ok := recorded[mig.Key]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s is not applied but a later migration is", ErrCorruptedHistory, mig.Key)
		}
		if rec.Checksum != mig.Checksum {
			m.log.Warnf("Migration %s changed after it was applied", mig.Key)
		}
	}
	return chain, applied, nil
}

// step runs one migration and its tracking row. With transactional DDL both
// commit or roll back together. An offline step skips the catalog checks.
func (m *Migrator) step(ctx context.Context, journal *report.Journal, mig loader.Migration, dir report.Direction, offline bool) error {
	journal.Begin(mig.Key, dir)
	if dir == report.Up {
		m.log.Infof("Applying: %s", mig.Key)
	} else {
		m.log.Infof("Rolling back: %s", mig.Key)
	}

	var opts []table.Option
	if offline {
		opts = append(opts, table.Unchecked())
	}

	start := time.Now()
	run := func(q database.Queryer) error {
		ddl := journal.Wrap(q)
		if dir == report.Up {
			if err := mig.Up(ctx, ddl, m.log, opts...); err != nil {
				return err
			}
		} else if err := mig.Down(ctx, ddl, m.log, opts...); err != nil {
			return err
		}

		if m.dryRun {
			return nil
		}
		if dir == report.Down {
			return deleteRecord(ctx, q, mig.Key)
		}
		return insertRecord(ctx, q, Record{
			Name:          mig.Key,
			AppliedAt:     time.Now(),
			ExecutionTime: time.Since(start),
			ExecutedBy:    currentUser(),
			Checksum:      mig.Checksum,
		})
	}

	var err error
	if tx, ok := m.q.(Transactor); ok && !m.dryRun && m.q.Capabilities().SupportsTransactionalDDL {
		err = tx.InTx(ctx, run)
	} else {
		err = run(m.q)
	}
	if err != nil {
		journal.Fail(err)
		return err
	}

	m.log.Infof("Done: %s (%s)", mig.Key, time.Since(start).Round(time.Millisecond))
	return nil
}
