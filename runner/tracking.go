package runner

import (
	"context"
	"fmt"
	"os/user"
	"time"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/schema"
	"github.com/ridoystarlord/schemasync/table"
)

// TrackingTable records applied migrations.
const TrackingTable = "schema_migrations"

// appliedAt sorts lexically in application order.
const appliedAtLayout = "2006-01-02T15:04:05.000000Z"

var trackingDefinition = schema.TableDefinition{
	Name: TrackingTable,
	Columns: []schema.ColumnDefinition{
		{Name: "name", SQLType: "varchar(255)", PrimaryKey: true},
		{Name: "applied_at", SQLType: "varchar(32)", NotNull: true},
		{Name: "execution_ms", SQLType: "bigint", NotNull: true, Default: 0},
		{Name: "executed_by", SQLType: "varchar(255)", NotNull: true, Default: ""},
		{Name: "checksum", SQLType: "varchar(64)", NotNull: true, Default: ""},
	},
}

// Record is one applied migration as stored in the tracking table.
type Record struct {
	Name          string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	ExecutedBy    string
	Checksum      string
}

type recordRow struct {
	Name        string `db:"name"`
	AppliedAt   string `db:"applied_at"`
	ExecutionMS int64  `db:"execution_ms"`
	ExecutedBy  string `db:"executed_by"`
	Checksum    string `db:"checksum"`
}

func (r recordRow) record() (Record, error) {
	appliedAt, err := time.Parse(appliedAtLayout, r.AppliedAt)
	if err != nil {
		return Record{}, fmt.Errorf("migration %s has malformed applied_at %q: %w", r.Name, r.AppliedAt, err)
	}
	return Record{
		Name:          r.Name,
		AppliedAt:     appliedAt,
		ExecutionTime: time.Duration(r.ExecutionMS) * time.Millisecond,
		ExecutedBy:    r.ExecutedBy,
		Checksum:      r.Checksum,
	}, nil
}

func (m *Migrator) ensureTrackingTable(ctx context.Context) error {
	mgr, err := table.New(m.q, m.log)
	if err != nil {
		return err
	}
	return mgr.Initialize(ctx, trackingDefinition, table.Callbacks{
		OnCreated: func(context.Context, database.Queryer) error {
			m.log.Infof("%s table created", TrackingTable)
			return nil
		},
	})
}

// appliedRecords reads the tracking table. A missing table means nothing
// was applied; it is only created outside dry runs.
func (m *Migrator) appliedRecords(ctx context.Context) ([]Record, error) {
	if m.dryRun {
		in, err := introspect.New(m.q)
		if err != nil {
			return nil, err
		}
		exists, err := in.TableExists(ctx, TrackingTable)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, nil
		}
	} else if err := m.ensureTrackingTable(ctx); err != nil {
		return nil, err
	}

	var rows []recordRow
	err := m.q.Select(ctx, &rows, `
	SELECT name, applied_at, execution_ms, executed_by, checksum
	FROM schema_migrations
	ORDER BY applied_at, name`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}

	records := make([]Record, len(rows))
	for i, row := range rows {
		if records[i], err = row.record(); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func insertRecord(ctx context.Context, q database.Queryer, rec Record) error {
	err := q.Exec(ctx, `
	INSERT INTO schema_migrations (name, applied_at, execution_ms, executed_by, checksum)
	VALUES (?, ?, ?, ?, ?)`,
		rec.Name,
		rec.AppliedAt.UTC().Format(appliedAtLayout),
		rec.ExecutionTime.Milliseconds(),
		rec.ExecutedBy,
		rec.Checksum,
	)
	if err != nil {
		return fmt.Errorf("recording migration %s: %w", rec.Name, err)
	}
	return nil
}

func deleteRecord(ctx context.Context, q database.Queryer, name string) error {
	if err := q.Exec(ctx, `DELETE FROM schema_migrations WHERE name = ?`, name); err != nil {
		return fmt.Errorf("removing migration record for %s: %w", name, err)
	}
	return nil
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}
