package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/dialect"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

type StatementStatus string

const (
	Applied StatementStatus = "applied"
	Failed  StatementStatus = "failed"
	Planned StatementStatus = "planned"
)

type Statement struct {
	SQL        string          `json:"sql"`
	Status     StatementStatus `json:"status"`
	Error      string          `json:"error,omitempty"`
	DurationMS int64           `json:"durationMs"`
}

// Journal records every DDL statement a run issues so that operators can see
// how far a failed migration got on dialects without transactional DDL.
type Journal struct {
	mu         sync.Mutex
	RunID      string      `json:"runId"`
	Dialect    string      `json:"dialect"`
	DryRun     bool        `json:"dryRun"`
	Started    time.Time   `json:"started"`
	Finished   time.Time   `json:"finished,omitzero"`
	Migrations []Migration `json:"migrations"`
}

// Migration is one step of a run.
type Migration struct {
	Name       string      `json:"name"`
	Direction  Direction   `json:"direction"`
	Statements []Statement `json:"statements"`
	Error      string      `json:"error,omitempty"`
}

func New(d dialect.Dialect, dryRun bool) *Journal {
	return &Journal{
		RunID:   uuid.NewString(),
		Dialect: d.String(),
		DryRun:  dryRun,
		Started: time.Now().UTC(),
	}
}

// Begin opens a new migration entry; statements recorded afterwards belong
// to it.
func (j *Journal) Begin(name string, dir Direction) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Migrations = append(j.Migrations, Migration{Name: name, Direction: dir})
}

// Fail marks the current migration as failed.
func (j *Journal) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.Migrations) == 0 || err == nil {
		return
	}
	j.Migrations[len(j.Migrations)-1].Error = err.Error()
}

func (j *Journal) Finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Finished = time.Now().UTC()
}

func (j *Journal) record(s Statement) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.Migrations) == 0 {
		j.Migrations = append(j.Migrations, Migration{})
	}
	last := &j.Migrations[len(j.Migrations)-1]
	last.Statements = append(last.Statements, s)
}

// Statements returns every recorded statement across migrations, in order.
func (j *Journal) Statements() []Statement {
	j.mu.Lock()
	defer j.mu.Unlock()
	var all []Statement
	for _, m := range j.Migrations {
		all = append(all, m.Statements...)
	}
	return all
}

// Applied counts statements that reached the database successfully.
func (j *Journal) Applied() int {
	n := 0
	for _, s := range j.Statements() {
		if s.Status == Applied {
			n++
		}
	}
	return n
}

func (j *Journal) MarshalJSON() ([]byte, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	type journal Journal
	return json.Marshal((*journal)(j))
}

// WriteFile stores the journal as indented JSON.
func (j *Journal) WriteFile(path string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Wrap returns a Queryer that records every Exec in j. Reads pass through
// untouched. In a dry-run journal statements are recorded but never sent.
func (j *Journal) Wrap(q database.Queryer) database.Queryer {
	return &recorder{Queryer: q, journal: j}
}

type recorder struct {
	database.Queryer
	journal *Journal
}

func (r *recorder) Exec(ctx context.Context, query string, args ...any) error {
	if r.journal.DryRun {
		r.journal.record(Statement{SQL: query, Status: Planned})
		return nil
	}

	start := time.Now()
	err := r.Queryer.Exec(ctx, query, args...)
	s := Statement{SQL: query, Status: Applied, DurationMS: time.Since(start).Milliseconds()}
	if err != nil {
		s.Status = Failed
		s.Error = err.Error()
	}
	r.journal.record(s)
	return err
}
