package runner

import (
	"errors"
	"fmt"

	"github.com/ridoystarlord/schemasync/report"
)

// ErrCorruptedHistory is wrapped when the tracking table does not describe a
// prefix of the migration chain.
var ErrCorruptedHistory = errors.New("corrupted migration history")

// MigratorError is the single error shape returned by every Migrator
// operation, whatever failed underneath. Report is set once DDL was
// attempted and shows how far the run got.
type MigratorError struct {
	Op        string
	Migration string
	Report    *report.Journal
	Err       error
}

func (e *MigratorError) Error() string {
	if e.Migration != "" {
		return fmt.Sprintf("migrator %s %s: %v", e.Op, e.Migration, e.Err)
	}
	return fmt.Sprintf("migrator %s: %v", e.Op, e.Err)
}

func (e *MigratorError) Unwrap() error {
	return e.Err
}
