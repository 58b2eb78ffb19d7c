package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// SQLError wraps a failed statement together with the driver's error code.
type SQLError struct {
	Statement string
	Code      string
	Err       error
}

func (e *SQLError) Error() string {
	stmt := strings.Join(strings.Fields(e.Statement), " ")
	if len(stmt) > 120 {
		stmt = stmt[:117] + "..."
	}
	if e.Code != "" {
		return fmt.Sprintf("sql error %s executing %q: %v", e.Code, stmt, e.Err)
	}
	return fmt.Sprintf("sql error executing %q: %v", stmt, e.Err)
}

func (e *SQLError) Unwrap() error {
	return e.Err
}

func newSQLError(statement string, err error) error {
	// callers compare against sql.ErrNoRows directly
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return &SQLError{Statement: statement, Code: driverCode(err), Err: err}
}

func driverCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(liteErr.Code())
	}
	return ""
}
