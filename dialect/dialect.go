package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// Dialect identifies one of the supported SQL engines.
type Dialect int

const (
	SQLite Dialect = iota + 1
	Postgres
	MySQL
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Capabilities are the adapter flags a connection advertises. The dialect is
// derived from them and never configured directly.
type Capabilities struct {
	SupportsReturning        bool `json:"supportsReturning"`
	SupportsTransactionalDDL bool `json:"supportsTransactionalDdl"`
}

// ErrUnsupportedDialect is matched by every ConfigError.
var ErrUnsupportedDialect = errors.New("unsupported dialect")

// ConfigError reports a capability combination that maps to no dialect.
type ConfigError struct {
	Caps Capabilities
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported dialect: no dialect matches supportsReturning=%t, supportsTransactionalDdl=%t",
		e.Caps.SupportsReturning, e.Caps.SupportsTransactionalDDL)
}

func (e *ConfigError) Unwrap() error {
	return ErrUnsupportedDialect
}

// Resolve maps a capability pair to its dialect. The rule order matters:
// returning without transactional DDL is sqlite, neither is mysql, both is postgres.
func Resolve(caps Capabilities) (Dialect, error) {
	switch {
	case caps.SupportsReturning && !caps.SupportsTransactionalDDL:
		return SQLite, nil
	case !caps.SupportsReturning && !caps.SupportsTransactionalDDL:
		return MySQL, nil
	case caps.SupportsReturning && caps.SupportsTransactionalDDL:
		return Postgres, nil
	}
	return 0, &ConfigError{Caps: caps}
}

// Quote quotes an identifier for the dialect.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// QuoteAll quotes every identifier and joins them with ", ".
func (d Dialect) QuoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, ident := range idents {
		quoted[i] = d.Quote(ident)
	}
	return strings.Join(quoted, ", ")
}

// Parse maps a dialect name onto a Dialect. It is used where no live
// connection is available to resolve from, such as offline validation.
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDialect, name)
}
