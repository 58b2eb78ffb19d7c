package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ridoystarlord/schemasync/dialect"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Queryer is the live handle every engine component works against. Both
// connections and transactions implement it.
type Queryer interface {
	Exec(ctx context.Context, query string, args ...any) error
	Select(ctx context.Context, dest any, query string, args ...any) error
	Get(ctx context.Context, dest any, query string, args ...any) error
	Capabilities() dialect.Capabilities
}

// Target is a resolved driver factory: the database/sql driver name, the DSN
// handed to it, and the capabilities the resulting connection advertises.
type Target struct {
	Driver string
	DSN    string
	Caps   dialect.Capabilities
}

// ParseURL picks the driver factory for a connection URL.
func ParseURL(url string) (Target, error) {
	switch {
	case url == "":
		return Target{}, fmt.Errorf("database url is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Target{
			Driver: "pgx",
			DSN:    url,
			Caps:   dialect.Capabilities{SupportsReturning: true, SupportsTransactionalDDL: true},
		}, nil
	case strings.HasPrefix(url, "mysql://"):
		cfg, err := mysql.ParseDSN(strings.TrimPrefix(url, "mysql://"))
		if err != nil {
			return Target{}, fmt.Errorf("parsing mysql dsn: %w", err)
		}
		cfg.MultiStatements = false
		cfg.ParseTime = true
		return Target{
			Driver: "mysql",
			DSN:    cfg.FormatDSN(),
			Caps:   dialect.Capabilities{},
		}, nil
	case strings.Contains(url, "://") && !strings.HasPrefix(url, "sqlite://"):
		scheme, _, _ := strings.Cut(url, "://")
		return Target{}, fmt.Errorf("%w: unknown database url scheme %q", dialect.ErrUnsupportedDialect, scheme)
	default:
		// sqlite://, file: and bare paths
		path := strings.TrimPrefix(url, "sqlite://")
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return Target{
			Driver: "sqlite",
			DSN:    path + sep + "_pragma=foreign_keys(1)",
			Caps:   dialect.Capabilities{SupportsReturning: true},
		}, nil
	}
}

// Conn is an explicit database handle. It is constructed once by the caller
// and passed to every consumer; the engine never opens connections itself.
type Conn struct {
	db   *sqlx.DB
	caps dialect.Capabilities
}

// Open connects to url and verifies the connection with a ping.
func Open(ctx context.Context, url string) (*Conn, error) {
	target, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s connection: %w", target.Driver, err)
	}
	if target.Driver == "sqlite" {
		// sqlite serializes writers anyway; one connection keeps DDL ordered
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return Wrap(db, target.Caps), nil
}

// Wrap builds a Conn from an already configured sqlx handle.
func Wrap(db *sqlx.DB, caps dialect.Capabilities) *Conn {
	return &Conn{db: db, caps: caps}
}

func (c *Conn) DB() *sqlx.DB {
	return c.db
}

func (c *Conn) Capabilities() dialect.Capabilities {
	return c.caps
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Conn) Close() error {
	return c.db.Close()
}

func (c *Conn) Exec(ctx context.Context, query string, args ...any) error {
	return execContext(ctx, c.db, query, args...)
}

func (c *Conn) Select(ctx context.Context, dest any, query string, args ...any) error {
	query = c.db.Rebind(query)
	if err := sqlx.SelectContext(ctx, c.db, dest, query, args...); err != nil {
		return newSQLError(query, err)
	}
	return nil
}

func (c *Conn) Get(ctx context.Context, dest any, query string, args ...any) error {
	query = c.db.Rebind(query)
	if err := sqlx.GetContext(ctx, c.db, dest, query, args...); err != nil {
		return newSQLError(query, err)
	}
	return nil
}

// InTx runs fn inside a transaction, committing when fn returns nil.
func (c *Conn) InTx(ctx context.Context, fn func(q Queryer) error) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&txQueryer{tx: tx, caps: c.caps}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txQueryer struct {
	tx   *sqlx.Tx
	caps dialect.Capabilities
}

func (t *txQueryer) Capabilities() dialect.Capabilities {
	return t.caps
}

func (t *txQueryer) Exec(ctx context.Context, query string, args ...any) error {
	return execContext(ctx, t.tx, query, args...)
}

func (t *txQueryer) Select(ctx context.Context, dest any, query string, args ...any) error {
	query = t.tx.Rebind(query)
	if err := sqlx.SelectContext(ctx, t.tx, dest, query, args...); err != nil {
		return newSQLError(query, err)
	}
	return nil
}

func (t *txQueryer) Get(ctx context.Context, dest any, query string, args ...any) error {
	query = t.tx.Rebind(query)
	if err := sqlx.GetContext(ctx, t.tx, dest, query, args...); err != nil {
		return newSQLError(query, err)
	}
	return nil
}

func execContext(ctx context.Context, e sqlx.ExtContext, query string, args ...any) error {
	// DDL carries literal defaults that may contain '?', so only statements
	// with arguments are rebound
	if len(args) > 0 {
		query = e.Rebind(query)
	}
	if _, err := e.ExecContext(ctx, query, args...); err != nil {
		return newSQLError(query, err)
	}
	return nil
}
