package introspect

import "github.com/ridoystarlord/schemasync/dialect"

// catalogQueries holds one dialect's catalog lookups. Every query takes its
// arguments as '?' placeholders; the handle rebinds them for postgres.
type catalogQueries struct {
	tableExists  string
	indexExists  string
	listTables   string
	listIndexes  string
	listColumns  string
	listTriggers string
}

var sqliteQueries = catalogQueries{
	tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	indexExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?`,
	listTables:  `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`,
	listIndexes: `SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? ORDER BY name`,
	listColumns: `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`,
	listTriggers: `SELECT name FROM sqlite_master WHERE type = 'trigger' AND tbl_name = ? ORDER BY name`,
}

var postgresQueries = catalogQueries{
	tableExists: `
	SELECT COUNT(*)
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = ?`,
	indexExists: `
	SELECT COUNT(*)
	FROM pg_indexes
	WHERE schemaname = 'public' AND indexname = ?`,
	listTables: `
	SELECT table_name::text
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	ORDER BY table_name`,
	// primary keys and constraint-backed indexes (column UNIQUE) are implicit
	listIndexes: `
	SELECT i.indexname::text
	FROM pg_indexes i
	WHERE i.schemaname = 'public'
		AND i.tablename = ?
		AND i.indexname NOT LIKE '%_pkey'
		AND NOT EXISTS (
			SELECT 1
			FROM pg_constraint c
			JOIN pg_namespace n ON n.oid = c.connamespace
			WHERE n.nspname = 'public'
				AND c.conname = i.indexname
				AND c.contype IN ('p', 'u', 'x')
		)
	ORDER BY i.indexname`,
	listColumns: `
	SELECT column_name::text AS name, data_type::text AS type
	FROM information_schema.columns
	WHERE table_schema = 'public' AND table_name = ?
	ORDER BY ordinal_position`,
	listTriggers: `
	SELECT DISTINCT trigger_name::text
	FROM information_schema.triggers
	WHERE trigger_schema = 'public' AND event_object_table = ?
	ORDER BY 1`,
}

var mysqlQueries = catalogQueries{
	tableExists: `
	SELECT COUNT(*)
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
	indexExists: `
	SELECT COUNT(*)
	FROM information_schema.STATISTICS
	WHERE TABLE_SCHEMA = DATABASE() AND INDEX_NAME = ?`,
	listTables: `
	SELECT TABLE_NAME
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
	ORDER BY TABLE_NAME`,
	// PRIMARY, foreign-key-backed and column-UNIQUE indexes are implicit. The
	// last is a unique constraint named <table>_<column>_key on that column.
	listIndexes: `
	SELECT DISTINCT s.INDEX_NAME
	FROM information_schema.STATISTICS s
	WHERE s.TABLE_SCHEMA = DATABASE()
		AND s.TABLE_NAME = ?
		AND s.INDEX_NAME <> 'PRIMARY'
		AND s.INDEX_NAME NOT IN (
			SELECT tc.CONSTRAINT_NAME
			FROM information_schema.TABLE_CONSTRAINTS tc
			WHERE tc.TABLE_SCHEMA = DATABASE()
				AND tc.TABLE_NAME = s.TABLE_NAME
				AND tc.CONSTRAINT_TYPE = 'FOREIGN KEY'
		)
		AND NOT (
			s.NON_UNIQUE = 0
			AND s.INDEX_NAME = CONCAT(s.TABLE_NAME, '_', s.COLUMN_NAME, '_key')
			AND s.INDEX_NAME IN (
				SELECT tc.CONSTRAINT_NAME
				FROM information_schema.TABLE_CONSTRAINTS tc
				WHERE tc.TABLE_SCHEMA = DATABASE()
					AND tc.TABLE_NAME = s.TABLE_NAME
					AND tc.CONSTRAINT_TYPE = 'UNIQUE'
			)
		)
	ORDER BY s.INDEX_NAME`,
	listColumns: `
	SELECT COLUMN_NAME AS name, COLUMN_TYPE AS type
	FROM information_schema.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
	ORDER BY ORDINAL_POSITION`,
	listTriggers: `
	SELECT TRIGGER_NAME
	FROM information_schema.TRIGGERS
	WHERE TRIGGER_SCHEMA = DATABASE() AND EVENT_OBJECT_TABLE = ?
	ORDER BY TRIGGER_NAME`,
}

func queriesFor(d dialect.Dialect) catalogQueries {
	switch d {
	case dialect.Postgres:
		return postgresQueries
	case dialect.MySQL:
		return mysqlQueries
	default:
		return sqliteQueries
	}
}
