package generator

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/schema"
)

// Generator compiles table definitions into DDL for one dialect.
type Generator struct {
	d dialect.Dialect
}

func New(d dialect.Dialect) *Generator {
	return &Generator{d: d}
}

func (g *Generator) Dialect() dialect.Dialect {
	return g.d
}

// UniqueConstraintName names the constraint behind a column-level unique on
// mysql. Postgres derives the same name on its own.
func UniqueConstraintName(table, column string) string {
	return table + "_" + column + "_key"
}

func ForeignKeyName(table, column string) string {
	return table + "_" + column + "_fkey"
}

// TriggerFunctionName is the plpgsql helper a postgres trigger executes.
func TriggerFunctionName(trigger string) string {
	return trigger + "_func"
}

// CreateTable compiles the CREATE TABLE statement. Indexes and triggers are
// separate statements, see CreateIndex and CreateTrigger.
func (g *Generator) CreateTable(def schema.TableDefinition) (string, error) {
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", def.Name)
	}

	var parts []string
	var constraints []string
	for _, col := range def.Columns {
		colSQL, err := g.columnDefinition(col)
		if err != nil {
			return "", fmt.Errorf("column %s.%s: %w", def.Name, col.Name, err)
		}
		parts = append(parts, colSQL)
		constraints = append(constraints, g.tableConstraints(def.Name, col)...)
	}
	parts = append(parts, constraints...)

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (`, g.d.Quote(def.Name))
	stmt += strings.Join(parts, ", ")
	stmt += ")"

	return stmt, nil
}

// columnDefinition compiles one column in a fixed order: primary key,
// auto increment, not null, unique, default, raw default, references.
func (g *Generator) columnDefinition(col schema.ColumnDefinition) (string, error) {
	if col.Name == "" {
		return "", fmt.Errorf("column name cannot be empty")
	}
	if col.SQLType == "" {
		return "", fmt.Errorf("sql type cannot be empty")
	}

	stmt := fmt.Sprintf("%s %s", g.d.Quote(col.Name), col.SQLType)
	if col.PrimaryKey {
		stmt += " PRIMARY KEY"
	}
	if col.AutoIncrement {
		if !col.PrimaryKey {
			return "", fmt.Errorf("autoIncrement requires primaryKey")
		}
		stmt += " " + g.autoIncrementKeyword()
	}
	if col.NotNull {
		stmt += " NOT NULL"
	}
	if col.Unique && g.d != dialect.MySQL {
		stmt += " UNIQUE"
	}

	switch {
	case col.DefaultSQL != "":
		stmt += " DEFAULT " + col.DefaultSQL
	case col.Default != nil:
		lit, err := g.Literal(col.Default)
		if err != nil {
			return "", err
		}
		stmt += " DEFAULT " + lit
	}

	if col.References != nil && g.d != dialect.MySQL {
		stmt += " " + g.referencesClause(col.References)
	}

	return stmt, nil
}

// tableConstraints covers what mysql cannot express inline: it silently
// ignores column-level REFERENCES and names unique indexes after the column.
func (g *Generator) tableConstraints(table string, col schema.ColumnDefinition) []string {
	if g.d != dialect.MySQL {
		return nil
	}
	var out []string
	if col.Unique {
		out = append(out, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)",
			g.d.Quote(UniqueConstraintName(table, col.Name)),
			g.d.Quote(col.Name),
		))
	}
	if col.References != nil {
		out = append(out, fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) %s",
			g.d.Quote(ForeignKeyName(table, col.Name)),
			g.d.Quote(col.Name),
			g.referencesClause(col.References),
		))
	}
	return out
}

func (g *Generator) referencesClause(ref *schema.References) string {
	stmt := fmt.Sprintf("REFERENCES %s (%s)", g.d.Quote(ref.Table), g.d.Quote(ref.Column))
	if ref.OnDelete != "" {
		stmt += " ON DELETE " + strings.ToUpper(ref.OnDelete)
	}
	return stmt
}

func (g *Generator) autoIncrementKeyword() string {
	switch g.d {
	case dialect.Postgres:
		return "GENERATED BY DEFAULT AS IDENTITY"
	case dialect.MySQL:
		return "AUTO_INCREMENT"
	default:
		return "AUTOINCREMENT"
	}
}

// Literal renders a literal default value for the dialect.
func (g *Generator) Literal(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		escaped := strings.ReplaceAll(val, "'", "''")
		if g.d == dialect.MySQL {
			escaped = strings.ReplaceAll(escaped, `\`, `\\`)
		}
		return "'" + escaped + "'", nil
	case bool:
		if g.d == dialect.SQLite {
			if val {
				return "1", nil
			}
			return "0", nil
		}
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case json.Number:
		return val.String(), nil
	default:
		return "", fmt.Errorf("unsupported default value %v (%T)", v, v)
	}
}

// CreateIndex compiles a CREATE INDEX for an index declared on table.
func (g *Generator) CreateIndex(table string, idx schema.IndexDefinition) (string, error) {
	if idx.Name == "" {
		return "", fmt.Errorf("index on %s has no name", table)
	}
	if len(idx.Columns) == 0 {
		return "", fmt.Errorf("index %s has no columns", idx.Name)
	}

	stmt := "CREATE"
	if idx.Unique {
		stmt += " UNIQUE"
	}
	stmt += " INDEX"
	// mysql has no IF NOT EXISTS for indexes; callers check existence first
	if g.d != dialect.MySQL {
		stmt += " IF NOT EXISTS"
	}
	stmt += fmt.Sprintf(" %s ON %s (%s)", g.d.Quote(idx.Name), g.d.Quote(table), g.d.QuoteAll(idx.Columns))

	return stmt, nil
}

func (g *Generator) DropIndex(table, name string) string {
	if g.d == dialect.MySQL {
		return fmt.Sprintf("DROP INDEX %s ON %s", g.d.Quote(name), g.d.Quote(table))
	}
	return fmt.Sprintf("DROP INDEX IF EXISTS %s", g.d.Quote(name))
}

func (g *Generator) DropTable(name string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", g.d.Quote(name))
}

// AddColumn compiles ALTER TABLE ... ADD COLUMN for an existing table.
func (g *Generator) AddColumn(table string, col schema.ColumnDefinition) (string, error) {
	colSQL, err := g.columnDefinition(col)
	if err != nil {
		return "", fmt.Errorf("column %s.%s: %w", table, col.Name, err)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", g.d.Quote(table), colSQL)
	for _, c := range g.tableConstraints(table, col) {
		stmt += ", ADD " + c
	}
	return stmt, nil
}

func (g *Generator) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.d.Quote(table), g.d.Quote(column))
}

// CreateTrigger compiles a trigger. Postgres needs a helper function the
// trigger executes; sqlite and mysql take the body inline.
func (g *Generator) CreateTrigger(table string, trig schema.TriggerDefinition) ([]string, error) {
	timing := strings.ToUpper(string(trig.Timing))
	event := strings.ToUpper(string(trig.Event))
	if timing != string(schema.Before) && timing != string(schema.After) {
		return nil, fmt.Errorf("trigger %s: invalid timing %q", trig.Name, trig.Timing)
	}
	if event != string(schema.Insert) && event != string(schema.Update) && event != string(schema.Delete) {
		return nil, fmt.Errorf("trigger %s: invalid event %q", trig.Name, trig.Event)
	}

	body := strings.TrimSpace(trig.BodySQL)
	if body != "" && !strings.HasSuffix(body, ";") {
		body += ";"
	}

	switch g.d {
	case dialect.Postgres:
		fn := g.d.Quote(TriggerFunctionName(trig.Name))
		function := fmt.Sprintf("CREATE OR REPLACE FUNCTION %s() RETURNS TRIGGER AS $$\nBEGIN\n%s\nRETURN NEW;\nEND;\n$$ LANGUAGE plpgsql", fn, body)
		trigger := fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW EXECUTE FUNCTION %s()",
			g.d.Quote(trig.Name), timing, event, g.d.Quote(table), fn)
		return []string{function, trigger}, nil
	case dialect.MySQL:
		return []string{fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW BEGIN %s END",
			g.d.Quote(trig.Name), timing, event, g.d.Quote(table), body)}, nil
	default:
		return []string{fmt.Sprintf("CREATE TRIGGER IF NOT EXISTS %s %s %s ON %s FOR EACH ROW BEGIN %s END;",
			g.d.Quote(trig.Name), timing, event, g.d.Quote(table), body)}, nil
	}
}

func (g *Generator) DropTrigger(table, name string) []string {
	if g.d == dialect.Postgres {
		return []string{
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", g.d.Quote(name), g.d.Quote(table)),
			g.DropTriggerFunction(name),
		}
	}
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s", g.d.Quote(name))}
}

// DropTriggerFunction removes a postgres trigger's helper function. Dropping
// the table removes the trigger but leaves the function behind.
func (g *Generator) DropTriggerFunction(name string) string {
	return fmt.Sprintf("DROP FUNCTION IF EXISTS %s()", g.d.Quote(TriggerFunctionName(name)))
}
