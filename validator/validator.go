package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ridoystarlord/schemasync/dialect"
	"github.com/ridoystarlord/schemasync/generator"
	"github.com/ridoystarlord/schemasync/introspect"
	"github.com/ridoystarlord/schemasync/schema"
)

// ValidationError represents a validation finding with details
type ValidationError struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Index    string `json:"index,omitempty"`
	Trigger  string `json:"trigger,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", "info"
}

// ValidationResult contains all validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
	Info     []ValidationError `json:"info"`
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
		Info:     []ValidationError{},
	}
}

func (r *ValidationResult) addError(e ValidationError) {
	e.Severity = "error"
	r.Errors = append(r.Errors, e)
	r.Valid = false
}

func (r *ValidationResult) addWarning(e ValidationError) {
	e.Severity = "warning"
	r.Warnings = append(r.Warnings, e)
}

func (r *ValidationResult) addInfo(e ValidationError) {
	e.Severity = "info"
	r.Info = append(r.Info, e)
}

// Err summarizes the errors, or returns nil when the result is valid.
func (r *ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

// Validator checks declared table definitions for one dialect before any DDL
// is generated from them.
type Validator struct {
	d   dialect.Dialect
	gen *generator.Generator
}

func New(d dialect.Dialect) *Validator {
	return &Validator{d: d, gen: generator.New(d)}
}

var validOnDelete = []string{"CASCADE", "SET NULL", "SET DEFAULT", "RESTRICT", "NO ACTION"}

// quoted identifiers make these legal, but they are easy to trip over in
// hand-written SQL
var reservedKeywords = []string{"user", "order", "group", "table", "index", "view", "schema", "select"}

// ValidateDefinitions validates a complete declared schema.
func (v *Validator) ValidateDefinitions(defs []schema.TableDefinition) *ValidationResult {
	result := newResult()

	tables := map[string]bool{}
	indexes := map[string]string{}
	triggers := map[string]bool{}

	for _, def := range defs {
		if tables[def.Name] {
			result.addError(ValidationError{
				Type:    "duplicate_table",
				Table:   def.Name,
				Message: fmt.Sprintf("Duplicate table name '%s'", def.Name),
			})
			continue
		}
		tables[def.Name] = true

		v.validateTable(def, result)
		v.validateIndexes(def, indexes, result)
		v.validateTriggers(def, triggers, result)
	}

	v.validateReferences(defs, result)
	return result
}

// ValidateAgainstDatabase validates defs and notes which tables already
// exist in the live database.
func (v *Validator) ValidateAgainstDatabase(ctx context.Context, defs []schema.TableDefinition, in *introspect.Introspector) (*ValidationResult, error) {
	result := v.ValidateDefinitions(defs)

	for _, def := range defs {
		exists, err := in.TableExists(ctx, def.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", def.Name, err)
		}
		if exists {
			result.addInfo(ValidationError{
				Type:    "table_exists",
				Table:   def.Name,
				Message: fmt.Sprintf("Table '%s' already exists in database", def.Name),
			})
		}
	}
	return result, nil
}

func (v *Validator) validateTable(def schema.TableDefinition, result *ValidationResult) {
	if err := v.validateIdentifier("table", def.Name); err != nil {
		result.addError(ValidationError{Type: "table_name", Table: def.Name, Message: err.Error()})
	}
	for _, keyword := range reservedKeywords {
		if strings.EqualFold(def.Name, keyword) {
			result.addWarning(ValidationError{
				Type:    "reserved_keyword",
				Table:   def.Name,
				Message: fmt.Sprintf("Table name '%s' is a reserved keyword", def.Name),
			})
		}
	}

	if len(def.Columns) == 0 {
		result.addError(ValidationError{
			Type:    "no_columns",
			Table:   def.Name,
			Message: fmt.Sprintf("Table '%s' must have at least one column", def.Name),
		})
		return
	}

	columnNames := map[string]bool{}
	hasPrimaryKey := false

	for _, col := range def.Columns {
		if columnNames[col.Name] {
			result.addError(ValidationError{
				Type:    "duplicate_column",
				Table:   def.Name,
				Column:  col.Name,
				Message: fmt.Sprintf("Duplicate column name '%s' in table '%s'", col.Name, def.Name),
			})
			continue
		}
		columnNames[col.Name] = true

		if err := v.validateIdentifier("column", col.Name); err != nil {
			result.addError(ValidationError{Type: "column_name", Table: def.Name, Column: col.Name, Message: err.Error()})
		}
		if strings.TrimSpace(col.SQLType) == "" {
			result.addError(ValidationError{
				Type:    "sql_type",
				Table:   def.Name,
				Column:  col.Name,
				Message: fmt.Sprintf("Column '%s.%s' has no sqlType", def.Name, col.Name),
			})
		}

		if col.PrimaryKey {
			hasPrimaryKey = true
		}
		if col.AutoIncrement {
			v.validateAutoIncrement(def.Name, col, result)
		}

		if col.Default != nil {
			if _, err := v.gen.Literal(col.Default); err != nil {
				result.addError(ValidationError{Type: "default_value", Table: def.Name, Column: col.Name, Message: err.Error()})
			}
			if col.DefaultSQL != "" {
				result.addInfo(ValidationError{
					Type:    "default_overridden",
					Table:   def.Name,
					Column:  col.Name,
					Message: fmt.Sprintf("Column '%s.%s' sets both default and defaultSQL; defaultSQL is used", def.Name, col.Name),
				})
			}
		}

		if col.References != nil {
			if err := validateReferenceDefinition(def.Name, col); err != nil {
				result.addError(ValidationError{Type: "foreign_key", Table: def.Name, Column: col.Name, Message: err.Error()})
			}
		}
	}

	if !hasPrimaryKey {
		result.addWarning(ValidationError{
			Type:    "no_primary_key",
			Table:   def.Name,
			Message: fmt.Sprintf("Table '%s' has no primary key defined", def.Name),
		})
	}
}

func (v *Validator) validateAutoIncrement(table string, col schema.ColumnDefinition, result *ValidationResult) {
	if !col.PrimaryKey {
		result.addError(ValidationError{
			Type:    "auto_increment",
			Table:   table,
			Column:  col.Name,
			Message: fmt.Sprintf("Column '%s.%s' is autoIncrement but not a primary key", table, col.Name),
		})
		return
	}
	if v.d == dialect.SQLite && !strings.EqualFold(strings.TrimSpace(col.SQLType), "integer") {
		result.addError(ValidationError{
			Type:    "auto_increment",
			Table:   table,
			Column:  col.Name,
			Message: fmt.Sprintf("Column '%s.%s': sqlite only allows AUTOINCREMENT on an INTEGER primary key", table, col.Name),
		})
	}
}

func validateReferenceDefinition(table string, col schema.ColumnDefinition) error {
	ref := col.References
	if ref.Table == "" {
		return fmt.Errorf("foreign key references table cannot be empty")
	}
	if ref.Column == "" {
		return fmt.Errorf("foreign key references column cannot be empty")
	}
	if ref.Table == table && ref.Column == col.Name {
		return fmt.Errorf("foreign key cannot reference itself")
	}
	if ref.OnDelete != "" {
		for _, action := range validOnDelete {
			if strings.EqualFold(ref.OnDelete, action) {
				return nil
			}
		}
		return fmt.Errorf("invalid onDelete action '%s', must be one of: %v", ref.OnDelete, validOnDelete)
	}
	return nil
}

// validateIndexes checks def's indexes. Index names are unique across the
// whole schema, so seen is shared between tables.
func (v *Validator) validateIndexes(def schema.TableDefinition, seen map[string]string, result *ValidationResult) {
	for _, idx := range def.Indexes {
		if owner, dup := seen[idx.Name]; dup {
			result.addError(ValidationError{
				Type:    "duplicate_index",
				Table:   def.Name,
				Index:   idx.Name,
				Message: fmt.Sprintf("Duplicate index name '%s' (already declared on table '%s')", idx.Name, owner),
			})
			continue
		}
		seen[idx.Name] = def.Name

		if err := v.validateIdentifier("index", idx.Name); err != nil {
			result.addError(ValidationError{Type: "index_name", Table: def.Name, Index: idx.Name, Message: err.Error()})
		}
		if len(idx.Columns) == 0 {
			result.addError(ValidationError{
				Type:    "index_no_columns",
				Table:   def.Name,
				Index:   idx.Name,
				Message: fmt.Sprintf("Index '%s' has no columns", idx.Name),
			})
		}
		for _, columnName := range idx.Columns {
			if _, ok := def.Column(columnName); !ok {
				result.addError(ValidationError{
					Type:    "index_column_not_found",
					Table:   def.Name,
					Index:   idx.Name,
					Column:  columnName,
					Message: fmt.Sprintf("Index '%s' references non-existent column '%s' in table '%s'", idx.Name, columnName, def.Name),
				})
			}
		}
	}
}

func (v *Validator) validateTriggers(def schema.TableDefinition, seen map[string]bool, result *ValidationResult) {
	for _, trig := range def.Triggers {
		if seen[trig.Name] {
			result.addError(ValidationError{
				Type:    "duplicate_trigger",
				Table:   def.Name,
				Trigger: trig.Name,
				Message: fmt.Sprintf("Duplicate trigger name '%s'", trig.Name),
			})
			continue
		}
		seen[trig.Name] = true

		if err := v.validateIdentifier("trigger", trig.Name); err != nil {
			result.addError(ValidationError{Type: "trigger_name", Table: def.Name, Trigger: trig.Name, Message: err.Error()})
		}

		switch schema.TriggerTiming(strings.ToUpper(string(trig.Timing))) {
		case schema.Before, schema.After:
		default:
			result.addError(ValidationError{
				Type:    "trigger_timing",
				Table:   def.Name,
				Trigger: trig.Name,
				Message: fmt.Sprintf("Trigger '%s' has invalid timing '%s', must be BEFORE or AFTER", trig.Name, trig.Timing),
			})
		}

		switch schema.TriggerEvent(strings.ToUpper(string(trig.Event))) {
		case schema.Insert, schema.Update, schema.Delete:
		default:
			result.addError(ValidationError{
				Type:    "trigger_event",
				Table:   def.Name,
				Trigger: trig.Name,
				Message: fmt.Sprintf("Trigger '%s' has invalid event '%s', must be INSERT, UPDATE or DELETE", trig.Name, trig.Event),
			})
		}

		if strings.TrimSpace(trig.BodySQL) == "" {
			result.addWarning(ValidationError{
				Type:    "trigger_body",
				Table:   def.Name,
				Trigger: trig.Name,
				Message: fmt.Sprintf("Trigger '%s' has an empty body", trig.Name),
			})
		}
	}
}

// validateReferences checks that every reference points at a declared table
// and column.
func (v *Validator) validateReferences(defs []schema.TableDefinition, result *ValidationResult) {
	for _, def := range defs {
		for _, col := range def.Columns {
			ref := col.References
			if ref == nil || ref.Table == "" || ref.Column == "" {
				continue
			}

			target, ok := schema.Find(defs, ref.Table)
			if !ok {
				result.addError(ValidationError{
					Type:    "foreign_key_table_not_found",
					Table:   def.Name,
					Column:  col.Name,
					Message: fmt.Sprintf("Foreign key references non-existent table '%s'", ref.Table),
				})
				continue
			}
			if _, ok := target.Column(ref.Column); !ok {
				result.addError(ValidationError{
					Type:    "foreign_key_column_not_found",
					Table:   def.Name,
					Column:  col.Name,
					Message: fmt.Sprintf("Foreign key references non-existent column '%s' in table '%s'", ref.Column, ref.Table),
				})
			}
		}
	}
}

// validateIdentifier applies portable identifier rules and the dialect's
// length limit.
func (v *Validator) validateIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}

	if limit := maxIdentifierLength(v.d); limit > 0 && len(name) > limit {
		return fmt.Errorf("%s name '%s' is too long (max %d characters)", kind, name, limit)
	}

	for i, char := range name {
		if !((char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '_') {
			return fmt.Errorf("%s name '%s' contains invalid character '%c'", kind, name, char)
		}
		if i == 0 && char >= '0' && char <= '9' {
			return fmt.Errorf("%s name '%s' cannot start with a digit", kind, name)
		}
	}
	return nil
}

func maxIdentifierLength(d dialect.Dialect) int {
	switch d {
	case dialect.Postgres:
		return 63
	case dialect.MySQL:
		return 64
	}
	return 0
}
