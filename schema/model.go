package schema

import "strings"

// TableDefinition is the declarative, dialect-agnostic description of one
// table. Definitions are never mutated in place; every schema revision is a
// new slice of them.
type TableDefinition struct {
	Name     string              `json:"name" yaml:"name"`
	Columns  []ColumnDefinition  `json:"columns" yaml:"columns"`
	Indexes  []IndexDefinition   `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	Triggers []TriggerDefinition `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

type ColumnDefinition struct {
	Name          string `json:"name" yaml:"name"`
	SQLType       string `json:"sqlType" yaml:"sqlType"`
	PrimaryKey    bool   `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	AutoIncrement bool   `json:"autoIncrement,omitempty" yaml:"autoIncrement,omitempty"`
	NotNull       bool   `json:"notNull,omitempty" yaml:"notNull,omitempty"`
	Unique        bool   `json:"unique,omitempty" yaml:"unique,omitempty"`
	// Default is a literal value (string, number or bool). DefaultSQL is a raw
	// expression and wins when both are set.
	Default    any         `json:"default,omitempty" yaml:"default,omitempty"`
	DefaultSQL string      `json:"defaultSQL,omitempty" yaml:"defaultSQL,omitempty"`
	References *References `json:"references,omitempty" yaml:"references,omitempty"`
}

type References struct {
	Table    string `json:"table" yaml:"table"`
	Column   string `json:"column" yaml:"column"`
	OnDelete string `json:"onDelete,omitempty" yaml:"onDelete,omitempty"`
}

// IndexDefinition names are unique across the whole schema, not per table.
type IndexDefinition struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

type TriggerTiming string

const (
	Before TriggerTiming = "BEFORE"
	After  TriggerTiming = "AFTER"
)

type TriggerEvent string

const (
	Insert TriggerEvent = "INSERT"
	Update TriggerEvent = "UPDATE"
	Delete TriggerEvent = "DELETE"
)

// TriggerDefinition carries a dialect-specific body fragment.
type TriggerDefinition struct {
	Name    string        `json:"name" yaml:"name"`
	Timing  TriggerTiming `json:"timing" yaml:"timing"`
	Event   TriggerEvent  `json:"event" yaml:"event"`
	BodySQL string        `json:"bodySQL" yaml:"bodySQL"`
}

// Equal reports whether two triggers would compile to the same DDL.
func (t TriggerDefinition) Equal(o TriggerDefinition) bool {
	return t.Name == o.Name &&
		strings.EqualFold(string(t.Timing), string(o.Timing)) &&
		strings.EqualFold(string(t.Event), string(o.Event)) &&
		strings.TrimSpace(t.BodySQL) == strings.TrimSpace(o.BodySQL)
}

func (t TableDefinition) Column(name string) (ColumnDefinition, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

func (t TableDefinition) Index(name string) (IndexDefinition, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDefinition{}, false
}

func (t TableDefinition) Trigger(name string) (TriggerDefinition, bool) {
	for _, tr := range t.Triggers {
		if tr.Name == name {
			return tr, true
		}
	}
	return TriggerDefinition{}, false
}

func (t TableDefinition) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

func (t TableDefinition) IndexNames() []string {
	names := make([]string, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		names = append(names, idx.Name)
	}
	return names
}

func (t TableDefinition) TriggerNames() []string {
	names := make([]string, 0, len(t.Triggers))
	for _, tr := range t.Triggers {
		names = append(names, tr.Name)
	}
	return names
}

// Find returns the table called name from defs.
func Find(defs []TableDefinition, name string) (TableDefinition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return TableDefinition{}, false
}
