package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ridoystarlord/schemasync/schema"
)

// WriteMigrationFile stores defs as <timestamp>_<name>.json chained onto
// previous and returns the new file's key.
func (p *Provider) WriteMigrationFile(name string, defs []schema.TableDefinition, previous string, now time.Time) (string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("creating migrations folder: %w", err)
	}

	if previous == "" {
		previous = NoPrevious
	}
	if defs == nil {
		defs = []schema.TableDefinition{}
	}

	key := fmt.Sprintf("%s_%s", now.UTC().Format("20060102150405"), name)
	path := p.path(key)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration file %s already exists", path)
	}

	content, err := json.MarshalIndent(MigrationFile{Definition: defs, PreviousMigration: previous}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding migration: %w", err)
	}
	if err := os.WriteFile(path, append(content, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing migration file: %w", err)
	}
	return key, nil
}

// Generate chains a new migration for defs onto the current head. It
// returns an empty key when defs already match the head's definition.
func (p *Provider) Generate(name string, defs []schema.TableDefinition, now time.Time) (string, error) {
	previous := NoPrevious

	if _, err := os.Stat(p.dir); err == nil {
		chain, err := p.Load()
		if err != nil {
			return "", err
		}
		if head, ok := Head(chain); ok {
			same, err := sameDefinitions(head.Definition, defs)
			if err != nil {
				return "", err
			}
			if same {
				return "", nil
			}
			previous = head.Key
		}
	}

	return p.WriteMigrationFile(name, defs, previous, now)
}

// sameDefinitions compares through JSON so that defaults decoded from a
// migration (json.Number) and from YAML (int) compare equal.
func sameDefinitions(a, b []schema.TableDefinition) (bool, error) {
	if a == nil {
		a = []schema.TableDefinition{}
	}
	if b == nil {
		b = []schema.TableDefinition{}
	}
	ja, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return string(ja) == string(jb), nil
}
