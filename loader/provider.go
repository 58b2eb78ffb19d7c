package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ridoystarlord/schemasync/database"
	"github.com/ridoystarlord/schemasync/logging"
	"github.com/ridoystarlord/schemasync/schema"
	"github.com/ridoystarlord/schemasync/table"
)

// NoPrevious marks the root of a migration chain.
const NoPrevious = "none"

const fileExt = ".json"

// MigrationFile is the on-disk form of one migration step, stored as
// <key>.json.
type MigrationFile struct {
	Definition        []schema.TableDefinition `json:"definition"`
	PreviousMigration string                   `json:"previousMigration"`
}

// Migration is a loaded step: its declared schema and the schema of its
// immediate predecessor. It is rebuilt on every load.
type Migration struct {
	Key                string
	Path               string
	PreviousMigration  string
	Definition         []schema.TableDefinition
	PreviousDefinition []schema.TableDefinition
	Checksum           string
}

// IsRoot reports whether the migration starts its chain.
func (m Migration) IsRoot() bool {
	return m.PreviousMigration == NoPrevious
}

// Up moves the database from the predecessor's schema to this one.
func (m Migration) Up(ctx context.Context, q database.Queryer, log logging.Logger, opts ...table.Option) error {
	mgr, err := table.New(q, log, opts...)
	if err != nil {
		return err
	}
	return mgr.SyncSchema(ctx, m.Definition, m.PreviousDefinition)
}

// Down moves the database back to the predecessor's schema.
func (m Migration) Down(ctx context.Context, q database.Queryer, log logging.Logger, opts ...table.Option) error {
	mgr, err := table.New(q, log, opts...)
	if err != nil {
		return err
	}
	return mgr.RollbackSchema(ctx, m.Definition, m.PreviousDefinition)
}

// Provider loads migrations from one directory. Files are enumerated
// non-recursively; only *.json files count.
type Provider struct {
	dir string
}

func NewProvider(dir string) *Provider {
	return &Provider{dir: dir}
}

func (p *Provider) Dir() string {
	return p.dir
}

// GetMigrations loads every migration in the directory keyed by file name
// without the extension. Each migration resolves only its immediate
// predecessor; use Load for a validated, ordered chain.
func (p *Provider) GetMigrations() (map[string]Migration, error) {
	keys, err := p.keys()
	if err != nil {
		return nil, err
	}

	migrations := make(map[string]Migration, len(keys))
	for _, key := range keys {
		m, err := p.load(key)
		if err != nil {
			return nil, err
		}
		migrations[key] = m
	}
	return migrations, nil
}

// Load returns the migrations in chain order, root first.
func (p *Provider) Load() ([]Migration, error) {
	migrations, err := p.GetMigrations()
	if err != nil {
		return nil, err
	}
	chain, err := Order(migrations)
	if err != nil {
		return nil, &LoadError{Path: p.dir, Err: err}
	}
	return chain, nil
}

func (p *Provider) keys() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, &LoadError{Path: p.dir, Err: err}
	}

	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

func (p *Provider) path(key string) string {
	return filepath.Join(p.dir, key+fileExt)
}

func (p *Provider) load(key string) (Migration, error) {
	file, raw, err := p.read(key)
	if err != nil {
		return Migration{}, err
	}

	m := Migration{
		Key:               key,
		Path:              p.path(key),
		PreviousMigration: file.PreviousMigration,
		Definition:        file.Definition,
		Checksum:          Checksum(raw),
	}
	if m.IsRoot() {
		return m, nil
	}

	previous, _, err := p.read(file.PreviousMigration)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Migration{}, &LoadError{Key: key, Path: m.Path,
				Err: fmt.Errorf("%w: predecessor %q not found", ErrBrokenChain, file.PreviousMigration)}
		}
		return Migration{}, err
	}
	m.PreviousDefinition = previous.Definition
	return m, nil
}

// read parses one migration file. Defaults decode as json.Number so integer
// literals survive untouched.
func (p *Provider) read(key string) (MigrationFile, []byte, error) {
	path := p.path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return MigrationFile{}, nil, &LoadError{Key: key, Path: path, Err: err}
	}
	file, err := ParseMigrationFile(raw)
	if err != nil {
		return MigrationFile{}, nil, &LoadError{Key: key, Path: path, Err: err}
	}
	return file, raw, nil
}

// ParseMigrationFile decodes and checks the shape of a migration document.
func ParseMigrationFile(raw []byte) (MigrationFile, error) {
	var file MigrationFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return MigrationFile{}, fmt.Errorf("%w: %w", ErrInvalidMigrationFile, err)
	}
	if file.Definition == nil {
		return MigrationFile{}, fmt.Errorf("%w: missing definition", ErrInvalidMigrationFile)
	}
	if file.PreviousMigration == "" {
		return MigrationFile{}, fmt.Errorf("%w: missing previousMigration", ErrInvalidMigrationFile)
	}
	return file, nil
}

func Checksum(raw []byte) string {
	hash := sha256.Sum256(raw)
	return fmt.Sprintf("%x", hash)
}
