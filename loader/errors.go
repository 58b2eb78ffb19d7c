package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrBrokenChain is wrapped when the previousMigration links do not form
	// a single path from exactly one root.
	ErrBrokenChain = errors.New("broken migration chain")
	// ErrInvalidMigrationFile is wrapped when a file is not a well-formed
	// migration document.
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)

// LoadError is returned for every load-time failure: filesystem, parse and
// chain errors alike.
type LoadError struct {
	Key  string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	switch {
	case e.Key != "":
		return fmt.Sprintf("loading migration %s: %v", e.Key, e.Err)
	case e.Path != "":
		return fmt.Sprintf("loading migrations from %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("loading migrations: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
