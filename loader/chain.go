package loader

import (
	"fmt"
	"sort"
	"strings"
)

// Order validates that migrations form one acyclic path with a single root
// and returns them root first. Every failure wraps ErrBrokenChain.
func Order(migrations map[string]Migration) ([]Migration, error) {
	if len(migrations) == 0 {
		return nil, nil
	}

	var roots []string
	next := map[string][]string{}
	for key, m := range migrations {
		if m.IsRoot() {
			roots = append(roots, key)
			continue
		}
		if _, ok := migrations[m.PreviousMigration]; !ok {
			return nil, fmt.Errorf("%w: %s points to missing predecessor %q", ErrBrokenChain, key, m.PreviousMigration)
		}
		next[m.PreviousMigration] = append(next[m.PreviousMigration], key)
	}

	sort.Strings(roots)
	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("%w: no root migration (previousMigration %q)", ErrBrokenChain, NoPrevious)
	case 1:
	default:
		return nil, fmt.Errorf("%w: multiple roots: %s", ErrBrokenChain, strings.Join(roots, ", "))
	}

	for prev, children := range next {
		if len(children) > 1 {
			sort.Strings(children)
			return nil, fmt.Errorf("%w: %s is the predecessor of %s", ErrBrokenChain, prev, strings.Join(children, ", "))
		}
	}

	chain := make([]Migration, 0, len(migrations))
	for key := roots[0]; key != ""; {
		chain = append(chain, migrations[key])
		children := next[key]
		if len(children) == 0 {
			break
		}
		key = children[0]
	}

	// anything not reached from the root hangs off a cycle
	if len(chain) != len(migrations) {
		reached := map[string]bool{}
		for _, m := range chain {
			reached[m.Key] = true
		}
		var orphans []string
		for key := range migrations {
			if !reached[key] {
				orphans = append(orphans, key)
			}
		}
		sort.Strings(orphans)
		return nil, fmt.Errorf("%w: cycle through %s", ErrBrokenChain, strings.Join(orphans, ", "))
	}

	return chain, nil
}

// Head returns the last migration of a validated chain.
func Head(chain []Migration) (Migration, bool) {
	if len(chain) == 0 {
		return Migration{}, false
	}
	return chain[len(chain)-1], true
}
