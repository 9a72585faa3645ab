package factgraph

import "sort"

// Migration transforms a Store in place from one dictionary generation to
// the next, per spec.md §7. Migrations are numbered contiguously from 1
// and applied in order; a Store remembers the highest number it has had
// applied via MigrationsApplied.
type Migration struct {
	Number      int
	Description string
	Apply       func(*Store) error
}

// MigrationRegistry holds the ordered, contiguous sequence of migrations
// a dictionary generation ships with.
type MigrationRegistry struct {
	migrations []Migration
}

// NewMigrationRegistry builds a registry, failing if the migration
// numbers are not exactly 1..N with no gaps or repeats, per spec.md §7's
// contiguous-numbering rule.
func NewMigrationRegistry(migrations ...Migration) (*MigrationRegistry, error) {
	sorted := append([]Migration{}, migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	for i, m := range sorted {
		want := i + 1
		if m.Number != want {
			return nil, newErrorf("NewMigrationRegistry", KindDictionaryError, "",
				"migrations must be numbered contiguously from 1; expected %d, got %d", want, m.Number)
		}
	}
	return &MigrationRegistry{migrations: sorted}, nil
}

// Total returns the highest migration number in the registry.
func (r *MigrationRegistry) Total() int { return len(r.migrations) }

// Apply runs every migration numbered above store's current
// MigrationsApplied, in order, then stamps the store with Total(). A
// store already at Total has nothing run, and a store above Total is
// rejected with a KindDictionaryError, per spec.md §7's load protocol —
// migrations never run twice and never run out of order.
func (r *MigrationRegistry) Apply(store *Store) error {
	applied := store.MigrationsApplied()
	if applied > r.Total() {
		return newErrorf("MigrationRegistry.Apply", KindDictionaryError, "",
			"store reports migration level %d, newer than the %d migrations this dictionary ships with", applied, r.Total())
	}
	for _, m := range r.migrations {
		if m.Number <= applied {
			continue
		}
		if err := m.Apply(store); err != nil {
			return newErrorf("MigrationRegistry.Apply", KindDictionaryError, "",
				"migration %d (%s) failed: %v", m.Number, m.Description, err)
		}
	}
	store.SetMigrationsApplied(r.Total())
	return nil
}

// RenamePath is the common migration primitive described in spec.md §7's
// worked example: move a stored value from one concrete/fixed path to
// another, leaving the old path empty.
func RenamePath(from, to string) func(*Store) error {
	return func(s *Store) error {
		fromPath, err := ParsePath(from)
		if err != nil {
			return err
		}
		toPath, err := ParsePath(to)
		if err != nil {
			return err
		}
		v, ok := s.Get(fromPath)
		if !ok {
			return nil
		}
		s.Delete(fromPath)
		s.Put(toPath, v)
		return nil
	}
}
