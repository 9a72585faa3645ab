package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func TestNewMigrationRegistryRejectsNonContiguousNumbering(t *testing.T) {
	is := is.New(t)

	_, err := factgraph.NewMigrationRegistry(
		factgraph.Migration{Number: 1, Apply: func(*factgraph.Store) error { return nil }},
		factgraph.Migration{Number: 3, Apply: func(*factgraph.Store) error { return nil }},
	)
	is.True(err != nil)
}

func TestMigrationRegistryAppliesOnlyAboveCurrentLevel(t *testing.T) {
	is := is.New(t)

	var ran []int
	registry, err := factgraph.NewMigrationRegistry(
		factgraph.Migration{Number: 1, Apply: func(*factgraph.Store) error { ran = append(ran, 1); return nil }},
		factgraph.Migration{Number: 2, Apply: func(*factgraph.Store) error { ran = append(ran, 2); return nil }},
	)
	is.NoErr(err)

	s := factgraph.NewStore()
	s.SetMigrationsApplied(1)

	is.NoErr(registry.Apply(s))
	is.Equal(ran, []int{2})
	is.Equal(s.MigrationsApplied(), 2)
}

func TestMigrationRegistryRejectsStoreAheadOfDictionary(t *testing.T) {
	is := is.New(t)

	registry, err := factgraph.NewMigrationRegistry(
		factgraph.Migration{Number: 1, Apply: func(*factgraph.Store) error { return nil }},
	)
	is.NoErr(err)

	s := factgraph.NewStore()
	s.SetMigrationsApplied(5)

	err = registry.Apply(s)
	is.True(err != nil)
}

func TestRenamePathMovesStoredValue(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	s.Put(p(t, "/old"), factgraph.NewInt(42))

	is.NoErr(factgraph.RenamePath("/old", "/new")(s))

	_, ok := s.Get(p(t, "/old"))
	is.True(!ok)
	v, ok := s.Get(p(t, "/new"))
	is.True(ok)
	is.Equal(v, factgraph.Value(factgraph.NewInt(42)))
}

func TestRenamePathIsNoOpWhenSourceAbsent(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	is.NoErr(factgraph.RenamePath("/missing", "/new")(s))

	_, ok := s.Get(p(t, "/new"))
	is.True(!ok)
}
