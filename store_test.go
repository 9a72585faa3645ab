package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func TestStorePutGetDelete(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	income := p(t, "/income")

	_, ok := s.Get(income)
	is.True(!ok)

	s.Put(income, factgraph.NewDollar(500))
	v, ok := s.Get(income)
	is.True(ok)
	is.Equal(v, factgraph.Value(factgraph.NewDollar(500)))

	s.Delete(income)
	_, ok = s.Get(income)
	is.True(!ok)
}

func TestStoreEnumerateWritablesIsSorted(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	s.Put(p(t, "/b"), factgraph.NewInt(2))
	s.Put(p(t, "/a"), factgraph.NewInt(1))

	is.Equal(s.EnumerateWritables(), []string{"/a", "/b"})
}

func TestStoreToJSONAndFromJSONRoundTrip(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	s.Put(p(t, "/income"), factgraph.NewDollar(4200))
	s.SetMigrationsApplied(3)

	blob, err := s.ToJSON()
	is.NoErr(err)

	s2, err := factgraph.StoreFromJSON(blob)
	is.NoErr(err)
	is.Equal(s2.MigrationsApplied(), 3)

	v, ok := s2.Get(p(t, "/income"))
	is.True(ok)
	is.Equal(v, factgraph.Value(factgraph.NewDollar(4200)))
}

func TestStoreToJSONAndFromJSONRoundTripsEnumFact(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	s.Put(p(t, "/filingStatus"), factgraph.NewEnum("/filingStatusOptions", "single"))

	blob, err := s.ToJSON()
	is.NoErr(err)

	s2, err := factgraph.StoreFromJSON(blob)
	is.NoErr(err)

	v, ok := s2.Get(p(t, "/filingStatus"))
	is.True(ok)
	is.Equal(v, factgraph.Value(factgraph.NewEnum("", "single")))
}

func TestStoreSyncWithDictionaryDropsUndeclaredFacts(t *testing.T) {
	is := is.New(t)

	s := factgraph.NewStore()
	s.Put(p(t, "/income"), factgraph.NewDollar(100))
	s.Put(p(t, "/stale"), factgraph.NewInt(1))

	d := factgraph.NewDictionary()
	d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/income"), DeclaredType: factgraph.KindDollar, Writable: true})
	d.Freeze()

	removed := s.SyncWithDictionary(d)
	is.Equal(removed, []string{"/stale"})

	_, ok := s.Get(p(t, "/income"))
	is.True(ok)
	_, ok = s.Get(p(t, "/stale"))
	is.True(!ok)
}

func TestNewMemberIDProducesUniqueValues(t *testing.T) {
	is := is.New(t)

	a := factgraph.NewMemberID()
	b := factgraph.NewMemberID()
	is.True(a != b)
	is.True(a != "")
}
