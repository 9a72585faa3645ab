package boundary_test

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
	"github.com/trueprep/fact-graph/boundary"
)

func newTestDictionary(t *testing.T) *factgraph.Dictionary {
	t.Helper()
	p := func(s string) factgraph.Path {
		path, err := factgraph.ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", s, err)
		}
		return path
	}
	d := factgraph.NewDictionary()
	d.Define(factgraph.FactDefinition{AbstractPath: p("/income"), DeclaredType: factgraph.KindDollar, Writable: true})
	d.Define(factgraph.FactDefinition{AbstractPath: p("/exp"), DeclaredType: factgraph.KindCollection, Writable: true})
	d.Define(factgraph.FactDefinition{
		AbstractPath: p("/doubled"),
		DeclaredType: factgraph.KindDollar,
		Expression:   factgraph.PathRef{Ref: p("/income")},
	})
	d.Freeze()
	return d
}

func newTestAdapter(t *testing.T) *boundary.Adapter {
	t.Helper()
	migrations, err := factgraph.NewMigrationRegistry()
	if err != nil {
		t.Fatalf("NewMigrationRegistry: %v", err)
	}
	a, err := boundary.NewAdapter(newTestDictionary(t), migrations, nil)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	return a
}

func TestAdapterSetAndGet(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewDollar(2500))
	is.NoErr(err)

	_, err = a.Set("/income", encoded)
	is.NoErr(err)

	vals, err := a.Get("/income")
	is.NoErr(err)
	is.Equal(len(vals), 1)
	is.Equal(vals[0].State, "Complete")
}

func TestAdapterListPathsIncludesEveryDeclaration(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	paths := a.ListPaths()
	found := map[string]bool{}
	for _, pth := range paths {
		found[pth] = true
	}
	is.True(found["/income"])
	is.True(found["/exp"])
	is.True(found["/doubled"])
}

func TestAdapterDescribeFact(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	desc, err := a.DescribeFact("/income")
	is.NoErr(err)
	is.Equal(desc.Path, "/income")
	is.True(desc.Writable)
}

func TestAdapterForwardAndReverseDependencies(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	fwd, err := a.ForwardDependencies("/doubled")
	is.NoErr(err)
	is.Equal(fwd, []string{"/income"})

	rev, err := a.ReverseDependencies("/income")
	is.NoErr(err)
	is.Equal(rev, []string{"/doubled"})
}

func TestAdapterAddAndRemoveMember(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	id, err := a.AddMember("/exp")
	is.NoErr(err)
	is.True(id != "")

	is.NoErr(a.RemoveMember("/exp", id))
}

func TestAdapterBatchSetAppliesAllInOrder(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewDollar(100))
	is.NoErr(err)

	_, err = a.BatchSet(map[string]json.RawMessage{"/income": encoded})
	is.NoErr(err)

	vals, err := a.Get("/income")
	is.NoErr(err)
	is.Equal(vals[0].State, "Complete")
}

func TestAdapterSnapshotAndLoadRoundTrip(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewDollar(777))
	is.NoErr(err)
	_, err = a.Set("/income", encoded)
	is.NoErr(err)

	blob, err := a.Snapshot()
	is.NoErr(err)

	b := newTestAdapter(t)
	is.NoErr(b.Load(blob))

	vals, err := b.Get("/income")
	is.NoErr(err)
	is.Equal(vals[0].State, "Complete")
}

func TestAdapterResetClearsState(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewDollar(50))
	is.NoErr(err)
	_, err = a.Set("/income", encoded)
	is.NoErr(err)

	is.NoErr(a.Reset())

	vals, err := a.Get("/income")
	is.NoErr(err)
	is.Equal(vals[0].State, "Incomplete")
}

func TestDiffReportsChangedAndAddedPaths(t *testing.T) {
	is := is.New(t)
	a := newTestAdapter(t)

	before, err := a.Snapshot()
	is.NoErr(err)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewDollar(900))
	is.NoErr(err)
	_, err = a.Set("/income", encoded)
	is.NoErr(err)

	after, err := a.Snapshot()
	is.NoErr(err)

	diff, err := boundary.Diff(before, after)
	is.NoErr(err)
	_, changed := diff["/income"]
	is.True(changed)
}
