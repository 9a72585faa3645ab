package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func TestParsePathBasics(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/dependents/*/name")
	is.NoErr(err)
	is.True(p.IsAbstract())
	is.Equal(p.String(), "/dependents/*/name")
}

func TestParsePathRejectsEscapeAboveRoot(t *testing.T) {
	is := is.New(t)

	_, err := factgraph.ParsePath("/a/../..")
	is.True(err != nil)
}

func TestParsePathFoldsParentSegments(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/a/b/../c")
	is.NoErr(err)
	is.Equal(p.String(), "/a/c")
}

func TestPathResolveRelativeAgainstBase(t *testing.T) {
	is := is.New(t)

	base, err := factgraph.ParsePath("/exp/#m1/amount")
	is.NoErr(err)
	rel, err := factgraph.ParsePath("../label")
	is.NoErr(err)

	resolved, err := rel.Resolve(base)
	is.NoErr(err)
	is.Equal(resolved.String(), "/exp/#m1/label")
}

func TestPathResolveAbsoluteIgnoresBase(t *testing.T) {
	is := is.New(t)

	base, err := factgraph.ParsePath("/x/y")
	is.NoErr(err)
	abs, err := factgraph.ParsePath("/z")
	is.NoErr(err)

	resolved, err := abs.Resolve(base)
	is.NoErr(err)
	is.Equal(resolved.String(), "/z")
}

func TestPathToAbstractMapsMemberSegmentsToWildcards(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/exp/#m1/amount")
	is.NoErr(err)
	is.Equal(p.ToAbstract().String(), "/exp/*/amount")
}

func TestPathWithMemberID(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/dependents")
	is.NoErr(err)
	m, err := p.WithMemberID("abc123")
	is.NoErr(err)
	is.Equal(m.String(), "/dependents/#abc123")
}

func TestPathWithMemberIDRejectsNonNamedTail(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/dependents/*")
	is.NoErr(err)
	_, err = p.WithMemberID("x")
	is.True(err != nil)
}

func TestPathPopulateEnumeratesCartesianProduct(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/a/*/b/*/c")
	is.NoErr(err)

	out, err := p.Populate([][]string{{"m1", "m2"}, {"n1"}})
	is.NoErr(err)
	is.Equal(len(out), 2)
	is.Equal(out[0].String(), "/a/#m1/b/#n1/c")
}

func TestPathPopulateEmptyCollectionYieldsNoRows(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/a/*/b")
	is.NoErr(err)

	out, err := p.Populate([][]string{{}})
	is.NoErr(err)
	is.Equal(len(out), 0)
}

func TestPathChildAndParent(t *testing.T) {
	is := is.New(t)

	p, err := factgraph.ParsePath("/exp/#m1")
	is.NoErr(err)
	child := p.Child("amount")
	is.Equal(child.String(), "/exp/#m1/amount")

	parent, ok := child.Parent()
	is.True(ok)
	is.True(parent.Equal(p))
}

func TestPathIsConcrete(t *testing.T) {
	is := is.New(t)

	concrete, err := factgraph.ParsePath("/exp/#m1/amount")
	is.NoErr(err)
	is.True(concrete.IsConcrete())

	abstract, err := factgraph.ParsePath("/exp/*/amount")
	is.NoErr(err)
	is.True(!abstract.IsConcrete())
}
