package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func newCollectionGraph(t *testing.T) *factgraph.Graph {
	t.Helper()
	d := factgraph.NewDictionary()
	d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/exp"), DeclaredType: factgraph.KindCollection, Writable: true})
	d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/exp/*/amount"), DeclaredType: factgraph.KindDollar, Writable: true})
	d.Define(factgraph.FactDefinition{
		AbstractPath: p(t, "/sum"),
		DeclaredType: factgraph.KindDollar,
		Expression: factgraph.CollectionSum{
			Collection: factgraph.PathRef{Ref: p(t, "/exp")},
			Field:      factgraph.PathRef{Ref: p(t, "./amount")},
		},
	})
	d.Define(factgraph.FactDefinition{
		AbstractPath: p(t, "/count"),
		DeclaredType: factgraph.KindInt,
		Expression:   factgraph.Count{Collection: factgraph.PathRef{Ref: p(t, "/exp")}},
	})
	d.Define(factgraph.FactDefinition{
		AbstractPath: p(t, "/firstID"),
		DeclaredType: factgraph.KindString,
		Expression:   factgraph.IndexOf{Collection: factgraph.PathRef{Ref: p(t, "/exp")}, Index: factgraph.Constant{Value: factgraph.NewInt(0)}},
	})
	d.Define(factgraph.FactDefinition{
		AbstractPath: p(t, "/outOfBounds"),
		DeclaredType: factgraph.KindString,
		Expression:   factgraph.IndexOf{Collection: factgraph.PathRef{Ref: p(t, "/exp")}, Index: factgraph.Constant{Value: factgraph.NewInt(99)}},
	})
	d.Freeze()
	g, err := factgraph.NewGraph(d, factgraph.NewStore())
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestCollectionSumSkipsIncompleteMember(t *testing.T) {
	is := is.New(t)
	g := newCollectionGraph(t)

	a, err := g.AddMember(p(t, "/exp"))
	is.NoErr(err)
	b, err := g.AddMember(p(t, "/exp"))
	is.NoErr(err)
	_, err = g.AddMember(p(t, "/exp")) // never given an amount
	is.NoErr(err)

	amountA, _ := p(t, "/exp").WithMemberID(a)
	amountB, _ := p(t, "/exp").WithMemberID(b)
	g.Set(amountA.Child("amount"), factgraph.NewDollar(100))
	g.Set(amountB.Child("amount"), factgraph.NewDollar(250))

	r, err := g.Get(p(t, "/sum"))
	is.NoErr(err)
	is.Equal(r.Value(), factgraph.Value(factgraph.NewDollar(350)))
	is.True(r.IsComplete())
}

func TestCountReflectsMembership(t *testing.T) {
	is := is.New(t)
	g := newCollectionGraph(t)

	g.AddMember(p(t, "/exp"))
	g.AddMember(p(t, "/exp"))

	r, err := g.Get(p(t, "/count"))
	is.NoErr(err)
	is.Equal(r.Value(), factgraph.Value(factgraph.NewInt(2)))
}

func TestIndexOfReturnsMemberAtPosition(t *testing.T) {
	is := is.New(t)
	g := newCollectionGraph(t)

	id, err := g.AddMember(p(t, "/exp"))
	is.NoErr(err)

	r, err := g.Get(p(t, "/firstID"))
	is.NoErr(err)
	is.Equal(r.Value(), factgraph.Value(factgraph.NewString(id)))
}

func TestIndexOfOutOfBoundsIsIncomplete(t *testing.T) {
	is := is.New(t)
	g := newCollectionGraph(t)
	g.AddMember(p(t, "/exp"))

	r, err := g.Get(p(t, "/outOfBounds"))
	is.NoErr(err)
	is.True(!r.HasValue())
}

func TestFilterKeepsOnlyMatchingMembers(t *testing.T) {
	is := is.New(t)

	d := factgraph.NewDictionary()
	d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/exp"), DeclaredType: factgraph.KindCollection, Writable: true})
	d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/exp/*/big"), DeclaredType: factgraph.KindBool, Writable: true})
	d.Define(factgraph.FactDefinition{
		AbstractPath: p(t, "/bigOnes"),
		DeclaredType: factgraph.KindCollection,
		Expression: factgraph.Filter{
			Collection: factgraph.PathRef{Ref: p(t, "/exp")},
			Predicate:  factgraph.PathRef{Ref: p(t, "./big")},
		},
	})
	d.Freeze()
	g, err := factgraph.NewGraph(d, factgraph.NewStore())
	is.NoErr(err)

	a, err := g.AddMember(p(t, "/exp"))
	is.NoErr(err)
	b, err := g.AddMember(p(t, "/exp"))
	is.NoErr(err)

	pa, _ := p(t, "/exp").WithMemberID(a)
	pb, _ := p(t, "/exp").WithMemberID(b)
	g.Set(pa.Child("big"), factgraph.NewBool(true))
	g.Set(pb.Child("big"), factgraph.NewBool(false))

	r, err := g.Get(p(t, "/bigOnes"))
	is.NoErr(err)
	cv := r.Value().(factgraph.CollectionValue)
	is.Equal(cv.Members, []string{a})
}

func TestEnumOptionsDropsFalseConditionalOption(t *testing.T) {
	is := is.New(t)
	g := newCollectionGraph(t)

	opts := factgraph.EnumOptions{Operands: []factgraph.Expression{
		factgraph.Constant{Value: factgraph.NewString("single")},
		factgraph.ConditionalOption{
			Cond:  factgraph.Constant{Value: factgraph.NewBool(false)},
			Value: factgraph.Constant{Value: factgraph.NewString("married_filing_jointly")},
		},
		factgraph.ConditionalOption{
			Cond:  factgraph.Constant{Value: factgraph.NewBool(true)},
			Value: factgraph.Constant{Value: factgraph.NewString("head_of_household")},
		},
	}}

	rv, err := opts.Evaluate(g, p(t, "/"))
	is.NoErr(err)
	r, ok := rv.AsSingle()
	is.True(ok)
	cv := r.Value().(factgraph.CollectionValue)
	is.Equal(cv.Members, []string{"single", "head_of_household"})
}

func TestEnumOptionsContainsAndSize(t *testing.T) {
	is := is.New(t)
	g := newCollectionGraph(t)

	operands := []factgraph.Expression{
		factgraph.Constant{Value: factgraph.NewString("single")},
		factgraph.Constant{Value: factgraph.NewString("married_filing_jointly")},
	}

	contains := factgraph.EnumOptionsContains{Operands: operands, Needle: factgraph.Constant{Value: factgraph.NewString("single")}}
	rv, err := contains.Evaluate(g, p(t, "/"))
	is.NoErr(err)
	r, _ := rv.AsSingle()
	is.Equal(r.Value(), factgraph.Value(factgraph.NewBool(true)))

	size := factgraph.EnumOptionsSize{Operands: operands}
	rv, err = size.Evaluate(g, p(t, "/"))
	is.NoErr(err)
	r, _ = rv.AsSingle()
	is.Equal(r.Value(), factgraph.Value(factgraph.NewInt(2)))
}
