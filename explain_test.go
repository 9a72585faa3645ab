package factgraph_test

import (
	"strings"
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func TestExplainWalksForwardDependencies(t *testing.T) {
	is := is.New(t)

	g := newTestGraph(t, func(d *factgraph.Dictionary) {
		d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/income"), DeclaredType: factgraph.KindDollar, Writable: true})
		d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/bonus"), DeclaredType: factgraph.KindDollar, Writable: true})
		d.Define(factgraph.FactDefinition{
			AbstractPath: p(t, "/total"),
			DeclaredType: factgraph.KindDollar,
			Expression: factgraph.Add{Operands: []factgraph.Expression{
				factgraph.PathRef{Ref: p(t, "/income")},
				factgraph.PathRef{Ref: p(t, "/bonus")},
			}},
		})
	})

	g.Set(p(t, "/income"), factgraph.NewDollar(500))
	g.Set(p(t, "/bonus"), factgraph.NewDollar(50))

	exp, err := g.Explain(p(t, "/total"))
	is.NoErr(err)
	is.Equal(exp.Path, "/total")
	is.Equal(exp.State, "Complete")
	is.Equal(len(exp.Dependencies), 2)
}

func TestExplanationStringRendersPathAndState(t *testing.T) {
	is := is.New(t)

	g := newTestGraph(t, func(d *factgraph.Dictionary) {
		d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/income"), DeclaredType: factgraph.KindDollar, Writable: true})
	})
	g.Set(p(t, "/income"), factgraph.NewDollar(500))

	exp, err := g.Explain(p(t, "/income"))
	is.NoErr(err)

	rendered := exp.String()
	is.True(strings.Contains(rendered, "/income"))
	is.True(strings.Contains(rendered, "Complete"))
}

func TestSummaryTableIncludesWrittenFacts(t *testing.T) {
	is := is.New(t)

	g := newTestGraph(t, func(d *factgraph.Dictionary) {
		d.Define(factgraph.FactDefinition{AbstractPath: p(t, "/income"), DeclaredType: factgraph.KindDollar, Writable: true})
	})
	g.Set(p(t, "/income"), factgraph.NewDollar(500))

	rendered := g.SummaryTable()
	is.True(strings.Contains(rendered, "/income"))
}
