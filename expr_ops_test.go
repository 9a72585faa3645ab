package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func c(v factgraph.Value) factgraph.Expression { return factgraph.Constant{Value: v} }

func evalSingle(t *testing.T, e factgraph.Expression) factgraph.Result {
	t.Helper()
	rv, err := e.Evaluate(nil, factgraph.Path{Absolute: true})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	r, ok := rv.AsSingle()
	if !ok {
		t.Fatalf("expected a Single result")
	}
	return r
}

func TestAddSumsOperands(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Add{Operands: []factgraph.Expression{
		c(factgraph.NewDollar(100)), c(factgraph.NewDollar(250)),
	}})
	is.Equal(r.Value(), factgraph.Value(factgraph.NewDollar(350)))
}

func TestSubtractComputesLeftMinusRest(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Subtract{Operands: []factgraph.Expression{
		c(factgraph.NewInt(10)), c(factgraph.NewInt(3)), c(factgraph.NewInt(2)),
	}})
	is.Equal(r.Value(), factgraph.Value(factgraph.NewInt(5)))
}

func TestDivideByZeroYieldsIncompleteNotError(t *testing.T) {
	is := is.New(t)
	rv, err := (factgraph.Divide{
		Left:  c(factgraph.NewInt(10)),
		Right: c(factgraph.NewInt(0)),
	}).Evaluate(nil, factgraph.Path{Absolute: true})
	is.NoErr(err)
	r, ok := rv.AsSingle()
	is.True(ok)
	is.True(!r.HasValue())
}

func TestDivideNonZeroDivisor(t *testing.T) {
	is := is.New(t)
	rv, err := (factgraph.Divide{
		Left:  c(factgraph.NewInt(10)),
		Right: c(factgraph.NewInt(2)),
	}).Evaluate(nil, factgraph.Path{Absolute: true})
	is.NoErr(err)
	r, ok := rv.AsSingle()
	is.True(ok)
	is.True(r.HasValue())
}

func TestAllShortCircuitsOnCompleteFalseDespiteLaterIncomplete(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.All{Operands: []factgraph.Expression{
		c(factgraph.NewBool(false)),
		incompleteBool{},
	}})
	is.True(r.IsComplete())
	is.Equal(r.Value(), factgraph.Value(factgraph.NewBool(false)))
}

func TestAnyShortCircuitsOnCompleteTrueDespiteLaterIncomplete(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Any{Operands: []factgraph.Expression{
		c(factgraph.NewBool(true)),
		incompleteBool{},
	}})
	is.True(r.IsComplete())
	is.Equal(r.Value(), factgraph.Value(factgraph.NewBool(true)))
}

func TestAllWithoutShortCircuitIsIncompleteWhenAnOperandIsIncomplete(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.All{Operands: []factgraph.Expression{
		c(factgraph.NewBool(true)),
		incompleteBool{},
	}})
	is.True(!r.HasValue())
}

// incompleteBool is a test-only Expression that always evaluates to
// Incomplete, used to exercise short-circuit-preserves-truth.
type incompleteBool struct{}

func (incompleteBool) Evaluate(g *factgraph.Graph, at factgraph.Path) (factgraph.ResultVector, error) {
	return factgraph.Single(factgraph.IncompleteResult()), nil
}

func TestCompareGreaterThanOrEqual(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.GreaterThanOrEqual(c(factgraph.NewInt(18)), c(factgraph.NewInt(18))))
	is.Equal(r.Value(), factgraph.Value(factgraph.NewBool(true)))
}

func TestCompareEqualAcrossDollarValues(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Equal(c(factgraph.NewDollar(500)), c(factgraph.NewDollar(500))))
	is.Equal(r.Value(), factgraph.Value(factgraph.NewBool(true)))
}

func TestLengthOfString(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Length{Operand: c(factgraph.NewString("hello"))})
	is.Equal(r.Value(), factgraph.Value(factgraph.NewInt(5)))
}

func TestTrimRemovesSurroundingWhitespace(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Trim{Operand: c(factgraph.NewString("  hi  "))})
	is.Equal(r.Value(), factgraph.Value(factgraph.NewString("hi")))
}

func TestNotInvertsBool(t *testing.T) {
	is := is.New(t)
	r := evalSingle(t, factgraph.Not{Operand: c(factgraph.NewBool(true))})
	is.Equal(r.Value(), factgraph.Value(factgraph.NewBool(false)))
}
