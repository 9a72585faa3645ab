package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func TestLimitMinViolation(t *testing.T) {
	is := is.New(t)

	l := factgraph.Limit{
		Kind: factgraph.LimitMin, Severity: factgraph.SeverityError,
		Bound: factgraph.NewInt(0), Context: factgraph.LimitContext{Name: "Min"},
	}
	v, err := l.Check("/age", factgraph.NewInt(-1))
	is.NoErr(err)
	is.True(v != nil)
	is.Equal(v.Severity, factgraph.SeverityError)
}

func TestLimitMaxSatisfied(t *testing.T) {
	is := is.New(t)

	l := factgraph.Limit{Kind: factgraph.LimitMax, Bound: factgraph.NewInt(150)}
	v, err := l.Check("/age", factgraph.NewInt(150))
	is.NoErr(err)
	is.True(v == nil)
}

func TestLimitMaxLengthViolation(t *testing.T) {
	is := is.New(t)

	l := factgraph.Limit{Kind: factgraph.LimitMaxLength, Bound: factgraph.NewInt(5)}
	v, err := l.Check("/name", factgraph.NewString("abcdef"))
	is.NoErr(err)
	is.True(v != nil)
}

func TestLimitMinLengthSatisfied(t *testing.T) {
	is := is.New(t)

	l := factgraph.Limit{Kind: factgraph.LimitMinLength, Bound: factgraph.NewInt(2)}
	v, err := l.Check("/name", factgraph.NewString("abc"))
	is.NoErr(err)
	is.True(v == nil)
}

func TestLimitMaxCollectionSizeViolation(t *testing.T) {
	is := is.New(t)

	c, err := factgraph.NewCollection("a", "b", "c")
	is.NoErr(err)
	l := factgraph.Limit{Kind: factgraph.LimitMaxCollectionSize, Bound: factgraph.NewInt(2)}
	v, err := l.Check("/exp", c)
	is.NoErr(err)
	is.True(v != nil)
}

func TestLimitMatchPattern(t *testing.T) {
	is := is.New(t)

	l := factgraph.Limit{Kind: factgraph.LimitMatch, Pattern: `^\d{5}$`}
	v, err := l.Check("/zip", factgraph.NewString("12345"))
	is.NoErr(err)
	is.True(v == nil)

	v, err = l.Check("/zip", factgraph.NewString("abcde"))
	is.NoErr(err)
	is.True(v != nil)
}

func TestLimitMinLengthAppliesToCollection(t *testing.T) {
	is := is.New(t)

	c, err := factgraph.NewCollection("a")
	is.NoErr(err)
	l := factgraph.Limit{Kind: factgraph.LimitMinLength, Severity: factgraph.SeverityError, Bound: factgraph.NewInt(2)}
	v, err := l.Check("/exp", c)
	is.NoErr(err)
	is.True(v != nil)

	c2, err := factgraph.NewCollection("a", "b")
	is.NoErr(err)
	v, err = l.Check("/exp", c2)
	is.NoErr(err)
	is.True(v == nil)
}

func TestLimitDomainApplicabilityRejectsMismatchedKind(t *testing.T) {
	is := is.New(t)

	l := factgraph.Limit{Kind: factgraph.LimitMinLength, Bound: factgraph.NewInt(1)}
	_, err := l.Check("/age", factgraph.NewInt(5))
	is.True(err != nil)
}

func TestCheckEnumMembershipRejectsUnknownOption(t *testing.T) {
	is := is.New(t)

	v := factgraph.CheckEnumMembership("/filingStatus", factgraph.NewEnum("/filingStatusOptions", "bogus"), []string{"single", "married"})
	is.True(v != nil)
}

func TestCheckEnumMembershipAcceptsKnownOption(t *testing.T) {
	is := is.New(t)

	v := factgraph.CheckEnumMembership("/filingStatus", factgraph.NewEnum("/filingStatusOptions", "single"), []string{"single", "married"})
	is.True(v == nil)
}

func TestCheckEnumMembershipMultiEnumRejectsAnyUnknown(t *testing.T) {
	is := is.New(t)

	mv := factgraph.NewMultiEnum("/tagsOptions", []string{"single", "bogus"})
	v := factgraph.CheckEnumMembership("/tags", mv, []string{"single", "married"})
	is.True(v != nil)
}
