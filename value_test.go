package factgraph_test

import (
	"testing"

	"github.com/matryer/is"

	factgraph "github.com/trueprep/fact-graph"
)

func TestDollarValueArithmetic(t *testing.T) {
	is := is.New(t)

	a := factgraph.NewDollar(5000)
	b := factgraph.NewDollar(1250)
	is.Equal(a.Add(b), factgraph.NewDollar(6250))
	is.Equal(a.Sub(b), factgraph.NewDollar(3750))
}

func TestDollarValueRoundTrip(t *testing.T) {
	is := is.New(t)

	v := factgraph.NewDollar(123456)
	encoded, err := factgraph.EncodeTaggedValue(v)
	is.NoErr(err)

	decoded, err := factgraph.DecodeTaggedValue(encoded)
	is.NoErr(err)
	is.True(v.Equal(decoded))
}

func TestRationalRoundToCentsBankersRounding(t *testing.T) {
	is := is.New(t)

	// 0.005 dollars rounds to the nearest even cent: 0 -> stays 0.
	half, err := factgraph.NewRational(1, 200)
	is.NoErr(err)
	is.Equal(half.RoundToCents(), int64(0))

	// 1.5 cents rounds to 2 (nearest even), matching round-half-to-even.
	oneAndHalfCents, err := factgraph.NewRational(3, 200)
	is.NoErr(err)
	is.Equal(oneAndHalfCents.RoundToCents(), int64(2))
}

func TestNewTinRejectsBadChecksumFormat(t *testing.T) {
	is := is.New(t)

	_, err := factgraph.NewTin("not-a-tin")
	is.True(err != nil)
}

func TestCollectionValueWithAndWithout(t *testing.T) {
	is := is.New(t)

	c, err := factgraph.NewCollection("a", "b")
	is.NoErr(err)

	c2, err := c.With("c")
	is.NoErr(err)
	is.Equal(len(c2.Members), 3)

	c3 := c2.Without("b")
	is.Equal(c3.Members, []string{"a", "c"})
}

func TestCollectionValueRejectsDuplicateMember(t *testing.T) {
	is := is.New(t)

	c, err := factgraph.NewCollection("a")
	is.NoErr(err)

	_, err = c.With("a")
	is.True(err != nil)
}

func TestEncodeTaggedValueRoundTripsEveryKind(t *testing.T) {
	is := is.New(t)

	day, err := factgraph.NewDay(2024, 4, 15)
	is.NoErr(err)
	rational, err := factgraph.NewRational(1, 3)
	is.NoErr(err)
	collection, err := factgraph.NewCollection("x", "y")
	is.NoErr(err)

	values := []factgraph.Value{
		factgraph.NewBool(true),
		factgraph.NewInt(42),
		factgraph.NewString("hello"),
		factgraph.NewDollar(999),
		rational,
		day,
		factgraph.NewDays(30),
		collection,
		factgraph.NewEnum("", "single"),
		factgraph.NewMultiEnum("", []string{"a", "b"}),
	}

	for _, v := range values {
		encoded, err := factgraph.EncodeTaggedValue(v)
		is.NoErr(err)
		decoded, err := factgraph.DecodeTaggedValue(encoded)
		is.NoErr(err)
		is.True(v.Equal(decoded))
	}
}

func TestDecodeTaggedValueRehydratesEnumWithEmptyOptionsPath(t *testing.T) {
	is := is.New(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewEnum("/filingStatusOptions", "single"))
	is.NoErr(err)

	decoded, err := factgraph.DecodeTaggedValue(encoded)
	is.NoErr(err)
	is.Equal(decoded, factgraph.Value(factgraph.NewEnum("", "single")))
}

func TestDecodeTaggedValueRehydratesMultiEnumWithEmptyOptionsPath(t *testing.T) {
	is := is.New(t)

	encoded, err := factgraph.EncodeTaggedValue(factgraph.NewMultiEnum("/creditOptions", []string{"eitc", "ctc"}))
	is.NoErr(err)

	decoded, err := factgraph.DecodeTaggedValue(encoded)
	is.NoErr(err)
	is.Equal(decoded, factgraph.Value(factgraph.NewMultiEnum("", []string{"eitc", "ctc"})))
}
