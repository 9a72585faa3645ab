package factgraph

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------- Arithmetic

// Add sums its operands, which must all share one numeric kind (Int,
// Dollar, Rational, or Days), per spec.md §4.6.
type Add struct{ Operands []Expression }

func (o Add) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalVariadicNumeric(g, at, "Add", o.Operands, addNumeric)
}

// Subtract computes Operands[0] - Operands[1] - ... - Operands[n].
type Subtract struct{ Operands []Expression }

func (o Subtract) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalVariadicNumeric(g, at, "Subtract", o.Operands, subNumeric)
}

// Multiply computes the product of its operands.
type Multiply struct{ Operands []Expression }

func (o Multiply) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalVariadicNumeric(g, at, "Multiply", o.Operands, mulNumeric)
}

// Divide computes Left / Right as a Rational.
type Divide struct{ Left, Right Expression }

// Divide evaluates Left/Right. A zero divisor yields Incomplete rather
// than an error, per spec.md §4.6: a dictionary author cannot always
// guard a divisor's value before it reaches zero (e.g. an average over
// a collection that's still empty), so division by zero is a fact the
// graph simply doesn't know the answer to yet.
func (o Divide) Evaluate(g *Graph, at Path) (ResultVector, error) {
	left, err := o.Left.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	right, err := o.Right.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	quotient, err := safeVectorize("Divide", at, func(vals []Value) Value {
		a := asRational("Divide", vals[0])
		b := asRational("Divide", vals[1])
		if b.Num == 0 {
			return a // discarded wherever the zero-divisor mask applies
		}
		r, err := NewRational(a.Num*b.Den, a.Den*b.Num)
		if err != nil {
			panic(newError("Divide", KindInvalidValue, at.String(), err))
		}
		return r
	}, left, right)
	if err != nil {
		return ResultVector{}, err
	}
	zeroDivisor, err := safeVectorize("Divide", at, func(vals []Value) Value {
		return NewBool(asRational("Divide", vals[1]).Num == 0)
	}, left, right)
	if err != nil {
		return ResultVector{}, err
	}
	return demoteZeroDivisors(quotient, zeroDivisor), nil
}

func demoteZeroDivisors(quotient, zeroDivisor ResultVector) ResultVector {
	isZero := func(r Result) bool { return r.HasValue() && bool(r.Value().(BoolValue)) }
	if quotient.IsSingle() {
		q, _ := quotient.AsSingle()
		z, _ := zeroDivisor.AsSingle()
		if isZero(z) {
			return Single(IncompleteResult())
		}
		return Single(q)
	}
	qs := quotient.AsSlice()
	zs := zeroDivisor.AsSlice()
	out := make([]Result, len(qs))
	for i, q := range qs {
		if i < len(zs) && isZero(zs[i]) {
			out[i] = IncompleteResult()
			continue
		}
		out[i] = q
	}
	return Multiple(out, quotient.CollectionComplete())
}

func evalVariadicNumeric(g *Graph, at Path, op string, operands []Expression, combine func(a, b RationalValue) RationalValue) (ResultVector, error) {
	if len(operands) == 0 {
		return ResultVector{}, newErrorf(op, KindDictionaryError, at.String(), "%s requires at least one operand", op)
	}
	vectors := make([]ResultVector, len(operands))
	for i, e := range operands {
		rv, err := e.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		vectors[i] = rv
	}
	return safeVectorize(op, at, func(vals []Value) Value {
		acc := asRational(op, vals[0])
		outKind := vals[0].Kind()
		for _, v := range vals[1:] {
			acc = combine(acc, asRational(op, v))
		}
		return fromRational(op, acc, outKind)
	}, vectors...)
}

func asRational(op string, v Value) RationalValue {
	switch vv := v.(type) {
	case IntValue:
		r, _ := NewRational(int64(vv), 1)
		return r
	case DollarValue:
		r, _ := NewRational(int64(vv), 100)
		return r
	case RationalValue:
		return vv
	case DaysValue:
		r, _ := NewRational(int64(vv), 1)
		return r
	default:
		return typeMismatchRational(op, v)
	}
}

func typeMismatchRational(op string, v Value) RationalValue {
	panic(newErrorf(op, KindTypeMismatch, "", "%s requires a numeric operand, got %s", op, v.Kind()))
}

func fromRational(op string, r RationalValue, kind ValueKind) Value {
	switch kind {
	case KindDollar:
		return NewDollar(r.RoundToCents())
	case KindInt:
		if r.Den != 1 {
			return r
		}
		return NewInt(int32(r.Num))
	case KindDays:
		if r.Den != 1 {
			return r
		}
		return NewDays(r.Num)
	default:
		return r
	}
}

func addNumeric(a, b RationalValue) RationalValue { return a.Add(b) }
func subNumeric(a, b RationalValue) RationalValue { neg, _ := NewRational(-b.Num, b.Den); return a.Add(neg) }
func mulNumeric(a, b RationalValue) RationalValue { return a.Mul(b) }

// GreaterOf / LesserOf return whichever operand compares higher/lower.
type GreaterOf struct{ Operands []Expression }
type LesserOf struct{ Operands []Expression }

func (o GreaterOf) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalExtremum(g, at, "GreaterOf", o.Operands, func(cmp int) bool { return cmp > 0 })
}
func (o LesserOf) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalExtremum(g, at, "LesserOf", o.Operands, func(cmp int) bool { return cmp < 0 })
}

func evalExtremum(g *Graph, at Path, op string, operands []Expression, better func(cmp int) bool) (ResultVector, error) {
	if len(operands) == 0 {
		return ResultVector{}, newErrorf(op, KindDictionaryError, at.String(), "%s requires at least one operand", op)
	}
	vectors := make([]ResultVector, len(operands))
	for i, e := range operands {
		rv, err := e.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		vectors[i] = rv
	}
	return safeVectorize(op, at, func(vals []Value) Value {
		best := vals[0]
		for _, v := range vals[1:] {
			ok, err := compareOrdered(v, best, better)
			if err != nil {
				panic(newError(op, KindTypeMismatch, "", err))
			}
			if ok {
				best = v
			}
		}
		return best
	}, vectors...)
}

// Maximum / Minimum reduce a Collection-shaped PathRef's elements to a
// single scalar, unlike GreaterOf/LesserOf which compare fixed operands.
type Maximum struct{ Operand Expression }
type Minimum struct{ Operand Expression }

func (o Maximum) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return reduceVector(g, at, "Maximum", o.Operand, func(cmp int) bool { return cmp > 0 })
}
func (o Minimum) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return reduceVector(g, at, "Minimum", o.Operand, func(cmp int) bool { return cmp < 0 })
}

func reduceVector(g *Graph, at Path, op string, operand Expression, better func(cmp int) bool) (ResultVector, error) {
	rv, err := operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	elems := rv.AsSlice()
	if len(elems) == 0 {
		return Single(IncompleteResult()), nil
	}
	state := Complete
	var best Value
	for _, r := range elems {
		state = weakerOf(state, r.state)
		if !r.HasValue() {
			continue
		}
		if best == nil {
			best = r.Value()
			continue
		}
		ok, err := compareOrdered(r.Value(), best, better)
		if err != nil {
			return ResultVector{}, newError(op, KindTypeMismatch, at.String(), err)
		}
		if ok {
			best = r.Value()
		}
	}
	if state == Incomplete || best == nil {
		return Single(IncompleteResult()), nil
	}
	return Single(resultFor(state, best)), nil
}

// ---------------------------------------------------------------- Rounding

type Round struct{ Operand Expression }
type RoundToInt struct{ Operand Expression }
type Ceiling struct{ Operand Expression }
type Floor struct{ Operand Expression }

func (o Round) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalUnaryNumeric(g, at, "Round", o.Operand, func(r RationalValue) Value {
		return NewDollar(r.RoundToCents())
	})
}

func (o RoundToInt) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalUnaryNumeric(g, at, "RoundToInt", o.Operand, func(r RationalValue) Value {
		// RoundToInt rounds to the nearest whole unit, not cents; reuse
		// the half-to-even rule by rounding r/100 to cents.
		nearest := RationalValue{Num: r.Num, Den: r.Den * 100}.RoundToCents()
		return NewInt(int32(nearest))
	})
}

func (o Ceiling) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalUnaryNumeric(g, at, "Ceiling", o.Operand, func(r RationalValue) Value {
		q := r.Num / r.Den
		if r.Num%r.Den != 0 && r.Num > 0 {
			q++
		}
		return NewInt(int32(q))
	})
}

func (o Floor) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalUnaryNumeric(g, at, "Floor", o.Operand, func(r RationalValue) Value {
		q := r.Num / r.Den
		if r.Num%r.Den != 0 && r.Num < 0 {
			q--
		}
		return NewInt(int32(q))
	})
}

func evalUnaryNumeric(g *Graph, at Path, op string, operand Expression, f func(RationalValue) Value) (ResultVector, error) {
	rv, err := operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize(op, at, func(vals []Value) Value {
		return f(asRational(op, vals[0]))
	}, rv)
}

// ---------------------------------------------------------------- Logic

type Not struct{ Operand Expression }

func (o Not) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("Not", at, func(vals []Value) Value {
		b, ok := vals[0].(BoolValue)
		if !ok {
			return typeMismatch("Not", vals[0])
		}
		return NewBool(!bool(b))
	}, rv)
}

// All is true iff every operand is Complete-true; an Incomplete operand
// makes the whole expression Incomplete unless a later operand is
// definitively false, per spec.md §4.6's short-circuit note.
type All struct{ Operands []Expression }

// Any is true iff at least one operand is Complete-true.
type Any struct{ Operands []Expression }

func (o All) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalShortCircuit(g, at, "All", o.Operands, false)
}
func (o Any) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return evalShortCircuit(g, at, "Any", o.Operands, true)
}

// evalShortCircuit implements All/Any: shortCircuitOn is the boolean value
// that, once seen as Complete, decides the outcome regardless of any
// remaining Incomplete operand (false for All, true for Any). This
// preserves the invariant that a determined truth is never demoted to
// Incomplete just because a later operand hasn't been answered.
func evalShortCircuit(g *Graph, at Path, op string, operands []Expression, shortCircuitOn bool) (ResultVector, error) {
	state := Complete
	for _, e := range operands {
		rv, err := e.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		r, ok := rv.AsSingle()
		if !ok {
			return ResultVector{}, newErrorf(op, KindShapeMismatch, at.String(), "%s operands must be Single", op)
		}
		if !r.HasValue() {
			state = Incomplete
			continue
		}
		b, ok := r.Value().(BoolValue)
		if !ok {
			return ResultVector{}, newErrorf(op, KindTypeMismatch, at.String(), "%s operand must be Bool", op)
		}
		state = weakerOf(state, r.state)
		if bool(b) == shortCircuitOn {
			return Single(resultFor(r.state, NewBool(shortCircuitOn))), nil
		}
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	return Single(resultFor(state, NewBool(!shortCircuitOn))), nil
}

// ---------------------------------------------------------------- Comparisons

type compareOp int

const (
	cmpEqual compareOp = iota
	cmpNotEqual
	cmpGreaterThan
	cmpGreaterThanOrEqual
	cmpLessThan
	cmpLessThanOrEqual
)

type Compare struct {
	Op          compareOp
	Left, Right Expression
}

func Equal(l, r Expression) Compare              { return Compare{cmpEqual, l, r} }
func NotEqual(l, r Expression) Compare           { return Compare{cmpNotEqual, l, r} }
func GreaterThan(l, r Expression) Compare        { return Compare{cmpGreaterThan, l, r} }
func GreaterThanOrEqual(l, r Expression) Compare { return Compare{cmpGreaterThanOrEqual, l, r} }
func LessThan(l, r Expression) Compare           { return Compare{cmpLessThan, l, r} }
func LessThanOrEqual(l, r Expression) Compare    { return Compare{cmpLessThanOrEqual, l, r} }

func (o Compare) Evaluate(g *Graph, at Path) (ResultVector, error) {
	left, err := o.Left.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	right, err := o.Right.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("Compare", at, func(vals []Value) Value {
		a, b := vals[0], vals[1]
		if o.Op == cmpEqual {
			return NewBool(a.Equal(b))
		}
		if o.Op == cmpNotEqual {
			return NewBool(!a.Equal(b))
		}
		var pred func(int) bool
		switch o.Op {
		case cmpGreaterThan:
			pred = func(c int) bool { return c > 0 }
		case cmpGreaterThanOrEqual:
			pred = func(c int) bool { return c >= 0 }
		case cmpLessThan:
			pred = func(c int) bool { return c < 0 }
		case cmpLessThanOrEqual:
			pred = func(c int) bool { return c <= 0 }
		}
		ok, err := compareOrdered(a, b, pred)
		if err != nil {
			panic(newError("Compare", KindTypeMismatch, "", err))
		}
		return NewBool(ok)
	}, left, right)
}

// ---------------------------------------------------------------- Strings

type Length struct{ Operand Expression }

func (o Length) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("Length", at, func(vals []Value) Value {
		s, ok := vals[0].(StringValue)
		if !ok {
			return typeMismatch("Length", vals[0])
		}
		return NewInt(int32(len(string(s))))
	}, rv)
}

// Paste concatenates its operands' string forms.
type Paste struct{ Operands []Expression }

func (o Paste) Evaluate(g *Graph, at Path) (ResultVector, error) {
	vectors := make([]ResultVector, len(o.Operands))
	for i, e := range o.Operands {
		rv, err := e.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		vectors[i] = rv
	}
	return safeVectorize("Paste", at, func(vals []Value) Value {
		var b strings.Builder
		for _, v := range vals {
			b.WriteString(v.String())
		}
		return NewString(b.String())
	}, vectors...)
}

type AsString struct{ Operand Expression }

func (o AsString) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("AsString", at, func(vals []Value) Value {
		return NewString(vals[0].String())
	}, rv)
}

// AsDecimalString renders a Rational/Dollar with a fixed number of
// decimal places instead of the reduced-fraction canonical form.
type AsDecimalString struct {
	Operand  Expression
	Decimals int
}

func (o AsDecimalString) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("AsDecimalString", at, func(vals []Value) Value {
		r := asRational("AsDecimalString", vals[0])
		scale := int64(1)
		for i := 0; i < o.Decimals; i++ {
			scale *= 10
		}
		whole := RationalValue{Num: r.Num * scale, Den: r.Den * 100}.RoundToCents()
		s := strconv.FormatFloat(float64(whole)/float64(scale), 'f', o.Decimals, 64)
		return NewString(s)
	}, rv)
}

type Trim struct{ Operand Expression }

func (o Trim) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("Trim", at, func(vals []Value) Value {
		s, ok := vals[0].(StringValue)
		if !ok {
			return typeMismatch("Trim", vals[0])
		}
		return NewString(strings.TrimSpace(string(s)))
	}, rv)
}

type ToUpper struct{ Operand Expression }

func (o ToUpper) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("ToUpper", at, func(vals []Value) Value {
		s, ok := vals[0].(StringValue)
		if !ok {
			return typeMismatch("ToUpper", vals[0])
		}
		return NewString(strings.ToUpper(string(s)))
	}, rv)
}

// StripChars removes every rune in Chars from Operand's string value.
type StripChars struct {
	Operand Expression
	Chars   string
}

func (o StripChars) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("StripChars", at, func(vals []Value) Value {
		s, ok := vals[0].(StringValue)
		if !ok {
			return typeMismatch("StripChars", vals[0])
		}
		return NewString(strings.Map(func(r rune) rune {
			if strings.ContainsRune(o.Chars, r) {
				return -1
			}
			return r
		}, string(s)))
	}, rv)
}

// TruncateNameForMeF truncates a string to MeF's 35-character field limit
// for taxpayer/spouse names on e-filed returns.
type TruncateNameForMeF struct{ Operand Expression }

const mefNameFieldLimit = 35

func (o TruncateNameForMeF) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("TruncateNameForMeF", at, func(vals []Value) Value {
		s, ok := vals[0].(StringValue)
		if !ok {
			return typeMismatch("TruncateNameForMeF", vals[0])
		}
		runes := []rune(string(s))
		if len(runes) <= mefNameFieldLimit {
			return NewString(string(s))
		}
		return NewString(string(runes[:mefNameFieldLimit]))
	}, rv)
}

// ---------------------------------------------------------------- Dates

// Today evaluates to the graph's current date, sourced from the clock set
// with Graph.SetClock so evaluation is deterministic under test.
type Today struct{}

func (o Today) Evaluate(g *Graph, at Path) (ResultVector, error) {
	t := g.now()
	return Single(CompleteResult(DayValue{Year: t.Year(), Month: t.Month(), Day: t.Day()})), nil
}

type LastDayOfMonthOf struct{ Operand Expression }

func (o LastDayOfMonthOf) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("LastDayOfMonth", at, func(vals []Value) Value {
		d, ok := vals[0].(DayValue)
		if !ok {
			return typeMismatch("LastDayOfMonth", vals[0])
		}
		return d.LastDayOfMonth()
	}, rv)
}

// AddPayrollMonths adds N calendar months to a Day, re-anchoring to
// month-end when the input was itself a month-end date (spec.md §4.6).
type AddPayrollMonths struct {
	Operand Expression
	Months  int
}

func (o AddPayrollMonths) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return safeVectorize("AddPayrollMonths", at, func(vals []Value) Value {
		d, ok := vals[0].(DayValue)
		if !ok {
			return typeMismatch("AddPayrollMonths", vals[0])
		}
		return d.AddMonthsPreservingMonthEnd(o.Months)
	}, rv)
}
