package factgraph

import "fmt"

// Completeness is the three-valued completeness tag from spec.md §3.
type Completeness int

const (
	Incomplete Completeness = iota
	Placeholder
	Complete
)

func (c Completeness) String() string {
	switch c {
	case Incomplete:
		return "Incomplete"
	case Placeholder:
		return "Placeholder"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// weakerOf returns the least-complete of two completeness levels, i.e.
// the propagation rule of spec.md §3: Incomplete ≺ Placeholder ≺ Complete.
func weakerOf(a, b Completeness) Completeness {
	if a < b {
		return a
	}
	return b
}

// Result is the sum Complete(v) | Placeholder(v) | Incomplete described in
// spec.md §3. The zero value is Incomplete.
type Result struct {
	state Completeness
	value Value
}

// CompleteResult builds a definitive Complete(v) result.
func CompleteResult(v Value) Result { return Result{state: Complete, value: v} }

// PlaceholderResult builds a Placeholder(v) result: a value is present but
// some input driving it is still missing.
func PlaceholderResult(v Value) Result { return Result{state: Placeholder, value: v} }

// IncompleteResult builds a Result with no value.
func IncompleteResult() Result { return Result{state: Incomplete} }

func (r Result) State() Completeness { return r.state }
func (r Result) IsComplete() bool    { return r.state == Complete }
func (r Result) HasValue() bool      { return r.state != Incomplete }
func (r Result) Value() Value        { return r.value }

func (r Result) String() string {
	if !r.HasValue() {
		return "Incomplete"
	}
	return fmt.Sprintf("%s(%s)", r.state, r.value)
}

// Equal compares two results by completeness state and, if both carry a
// value, by value equality.
func (r Result) Equal(o Result) bool {
	if r.state != o.state {
		return false
	}
	if !r.HasValue() {
		return true
	}
	return r.value.Equal(o.value)
}

// DemoteToPlaceholder converts Complete to Placeholder, leaving Incomplete
// and Placeholder unchanged, per spec.md §4.2.
func (r Result) DemoteToPlaceholder() Result {
	if r.state == Complete {
		return Result{state: Placeholder, value: r.value}
	}
	return r
}

// Map applies f to the carried value if one is present, preserving the
// completeness state.
func (r Result) Map(f func(Value) Value) Result {
	if !r.HasValue() {
		return r
	}
	return Result{state: r.state, value: f(r.value)}
}

// AndThen chains a Result-producing function, only invoking it when r
// carries a value; the resulting completeness is the weaker of r's state
// and the continuation's state (the standard propagation rule).
func (r Result) AndThen(f func(Value) Result) Result {
	if !r.HasValue() {
		return IncompleteResult()
	}
	next := f(r.value)
	return Result{state: weakerOf(r.state, next.state), value: next.value}
}

// CombineResults implements the propagation rule of spec.md §3 across n
// results: any Incomplete input makes the output Incomplete; otherwise any
// Placeholder input makes the output Placeholder; else Complete.
func CombineResults(results ...Result) Completeness {
	state := Complete
	for _, r := range results {
		state = weakerOf(state, r.state)
		if state == Incomplete {
			return Incomplete
		}
	}
	return state
}

// ---------------------------------------------------------------- MaybeVector

// MaybeVector packages either a single T or a list of same-shape siblings,
// per spec.md §3. Multiple.CompleteFlag reflects whether the backing
// collection itself is fully enumerated — not whether each element is
// Complete.
type MaybeVector[T any] struct {
	single   T
	multiple []T
	isMulti  bool
	complete bool
}

// Single wraps a lone value.
func Single[T any](v T) MaybeVector[T] {
	return MaybeVector[T]{single: v}
}

// Multiple wraps a list of values with a flag for whether the backing
// collection is known in full.
func Multiple[T any](vs []T, completeFlag bool) MaybeVector[T] {
	return MaybeVector[T]{multiple: vs, isMulti: true, complete: completeFlag}
}

func (m MaybeVector[T]) IsSingle() bool { return !m.isMulti }
func (m MaybeVector[T]) IsMultiple() bool { return m.isMulti }

// AsSingle returns the wrapped value and true if m is Single.
func (m MaybeVector[T]) AsSingle() (T, bool) {
	if m.isMulti {
		var zero T
		return zero, false
	}
	return m.single, true
}

// AsSlice returns m's elements: a one-element slice for Single, or the
// backing slice for Multiple.
func (m MaybeVector[T]) AsSlice() []T {
	if !m.isMulti {
		return []T{m.single}
	}
	return m.multiple
}

// CollectionComplete reports Multiple's complete_flag; Single is always
// treated as a fully known collection of one.
func (m MaybeVector[T]) CollectionComplete() bool {
	if !m.isMulti {
		return true
	}
	return m.complete
}

func (m MaybeVector[T]) Len() int {
	if !m.isMulti {
		return 1
	}
	return len(m.multiple)
}

// MapVector applies f elementwise, preserving shape.
func MapVector[T, U any](m MaybeVector[T], f func(T) U) MaybeVector[U] {
	if !m.isMulti {
		return Single(f(m.single))
	}
	out := make([]U, len(m.multiple))
	for i, v := range m.multiple {
		out[i] = f(v)
	}
	return Multiple(out, m.complete)
}
