package factgraph

// Expression is the closed algebra evaluated at a fact's concrete path,
// per spec.md §4.6's Design Notes: a tagged union of operator variants
// rather than a general-purpose interpreter, so completeness and
// vectorization stay total functions of the variant.
type Expression interface {
	// Evaluate computes the expression's value at concrete path `at`,
	// which owns any relative path references inside the expression.
	Evaluate(g *Graph, at Path) (ResultVector, error)
}

// safeVectorize runs VectorizeN, converting any panic raised by an
// operator's type guard into a *Error instead of propagating the panic.
// Operator closures use panic/recover here because VectorizeN's callback
// signature has no error return; the only failure a callback can raise is
// an operand of the wrong Value variant, always a dictionary authoring bug.
func safeVectorize(op string, at Path, f func([]Value) Value, inputs ...ResultVector) (rv ResultVector, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*Error); ok {
				err = e
				return
			}
			err = newErrorf(op, KindTypeMismatch, at.String(), "%v", r)
		}
	}()
	return VectorizeN(f, inputs...)
}

func typeMismatch(op string, v Value) Value {
	panic(newErrorf(op, KindTypeMismatch, "", "operand has unexpected value kind %s", v.Kind()))
}

// ---------------------------------------------------------------- Leaves

// Constant evaluates to a fixed, always-Complete value.
type Constant struct {
	Value Value
}

func (c Constant) Evaluate(g *Graph, at Path) (ResultVector, error) {
	return Single(CompleteResult(c.Value)), nil
}

// PathRef evaluates to the value(s) at another fact, resolved relative to
// the expression's owning path. Wildcards in Ref produce a Multiple.
type PathRef struct {
	Ref Path
}

func (p PathRef) Evaluate(g *Graph, at Path) (ResultVector, error) {
	target, err := p.Ref.Resolve(at)
	if err != nil {
		return ResultVector{}, err
	}
	return g.GetVector(target)
}

// IsComplete evaluates to true iff the referenced expression's result at
// this position is Complete, per spec.md §4.6's introspection operator.
// Unlike every other operator, IsComplete's own result is always Complete:
// completeness is data here, not propagated.
type IsComplete struct {
	Operand Expression
}

func (o IsComplete) Evaluate(g *Graph, at Path) (ResultVector, error) {
	rv, err := o.Operand.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	return MapVector(rv, func(r Result) Result {
		return CompleteResult(NewBool(r.IsComplete()))
	}), nil
}

// WithFallback wraps Primary, substituting Fallback's value (demoted to
// Placeholder state) whenever Primary is Incomplete, per spec.md §4.5.
type WithFallback struct {
	Primary  Expression
	Fallback Expression
}

func (o WithFallback) Evaluate(g *Graph, at Path) (ResultVector, error) {
	primary, err := o.Primary.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	if primary.IsSingle() {
		r, _ := primary.AsSingle()
		if r.HasValue() {
			return primary, nil
		}
		fb, err := o.Fallback.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		fr, _ := fb.AsSingle()
		return Single(fr.DemoteToPlaceholder()), nil
	}
	fb, err := o.Fallback.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	fbSlice := fb.AsSlice()
	primarySlice := primary.AsSlice()
	out := make([]Result, len(primarySlice))
	for i, r := range primarySlice {
		if r.HasValue() {
			out[i] = r
			continue
		}
		fr := fbSlice[0]
		if i < len(fbSlice) {
			fr = fbSlice[i]
		}
		out[i] = fr.DemoteToPlaceholder()
	}
	return Multiple(out, primary.CollectionComplete()), nil
}

// Override pairs a guard with a replacement value. It is not itself an
// Expression: a FactDefinition carries a list of these, and Graph checks
// them ahead of a writable's stored value and Placeholder (see
// computeConcrete in graph.go), per spec.md §4.6.
type Override struct {
	Cond        Expression
	Replacement Expression
}

// ---------------------------------------------------------------- Control

// Switch evaluates Cases in order, returning the first whose Cond is
// Complete-true; When falls through, When evaluates Default. If any Cond
// preceding a match is Incomplete, the whole Switch is Incomplete (a
// later case's truth cannot be assumed), per spec.md §4.6.
type Switch struct {
	Cases   []SwitchCase
	Default Expression
}

type SwitchCase struct {
	Cond Expression
	Then Expression
}

func (o Switch) Evaluate(g *Graph, at Path) (ResultVector, error) {
	state := Complete
	for _, c := range o.Cases {
		cond, err := c.Cond.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		r, ok := cond.AsSingle()
		if !ok {
			return ResultVector{}, newErrorf("Switch", KindShapeMismatch, at.String(), "case condition must be Single")
		}
		if !r.HasValue() {
			// An earlier condition with no derivable value at all can
			// decide the result either way; the whole switch is
			// Incomplete, per spec.md §4.6.
			return Single(IncompleteResult()), nil
		}
		b, ok := r.Value().(BoolValue)
		if !ok {
			return ResultVector{}, newErrorf("Switch", KindTypeMismatch, at.String(), "case condition must be Bool")
		}
		// A condition that merely has a Placeholder guess doesn't abort
		// the switch, but it does mean whatever branch is eventually
		// taken (this one or a later/default one) is only as trustworthy
		// as that guess.
		state = weakerOf(state, r.state)
		if bool(b) {
			then, err := c.Then.Evaluate(g, at)
			if err != nil {
				return ResultVector{}, err
			}
			tr, _ := then.AsSingle()
			return Single(Result{state: weakerOf(state, tr.state), value: tr.value}), nil
		}
	}
	def, err := o.Default.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	dr, ok := def.AsSingle()
	if !ok {
		return ResultVector{}, newErrorf("Switch", KindShapeMismatch, at.String(), "default branch must be Single")
	}
	return Single(Result{state: weakerOf(state, dr.state), value: dr.value}), nil
}

// ConditionalList evaluates each Item's guard; only guarded items whose
// condition is Complete-true are included in the resulting collection
// value, per spec.md §4.6.
type ConditionalList struct {
	Items []ConditionalItem
}

type ConditionalItem struct {
	Cond Expression
	Then Expression
}

func (o ConditionalList) Evaluate(g *Graph, at Path) (ResultVector, error) {
	var included []Result
	state := Complete
	for _, item := range o.Items {
		cond, err := item.Cond.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		r, _ := cond.AsSingle()
		state = weakerOf(state, r.state)
		if !r.HasValue() {
			continue
		}
		b, ok := r.Value().(BoolValue)
		if !ok {
			return ResultVector{}, newErrorf("ConditionalList", KindTypeMismatch, at.String(), "guard must be Bool")
		}
		if !bool(b) {
			continue
		}
		then, err := item.Then.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		tr, _ := then.AsSingle()
		state = weakerOf(state, tr.state)
		included = append(included, tr)
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	return Single(Result{state: state, value: collectionOfResults(included)}), nil
}

func collectionOfResults(results []Result) Value {
	items := make([]string, len(results))
	for i, r := range results {
		items[i] = r.Value().String()
	}
	c, _ := NewCollection(items...)
	return c
}
