package factgraph

// collectionMembers evaluates a PathRef expected to refer to a Collection
// fact and returns its resolved path plus member ids. Collection
// operators require a concrete PathRef (not an arbitrary expression) as
// their collection operand, since they need the path to derive each
// member's sub-tree, not just the CollectionValue.
func collectionMembers(g *Graph, at Path, op string, collection Expression) (Path, []string, Completeness, error) {
	ref, ok := collection.(PathRef)
	if !ok {
		return Path{}, nil, Incomplete, newErrorf(op, KindDictionaryError, at.String(),
			"%s's collection operand must be a direct path reference", op)
	}
	target, err := ref.Ref.Resolve(at)
	if err != nil {
		return Path{}, nil, Incomplete, err
	}
	rv, err := g.GetVector(target)
	if err != nil {
		return Path{}, nil, Incomplete, err
	}
	r, ok := rv.AsSingle()
	if !ok {
		return Path{}, nil, Incomplete, newErrorf(op, KindShapeMismatch, at.String(), "collection path must not itself be abstract")
	}
	if !r.HasValue() {
		return target, nil, Incomplete, nil
	}
	cv, ok := r.Value().(CollectionValue)
	if !ok {
		return Path{}, nil, Incomplete, newErrorf(op, KindTypeMismatch, at.String(), "%s requires a Collection-valued path", op)
	}
	return target, cv.Members, r.state, nil
}

// Count returns the number of members in a collection.
type Count struct{ Collection Expression }

func (o Count) Evaluate(g *Graph, at Path) (ResultVector, error) {
	_, members, state, err := collectionMembers(g, at, "Count", o.Collection)
	if err != nil {
		return ResultVector{}, err
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	return Single(resultFor(state, NewInt(int32(len(members))))), nil
}

// CollectionSum sums Field evaluated at each member.
type CollectionSum struct {
	Collection Expression
	Field      Expression // relative to each member path, e.g. PathRef{Ref: "./amount"}
}

func (o CollectionSum) Evaluate(g *Graph, at Path) (ResultVector, error) {
	target, members, state, err := collectionMembers(g, at, "CollectionSum", o.Collection)
	if err != nil {
		return ResultVector{}, err
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	elemState := Complete
	sum := RationalValue{Num: 0, Den: 1}
	var kind ValueKind = KindDollar
	haveKind := false
	for _, id := range members {
		memberPath, err := target.WithMemberID(id)
		if err != nil {
			return ResultVector{}, err
		}
		fieldResult, err := o.Field.Evaluate(g, memberPath)
		if err != nil {
			return ResultVector{}, err
		}
		fr, ok := fieldResult.AsSingle()
		if !ok {
			return ResultVector{}, newErrorf("CollectionSum", KindShapeMismatch, at.String(), "member field must be Single")
		}
		if !fr.HasValue() {
			// An Incomplete element is skipped entirely, per spec: a
			// collection sum over partially-entered members still
			// reports a Complete total from what has been entered.
			continue
		}
		elemState = weakerOf(elemState, fr.state)
		if !haveKind {
			kind = fr.Value().Kind()
			haveKind = true
		}
		sum = sum.Add(asRational("CollectionSum", fr.Value()))
	}
	finalState := weakerOf(state, elemState)
	if finalState == Incomplete {
		return Single(IncompleteResult()), nil
	}
	return Single(resultFor(finalState, fromRational("CollectionSum", sum, kind))), nil
}

// Filter returns the subset of member ids for which Predicate evaluates
// to Complete-true at that member's path.
type Filter struct {
	Collection Expression
	Predicate  Expression
}

func (o Filter) Evaluate(g *Graph, at Path) (ResultVector, error) {
	target, members, state, err := collectionMembers(g, at, "Filter", o.Collection)
	if err != nil {
		return ResultVector{}, err
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	var kept []string
	elemState := Complete
	for _, id := range members {
		memberPath, err := target.WithMemberID(id)
		if err != nil {
			return ResultVector{}, err
		}
		pr, err := o.Predicate.Evaluate(g, memberPath)
		if err != nil {
			return ResultVector{}, err
		}
		r, ok := pr.AsSingle()
		if !ok {
			return ResultVector{}, newErrorf("Filter", KindShapeMismatch, at.String(), "predicate must be Single")
		}
		elemState = weakerOf(elemState, r.state)
		if !r.HasValue() {
			continue
		}
		b, ok := r.Value().(BoolValue)
		if !ok {
			return ResultVector{}, newErrorf("Filter", KindTypeMismatch, at.String(), "predicate must be Bool")
		}
		if bool(b) {
			kept = append(kept, id)
		}
	}
	finalState := weakerOf(state, elemState)
	if finalState == Incomplete {
		return Single(IncompleteResult()), nil
	}
	cv, _ := NewCollection(kept...)
	return Single(resultFor(finalState, cv)), nil
}

// Find returns the first member id for which Predicate is Complete-true,
// or an Incomplete result if none is found (spec.md §4.6 treats "no match"
// as the absence of a derivable value, not an error).
type Find struct {
	Collection Expression
	Predicate  Expression
}

func (o Find) Evaluate(g *Graph, at Path) (ResultVector, error) {
	filtered, err := (Filter{Collection: o.Collection, Predicate: o.Predicate}).Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	r, _ := filtered.AsSingle()
	if !r.HasValue() {
		return Single(IncompleteResult()), nil
	}
	cv, ok := r.Value().(CollectionValue)
	if !ok || len(cv.Members) == 0 {
		return Single(IncompleteResult()), nil
	}
	return Single(resultFor(r.state, NewString(cv.Members[0]))), nil
}

// IndexOf returns the member id at position Index within Collection, or
// Incomplete if Index is out of bounds, per spec.md §4.6.
type IndexOf struct {
	Collection Expression
	Index      Expression
}

func (o IndexOf) Evaluate(g *Graph, at Path) (ResultVector, error) {
	_, members, state, err := collectionMembers(g, at, "IndexOf", o.Collection)
	if err != nil {
		return ResultVector{}, err
	}
	index, err := o.Index.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	ir, ok := index.AsSingle()
	if !ok || !ir.HasValue() {
		return Single(IncompleteResult()), nil
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	i, ok := ir.Value().(IntValue)
	if !ok {
		return ResultVector{}, newErrorf("IndexOf", KindTypeMismatch, at.String(), "index must be Int")
	}
	if int(i) < 0 || int(i) >= len(members) {
		return Single(IncompleteResult()), nil
	}
	return Single(resultFor(weakerOf(state, ir.state), NewString(members[int(i)]))), nil
}

// ---------------------------------------------------------------- Enum options

// ConditionalOption includes Value among an EnumOptions list only when
// Cond evaluates Complete-true, the way a state's list of filing
// statuses might drop "Married filing jointly" once a spouse fact rules
// it out.
type ConditionalOption struct {
	Cond  Expression
	Value Expression
}

// Evaluate lets ConditionalOption satisfy Expression so it can sit
// directly in an EnumOptions operand list; EnumOptions itself unwraps
// Cond/Value rather than calling this, but a ConditionalOption reached
// any other way behaves like its Value gated by its Cond.
func (o ConditionalOption) Evaluate(g *Graph, at Path) (ResultVector, error) {
	cond, err := o.Cond.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	r, _ := cond.AsSingle()
	if !r.HasValue() {
		return Single(IncompleteResult()), nil
	}
	b, ok := r.Value().(BoolValue)
	if !ok {
		return ResultVector{}, newErrorf("ConditionalOption", KindTypeMismatch, at.String(), "guard must be Bool")
	}
	if !bool(b) {
		return Single(IncompleteResult()), nil
	}
	value, err := o.Value.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	vr, _ := value.AsSingle()
	return Single(resultFor(weakerOf(r.state, vr.state), vr.Value())), nil
}

// EnumOptions evaluates Operands left to right into a Collection of
// option strings. A plain operand always contributes its string value;
// a ConditionalOption contributes only when its guard is true, and a
// false guard drops the option. Each guard's completeness is folded into
// the whole result: an Incomplete guard makes the result Incomplete, and
// a Placeholder guard demotes it to Placeholder.
type EnumOptions struct{ Operands []Expression }

func (o EnumOptions) Evaluate(g *Graph, at Path) (ResultVector, error) {
	var included []Result
	state := Complete
	for _, operand := range o.Operands {
		cond, value := Expression(nil), operand
		if co, ok := operand.(ConditionalOption); ok {
			cond, value = co.Cond, co.Value
		}
		if cond != nil {
			cr, err := cond.Evaluate(g, at)
			if err != nil {
				return ResultVector{}, err
			}
			r, _ := cr.AsSingle()
			state = weakerOf(state, r.state)
			if !r.HasValue() {
				continue
			}
			b, ok := r.Value().(BoolValue)
			if !ok {
				return ResultVector{}, newErrorf("EnumOptions", KindTypeMismatch, at.String(), "guard must be Bool")
			}
			if !bool(b) {
				continue
			}
		}
		vr, err := value.Evaluate(g, at)
		if err != nil {
			return ResultVector{}, err
		}
		r, _ := vr.AsSingle()
		state = weakerOf(state, r.state)
		if !r.HasValue() {
			continue
		}
		included = append(included, r)
	}
	if state == Incomplete {
		return Single(IncompleteResult()), nil
	}
	return Single(Result{state: state, value: collectionOfResults(included)}), nil
}

// EnumOptionsContains is true iff Needle is among Operands' included
// options.
type EnumOptionsContains struct {
	Operands []Expression
	Needle   Expression
}

func (o EnumOptionsContains) Evaluate(g *Graph, at Path) (ResultVector, error) {
	opts, err := (EnumOptions{Operands: o.Operands}).Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	needle, err := o.Needle.Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	or, ok := opts.AsSingle()
	nr, nok := needle.AsSingle()
	if !nok || !nr.HasValue() || !or.HasValue() {
		return Single(IncompleteResult()), nil
	}
	if !ok {
		return ResultVector{}, newErrorf("EnumOptionsContains", KindShapeMismatch, at.String(), "options must be Single")
	}
	cv := or.Value().(CollectionValue)
	return Single(resultFor(weakerOf(or.state, nr.state), NewBool(cv.Contains(nr.Value().String())))), nil
}

// EnumOptionsSize counts Operands' included options.
type EnumOptionsSize struct{ Operands []Expression }

func (o EnumOptionsSize) Evaluate(g *Graph, at Path) (ResultVector, error) {
	opts, err := (EnumOptions{Operands: o.Operands}).Evaluate(g, at)
	if err != nil {
		return ResultVector{}, err
	}
	r, ok := opts.AsSingle()
	if !ok || !r.HasValue() {
		return Single(IncompleteResult()), nil
	}
	cv := r.Value().(CollectionValue)
	return Single(resultFor(r.state, NewInt(int32(len(cv.Members))))), nil
}
