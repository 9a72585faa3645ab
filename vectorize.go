package factgraph

// ResultVector is shorthand for the shape every expression evaluates to:
// a MaybeVector of completeness-tagged Values, per spec.md §4.6.
type ResultVector = MaybeVector[Result]

// VectorizeN lifts an n-ary pure function over unwrapped values into the
// MaybeVector<Result<·>> functor, per spec.md §4.2's four vectorization
// rules:
//
//  1. If every input is Single, apply f directly; the output is Single.
//  2. If any input is Multiple, all Multiple inputs must share a length;
//     Single inputs broadcast; the output is Multiple of that length, with
//     complete_flag the AND of the inputs' flags.
//  3. Each elementwise application follows the Result propagation rule.
//  4. A length mismatch is ShapeMismatch: a programmer/dictionary error,
//     reported fatally rather than folded into Incomplete.
func VectorizeN(f func(vals []Value) Value, inputs ...ResultVector) (ResultVector, error) {
	length := -1
	for _, in := range inputs {
		if in.IsMultiple() {
			if length == -1 {
				length = in.Len()
			} else if in.Len() != length {
				return ResultVector{}, newErrorf("VectorizeN", KindShapeMismatch, "",
					"vectorized inputs have mismatched lengths: %d vs %d", length, in.Len())
			}
		}
	}

	if length == -1 {
		// Every input is Single.
		vals := make([]Value, len(inputs))
		results := make([]Result, len(inputs))
		for i, in := range inputs {
			r, _ := in.AsSingle()
			results[i] = r
			vals[i] = r.Value()
		}
		state := CombineResults(results...)
		if state == Incomplete {
			return Single(IncompleteResult()), nil
		}
		out := f(vals)
		return Single(resultFor(state, out)), nil
	}

	completeFlag := true
	for _, in := range inputs {
		if in.IsMultiple() {
			completeFlag = completeFlag && in.CollectionComplete()
		}
	}

	broadcasted := make([][]Result, len(inputs))
	for i, in := range inputs {
		if in.IsSingle() {
			r, _ := in.AsSingle()
			row := make([]Result, length)
			for j := range row {
				row[j] = r
			}
			broadcasted[i] = row
		} else {
			broadcasted[i] = in.AsSlice()
		}
	}

	out := make([]Result, length)
	for idx := 0; idx < length; idx++ {
		vals := make([]Value, len(inputs))
		results := make([]Result, len(inputs))
		for i := range inputs {
			results[i] = broadcasted[i][idx]
			vals[i] = results[i].Value()
		}
		state := CombineResults(results...)
		if state == Incomplete {
			out[idx] = IncompleteResult()
			continue
		}
		out[idx] = resultFor(state, f(vals))
	}
	return Multiple(out, completeFlag), nil
}

// VectorizeList lifts a variadic function over a slice of ResultVectors
// using the same broadcasting rules as VectorizeN.
func VectorizeList(f func(vals []Value) Value, inputs []ResultVector) (ResultVector, error) {
	return VectorizeN(f, inputs...)
}

func resultFor(state Completeness, v Value) Result {
	if state == Complete {
		return CompleteResult(v)
	}
	return PlaceholderResult(v)
}
