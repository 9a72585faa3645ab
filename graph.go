package factgraph

import (
	"reflect"
	"sort"
	"sync"
	"time"
)

// Graph ties a frozen Dictionary to a Store and provides the evaluation,
// write, and persistence surface described in spec.md §6.
type Graph struct {
	dictionary *Dictionary
	store      *Store
	clock      func() time.Time

	mu          sync.Mutex
	resultCache map[string]Result
	evaluating  map[string]bool
}

// NewGraph builds a Graph from a frozen dictionary and a store. It
// refuses an unfrozen dictionary, per spec.md §4's immutability rule.
func NewGraph(dictionary *Dictionary, store *Store) (*Graph, error) {
	if !dictionary.Frozen() {
		return nil, newErrorf("NewGraph", KindDictionaryError, "", "dictionary must be frozen before building a graph")
	}
	if store == nil {
		store = NewStore()
	}
	return &Graph{
		dictionary:  dictionary,
		store:       store,
		clock:       time.Now,
		resultCache: map[string]Result{},
		evaluating:  map[string]bool{},
	}, nil
}

// SetClock overrides the source of "now" used by the Today operator, for
// deterministic tests.
func (g *Graph) SetClock(f func() time.Time) { g.clock = f }

func (g *Graph) now() time.Time { return g.clock() }

// Dictionary returns the graph's backing dictionary.
func (g *Graph) Dictionary() *Dictionary { return g.dictionary }

// Store returns the graph's backing store.
func (g *Graph) Store() *Store { return g.store }

// invalidate drops the entire result cache, per spec.md §6's full-cache
// invalidation policy: any write may change a derived value reachable
// through an arbitrary chain of relative references, so a full flush is
// the only sound option without a dependency graph precomputed.
func (g *Graph) invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resultCache = map[string]Result{}
}

// GetVector resolves path (concrete or abstract) to a ResultVector. An
// abstract path is populated by walking its wildcard segments against the
// actual collection membership found along the way.
func (g *Graph) GetVector(path Path) (ResultVector, error) {
	if !path.IsAbstract() {
		r, err := g.evalConcrete(path)
		if err != nil {
			return ResultVector{}, err
		}
		return Single(r), nil
	}

	concretePaths, complete, err := g.expandWildcards(path)
	if err != nil {
		return ResultVector{}, err
	}
	out := make([]Result, len(concretePaths))
	for i, cp := range concretePaths {
		r, err := g.evalConcrete(cp)
		if err != nil {
			return ResultVector{}, err
		}
		out[i] = r
	}
	return Multiple(out, complete), nil
}

// Get resolves a concrete path to a single Result, failing if path is
// abstract.
func (g *Graph) Get(path Path) (Result, error) {
	if path.IsAbstract() {
		return Result{}, newErrorf("Graph.Get", KindShapeMismatch, path.String(), "path is abstract; use GetVector")
	}
	return g.evalConcrete(path)
}

// expandWildcards walks path segment by segment, substituting each
// wildcard with the current membership of the collection found at that
// point, per spec.md §4.3's abstract.populate. complete is false if any
// wildcarded collection itself resolved to Incomplete.
func (g *Graph) expandWildcards(path Path) ([]Path, bool, error) {
	prefixes := []Path{{Absolute: path.Absolute}}
	complete := true
	var lastNamed string
	for _, seg := range path.Segments {
		if seg.Kind == SegNamed {
			lastNamed = seg.Name
		}
		if seg.Kind != SegWildcard {
			for i := range prefixes {
				prefixes[i] = Path{Absolute: prefixes[i].Absolute, Segments: append(prefixes[i].Segments, seg)}
			}
			continue
		}
		var next []Path
		for _, prefix := range prefixes {
			r, err := g.evalConcrete(prefix)
			if err != nil {
				return nil, false, err
			}
			if !r.HasValue() {
				complete = false
				continue
			}
			cv, ok := r.Value().(CollectionValue)
			if !ok {
				return nil, false, newErrorf("Graph.expandWildcards", KindTypeMismatch, prefix.String(),
					"wildcard segment requires a Collection-valued fact")
			}
			if r.State() != Complete {
				complete = false
			}
			for _, id := range cv.Members {
				memberPath, err := prefix.WithMemberID(id)
				if err != nil {
					return nil, false, err
				}
				next = append(next, memberPath)
			}
		}
		prefixes = next
	}
	_ = lastNamed
	return prefixes, complete, nil
}

// evalConcrete evaluates one concrete fact, using the result cache and
// guarding against self-referential cycles.
func (g *Graph) evalConcrete(path Path) (Result, error) {
	key := path.String()

	g.mu.Lock()
	if cached, ok := g.resultCache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	if g.evaluating[key] {
		g.mu.Unlock()
		return Result{}, newErrorf("Graph.evalConcrete", KindEvaluationCycle, key, "cycle detected while evaluating")
	}
	g.evaluating[key] = true
	g.mu.Unlock()

	r, err := g.computeConcrete(path)

	g.mu.Lock()
	delete(g.evaluating, key)
	if err == nil {
		g.resultCache[key] = r
	}
	g.mu.Unlock()

	return r, err
}

func (g *Graph) computeConcrete(path Path) (Result, error) {
	fd, ok := g.dictionary.LookupConcrete(path)
	if !ok {
		return Result{}, newErrorf("Graph.Get", KindUnknownPath, path.String(), "no fact declared for this path")
	}

	if fd.Writable {
		for _, ov := range fd.Overrides {
			cr, err := ov.Cond.Evaluate(g, path)
			if err != nil {
				return Result{}, err
			}
			r, ok := cr.AsSingle()
			if !ok {
				return Result{}, newErrorf("Graph.Get", KindShapeMismatch, path.String(), "override condition must evaluate to Single")
			}
			b, isBool := r.Value().(BoolValue)
			if !r.HasValue() || !isBool || !bool(b) {
				continue
			}
			rv, err := ov.Replacement.Evaluate(g, path)
			if err != nil {
				return Result{}, err
			}
			rr, ok := rv.AsSingle()
			if !ok {
				return Result{}, newErrorf("Graph.Get", KindShapeMismatch, path.String(), "override replacement must evaluate to Single")
			}
			return rr, nil
		}
		if v, ok := g.store.Get(path); ok {
			return CompleteResult(v), nil
		}
		if fd.Expression != nil {
			rv, err := fd.Expression.Evaluate(g, path)
			if err != nil {
				return Result{}, err
			}
			r, ok := rv.AsSingle()
			if !ok {
				return Result{}, newErrorf("Graph.Get", KindShapeMismatch, path.String(), "fact expression must evaluate to Single")
			}
			return r.DemoteToPlaceholder(), nil
		}
		if fd.Placeholder != nil {
			rv, err := fd.Placeholder.Evaluate(g, path)
			if err != nil {
				return Result{}, err
			}
			r, _ := rv.AsSingle()
			return r.DemoteToPlaceholder(), nil
		}
		return IncompleteResult(), nil
	}

	rv, err := fd.Expression.Evaluate(g, path)
	if err != nil {
		return Result{}, err
	}
	r, ok := rv.AsSingle()
	if !ok {
		return Result{}, newErrorf("Graph.Get", KindShapeMismatch, path.String(), "derived fact expression must evaluate to Single for a concrete path")
	}
	return r, nil
}

// Set writes v to path, enforcing declared type, Enum/MultiEnum
// membership, and every declared Limit. Limit violations of Severity
// Error are returned without writing; Warnings are returned but do not
// block the write, per spec.md §5's aggregation policy.
func (g *Graph) Set(path Path, v Value) ([]LimitViolation, error) {
	fd, ok := g.dictionary.LookupConcrete(path)
	if !ok {
		return nil, newErrorf("Graph.Set", KindUnknownPath, path.String(), "no fact declared for this path")
	}
	if !fd.Writable {
		return nil, newErrorf("Graph.Set", KindTypeMismatch, path.String(), "fact is not writable")
	}
	if v.Kind() != fd.DeclaredType {
		return nil, newErrorf("Graph.Set", KindTypeMismatch, path.String(),
			"value kind %s does not match declared type %s", v.Kind(), fd.DeclaredType)
	}

	var violations []LimitViolation
	if len(fd.EnumOptions) > 0 {
		if lv := CheckEnumMembership(path.String(), v, fd.EnumOptions); lv != nil {
			violations = append(violations, *lv)
		}
	}
	for _, limit := range fd.Limits {
		lv, err := limit.Check(path.String(), v)
		if err != nil {
			return nil, err
		}
		if lv != nil {
			violations = append(violations, *lv)
		}
	}
	for _, lv := range violations {
		if lv.Severity == SeverityError {
			return violations, nil
		}
	}

	g.store.Put(path, v)
	g.invalidate()
	return violations, nil
}

// Delete removes any writable value at path, demoting it back to its
// derived or Incomplete default.
func (g *Graph) Delete(path Path) error {
	fd, ok := g.dictionary.LookupConcrete(path)
	if !ok {
		return newErrorf("Graph.Delete", KindUnknownPath, path.String(), "no fact declared for this path")
	}
	if !fd.Writable {
		return newErrorf("Graph.Delete", KindTypeMismatch, path.String(), "fact is not writable")
	}
	g.store.Delete(path)
	g.invalidate()
	return nil
}

// AddMember mints a fresh member id, appends it to the Collection at
// collectionPath, and returns the id, per spec.md §4.7's add_member.
func (g *Graph) AddMember(collectionPath Path) (string, error) {
	fd, ok := g.dictionary.LookupConcrete(collectionPath)
	if !ok {
		return "", newErrorf("Graph.AddMember", KindUnknownPath, collectionPath.String(), "no fact declared for this path")
	}
	if !fd.Writable || fd.DeclaredType != KindCollection {
		return "", newErrorf("Graph.AddMember", KindTypeMismatch, collectionPath.String(), "fact is not a writable collection")
	}
	current, ok := g.store.Get(collectionPath)
	var cv CollectionValue
	if ok {
		cv = current.(CollectionValue)
	}
	id := NewMemberID()
	next, err := cv.With(id)
	if err != nil {
		return "", newError("Graph.AddMember", KindInvalidValue, collectionPath.String(), err)
	}
	g.store.Put(collectionPath, next)
	g.invalidate()
	return id, nil
}

// RemoveMember drops id from the Collection at collectionPath and
// deletes every stored writable fact under that member's sub-tree.
func (g *Graph) RemoveMember(collectionPath Path, id string) error {
	fd, ok := g.dictionary.LookupConcrete(collectionPath)
	if !ok {
		return newErrorf("Graph.RemoveMember", KindUnknownPath, collectionPath.String(), "no fact declared for this path")
	}
	if !fd.Writable || fd.DeclaredType != KindCollection {
		return newErrorf("Graph.RemoveMember", KindTypeMismatch, collectionPath.String(), "fact is not a writable collection")
	}
	current, ok := g.store.Get(collectionPath)
	if !ok {
		return newErrorf("Graph.RemoveMember", KindInvalidValue, collectionPath.String(), "collection has no members")
	}
	cv := current.(CollectionValue)
	g.store.Put(collectionPath, cv.Without(id))

	memberPath, err := collectionPath.WithMemberID(id)
	if err != nil {
		return err
	}
	prefix := memberPath.String()
	for _, key := range g.store.EnumerateWritables() {
		if key == prefix || (len(key) > len(prefix) && key[:len(prefix)+1] == prefix+"/") {
			p, err := ParsePath(key)
			if err != nil {
				continue
			}
			g.store.Delete(p)
		}
	}
	g.invalidate()
	return nil
}

// Save runs every declared limit over the current store (aggregating
// violations, per spec.md §5), and if there are no Severity Error
// violations, serializes the store to JSON.
func (g *Graph) Save() ([]byte, []LimitViolation, error) {
	var violations []LimitViolation
	for _, key := range g.store.EnumerateWritables() {
		p, err := ParsePath(key)
		if err != nil {
			continue
		}
		fd, ok := g.dictionary.LookupConcrete(p)
		if !ok {
			continue
		}
		v, _ := g.store.Get(p)
		if len(fd.EnumOptions) > 0 {
			if lv := CheckEnumMembership(key, v, fd.EnumOptions); lv != nil {
				violations = append(violations, *lv)
			}
		}
		for _, limit := range fd.Limits {
			lv, err := limit.Check(key, v)
			if err != nil {
				return nil, nil, err
			}
			if lv != nil {
				violations = append(violations, *lv)
			}
		}
	}
	for _, lv := range violations {
		if lv.Severity == SeverityError {
			return nil, violations, nil
		}
	}
	data, err := g.store.ToJSON()
	if err != nil {
		return nil, violations, err
	}
	return data, violations, nil
}

// Load parses data into a fresh store, reconciles it against the current
// dictionary, runs any pending migrations, and installs it as the
// graph's store.
func (g *Graph) Load(data []byte, migrations *MigrationRegistry) error {
	store, err := StoreFromJSON(data)
	if err != nil {
		return err
	}
	store.SyncWithDictionary(g.dictionary)
	if migrations != nil {
		if err := migrations.Apply(store); err != nil {
			return err
		}
	}
	g.mu.Lock()
	g.store = store
	g.resultCache = map[string]Result{}
	g.evaluating = map[string]bool{}
	g.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------- Dependency introspection

// ForwardDependencies returns every path directly referenced by the
// expression governing path's fact, per spec.md §6's supplemented
// introspection surface. Paths are returned relative-resolved (concrete
// if the reference chain was concrete, abstract if it crossed a
// wildcard), deduplicated.
func (g *Graph) ForwardDependencies(path Path) ([]Path, error) {
	fd, ok := g.dictionary.LookupConcrete(path)
	if !ok {
		return nil, newErrorf("Graph.ForwardDependencies", KindUnknownPath, path.String(), "no fact declared for this path")
	}
	expr := fd.Expression
	if expr == nil {
		expr = fd.Placeholder
	}
	if expr == nil {
		return nil, nil
	}
	seen := map[string]Path{}
	collectReferencedPaths(reflect.ValueOf(expr), path, seen)
	out := make([]Path, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// ReverseDependencies returns every declared fact whose forward
// dependencies include path's abstract form.
func (g *Graph) ReverseDependencies(path Path) ([]Path, error) {
	abstract := path.ToAbstract()
	var out []Path
	for _, key := range g.dictionary.Paths() {
		candidate, err := ParsePath(key)
		if err != nil {
			continue
		}
		deps, err := g.ForwardDependencies(candidate)
		if err != nil {
			continue
		}
		for _, d := range deps {
			if d.ToAbstract().Equal(abstract) {
				out = append(out, candidate)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// collectReferencedPaths walks v's fields by reflection looking for Path
// values (resolving them relative to owner) and nested Expression values,
// recursing into structs, slices, pointers, and interfaces. This avoids
// hand-written dependency-collection boilerplate on every operator type.
func collectReferencedPaths(v reflect.Value, owner Path, seen map[string]Path) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return
		}
		collectReferencedPaths(v.Elem(), owner, seen)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			collectReferencedPaths(v.Index(i), owner, seen)
		}
	case reflect.Struct:
		if p, ok := v.Interface().(Path); ok {
			resolved, err := p.Resolve(owner)
			if err == nil {
				seen[resolved.String()] = resolved
			}
			return
		}
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanInterface() {
				continue
			}
			collectReferencedPaths(f, owner, seen)
		}
	}
}
