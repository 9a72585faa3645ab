// Package boundary is the host-application-facing surface over a fact
// graph: every Adapter method takes and returns plain strings, JSON, or
// other host-friendly shapes, never factgraph.Value or factgraph.Path
// directly, per spec.md §6's boundary table.
package boundary

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync/atomic"

	factgraph "github.com/trueprep/fact-graph"
)

// Logger is the minimal structured-logging surface the adapter uses. The
// core factgraph package does no I/O and has no logger of its own; this
// interface exists solely at the boundary, where requests and mutations
// are worth recording. DefaultLogger is a no-op so embedding applications
// aren't forced to wire one up.
type Logger interface {
	Debugf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Errorf(string, ...interface{}) {}

// DefaultLogger is the no-op Logger used when NewAdapter is given a nil one.
var DefaultLogger Logger = noopLogger{}

// Adapter wraps a *factgraph.Graph behind a hot-swappable pointer so Load
// and Reset can install a wholly new graph without callers holding a
// lock across their own Get/Set calls, the same pattern as the teacher's
// rule Vault.
type Adapter struct {
	graph      atomic.Pointer[factgraph.Graph]
	dictionary *factgraph.Dictionary
	migrations *factgraph.MigrationRegistry
	logger     Logger
}

// NewAdapter builds an Adapter over an empty store for dictionary.
func NewAdapter(dictionary *factgraph.Dictionary, migrations *factgraph.MigrationRegistry, logger Logger) (*Adapter, error) {
	if logger == nil {
		logger = DefaultLogger
	}
	g, err := factgraph.NewGraph(dictionary, factgraph.NewStore())
	if err != nil {
		return nil, err
	}
	a := &Adapter{dictionary: dictionary, migrations: migrations, logger: logger}
	a.graph.Store(g)
	return a, nil
}

func (a *Adapter) current() *factgraph.Graph { return a.graph.Load() }

// ListPaths returns every declared abstract fact path.
func (a *Adapter) ListPaths() []string {
	return a.dictionary.Paths()
}

// FactDescription is the boundary-facing rendering of a FactDefinition.
type FactDescription struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Writable bool   `json:"writable"`
}

// DescribeFact reports the declared shape of path.
func (a *Adapter) DescribeFact(path string) (FactDescription, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return FactDescription{}, err
	}
	fd, ok := a.dictionary.Lookup(p)
	if !ok {
		fd, ok = a.dictionary.Lookup(p.ToAbstract())
	}
	if !ok {
		return FactDescription{}, fmt.Errorf("no fact declared at path %q", path)
	}
	return FactDescription{Path: fd.AbstractPath.String(), Type: fd.DeclaredType.String(), Writable: fd.Writable}, nil
}

// ForwardDependencies lists the paths path's fact reads directly.
func (a *Adapter) ForwardDependencies(path string) ([]string, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return nil, err
	}
	deps, err := a.current().ForwardDependencies(p)
	if err != nil {
		return nil, err
	}
	return pathsToStrings(deps), nil
}

// ReverseDependencies lists the paths that read path directly.
func (a *Adapter) ReverseDependencies(path string) ([]string, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return nil, err
	}
	deps, err := a.current().ReverseDependencies(p)
	if err != nil {
		return nil, err
	}
	return pathsToStrings(deps), nil
}

func pathsToStrings(paths []factgraph.Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

// FactValue is the JSON-friendly rendering of a single Get.
type FactValue struct {
	Path  string          `json:"path"`
	State string          `json:"state"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Get resolves path (which may be abstract) and returns one FactValue per
// concrete instance.
func (a *Adapter) Get(path string) ([]FactValue, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return nil, err
	}
	rv, err := a.current().GetVector(p)
	if err != nil {
		return nil, err
	}
	if !p.IsAbstract() {
		r, _ := rv.AsSingle()
		return []FactValue{toFactValue(path, r)}, nil
	}
	results := rv.AsSlice()
	out := make([]FactValue, len(results))
	for i, r := range results {
		out[i] = toFactValue(path, r)
	}
	return out, nil
}

func toFactValue(path string, r factgraph.Result) FactValue {
	fv := FactValue{Path: path, State: r.State().String()}
	if r.HasValue() {
		encoded, err := factgraph.EncodeTaggedValue(r.Value())
		if err == nil {
			fv.Value = encoded
		}
	}
	return fv
}

// Set applies a single write. raw must be the tagged JSON encoding the
// core codec produces, matching the declared fact's type.
func (a *Adapter) Set(path string, raw json.RawMessage) ([]factgraph.LimitViolation, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return nil, err
	}
	v, err := factgraph.DecodeTaggedValue(raw)
	if err != nil {
		return nil, err
	}
	violations, err := a.current().Set(p, v)
	if err != nil {
		a.logger.Errorf("Set %s: %v", path, err)
		return nil, err
	}
	return violations, nil
}

// BatchSet applies several writes, short-circuiting on the first hard
// failure but still returning every limit violation collected before it.
func (a *Adapter) BatchSet(writes map[string]json.RawMessage) ([]factgraph.LimitViolation, error) {
	keys := make([]string, 0, len(writes))
	for k := range writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var all []factgraph.LimitViolation
	for _, path := range keys {
		violations, err := a.Set(path, writes[path])
		all = append(all, violations...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// AddMember appends a fresh member to the collection at path.
func (a *Adapter) AddMember(path string) (string, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return "", err
	}
	return a.current().AddMember(p)
}

// RemoveMember removes member id from the collection at path.
func (a *Adapter) RemoveMember(path, id string) error {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return err
	}
	return a.current().RemoveMember(p, id)
}

// Explain returns the rendered derivation trace for path.
func (a *Adapter) Explain(path string) (string, error) {
	p, err := factgraph.ParsePath(path)
	if err != nil {
		return "", err
	}
	exp, err := a.current().Explain(p)
	if err != nil {
		return "", err
	}
	return exp.String(), nil
}

// Snapshot serializes the current store.
func (a *Adapter) Snapshot() ([]byte, error) {
	data, violations, err := a.current().Save()
	if err != nil {
		return nil, err
	}
	for _, v := range violations {
		if v.Severity == factgraph.SeverityError {
			return nil, fmt.Errorf("snapshot blocked by %d limit violation(s), first: %s", len(violations), v.String())
		}
	}
	return data, nil
}

// Load replaces the adapter's graph with one built from a serialized
// store, running any pending migrations and swapping the hot pointer
// atomically so concurrent readers never see a half-applied graph.
func (a *Adapter) Load(data []byte) error {
	g, err := factgraph.NewGraph(a.dictionary, factgraph.NewStore())
	if err != nil {
		return err
	}
	if err := g.Load(data, a.migrations); err != nil {
		return err
	}
	a.graph.Store(g)
	a.logger.Debugf("loaded snapshot (%d bytes)", len(data))
	return nil
}

// Reset discards all writable facts, installing a fresh empty graph.
func (a *Adapter) Reset() error {
	g, err := factgraph.NewGraph(a.dictionary, factgraph.NewStore())
	if err != nil {
		return err
	}
	a.graph.Store(g)
	return nil
}

// Diff reports every path whose tagged-JSON value differs between two
// snapshots (as produced by Snapshot), keyed by path with [before, after]
// tagged-JSON strings; a missing side is encoded as the empty string.
func Diff(before, after []byte) (map[string][2]string, error) {
	b, err := decodeSnapshotFacts(before)
	if err != nil {
		return nil, err
	}
	a, err := decodeSnapshotFacts(after)
	if err != nil {
		return nil, err
	}
	out := map[string][2]string{}
	for path, bv := range b {
		if av, ok := a[path]; !ok || av != bv {
			out[path] = [2]string{bv, a[path]}
		}
	}
	for path, av := range a {
		if _, ok := b[path]; !ok {
			out[path] = [2]string{"", av}
		}
	}
	return out, nil
}

func decodeSnapshotFacts(data []byte) (map[string]string, error) {
	var doc struct {
		Facts map[string]json.RawMessage `json:"facts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(doc.Facts))
	for k, v := range doc.Facts {
		out[k] = string(v)
	}
	return out, nil
}
