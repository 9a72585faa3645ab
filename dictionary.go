package factgraph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FactDefinition is one entry in a Dictionary: the declared shape and
// behavior of every concrete path matching AbstractPath, per spec.md §4.
type FactDefinition struct {
	AbstractPath Path
	DeclaredType ValueKind
	Writable     bool

	// Derived facts carry an Expression; writable facts may omit it, or
	// carry one used only when no override/writable value is present.
	Expression Expression

	// Placeholder is evaluated for a writable fact that has no active
	// override, no stored value and no Expression; its result is demoted
	// to Placeholder completeness (spec.md §4.5's placeholder mechanism).
	Placeholder Expression

	// Overrides are checked, in order, before a writable's stored value
	// or Placeholder. The first whose Cond evaluates Complete-true has
	// its Replacement stand in for both, per spec.md §4.6.
	Overrides []Override

	Limits []Limit

	// EnumOptionsPath names another fact (typically a Collection of
	// string options) as the option source of an Enum/MultiEnum fact. It
	// is carried for reference only: Set and Save check membership
	// against EnumOptions, and nothing reads this path.
	EnumOptionsPath string
	EnumOptions     []string

	Description string
}

func (fd FactDefinition) String() string {
	kind := "derived"
	if fd.Writable {
		kind = "writable"
	}
	return fmt.Sprintf("%s (%s, %s)", fd.AbstractPath, fd.DeclaredType, kind)
}

// Dictionary is the immutable-after-Freeze registry of fact definitions
// that a Graph is built against, per spec.md §4. Facts are keyed by the
// canonical string form of their abstract path.
type Dictionary struct {
	facts  map[string]*FactDefinition
	order  []string
	frozen bool
}

// NewDictionary returns an empty, unfrozen Dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{facts: map[string]*FactDefinition{}}
}

// Define registers a fact definition. It fails if the dictionary is
// frozen or the abstract path is already defined.
func (d *Dictionary) Define(fd FactDefinition) error {
	if d.frozen {
		return newErrorf("Dictionary.Define", KindDictionaryError, fd.AbstractPath.String(),
			"dictionary is frozen")
	}
	key := fd.AbstractPath.String()
	if _, exists := d.facts[key]; exists {
		return newErrorf("Dictionary.Define", KindDictionaryError, key, "fact already defined")
	}
	if !fd.Writable && fd.Expression == nil {
		return newErrorf("Dictionary.Define", KindDictionaryError, key,
			"derived fact must supply an expression")
	}
	cp := fd
	d.facts[key] = &cp
	d.order = append(d.order, key)
	return nil
}

// Freeze prevents further Define calls. A Graph refuses to build against
// an unfrozen dictionary, per spec.md §4's immutability rule.
func (d *Dictionary) Freeze() { d.frozen = true }

// Frozen reports whether Freeze has been called.
func (d *Dictionary) Frozen() bool { return d.frozen }

// Lookup returns the fact definition matching abstractPath, if any.
func (d *Dictionary) Lookup(abstractPath Path) (*FactDefinition, bool) {
	fd, ok := d.facts[abstractPath.String()]
	return fd, ok
}

// LookupConcrete resolves a concrete path to its governing fact definition
// by first mapping every member segment to a wildcard.
func (d *Dictionary) LookupConcrete(concrete Path) (*FactDefinition, bool) {
	return d.Lookup(concrete.ToAbstract())
}

// Paths returns every declared abstract path, in declaration order.
func (d *Dictionary) Paths() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Tree renders the dictionary's fact paths as a box-drawing hierarchy
// grouped by path prefix.
func (d *Dictionary) Tree() string {
	sorted := append([]string{}, d.order...)
	sort.Strings(sorted)

	var sb strings.Builder
	sb.WriteString("/\n")
	buildPathTree(&sb, "", "", groupChildren(sorted, "/"))
	return sb.String()
}

// groupChildren buckets paths sharing prefix by their next path segment.
func groupChildren(paths []string, prefix string) map[string][]string {
	groups := map[string][]string{}
	for _, p := range paths {
		rest := strings.TrimPrefix(p, prefix)
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			continue
		}
		parts := strings.SplitN(rest, "/", 2)
		groups[parts[0]] = append(groups[parts[0]], p)
	}
	return groups
}

func buildPathTree(sb *strings.Builder, base, prefix string, groups map[string][]string) {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		isLast := i == len(keys)-1
		connector, childPrefix := "├── ", "│   "
		if isLast {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(k)
		sb.WriteString("\n")

		childPath := base + "/" + k
		subGroups := groupChildren(groups[k], childPath)
		if len(subGroups) > 0 {
			buildPathTree(sb, childPath, prefix+childPrefix, subGroups)
		}
	}
}

func hasNonSelf(paths []string, k string) bool {
	for _, p := range paths {
		trimmed := strings.Trim(p, "/")
		if trimmed != k {
			return true
		}
	}
	return false
}

// String renders a table of every declared fact: path, type, writability,
// and description.
func (d *Dictionary) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nFACT DICTIONARY\n")
	tw.AppendHeader(table.Row{"\nPath", "\nType", "\nKind", "\nDescription"})

	sorted := append([]string{}, d.order...)
	sort.Strings(sorted)
	for _, key := range sorted {
		fd := d.facts[key]
		kind := "derived"
		if fd.Writable {
			kind = "writable"
		}
		tw.AppendRow(table.Row{key, fd.DeclaredType.String(), kind, fd.Description})
	}

	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

// factSnapshot is one entry of a dictionary JSON snapshot: a writable
// fact declaration only. Derived facts carry a compiled Expression tree
// that has no JSON representation, so snapshots produced ahead of time
// (see cmd/factgraph) declare the writable leaves of a dictionary; a host
// embedding factgraph builds the derived facts in Go and calls Define
// directly for those.
type factSnapshot struct {
	Path        string   `json:"path"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	EnumOptions []string `json:"enum_options,omitempty"`
}

var kindsByName = func() map[string]ValueKind {
	out := make(map[string]ValueKind, len(kindNames))
	for k, name := range kindNames {
		out[strings.ToLower(name)] = k
	}
	return out
}()

// LoadDictionarySnapshot parses a JSON array of writable fact
// declarations into a fresh, unfrozen Dictionary. Callers that also need
// derived facts should Define those in Go after loading and before
// calling Freeze.
func LoadDictionarySnapshot(data []byte) (*Dictionary, error) {
	var entries []factSnapshot
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, newError("LoadDictionarySnapshot", KindParseError, "", err)
	}
	d := NewDictionary()
	for _, e := range entries {
		p, err := ParsePath(e.Path)
		if err != nil {
			return nil, newError("LoadDictionarySnapshot", KindParseError, e.Path, err)
		}
		kind, ok := kindsByName[strings.ToLower(e.Type)]
		if !ok {
			return nil, newErrorf("LoadDictionarySnapshot", KindParseError, e.Path, "unknown fact type %q", e.Type)
		}
		if err := d.Define(FactDefinition{
			AbstractPath: p,
			DeclaredType: kind,
			Writable:     true,
			EnumOptions:  e.EnumOptions,
			Description:  e.Description,
		}); err != nil {
			return nil, err
		}
	}
	return d, nil
}
