package factgraph

import (
	"fmt"
	"strings"

	box "github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxExplainDepth bounds the derivation trace walk against pathological
// dependency chains.
const maxExplainDepth = 20

// Explanation is one node of a fact's derivation trace, per spec.md §8's
// debug/explain surface: the fact's own result plus the same trace for
// each fact its expression directly reads.
type Explanation struct {
	Path         string
	State        string
	Value        string
	Dependencies []Explanation
}

// Explain walks path's expression tree, evaluating it and each of its
// forward dependencies, recursively, down to maxExplainDepth.
func (g *Graph) Explain(path Path) (*Explanation, error) {
	return g.explainAt(path, 0)
}

func (g *Graph) explainAt(path Path, depth int) (*Explanation, error) {
	r, err := g.evalConcrete(path)
	if err != nil {
		return nil, err
	}
	node := &Explanation{
		Path:  path.String(),
		State: r.State().String(),
		Value: valueOrDash(r),
	}
	if depth >= maxExplainDepth {
		return node, nil
	}
	deps, err := g.ForwardDependencies(path)
	if err != nil {
		return node, nil
	}
	for _, d := range deps {
		if d.IsAbstract() {
			continue
		}
		child, err := g.explainAt(d, depth+1)
		if err != nil {
			continue
		}
		node.Dependencies = append(node.Dependencies, *child)
	}
	return node, nil
}

func valueOrDash(r Result) string {
	if !r.HasValue() {
		return "-"
	}
	return r.Value().String()
}

// explainRow is one flattened, depth-indented row of a derivation trace.
type explainRow struct {
	Path  string
	State string
	Value string
}

// flatten renders the tree into ordered rows with a depth-indented path,
// the way diagnosticTable flattens Diagnostics.
func (e *Explanation) flatten(depth int, out *[]explainRow) {
	*out = append(*out, explainRow{
		Path:  strings.Repeat("  ", depth) + e.Path,
		State: e.State,
		Value: e.Value,
	})
	for _, d := range e.Dependencies {
		d.flatten(depth+1, out)
	}
}

// String renders the derivation trace as a boxed report: a plain-text
// summary line for the root fact, followed by a simpletable walk of every
// dependency found underneath it.
func (e *Explanation) String() string {
	b := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})

	var rows []explainRow
	e.flatten(0, &rows)

	st := simpletable.New()
	st.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Path"},
			{Align: simpletable.AlignCenter, Text: "State"},
			{Align: simpletable.AlignCenter, Text: "Value"},
		},
	}
	for _, row := range rows {
		st.Body.Cells = append(st.Body.Cells, []*simpletable.Cell{
			{Text: row.Path},
			{Text: row.State},
			{Text: row.Value},
		})
	}
	st.SetStyle(simpletable.StyleUnicode)

	var body strings.Builder
	body.WriteString(fmt.Sprintf("Fact: %s\nState: %s\nValue: %s\n\n", e.Path, e.State, e.Value))
	body.WriteString("Derivation:\n-----------\n")
	body.WriteString(st.String())

	return b.String("FACT GRAPH EXPLAIN REPORT", body.String())
}

// SummaryTable renders every writable fact currently set, for inclusion
// alongside an Explanation in CLI output.
func (g *Graph) SummaryTable() string {
	tw := table.NewWriter()
	tw.SetTitle("\nWRITABLE FACTS\n")
	tw.AppendHeader(table.Row{"\nPath", "\nValue"})
	for _, key := range g.store.EnumerateWritables() {
		v, _ := g.store.Get(mustParsePath(key))
		tw.AppendRow(table.Row{key, v.String()})
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func mustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		return Path{}
	}
	return p
}
