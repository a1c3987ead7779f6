package render

import (
	"fmt"
	"strings"

	"tracecfg/internal/cfg"
)

// DOTOptions controls DOT.
type DOTOptions struct {
	Title         string
	Theme         Theme
	MaxLabelLines int // 0 keeps every instruction
}

// DOT renders g as a Graphviz digraph. Every vertex is a node with id
// v<16 hex digits> labeled with its address and instruction texts; every
// edge is drawn once.
func DOT(g *cfg.Cfg, opts DOTOptions) string {
	t := opts.Theme
	if t == (Theme{}) {
		t = NASA
	}
	entry, hasEntry := g.Entry()
	inLoop := loopMembers(g.Loops())

	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee, color=%q];\n", t.Edge)
	if opts.Title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"9\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(opts.Title))
	}
	b.WriteByte('\n')

	for addr, v := range g.Vertices() {
		lines := truncLines(vertexLines(addr, v), opts.MaxLabelLines)
		for i := range lines {
			lines[i] = dotEscape(lines[i])
		}
		label := strings.Join(lines, "<br align=\"left\"/>") + "<br align=\"left\"/>"

		var attrs string
		switch {
		case v.Kind() == cfg.KindForeign:
			attrs = fmt.Sprintf(", shape=cds, fillcolor=%q, fontcolor=%q", t.ForeignFill, t.ForeignText)
		case inLoop[addr]:
			attrs = fmt.Sprintf(", fillcolor=%q", t.LoopFill)
		}
		if hasEntry && addr == entry {
			attrs += fmt.Sprintf(", penwidth=1.5, color=%q", t.EntryBorder)
		}
		fmt.Fprintf(&b, "  %s [label=<%s>%s];\n", NodeID(addr), label, attrs)
	}
	b.WriteByte('\n')

	for _, e := range g.Edges() {
		if e.To <= e.From {
			fmt.Fprintf(&b, "  %s -> %s [color=%q];\n", NodeID(e.From), NodeID(e.To), t.BackEdge)
			continue
		}
		fmt.Fprintf(&b, "  %s -> %s;\n", NodeID(e.From), NodeID(e.To))
	}
	b.WriteString("}\n")
	return b.String()
}
