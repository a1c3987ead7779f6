package render

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"tracecfg/internal/cfg"
)

// ReportInfo is the context printed around the graph summary.
type ReportInfo struct {
	Source  string
	Records int
	Issues  []string
	Notes   []string
}

// maxReportRows bounds the tables of a report.
const maxReportRows = 20

// Report renders a markdown summary of g.
func Report(g *cfg.Cfg, info ReportInfo) string {
	var b strings.Builder
	title := info.Source
	if title == "" {
		title = "trace"
	}
	fmt.Fprintf(&b, "# CFG of %s\n\n", title)

	st := g.Stats()
	b.WriteString("## Summary\n\n")
	b.WriteString("| metric | value |\n|---|---|\n")
	if info.Records > 0 {
		fmt.Fprintf(&b, "| trace records | %d |\n", info.Records)
	}
	fmt.Fprintf(&b, "| vertices | %d |\n", st.Vertices)
	fmt.Fprintf(&b, "| basic blocks | %d |\n", st.Blocks)
	fmt.Fprintf(&b, "| foreign markers | %d |\n", st.Foreign)
	fmt.Fprintf(&b, "| instructions | %d |\n", st.Instructions)
	fmt.Fprintf(&b, "| edges | %d |\n", st.Edges)
	fmt.Fprintf(&b, "| loops | %d |\n", st.Loops)
	if st.Unreachable > 0 {
		fmt.Fprintf(&b, "| unreachable | %d |\n", st.Unreachable)
	}
	if e, ok := g.Entry(); ok {
		fmt.Fprintf(&b, "| entry | `%#x` |\n", e)
	}
	b.WriteByte('\n')

	if loops := g.Loops(); len(loops) > 0 {
		b.WriteString("## Loops\n\n")
		for i, l := range loops {
			if i == maxReportRows {
				fmt.Fprintf(&b, "- ... %d more\n", len(loops)-i)
				break
			}
			members := make([]string, len(l.Members))
			for j, m := range l.Members {
				members[j] = fmt.Sprintf("`%#x`", m)
			}
			fmt.Fprintf(&b, "- head `%#x`: %s\n", l.Head, strings.Join(members, ", "))
		}
		b.WriteByte('\n')
	}

	if lost := g.Unreachable(); len(lost) > 0 {
		b.WriteString("## Unreachable from entry\n\n")
		for i, a := range lost {
			if i == maxReportRows {
				fmt.Fprintf(&b, "- ... %d more\n", len(lost)-i)
				break
			}
			fmt.Fprintf(&b, "- `%#x`\n", a)
		}
		b.WriteByte('\n')
	}

	if cg := CallGraph(g); len(cg.Edges) > 0 {
		b.WriteString("## Foreign calls\n\n")
		b.WriteString("| callee | called from |\n|---|---|\n")
		callers := make(map[string][]string)
		var callees []string
		for _, e := range cg.Edges {
			if _, ok := callers[e.Callee]; !ok {
				callees = append(callees, e.Callee)
			}
			callers[e.Callee] = append(callers[e.Callee], "`"+e.Caller+"`")
		}
		slices.Sort(callees)
		for _, c := range callees {
			fmt.Fprintf(&b, "| `%s` | %s |\n", c, strings.Join(callers[c], ", "))
		}
		b.WriteByte('\n')
	}

	type sized struct {
		addr uint64
		n    int
	}
	var blocks []sized
	for addr, v := range g.Vertices() {
		if blk, ok := v.Block(); ok {
			blocks = append(blocks, sized{addr, blk.Len()})
		}
	}
	if len(blocks) > 0 {
		slices.SortStableFunc(blocks, func(x, y sized) int { return cmp.Compare(y.n, x.n) })
		b.WriteString("## Largest blocks\n\n")
		b.WriteString("| block | instructions | successors |\n|---|---|---|\n")
		for i, s := range blocks {
			if i == maxReportRows/2 {
				break
			}
			fmt.Fprintf(&b, "| `%#x` | %d | %d |\n", s.addr, s.n, len(g.Successors(s.addr)))
		}
		b.WriteByte('\n')
	}

	if len(info.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range info.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteByte('\n')
	}
	if len(info.Issues) > 0 {
		fmt.Fprintf(&b, "## Trace issues (%d)\n\n", len(info.Issues))
		for i, is := range info.Issues {
			if i == maxReportRows {
				fmt.Fprintf(&b, "- ... %d more\n", len(info.Issues)-i)
				break
			}
			fmt.Fprintf(&b, "- %s\n", is)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
