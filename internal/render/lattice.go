package render

import (
	"fmt"

	"github.com/zboralski/lattice"
	lrender "github.com/zboralski/lattice/render"

	"tracecfg/internal/cfg"
)

// LatticeCFG converts g into a single-function lattice CFG. Blocks are
// numbered in address order and their Start/End are positions in the
// concatenated instruction listing. A foreign marker becomes a call site
// on every block that flows into it.
func LatticeCFG(g *cfg.Cfg, name string) *lattice.CFGGraph {
	ids := make(map[uint64]int)
	var blocks []*lattice.BasicBlock
	pos := 0
	for addr, v := range g.Vertices() {
		b, ok := v.Block()
		if !ok {
			continue
		}
		ids[addr] = len(blocks)
		blocks = append(blocks, &lattice.BasicBlock{
			ID:    len(blocks),
			Start: pos,
			End:   pos + b.Len(),
		})
		pos += b.Len()
	}

	for addr := range g.Vertices() {
		id, ok := ids[addr]
		if !ok {
			continue
		}
		lb := blocks[id]
		succs := g.Successors(addr)
		lb.Term = len(succs) == 0
		for _, to := range succs {
			if sid, ok := ids[to]; ok {
				lb.Succs = append(lb.Succs, lattice.Successor{BlockID: sid})
				continue
			}
			tv, _ := g.Vertex(to)
			if f, ok := tv.Foreign(); ok {
				lb.Calls = append(lb.Calls, lattice.CallSite{Offset: lb.End - 1, Callee: calleeName(f.Target, f.Name)})
				// control resumes wherever the marker leads
				for _, after := range g.Successors(to) {
					if sid, ok := ids[after]; ok {
						lb.Succs = append(lb.Succs, lattice.Successor{BlockID: sid})
					}
				}
			}
		}
	}
	return &lattice.CFGGraph{Funcs: []*lattice.FuncCFG{{Name: name, Blocks: blocks}}}
}

// LatticeDOT renders LatticeCFG through lattice's own DOT backend.
func LatticeDOT(g *cfg.Cfg, name string) string {
	return lrender.DOTCFG(LatticeCFG(g, name), name)
}

// CallGraph lists which traced blocks call which foreign symbols. Nodes
// are the block addresses and the callee names.
func CallGraph(g *cfg.Cfg) *lattice.Graph {
	cg := &lattice.Graph{}
	seen := make(map[string]bool)
	node := func(n string) {
		if !seen[n] {
			seen[n] = true
			cg.Nodes = append(cg.Nodes, n)
		}
	}
	for addr, v := range g.Vertices() {
		f, ok := v.Foreign()
		if !ok {
			continue
		}
		callee := calleeName(addr, f.Name)
		node(callee)
		for _, from := range g.Predecessors(addr) {
			fv, _ := g.Vertex(from)
			if fv == nil || fv.Kind() != cfg.KindBlock {
				continue
			}
			caller := fmt.Sprintf("%#x", from)
			node(caller)
			cg.Edges = append(cg.Edges, lattice.Edge{Caller: caller, Callee: callee})
		}
	}
	cg.Dedup()
	return cg
}

// CallGraphDOT renders CallGraph as DOT.
func CallGraphDOT(g *cfg.Cfg, name string) string {
	return lrender.DOT(CallGraph(g), name)
}

func calleeName(target uint64, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%#x", target)
}
