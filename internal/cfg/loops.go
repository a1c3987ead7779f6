package cfg

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Loop is a strongly connected region of the graph.
type Loop struct {
	// Head is the lowest member entered from outside the region. A region
	// with no outside entry uses the graph entry if it is a member and its
	// lowest address otherwise.
	Head    uint64
	Members []uint64 // ascending
}

// Loops returns every cycle-bearing strongly connected component ordered by
// head address. A single vertex only counts when it has a self-edge.
func (g *Cfg) Loops() []Loop {
	addrs := g.Addrs()
	index := make(map[uint64]int64, len(addrs))
	dg := simple.NewDirectedGraph()
	for i, a := range addrs {
		index[a] = int64(i)
		dg.AddNode(simple.Node(i))
	}
	selfLoop := make(map[uint64]bool)
	for from, set := range g.edges {
		for to := range set {
			if from == to {
				selfLoop[from] = true
				continue
			}
			f, okF := index[from]
			t, okT := index[to]
			if !okF || !okT {
				continue
			}
			dg.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
		}
	}

	var loops []Loop
	for _, comp := range topo.TarjanSCC(dg) {
		members := make([]uint64, 0, len(comp))
		for _, n := range comp {
			members = append(members, addrs[n.ID()])
		}
		if len(members) == 1 && !selfLoop[members[0]] {
			continue
		}
		slices.Sort(members)
		loops = append(loops, Loop{Head: g.loopHead(members), Members: members})
	}
	slices.SortFunc(loops, func(a, b Loop) int { return cmp.Compare(a.Head, b.Head) })
	return loops
}

func (g *Cfg) loopHead(members []uint64) uint64 {
	in := make(map[uint64]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	for _, m := range members {
		for _, p := range g.Predecessors(m) {
			if !in[p] {
				return m
			}
		}
	}
	if entry, ok := g.Entry(); ok && in[entry] {
		return entry
	}
	return members[0]
}
