package cfg

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/tidwall/btree"
)

// Edge is a directed edge between two vertex addresses.
type Edge struct {
	From, To uint64
}

// Cfg is a control flow graph keyed by vertex address. Vertices are kept in
// address order so that the vertex owning an arbitrary address can be found
// by predecessor search. A Cfg is not safe for concurrent use.
type Cfg struct {
	verts btree.Map[uint64, *Vertex]
	edges map[uint64]map[uint64]struct{}

	entry    uint64
	hasEntry bool

	obs    Observer
	policy MergePolicy
}

// Option configures a Cfg.
type Option func(*Cfg)

// WithObserver installs o. A nil o restores the no-op observer.
func WithObserver(o Observer) Option {
	return func(g *Cfg) {
		if o == nil {
			o = NopObserver{}
		}
		g.obs = o
	}
}

// WithMergePolicy selects how Merge treats the outgoing edges of a target.
func WithMergePolicy(p MergePolicy) Option {
	return func(g *Cfg) { g.policy = p }
}

// New returns an empty graph.
func New(opts ...Option) *Cfg {
	g := &Cfg{
		edges: make(map[uint64]map[uint64]struct{}),
		obs:   NopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Len is the number of vertices.
func (g *Cfg) Len() int { return g.verts.Len() }

// Entry is the address of the first vertex seen in the trace.
func (g *Cfg) Entry() (uint64, bool) { return g.entry, g.hasEntry }

// Vertex returns the vertex keyed at addr.
func (g *Cfg) Vertex(addr uint64) (*Vertex, bool) {
	return g.verts.Get(addr)
}

// Vertices yields every vertex in ascending address order.
func (g *Cfg) Vertices() iter.Seq2[uint64, *Vertex] {
	return func(yield func(uint64, *Vertex) bool) {
		g.verts.Scan(yield)
	}
}

// Addrs lists vertex addresses in ascending order.
func (g *Cfg) Addrs() []uint64 {
	return g.verts.Keys()
}

// Owner returns the vertex with the greatest address not above addr.
func (g *Cfg) Owner(addr uint64) (uint64, *Vertex, bool) {
	var (
		key   uint64
		v     *Vertex
		found bool
	)
	g.verts.Descend(addr, func(k uint64, val *Vertex) bool {
		key, v, found = k, val, true
		return false
	})
	return key, v, found
}

// below is Owner restricted to addresses strictly less than addr.
func (g *Cfg) below(addr uint64) (uint64, *Vertex, bool) {
	if addr == 0 {
		return 0, nil, false
	}
	return g.Owner(addr - 1)
}

// AddVertex inserts v under its own address. When a vertex already exists
// there, a block wins over a foreign marker and a longer block wins over a
// shorter one; otherwise the existing vertex stays.
func (g *Cfg) AddVertex(v *Vertex) (uint64, error) {
	addr, ok := v.Addr()
	if !ok {
		return 0, ErrEmptyBlock
	}
	g.insert(addr, v)
	return addr, nil
}

func (g *Cfg) insert(addr uint64, v *Vertex) {
	old, ok := g.verts.Get(addr)
	if !ok {
		g.verts.Set(addr, v)
		g.obs.OnVertex(addr, v)
		return
	}
	if old == v {
		return
	}
	kept, dropped := old, v
	if prefer(v, old) {
		kept, dropped = v, old
		kept.Visited = kept.Visited || dropped.Visited
		g.verts.Set(addr, kept)
	}
	if !equivalent(kept, dropped) {
		g.obs.OnCollision(addr, kept, dropped)
	}
}

// prefer reports whether a should replace b at a shared address.
func prefer(a, b *Vertex) bool {
	ab, aIsBlock := a.Block()
	bb, bIsBlock := b.Block()
	switch {
	case aIsBlock && !bIsBlock:
		return true
	case aIsBlock && bIsBlock:
		return ab.Len() > bb.Len()
	}
	return false
}

// equivalent reports whether a and b describe the same code at the same
// address, as happens with every repeated loop iteration.
func equivalent(a, b *Vertex) bool {
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindForeign {
		return a.foreign == b.foreign
	}
	if a.block.Len() != b.block.Len() {
		return false
	}
	for i := range a.block.Instrs {
		if a.block.Instrs[i].VA != b.block.Instrs[i].VA {
			return false
		}
	}
	return true
}

// AddEdge records from -> to. Both ends must be vertices of g.
func (g *Cfg) AddEdge(from, to uint64) error {
	if _, ok := g.verts.Get(from); !ok {
		return fmt.Errorf("%w: edge source %#x", ErrVertexNotFound, from)
	}
	if _, ok := g.verts.Get(to); !ok {
		return fmt.Errorf("%w: edge destination %#x", ErrVertexNotFound, to)
	}
	g.link(from, to)
	return nil
}

func (g *Cfg) link(from, to uint64) {
	set, ok := g.edges[from]
	if !ok {
		set = make(map[uint64]struct{})
		g.edges[from] = set
	}
	set[to] = struct{}{}
}

// HasEdge reports whether from -> to is recorded.
func (g *Cfg) HasEdge(from, to uint64) bool {
	_, ok := g.edges[from][to]
	return ok
}

// Successors returns the destinations of edges leaving addr in ascending
// order.
func (g *Cfg) Successors(addr uint64) []uint64 {
	return slices.Sorted(maps.Keys(g.edges[addr]))
}

// Predecessors returns the sources of edges entering addr in ascending
// order.
func (g *Cfg) Predecessors(addr uint64) []uint64 {
	var out []uint64
	for from, set := range g.edges {
		if _, ok := set[addr]; ok {
			out = append(out, from)
		}
	}
	slices.Sort(out)
	return out
}

// Edges lists every edge ordered by source then destination.
func (g *Cfg) Edges() []Edge {
	var out []Edge
	for _, from := range slices.Sorted(maps.Keys(g.edges)) {
		for _, to := range g.Successors(from) {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// NumEdges counts distinct (source, destination) pairs.
func (g *Cfg) NumEdges() int {
	n := 0
	for _, set := range g.edges {
		n += len(set)
	}
	return n
}

// NumEdgeSources counts addresses that have an outgoing-edge entry.
func (g *Cfg) NumEdgeSources() int { return len(g.edges) }

// MarkReachable sets Visited on every vertex reachable from root and clears
// it everywhere else. It returns the number of vertices marked.
func (g *Cfg) MarkReachable(root uint64) int {
	g.verts.Scan(func(_ uint64, v *Vertex) bool {
		v.Visited = false
		return true
	})
	v, ok := g.verts.Get(root)
	if !ok {
		return 0
	}
	v.Visited = true
	n := 1
	stack := []uint64{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.edges[cur] {
			nv, ok := g.verts.Get(next)
			if !ok || nv.Visited {
				continue
			}
			nv.Visited = true
			n++
			stack = append(stack, next)
		}
	}
	return n
}

// Unreachable lists, in ascending order, the vertices that cannot be
// reached from the entry. A graph without an entry has none.
func (g *Cfg) Unreachable() []uint64 {
	if !g.hasEntry {
		return nil
	}
	if g.MarkReachable(g.entry) == g.Len() {
		return nil
	}
	var out []uint64
	g.verts.Scan(func(addr uint64, v *Vertex) bool {
		if !v.Visited {
			out = append(out, addr)
		}
		return true
	})
	return out
}
