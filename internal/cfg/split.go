package cfg

import "fmt"

// SplitOutcome reports whether Split changed the graph.
type SplitOutcome uint8

const (
	SplitNoOp SplitOutcome = iota
	SplitDone
)

func (o SplitOutcome) String() string {
	if o == SplitDone {
		return "split"
	}
	return "no-op"
}

// Split makes addr a block boundary. The block covering addr keeps its
// address, its instructions before addr and all incoming edges. A new block
// starting at addr takes the rest, inherits every outgoing edge, and is
// reached from the first part by a fall-through edge.
//
// Split is a no-op when addr already starts a block that no earlier block
// covers, or when the covering block has no instruction exactly at addr.
// It fails with ErrVertexNotFound when no vertex lies at or below addr and
// with ErrUnsplittable when addr is owned by a foreign marker, including
// the marker's own address.
func (g *Cfg) Split(addr uint64) (SplitOutcome, error) {
	key, v, ok := g.Owner(addr)
	if !ok {
		return SplitNoOp, fmt.Errorf("%w: nothing at or below %#x", ErrVertexNotFound, addr)
	}
	if key == addr {
		// A block below that holds an instruction at addr still overlaps
		// the vertex keyed here.
		bk, bv, ok := g.below(addr)
		var b *Block
		if ok {
			b, ok = bv.Block()
		}
		switch {
		case ok && b.boundary(addr) > 0:
			key, v = bk, bv
		case v.Kind() == KindForeign:
			return SplitNoOp, fmt.Errorf("%w: %#x is a foreign marker", ErrUnsplittable, addr)
		default:
			return SplitNoOp, nil
		}
	}
	b, ok := v.Block()
	if !ok {
		return SplitNoOp, fmt.Errorf("%w: %#x is owned by %s", ErrUnsplittable, addr, v)
	}
	left, right, ok := b.SplitAt(addr)
	if !ok {
		return SplitNoOp, nil
	}

	lv := NewBlockVertex(left)
	lv.Visited = v.Visited
	g.verts.Set(key, lv)

	rv := NewBlockVertex(right)
	rv.Visited = v.Visited
	g.insert(addr, rv)

	out := g.edges[key]
	delete(g.edges, key)
	for to := range out {
		g.link(addr, to)
	}
	g.link(key, addr)

	g.obs.OnSplit(key, addr)
	return SplitDone, nil
}
