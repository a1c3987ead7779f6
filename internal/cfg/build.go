package cfg

import (
	"fmt"

	"tracecfg/internal/trace"
)

// Build constructs a graph from vertices in trace order. Each vertex is
// inserted under its address, every pair of trace-consecutive vertices gets
// an edge, and finally blocks that overlap a later vertex are split until
// no overlap remains.
func Build(segs []*Vertex, opts ...Option) (*Cfg, error) {
	g := New(opts...)
	var (
		prev     uint64
		havePrev bool
	)
	for _, v := range segs {
		addr, ok := v.Addr()
		if !ok {
			continue
		}
		v.Visited = true
		g.insert(addr, v)
		if !g.hasEntry {
			g.entry, g.hasEntry = addr, true
		}
		if havePrev {
			g.link(prev, addr)
		}
		prev, havePrev = addr, true
	}
	if err := g.ResolveOverlaps(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromStream segments stream and builds its graph.
func FromStream(stream trace.Stream, opts ...Option) (*Cfg, error) {
	return Build(Segment(stream), opts...)
}

// Overlaps returns, in ascending order, every vertex address that lies
// inside the block immediately preceding it.
func (g *Cfg) Overlaps() []uint64 {
	var (
		out  []uint64
		prev *Vertex
	)
	g.verts.Scan(func(addr uint64, v *Vertex) bool {
		if prev != nil {
			if b, ok := prev.Block(); ok && b.boundary(addr) > 0 {
				out = append(out, addr)
			}
		}
		prev = v
		return true
	})
	return out
}

// ResolveOverlaps splits blocks until no block covers the address of
// another vertex. A block that can only be split at a later address shows
// up again in the next round, so rounds repeat until none are found.
func (g *Cfg) ResolveOverlaps() error {
	for {
		targets := g.Overlaps()
		if len(targets) == 0 {
			return nil
		}
		for _, at := range targets {
			if owner, _, ok := g.below(at); ok {
				g.obs.OnOverlap(at, owner)
			}
			if _, err := g.Split(at); err != nil {
				return fmt.Errorf("%w: resolve overlap at %#x: %v", ErrInconsistent, at, err)
			}
		}
	}
}
