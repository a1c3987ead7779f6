package cfg

import (
	"errors"
	"fmt"
)

// Validate checks that no vertex starts inside a block's instruction range
// and that every edge joins two live vertices. All violations are returned
// joined, each wrapping ErrInconsistent.
func (g *Cfg) Validate() error {
	var errs []error
	g.verts.Scan(func(addr uint64, v *Vertex) bool {
		b, ok := v.Block()
		if !ok {
			return true
		}
		if b.Len() == 0 {
			errs = append(errs, fmt.Errorf("%w: empty block at %#x", ErrInconsistent, addr))
			return true
		}
		for _, in := range b.Instrs[1:] {
			if in.VA == addr {
				continue
			}
			if _, clash := g.verts.Get(in.VA); clash {
				errs = append(errs, fmt.Errorf("%w: block %#x covers vertex %#x", ErrInconsistent, addr, in.VA))
			}
		}
		return true
	})
	for _, e := range g.Edges() {
		if _, ok := g.verts.Get(e.From); !ok {
			errs = append(errs, fmt.Errorf("%w: edge %#x->%#x from missing vertex", ErrInconsistent, e.From, e.To))
		}
		if _, ok := g.verts.Get(e.To); !ok {
			errs = append(errs, fmt.Errorf("%w: edge %#x->%#x to missing vertex", ErrInconsistent, e.From, e.To))
		}
	}
	return errors.Join(errs...)
}

// Stats summarizes a graph.
type Stats struct {
	Vertices     int `json:"vertices"`
	Blocks       int `json:"blocks"`
	Foreign      int `json:"foreign"`
	Instructions int `json:"instructions"`
	Edges        int `json:"edges"`
	EdgeSources  int `json:"edgeSources"`
	Loops        int `json:"loops"`
	Unreachable  int `json:"unreachable,omitempty"`
}

// Stats counts vertices, instructions, edges, loops and the vertices left
// unreachable from the entry.
func (g *Cfg) Stats() Stats {
	st := Stats{
		Vertices:    g.Len(),
		Edges:       g.NumEdges(),
		EdgeSources: g.NumEdgeSources(),
		Loops:       len(g.Loops()),
		Unreachable: len(g.Unreachable()),
	}
	g.verts.Scan(func(_ uint64, v *Vertex) bool {
		if b, ok := v.Block(); ok {
			st.Blocks++
			st.Instructions += b.Len()
		} else {
			st.Foreign++
		}
		return true
	})
	return st
}
