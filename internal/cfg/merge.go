package cfg

import (
	"fmt"
	"maps"
	"slices"
)

// MergePolicy decides what happens to a merge target's own outgoing edges.
type MergePolicy uint8

const (
	// MergeReplace installs the merged vertex's outgoing edges in place of
	// the target's. Dropped target successors are reported to the observer.
	MergeReplace MergePolicy = iota
	// MergeUnion keeps the target's outgoing edges and adds the merged ones.
	MergeUnion
)

func (p MergePolicy) String() string {
	if p == MergeUnion {
		return "union"
	}
	return "replace"
}

// ParseMergePolicy accepts "replace" or "union".
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "replace":
		return MergeReplace, nil
	case "union":
		return MergeUnion, nil
	}
	return MergeReplace, fmt.Errorf("unknown merge policy %q", s)
}

// Merge folds each old address of mapping into its target. The old vertex
// disappears, its outgoing edges move to the target according to the merge
// policy, and every edge that pointed at old points at the target instead.
//
// Chained pairs resolve to their final target, so {a: b, b: c} folds both a
// and b into c. Identity pairs are ignored. The whole mapping is checked
// before the graph is touched: cycles fail with ErrMergeCycle, unknown old
// addresses with ErrVertexNotFound and unknown targets with ErrMergeTarget.
func (g *Cfg) Merge(mapping map[uint64]uint64) error {
	resolved, err := resolveMapping(mapping)
	if err != nil {
		return err
	}
	olds := slices.Sorted(maps.Keys(resolved))
	for _, old := range olds {
		if _, ok := g.verts.Get(old); !ok {
			return fmt.Errorf("%w: merge source %#x", ErrVertexNotFound, old)
		}
		if _, ok := g.verts.Get(resolved[old]); !ok {
			return fmt.Errorf("%w: %#x (for %#x)", ErrMergeTarget, resolved[old], old)
		}
	}

	for _, old := range olds {
		target := resolved[old]
		g.verts.Delete(old)
		if out, ok := g.edges[old]; ok {
			delete(g.edges, old)
			g.moveOutgoing(old, target, out)
		}
		g.obs.OnMerge(old, target)
	}
	for _, set := range g.edges {
		for _, old := range olds {
			if _, ok := set[old]; ok {
				delete(set, old)
				set[resolved[old]] = struct{}{}
			}
		}
	}
	if target, ok := resolved[g.entry]; ok && g.hasEntry {
		g.entry = target
	}
	return nil
}

func (g *Cfg) moveOutgoing(old, target uint64, out map[uint64]struct{}) {
	existing, had := g.edges[target]
	if g.policy == MergeUnion && had {
		for to := range out {
			existing[to] = struct{}{}
		}
		return
	}
	if had {
		var discarded []uint64
		for to := range existing {
			if _, ok := out[to]; !ok {
				discarded = append(discarded, to)
			}
		}
		if len(discarded) > 0 {
			slices.Sort(discarded)
			g.obs.OnMergeMismatch(old, target, discarded)
		}
	}
	g.edges[target] = out
}

// resolveMapping follows chains to their final target and drops identity
// pairs.
func resolveMapping(mapping map[uint64]uint64) (map[uint64]uint64, error) {
	out := make(map[uint64]uint64, len(mapping))
	for old := range mapping {
		seen := map[uint64]bool{old: true}
		cur := old
		for {
			next, ok := mapping[cur]
			if !ok || next == cur {
				break
			}
			if seen[next] {
				return nil, fmt.Errorf("%w: through %#x", ErrMergeCycle, next)
			}
			seen[next] = true
			cur = next
		}
		if cur != old {
			out[old] = cur
		}
	}
	return out, nil
}
