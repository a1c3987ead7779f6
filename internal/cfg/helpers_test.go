package cfg

import (
	"tracecfg/internal/trace"
)

// seq returns n instructions at addresses 0..n-1 with the given branches.
func seq(n int, branches ...uint64) trace.Stream {
	isBranch := make(map[uint64]bool, len(branches))
	for _, b := range branches {
		isBranch[b] = true
	}
	out := make(trace.Stream, n)
	for i := range out {
		va := uint64(i)
		out[i] = trace.Instr{VA: va, Branch: isBranch[va]}
	}
	return out
}

// straight builds a stream from explicit addresses. The last one is a branch.
func straight(addrs ...uint64) trace.Stream {
	out := make(trace.Stream, len(addrs))
	for i, a := range addrs {
		out[i] = trace.Instr{VA: a}
	}
	if len(out) > 0 {
		out[len(out)-1].Branch = true
	}
	return out
}

// blockOf wraps addrs as a block vertex.
func blockOf(addrs ...uint64) *Vertex {
	return NewBlockVertex(&Block{Instrs: straight(addrs...)})
}

func edges(pairs ...uint64) []Edge {
	out := make([]Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Edge{From: pairs[i], To: pairs[i+1]})
	}
	return out
}

type recorder struct {
	NopObserver
	collisions []uint64
	overlaps   []uint64
	splits     []uint64
	merges     [][2]uint64
	mismatches map[uint64][]uint64
}

func (r *recorder) OnCollision(addr uint64, _, _ *Vertex) {
	r.collisions = append(r.collisions, addr)
}

func (r *recorder) OnOverlap(addr, _ uint64) { r.overlaps = append(r.overlaps, addr) }

func (r *recorder) OnSplit(_, addr uint64) { r.splits = append(r.splits, addr) }

func (r *recorder) OnMerge(old, target uint64) {
	r.merges = append(r.merges, [2]uint64{old, target})
}

func (r *recorder) OnMergeMismatch(_, target uint64, discarded []uint64) {
	if r.mismatches == nil {
		r.mismatches = make(map[uint64][]uint64)
	}
	r.mismatches[target] = discarded
}
