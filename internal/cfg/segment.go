package cfg

import (
	"slices"

	"tracecfg/internal/trace"
)

// Segment groups a stream into basic blocks in trace order. A block closes
// right after a branch, or after an instruction that leaves the traced
// region; in the latter case the foreign marker follows the block as a
// vertex of its own. A trailing run without a closing branch is still
// emitted.
func Segment(stream trace.Stream) []*Vertex {
	var out []*Vertex
	start := 0
	for i, in := range stream {
		if !in.Branch && in.Foreign == nil {
			continue
		}
		out = append(out, NewBlockVertex(&Block{Instrs: slices.Clone(stream[start : i+1])}))
		if in.Foreign != nil {
			out = append(out, NewForeignVertex(*in.Foreign))
		}
		start = i + 1
	}
	if start < len(stream) {
		out = append(out, NewBlockVertex(&Block{Instrs: slices.Clone(stream[start:])}))
	}
	return out
}
