// Package render exports a finished graph. Nothing here mutates the graph.
package render

import (
	"fmt"
	"strings"

	"tracecfg/internal/cfg"
)

// dotEscape escapes a string for use in DOT HTML labels.
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// NodeID is the DOT identifier of the vertex at addr.
func NodeID(addr uint64) string {
	return fmt.Sprintf("v%016x", addr)
}

// vertexLines returns the label lines of v: its address followed by one
// line per instruction, or the marker name for a foreign vertex.
func vertexLines(addr uint64, v *cfg.Vertex) []string {
	lines := []string{fmt.Sprintf("%016x", addr)}
	if f, ok := v.Foreign(); ok {
		name := f.Name
		if name == "" {
			name = "<foreign>"
		}
		return append(lines, name)
	}
	b, _ := v.Block()
	for _, in := range b.Instrs {
		text := in.Text
		if text == "" {
			text = in.Hex
		}
		lines = append(lines, text)
	}
	return lines
}

// truncLines keeps the first and last lines of a long label when limit > 0.
func truncLines(lines []string, limit int) []string {
	if limit <= 0 || len(lines) <= limit {
		return lines
	}
	head := (limit + 1) / 2
	tail := limit - head
	out := make([]string, 0, limit+1)
	out = append(out, lines[:head]...)
	out = append(out, fmt.Sprintf("... (%d more)", len(lines)-limit))
	return append(out, lines[len(lines)-tail:]...)
}

// loopMembers marks every vertex that belongs to a loop.
func loopMembers(loops []cfg.Loop) map[uint64]bool {
	in := make(map[uint64]bool)
	for _, l := range loops {
		for _, m := range l.Members {
			in[m] = true
		}
	}
	return in
}
