package cfg

import "strings"

// Duplicates maps every vertex that is structurally identical to a vertex
// at a lower address onto that lowest address. Blocks are identical when
// their instruction encodings and texts match one by one; foreign markers
// when they name the same symbol. Unnamed markers and blocks without any
// recorded content are never considered duplicates.
//
// The result can be passed to Merge.
func (g *Cfg) Duplicates() map[uint64]uint64 {
	canon := make(map[string]uint64)
	out := make(map[uint64]uint64)
	g.verts.Scan(func(addr uint64, v *Vertex) bool {
		key, ok := fingerprint(v)
		if !ok {
			return true
		}
		if first, seen := canon[key]; seen {
			out[addr] = first
		} else {
			canon[key] = addr
		}
		return true
	})
	return out
}

func fingerprint(v *Vertex) (string, bool) {
	if f, ok := v.Foreign(); ok {
		if f.Name == "" {
			return "", false
		}
		return "f\x00" + f.Name, true
	}
	b, _ := v.Block()
	var sb strings.Builder
	sb.WriteString("b")
	content := false
	for _, in := range b.Instrs {
		if in.Hex != "" || in.Text != "" {
			content = true
		}
		sb.WriteByte(0)
		sb.WriteString(in.Hex)
		sb.WriteByte(1)
		sb.WriteString(in.Text)
	}
	return sb.String(), content
}
