package render

import (
	"encoding/json"
	"fmt"
	"io"

	"tracecfg/internal/cfg"
)

// Document is the JSON export of a graph.
type Document struct {
	Entry    string         `json:"entry,omitempty"`
	Vertices []VertexDoc    `json:"vertices"`
	Edges    [][2]string    `json:"edges"`
	Loops    []LoopDoc      `json:"loops,omitempty"`
	Stats    cfg.Stats      `json:"stats"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// VertexDoc is one vertex with its instructions or marker and its successors.
type VertexDoc struct {
	Address      string      `json:"address"`
	Kind         string      `json:"kind"`
	Instructions []InstrDoc  `json:"instructions,omitempty"`
	Foreign      *ForeignDoc `json:"foreign,omitempty"`
	Successors   []string    `json:"successors,omitempty"`
}

// InstrDoc is one traced instruction, keyed like the input record.
type InstrDoc struct {
	Address string `json:"address"`
	HexDump string `json:"hexDump,omitempty"`
	Text    string `json:"text,omitempty"`
	Branch  bool   `json:"isBranch,omitempty"`
}

// ForeignDoc describes the call target of a foreign marker.
type ForeignDoc struct {
	Target string `json:"target"`
	Name   string `json:"name,omitempty"`
}

// LoopDoc is a loop by its head and member addresses.
type LoopDoc struct {
	Head    string   `json:"head"`
	Members []string `json:"members"`
}

func hexAddr(a uint64) string { return fmt.Sprintf("%#x", a) }

// NewDocument snapshots g.
func NewDocument(g *cfg.Cfg) Document {
	doc := Document{
		Vertices: []VertexDoc{},
		Edges:    [][2]string{},
		Stats:    g.Stats(),
	}
	if e, ok := g.Entry(); ok {
		doc.Entry = hexAddr(e)
	}
	for addr, v := range g.Vertices() {
		vd := VertexDoc{Address: hexAddr(addr), Kind: v.Kind().String()}
		if f, ok := v.Foreign(); ok {
			vd.Foreign = &ForeignDoc{Target: hexAddr(f.Target), Name: f.Name}
		} else {
			b, _ := v.Block()
			for _, in := range b.Instrs {
				vd.Instructions = append(vd.Instructions, InstrDoc{
					Address: hexAddr(in.VA),
					HexDump: in.Hex,
					Text:    in.Text,
					Branch:  in.Branch,
				})
			}
		}
		for _, s := range g.Successors(addr) {
			vd.Successors = append(vd.Successors, hexAddr(s))
		}
		doc.Vertices = append(doc.Vertices, vd)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, [2]string{hexAddr(e.From), hexAddr(e.To)})
	}
	for _, l := range g.Loops() {
		ld := LoopDoc{Head: hexAddr(l.Head)}
		for _, m := range l.Members {
			ld.Members = append(ld.Members, hexAddr(m))
		}
		doc.Loops = append(doc.Loops, ld)
	}
	return doc
}

// JSON writes the indented Document of g.
func JSON(w io.Writer, g *cfg.Cfg, meta map[string]any) error {
	doc := NewDocument(g)
	doc.Meta = meta
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
