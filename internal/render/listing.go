package render

import (
	"fmt"
	"io"
	"strings"

	"tracecfg/internal/cfg"
	"tracecfg/internal/tracecfg/styles"
	"tracecfg/internal/ui/colorize"
)

// Listing writes a text listing of g in address order: one header per
// vertex, its instructions, and the successor list. Headers are styled
// and instructions highlighted when c is enabled.
func Listing(w io.Writer, g *cfg.Cfg, c *colorize.Colorizer) error {
	if c == nil {
		c = colorize.New(false)
	}
	var b strings.Builder
	for addr, v := range g.Vertices() {
		writeVertex(&b, g, addr, v, c)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// VertexText is the listing of the single vertex at addr followed by its
// predecessors. It is empty when no vertex starts at addr.
func VertexText(g *cfg.Cfg, addr uint64, c *colorize.Colorizer) string {
	v, ok := g.Vertex(addr)
	if !ok {
		return ""
	}
	if c == nil {
		c = colorize.New(false)
	}
	var b strings.Builder
	writeVertex(&b, g, addr, v, c)
	if preds := g.Predecessors(addr); len(preds) > 0 {
		b.WriteString(styled(c, styles.Dim.Render, "  pred: "+joinAddrs(preds)))
		b.WriteByte('\n')
	}
	return b.String()
}

func writeVertex(b *strings.Builder, g *cfg.Cfg, addr uint64, v *cfg.Vertex, c *colorize.Colorizer) {
	header := fmt.Sprintf("%s %#x", v.Kind(), addr)
	if entry, ok := g.Entry(); ok && addr == entry {
		header += " (entry)"
	}
	b.WriteString(styled(c, styles.Header.Render, header))
	b.WriteByte('\n')

	if f, ok := v.Foreign(); ok {
		name := f.Name
		if name == "" {
			name = "<unnamed>"
		}
		fmt.Fprintf(b, "  -> %s\n", c.Accent(name))
	} else {
		blk, _ := v.Block()
		for _, in := range blk.Instrs {
			text := in.Text
			if text == "" {
				text = in.Hex
			}
			fmt.Fprintf(b, "  %s\n", c.Line(fmt.Sprintf("%x %s", in.VA, text)))
		}
	}

	if succs := g.Successors(addr); len(succs) > 0 {
		b.WriteString(styled(c, styles.Dim.Render, "  succ: "+joinAddrs(succs)))
		b.WriteByte('\n')
	}
}

func joinAddrs(addrs []uint64) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = fmt.Sprintf("%#x", a)
	}
	return strings.Join(parts, ", ")
}

func styled(c *colorize.Colorizer, render func(...string) string, s string) string {
	if !c.Enabled() {
		return s
	}
	return render(s)
}
