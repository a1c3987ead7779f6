// Package browse is an interactive terminal browser over a finished graph.
package browse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"

	"tracecfg/internal/cfg"
	"tracecfg/internal/render"
	"tracecfg/internal/tracecfg/styles"
	"tracecfg/internal/ui/colorize"
)

type viewMode int

const (
	viewVertices viewMode = iota
	viewBlock
	viewReport
)

func (v viewMode) next() viewMode { return (v + 1) % 3 }
func (v viewMode) prev() viewMode { return (v + 2) % 3 }

type vertexItem struct {
	addr    uint64
	kind    cfg.Kind
	summary string
	filter  string
}

func (i vertexItem) FilterValue() string { return i.filter }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(vertexItem)
	if !ok {
		return
	}
	indicator := " "
	addrStyle := styles.Dim
	if index == m.Index() {
		indicator = ">"
		addrStyle = styles.Selected
	}
	summary := i.summary
	if i.kind == cfg.KindForeign {
		summary = styles.Foreign.Render(summary)
	}
	fmt.Fprintf(w, " %s  %s  %s", indicator, addrStyle.Render(fmt.Sprintf("%016x", i.addr)), summary)
}

// Options configures a browser.
type Options struct {
	Title       string
	Color       *colorize.Colorizer
	Report      string // markdown shown in the report view
	ReportStyle string
}

// Model is the bubbletea model of the browser.
type Model struct {
	g        *cfg.Cfg
	opts     Options
	vertices list.Model
	block    viewport.Model
	report   viewport.Model
	mode     viewMode
	selected uint64
	hasSel   bool
	width    int
	height   int
}

// New returns a browser over g. g must not be mutated while browsing.
func New(g *cfg.Cfg, opts Options) Model {
	if opts.Color == nil {
		opts.Color = colorize.New(false)
	}
	if opts.Title == "" {
		opts.Title = "trace"
	}

	items := make([]list.Item, 0, g.Len())
	for addr, v := range g.Vertices() {
		items = append(items, newItem(addr, v))
	}
	l := list.New(items, itemDelegate{}, 80, 22)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)
	l.Title = fmt.Sprintf("%s: %d vertices, %d edges", opts.Title, g.Len(), g.NumEdges())
	l.Styles.Title = styles.Title.MarginLeft(2)

	block := viewport.New()
	block.SetWidth(80)
	block.SetHeight(22)
	rep := viewport.New()
	rep.SetWidth(80)
	rep.SetHeight(22)

	m := Model{
		g:        g,
		opts:     opts,
		vertices: l,
		block:    block,
		report:   rep,
		width:    80,
		height:   24,
	}
	if entry, ok := g.Entry(); ok {
		m.show(entry)
	}
	m.updateReport()
	return m
}

func newItem(addr uint64, v *cfg.Vertex) vertexItem {
	var summary string
	if f, ok := v.Foreign(); ok {
		name := f.Name
		if name == "" {
			name = "<foreign>"
		}
		summary = "-> " + name
	} else {
		b, _ := v.Block()
		first := ""
		if b.Len() > 0 {
			first = b.Instrs[0].Text
		}
		summary = fmt.Sprintf("%-3d %s", b.Len(), first)
	}
	return vertexItem{
		addr:    addr,
		kind:    v.Kind(),
		summary: summary,
		filter:  fmt.Sprintf("%x %s", addr, summary),
	}
}

// show loads the vertex at addr into the block view.
func (m *Model) show(addr uint64) bool {
	text := render.VertexText(m.g, addr, m.opts.Color)
	if text == "" {
		return false
	}
	m.selected, m.hasSel = addr, true
	m.block.SetContent(strings.TrimSuffix(text, "\n"))
	m.block.GotoTop()
	return true
}

func (m *Model) updateReport() {
	if m.opts.Report == "" {
		m.report.SetContent("no report")
		return
	}
	out, err := styles.RenderMarkdown(m.opts.Report, max(m.width-2, 20), m.opts.ReportStyle)
	if err != nil {
		out = m.opts.Report
	}
	m.report.SetContent(strings.TrimSuffix(out, "\n"))
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		key := msg.String()
		if m.mode == viewVertices && m.vertices.FilterState() == list.Filtering {
			if key == "ctrl+c" {
				return m, tea.Quit
			}
		} else if next, quit, handled := m.handleKey(key); handled {
			if quit {
				return next, tea.Quit
			}
			return next, nil
		}
	}

	switch m.mode {
	case viewVertices:
		m.vertices, cmd = m.vertices.Update(msg)
	case viewBlock:
		m.block, cmd = m.block.Update(msg)
	default:
		m.report, cmd = m.report.Update(msg)
	}
	return m, cmd
}

func (m *Model) resize(w, h int) {
	if w == m.width && h == m.height {
		return
	}
	m.width, m.height = w, h
	m.vertices.SetWidth(w)
	m.vertices.SetHeight(h - 2)
	m.block.SetWidth(w)
	m.block.SetHeight(h - 2)
	m.report.SetWidth(w)
	m.report.SetHeight(h - 2)
	m.updateReport()
}

// handleKey applies the browser's own key bindings outside of list
// filtering. Unhandled keys fall through to the active view.
func (m Model) handleKey(key string) (next Model, quit, handled bool) {
	switch key {
	case "q", "ctrl+c":
		return m, true, true
	case "enter":
		if m.mode != viewVertices {
			return m, false, false
		}
		if it, ok := m.vertices.SelectedItem().(vertexItem); ok && m.show(it.addr) {
			m.mode = viewBlock
		}
		return m, false, true
	case "esc":
		if m.mode == viewBlock {
			m.mode = viewVertices
			return m, false, true
		}
	case "v":
		m.mode = viewVertices
		return m, false, true
	case "b":
		if m.hasSel {
			m.mode = viewBlock
		}
		return m, false, true
	case "r":
		m.mode = viewReport
		return m, false, true
	case "tab":
		m.mode = m.mode.next()
		if m.mode == viewBlock && !m.hasSel {
			m.mode = m.mode.next()
		}
		return m, false, true
	case "shift+tab":
		m.mode = m.mode.prev()
		if m.mode == viewBlock && !m.hasSel {
			m.mode = m.mode.prev()
		}
		return m, false, true
	}
	return m, false, false
}

func (m Model) View() string {
	var content, menu string
	switch m.mode {
	case viewBlock:
		content = m.block.View()
		menu = fmt.Sprintf(" %#x • Esc: back • R: report • Tab: cycle • Q: quit ", m.selected)
	case viewReport:
		content = m.report.View()
		menu = " V: vertices • B: block • Tab: cycle • Q: quit "
	default:
		content = m.vertices.View()
		menu = " Enter: show block • /: filter • R: report • Tab: cycle • Q: quit "
	}
	return content + "\n" + styles.StatusBar.Width(m.width).Render(menu)
}

// Run browses g until the user quits or ctx is done.
func Run(ctx context.Context, g *cfg.Cfg, opts Options) error {
	program := tea.NewProgram(
		New(g, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
