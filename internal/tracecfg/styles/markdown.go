// Package styles holds the terminal look of tracecfg: glamour styles for
// reports and lipgloss styles for listings and the browser.
package styles

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/x/exp/charmtone"
)

func boolPtr(b bool) *bool       { return &b }
func stringPtr(s string) *string { return &s }
func uintPtr(u uint) *uint       { return &u }

// Report style names accepted by MarkdownStyle.
const (
	StyleCharm  = "charm"
	StyleVSCode = "vscode"
	StylePlain  = "plain"
)

// palette is the handful of colors a report needs.
type palette struct {
	text, heading, code, link, rule, quote string
}

var (
	charmPalette = palette{
		text:    charmtone.Smoke.Hex(),
		heading: charmtone.Malibu.Hex(),
		code:    charmtone.Zest.Hex(),
		link:    charmtone.Guac.Hex(),
		rule:    charmtone.Charcoal.Hex(),
		quote:   charmtone.Squid.Hex(),
	}
	vscodePalette = palette{
		text:    "#D4D4D4",
		heading: "#569CD6",
		code:    "#EACD53",
		link:    "#4FC1FF",
		rule:    "#858585",
		quote:   "#6A9955",
	}
)

// MarkdownStyle returns the glamour style called name.
func MarkdownStyle(name string) (ansi.StyleConfig, error) {
	switch name {
	case "", StyleCharm:
		return styleFrom(charmPalette), nil
	case StyleVSCode:
		return styleFrom(vscodePalette), nil
	case StylePlain:
		return ansi.StyleConfig{
			Document: ansi.StyleBlock{Margin: uintPtr(0)},
			H1:       ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "# "}},
			H2:       ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "## "}},
			H3:       ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{Prefix: "### "}},
			Item:     ansi.StylePrimitive{BlockPrefix: "- "},
			CodeBlock: ansi.StyleCodeBlock{
				StyleBlock: ansi.StyleBlock{Margin: uintPtr(2)},
			},
		}, nil
	}
	return ansi.StyleConfig{}, fmt.Errorf("unknown report style %q", name)
}

func styleFrom(p palette) ansi.StyleConfig {
	heading := func(prefix string) ansi.StyleBlock {
		return ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
			Prefix: prefix,
			Color:  stringPtr(p.heading),
			Bold:   boolPtr(true),
		}}
	}
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: stringPtr(p.text)},
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: stringPtr(p.quote), Italic: boolPtr(true)},
			Indent:         uintPtr(1),
			IndentToken:    stringPtr("│ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				BlockSuffix: "\n",
				Color:       stringPtr(p.heading),
				Bold:        boolPtr(true),
			},
		},
		H1: ansi.StyleBlock{StylePrimitive: ansi.StylePrimitive{
			Prefix:          " ",
			Suffix:          " ",
			Color:           stringPtr(charmtone.Zest.Hex()),
			BackgroundColor: stringPtr(charmtone.Charple.Hex()),
			Bold:            boolPtr(true),
		}},
		H2:     heading("## "),
		H3:     heading("### "),
		H4:     heading("#### "),
		Emph:   ansi.StylePrimitive{Italic: boolPtr(true)},
		Strong: ansi.StylePrimitive{Bold: boolPtr(true)},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr(p.rule),
			Format: "\n────────────────────────\n",
		},
		Item:        ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: ansi.StylePrimitive{BlockPrefix: ". "},
		Link:        ansi.StylePrimitive{Color: stringPtr(p.link), Underline: boolPtr(true)},
		LinkText:    ansi.StylePrimitive{Color: stringPtr(p.link), Bold: boolPtr(true)},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: stringPtr(p.code)},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: stringPtr(p.text)},
				Margin:         uintPtr(2),
			},
		},
		Table: ansi.StyleTable{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{Color: stringPtr(p.text)},
			},
		},
	}
}

// RenderMarkdown renders md for a terminal of the given width.
func RenderMarkdown(md string, width int, style string) (string, error) {
	cfg, err := MarkdownStyle(style)
	if err != nil {
		return "", err
	}
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(cfg),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return r.Render(md)
}
