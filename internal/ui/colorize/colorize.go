// Package colorize highlights disassembly for terminal output.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// EnvNoColor disables highlighting when set to any value.
const EnvNoColor = "TRACECFG_NO_COLOR"

// Colorizer highlights instruction text with chroma. A disabled Colorizer
// returns its input unchanged.
type Colorizer struct {
	enabled   bool
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

// New returns a Colorizer. It is disabled when enabled is false, when
// TRACECFG_NO_COLOR is set, or when no assembly lexer is available.
func New(enabled bool) *Colorizer {
	c := &Colorizer{
		enabled:   enabled && os.Getenv(EnvNoColor) == "",
		lexer:     assemblyLexer(),
		style:     disasmStyle(),
		formatter: terminalFormatter(),
	}
	if c.lexer == nil {
		c.enabled = false
	}
	return c
}

func (c *Colorizer) Enabled() bool { return c.enabled }

// assemblyLexer picks the first available assembly lexer. nasm copes best
// with the mixed Intel and ARM text found in traces.
func assemblyLexer() chroma.Lexer {
	for _, name := range []string{"nasm", "armasm", "gas"} {
		if l := lexers.Get(name); l != nil {
			return chroma.Coalesce(l)
		}
	}
	return nil
}

func disasmStyle() *chroma.Style {
	for _, name := range []string{"disasm-dark", "dracula", "monokai"} {
		if s := styles.Get(name); s != nil {
			return s
		}
	}
	return styles.Fallback
}

func terminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if f := formatters.Get(name); f != nil {
			return f
		}
	}
	return formatters.Fallback
}

// Code highlights a multi-line snippet.
func (c *Colorizer) Code(code string) string {
	if !c.enabled {
		return code
	}
	it, err := c.lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := c.formatter.Format(&buf, c.style, it); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Line highlights "ADDR text" with the address in gray and the text
// through chroma. Lines that do not start with a hex address are
// highlighted as a whole.
func (c *Colorizer) Line(line string) string {
	if !c.enabled {
		return line
	}
	addr, rest, ok := strings.Cut(line, " ")
	if !ok || !isHex(strings.TrimPrefix(addr, "0x")) {
		return c.Code(line)
	}
	return fmt.Sprintf("\033[38;2;79;79;79m%s\033[0m %s", addr, c.Code(rest))
}

// Accent renders s in the marker color used for foreign calls.
func (c *Colorizer) Accent(s string) string {
	if !c.enabled {
		return s
	}
	return fmt.Sprintf("\033[38;2;235;194;237m%s\033[0m", s)
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !((ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')) {
			return false
		}
	}
	return true
}

// Strip removes ANSI escape sequences.
func Strip(s string) string {
	var out strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}
