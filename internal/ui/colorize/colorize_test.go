package colorize

import (
	"strings"
	"testing"
)

func TestDisabled(t *testing.T) {
	c := New(false)
	line := "401000 mov eax, 1"
	if got := c.Line(line); got != line {
		t.Errorf("Line = %q", got)
	}
	if got := c.Accent("puts"); got != "puts" {
		t.Errorf("Accent = %q", got)
	}
}

func TestEnvDisables(t *testing.T) {
	t.Setenv(EnvNoColor, "1")
	if New(true).Enabled() {
		t.Error("TRACECFG_NO_COLOR should disable highlighting")
	}
}

func TestLineKeepsText(t *testing.T) {
	t.Setenv(EnvNoColor, "")
	c := New(true)
	if !c.Enabled() {
		t.Skip("no assembly lexer available")
	}
	got := Strip(c.Line("401000 mov eax, 1"))
	for _, want := range []string{"401000", "mov", "eax"} {
		if !strings.Contains(got, want) {
			t.Errorf("stripped line %q lost %q", got, want)
		}
	}
}

func TestStrip(t *testing.T) {
	if got := Strip("\x1b[38;2;79;79;79m10\x1b[0m ret"); got != "10 ret" {
		t.Errorf("Strip = %q", got)
	}
}

func TestIsHex(t *testing.T) {
	for s, want := range map[string]bool{"401000": true, "DEADbeef": true, "": false, "mov": false} {
		if isHex(s) != want {
			t.Errorf("isHex(%q) = %v", s, !want)
		}
	}
}
