package disasm

import (
	"errors"
	"strings"
	"testing"

	"tracecfg/internal/trace"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"c3", []byte{0xc3}},
		{"e8 00 00 00 00", []byte{0xe8, 0, 0, 0, 0}},
		{"0x1f2003d5", []byte{0x1f, 0x20, 0x03, 0xd5}},
		{"  ", []byte{}},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", tt.in, err)
		}
		if string(got) != string(tt.want) {
			t.Errorf("ParseHex(%q) = %x, want %x", tt.in, got, tt.want)
		}
	}
	if _, err := ParseHex("zz"); err == nil {
		t.Error("ParseHex(zz) should fail")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		arch   Arch
		hex    string
		op     string
		branch bool
	}{
		{"x64 nop", ArchAMD64, "90", "nop", false},
		{"x64 ret", ArchAMD64, "c3", "ret", true},
		{"x64 call", ArchAMD64, "e8 00 00 00 00", "call", true},
		{"x64 jmp short", ArchAMD64, "eb fe", "jmp", true},
		{"x86 ret", Arch386, "c3", "ret", true},
		{"arm64 nop", ArchARM64, "1f2003d5", "nop", false},
		{"arm64 ret", ArchARM64, "c0035fd6", "ret", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ParseHex(tt.hex)
			if err != nil {
				t.Fatal(err)
			}
			inst, err := Decode(tt.arch, raw, 0x1000)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if inst.Op != tt.op {
				t.Errorf("op = %q, want %q", inst.Op, tt.op)
			}
			if inst.Branch != tt.branch {
				t.Errorf("branch = %v, want %v", inst.Branch, tt.branch)
			}
			if !strings.Contains(strings.ToLower(inst.Text), tt.op) {
				t.Errorf("text %q does not mention %q", inst.Text, tt.op)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode(ArchARM64, []byte{1, 2}, 0); !errors.Is(err, ErrShortEncoding) {
		t.Errorf("short arm64: err = %v", err)
	}
	if _, err := Decode(ArchNone, []byte{0x90}, 0); !errors.Is(err, ErrUnsupportedArch) {
		t.Errorf("no arch: err = %v", err)
	}
	if _, err := ParseArch("mips"); !errors.Is(err, ErrUnsupportedArch) {
		t.Errorf("ParseArch(mips): err = %v", err)
	}
	if a, err := ParseArch("x86_64"); err != nil || a != ArchAMD64 {
		t.Errorf("ParseArch(x86_64) = %q, %v", a, err)
	}
}

func TestAnnotate(t *testing.T) {
	stream := trace.Stream{
		{VA: 0x10, Hex: "90"},
		{VA: 0x11, Hex: "c3"},
		{VA: 0x12, Hex: "c3", Text: "ret ; recorded"},
		{VA: 0x13, Hex: "not hex"},
	}
	st := Annotate(stream, Options{Arch: ArchAMD64, InferBranches: true})

	if st.Filled != 2 || st.Inferred != 2 || st.Failed != 1 {
		t.Errorf("stats = %+v, want {Filled:2 Inferred:2 Failed:1}", st)
	}
	if stream[0].Text == "" || stream[0].Branch {
		t.Errorf("nop = %+v", stream[0])
	}
	if !stream[1].Branch {
		t.Error("ret should be inferred as a branch")
	}
	if stream[2].Text != "ret ; recorded" {
		t.Errorf("recorded text overwritten: %q", stream[2].Text)
	}
	if !stream[2].Branch {
		t.Error("recorded ret should be inferred as a branch")
	}
}

func TestAnnotateWithoutArch(t *testing.T) {
	stream := trace.Stream{{VA: 1, Hex: "c3"}}
	if st := Annotate(stream, Options{}); st != (AnnotateStats{}) {
		t.Errorf("stats = %+v, want zero", st)
	}
	if stream[0].Text != "" {
		t.Error("text must stay empty without an architecture")
	}
}
