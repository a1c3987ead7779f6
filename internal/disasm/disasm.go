// Package disasm recovers instruction text and control-flow class from the
// raw encodings recorded in a trace.
package disasm

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// Arch selects the decoder.
type Arch string

const (
	ArchNone  Arch = ""
	ArchARM64 Arch = "arm64"
	ArchAMD64 Arch = "amd64"
	Arch386   Arch = "386"
)

var (
	ErrUnsupportedArch = errors.New("unsupported architecture")
	ErrShortEncoding   = errors.New("encoding too short")
)

// ParseArch maps user input to an Arch. Common aliases are accepted.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ArchNone, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	case "amd64", "x86-64", "x86_64", "x64":
		return ArchAMD64, nil
	case "386", "x86", "i386":
		return Arch386, nil
	}
	return ArchNone, fmt.Errorf("%w: %q", ErrUnsupportedArch, s)
}

// Inst is a simplified decoded instruction.
type Inst struct {
	Text   string // formatted disassembly string
	Op     string // mnemonic in lowercase
	Size   int    // encoded length in bytes
	Branch bool   // transfers control (jumps, calls, returns)
}

// ParseHex decodes a recorded hexdump. Whitespace and an optional 0x prefix
// per group are ignored.
func ParseHex(s string) ([]byte, error) {
	var b strings.Builder
	for _, field := range strings.Fields(s) {
		field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
		b.WriteString(field)
	}
	return hex.DecodeString(b.String())
}

// Decode decodes the first instruction in raw, located at pc.
func Decode(arch Arch, raw []byte, pc uint64) (Inst, error) {
	switch arch {
	case ArchARM64:
		return decodeARM64(raw)
	case ArchAMD64:
		return decodeX86(raw, 64, pc)
	case Arch386:
		return decodeX86(raw, 32, pc)
	}
	return Inst{}, fmt.Errorf("%w: %q", ErrUnsupportedArch, string(arch))
}

func decodeARM64(raw []byte) (Inst, error) {
	if len(raw) < 4 {
		return Inst{}, fmt.Errorf("%w: %d bytes", ErrShortEncoding, len(raw))
	}
	inst, err := arm64asm.Decode(raw[:4])
	if err != nil {
		return Inst{}, fmt.Errorf("decode arm64: %w", err)
	}
	return Inst{
		Text:   inst.String(),
		Op:     strings.ToLower(inst.Op.String()),
		Size:   4,
		Branch: isARM64Branch(inst.Op),
	}, nil
}

func isARM64Branch(op arm64asm.Op) bool {
	switch op {
	case arm64asm.B, arm64asm.BL, arm64asm.BR, arm64asm.BLR, arm64asm.RET,
		arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		return true
	}
	return false
}

func decodeX86(raw []byte, mode int, pc uint64) (Inst, error) {
	if len(raw) == 0 {
		return Inst{}, fmt.Errorf("%w: 0 bytes", ErrShortEncoding)
	}
	inst, err := x86asm.Decode(raw, mode)
	if err != nil {
		return Inst{}, fmt.Errorf("decode x86/%d: %w", mode, err)
	}
	op := strings.ToLower(inst.Op.String())
	return Inst{
		Text:   x86asm.IntelSyntax(inst, pc, nil),
		Op:     op,
		Size:   inst.Len,
		Branch: isX86Branch(op),
	}, nil
}

// x86 control transfers besides the j* family.
var x86Transfers = map[string]bool{
	"call": true, "lcall": true,
	"ret": true, "lret": true,
	"iret": true, "iretd": true, "iretq": true,
	"loop": true, "loope": true, "loopne": true,
	"syscall": true, "sysenter": true, "int": true,
}

func isX86Branch(op string) bool {
	return strings.HasPrefix(op, "j") || x86Transfers[op]
}
