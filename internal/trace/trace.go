// Package trace defines the instruction records produced by a dynamic tracer
// and decodes them from their JSON representation.
package trace

// Foreign describes a transfer of control out of the traced region.
type Foreign struct {
	Target uint64 // address control was transferred to
	Name   string // symbol name of the target, may be empty
}

// Addr reports the address the marker is keyed by.
func (f Foreign) Addr() (uint64, bool) {
	return f.Target, true
}

// Instr is one executed instruction.
type Instr struct {
	VA      uint64   // virtual address of instruction
	Hex     string   // hexdump of the encoding as recorded
	Text    string   // formatted disassembly string
	Branch  bool     // instruction transfers control
	Foreign *Foreign // set when the branch leaves the traced region
}

// Stream is the time-ordered sequence of executed instructions.
type Stream []Instr
