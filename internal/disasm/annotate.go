package disasm

import "tracecfg/internal/trace"

// Options controls Annotate.
type Options struct {
	Arch          Arch
	InferBranches bool // mark decoded control transfers as branches
}

// AnnotateStats counts what Annotate changed.
type AnnotateStats struct {
	Filled   int // empty text replaced by decoded text
	Inferred int // branch flag set from the decoded opcode
	Failed   int // records whose hexdump could not be decoded
}

// Annotate fills in missing disassembly text and, when requested, branch
// flags by decoding each record's hexdump. Recorded text and recorded
// branch flags are never overwritten or cleared.
func Annotate(stream trace.Stream, opts Options) AnnotateStats {
	var st AnnotateStats
	if opts.Arch == ArchNone {
		return st
	}
	for i := range stream {
		in := &stream[i]
		if in.Text != "" && (!opts.InferBranches || in.Branch) {
			continue
		}
		raw, err := ParseHex(in.Hex)
		if err != nil || len(raw) == 0 {
			st.Failed++
			continue
		}
		dec, err := Decode(opts.Arch, raw, in.VA)
		if err != nil {
			st.Failed++
			continue
		}
		if in.Text == "" {
			in.Text = dec.Text
			st.Filled++
		}
		if opts.InferBranches && dec.Branch && !in.Branch {
			in.Branch = true
			st.Inferred++
		}
	}
	return st
}
