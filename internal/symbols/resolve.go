package symbols

import (
	"strings"

	"tracecfg/internal/trace"
)

// ResolveStats counts what Resolve changed.
type ResolveStats struct {
	Named      int // empty marker names filled from the table
	Demangled  int // names rewritten to their demangled form
	Unresolved int // markers left without a name
}

// Resolve names the foreign markers of stream in place. Empty names are
// looked up in tab when it is non-nil. Every name is then demangled when dm
// is non-nil; a "+0x.." suffix from the lookup is preserved.
func Resolve(stream trace.Stream, tab *Table, dm *Demangler) ResolveStats {
	var st ResolveStats
	for i := range stream {
		f := stream[i].Foreign
		if f == nil {
			continue
		}
		if f.Name == "" && tab != nil {
			if name := tab.Name(f.Target); name != "" {
				f.Name = name
				st.Named++
			}
		}
		if f.Name == "" {
			st.Unresolved++
			continue
		}
		if dm == nil {
			continue
		}
		base, suffix := f.Name, ""
		if plus := strings.LastIndex(base, "+0x"); plus > 0 {
			base, suffix = base[:plus], base[plus:]
		}
		if d := dm.Demangle(base); d != base {
			f.Name = d + suffix
			st.Demangled++
		}
	}
	return st
}
