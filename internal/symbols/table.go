// Package symbols names foreign call targets from an ELF symbol table.
package symbols

import (
	"fmt"

	"github.com/tidwall/btree"
)

type Symbol struct {
	Name string
	Addr uint64 // runtime address, load base applied
	Size uint64 // 0 when unknown
	Func bool
}

// Table is an address-ordered symbol table.
type Table struct {
	syms btree.Map[uint64, Symbol]
}

// NewTable builds a table from syms. See Add for duplicate handling.
func NewTable(syms ...Symbol) *Table {
	t := &Table{}
	for _, s := range syms {
		t.Add(s)
	}
	return t
}

// Add inserts s. When two symbols share an address the first function
// symbol is kept; a data or untyped symbol never displaces one.
func (t *Table) Add(s Symbol) {
	if s.Name == "" {
		return
	}
	if old, ok := t.syms.Get(s.Addr); ok && (old.Func || !s.Func) {
		return
	}
	t.syms.Set(s.Addr, s)
}

func (t *Table) Len() int { return t.syms.Len() }

// Lookup returns the symbol covering addr and the offset into it. A symbol
// with a known size only covers [Addr, Addr+Size).
func (t *Table) Lookup(addr uint64) (Symbol, uint64, bool) {
	var (
		sym   Symbol
		found bool
	)
	t.syms.Descend(addr, func(_ uint64, s Symbol) bool {
		sym, found = s, true
		return false
	})
	if !found {
		return Symbol{}, 0, false
	}
	off := addr - sym.Addr
	if sym.Size > 0 && off >= sym.Size {
		return Symbol{}, 0, false
	}
	return sym, off, true
}

// Name formats addr as "sym" or "sym+0xoff". It returns "" when nothing
// covers addr.
func (t *Table) Name(addr uint64) string {
	sym, off, ok := t.Lookup(addr)
	if !ok {
		return ""
	}
	if off == 0 {
		return sym.Name
	}
	return fmt.Sprintf("%s+%#x", sym.Name, off)
}
