package symbols

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"strings"
)

// Open loads the dynamic and static symbols of the ELF file at path. base
// is the load address of the image in the traced process and is added to
// every symbol value. PLT stubs are named "<import>@plt".
func Open(path string, base uint64) (*Table, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}
	defer f.Close()
	return FromFile(f, base), nil
}

// FromFile is Open for an already opened image.
func FromFile(f *elf.File, base uint64) *Table {
	t := &Table{}
	// .dynsym first; stripped binaries often have nothing else.
	if syms, err := f.DynamicSymbols(); err == nil {
		addSymbols(t, syms, base)
	}
	if syms, err := f.Symbols(); err == nil {
		addSymbols(t, syms, base)
	}
	for _, s := range pltSymbols(f) {
		s.Addr += base
		t.Add(s)
	}
	return t
}

func addSymbols(t *Table, syms []elf.Symbol, base uint64) {
	for _, s := range syms {
		// Undefined imports have no address of their own.
		if s.Value == 0 || s.Section == elf.SHN_UNDEF {
			continue
		}
		typ := elf.ST_TYPE(s.Info)
		if typ == elf.STT_SECTION || typ == elf.STT_FILE {
			continue
		}
		t.Add(Symbol{
			Name: s.Name,
			Addr: s.Value + base,
			Size: s.Size,
			Func: typ == elf.STT_FUNC || typ == elf.STT_GNU_IFUNC,
		})
	}
}

// PLT layout per machine: size of the reserved header and of each stub.
var pltLayout = map[elf.Machine]struct{ header, entry uint64 }{
	elf.EM_X86_64:  {16, 16},
	elf.EM_386:     {16, 16},
	elf.EM_AARCH64: {32, 16},
}

// pltSymbols names PLT stubs from the .rela.plt (or .rel.plt) relocations.
// Stub i is assumed to follow the standard lazy-binding layout.
func pltSymbols(f *elf.File) []Symbol {
	plt := f.Section(".plt")
	layout, ok := pltLayout[f.Machine]
	if plt == nil || !ok {
		return nil
	}
	dynsyms, err := f.DynamicSymbols()
	if err != nil {
		return nil
	}
	indices := pltRelocations(f)

	var out []Symbol
	for i, symIndex := range indices {
		// Relocation symbol indices count the null symbol DynamicSymbols omits.
		if symIndex == 0 || int(symIndex) > len(dynsyms) {
			continue
		}
		name := dynsyms[symIndex-1].Name
		if name == "" {
			continue
		}
		if at := strings.IndexByte(name, '@'); at > 0 {
			name = name[:at]
		}
		out = append(out, Symbol{
			Name: name + "@plt",
			Addr: plt.Addr + layout.header + uint64(i)*layout.entry,
			Size: layout.entry,
			Func: true,
		})
	}
	return out
}

// pltRelocations returns the dynamic symbol index of each PLT relocation
// in table order.
func pltRelocations(f *elf.File) []uint32 {
	if s := f.Section(".rela.plt"); s != nil {
		data, err := s.Data()
		if err != nil {
			return nil
		}
		if f.Class == elf.ELFCLASS64 {
			rels := make([]elf.Rela64, len(data)/24)
			if binary.Read(bytes.NewReader(data), f.ByteOrder, rels) != nil {
				return nil
			}
			out := make([]uint32, len(rels))
			for i, r := range rels {
				out[i] = elf.R_SYM64(r.Info)
			}
			return out
		}
		rels := make([]elf.Rela32, len(data)/12)
		if binary.Read(bytes.NewReader(data), f.ByteOrder, rels) != nil {
			return nil
		}
		out := make([]uint32, len(rels))
		for i, r := range rels {
			out[i] = elf.R_SYM32(r.Info)
		}
		return out
	}
	if s := f.Section(".rel.plt"); s != nil {
		data, err := s.Data()
		if err != nil {
			return nil
		}
		if f.Class == elf.ELFCLASS64 {
			rels := make([]elf.Rel64, len(data)/16)
			if binary.Read(bytes.NewReader(data), f.ByteOrder, rels) != nil {
				return nil
			}
			out := make([]uint32, len(rels))
			for i, r := range rels {
				out[i] = elf.R_SYM64(r.Info)
			}
			return out
		}
		rels := make([]elf.Rel32, len(data)/8)
		if binary.Read(bytes.NewReader(data), f.ByteOrder, rels) != nil {
			return nil
		}
		out := make([]uint32, len(rels))
		for i, r := range rels {
			out[i] = elf.R_SYM32(r.Info)
		}
		return out
	}
	return nil
}
