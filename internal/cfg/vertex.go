package cfg

import (
	"fmt"

	"tracecfg/internal/trace"
)

// Addressable is anything that may have a starting address.
type Addressable interface {
	Addr() (uint64, bool)
}

// Block is a run of executed instructions where only the last one may be a
// branch.
type Block struct {
	Instrs []trace.Instr
}

// Addr returns the address of the first instruction.
func (b *Block) Addr() (uint64, bool) {
	if len(b.Instrs) == 0 {
		return 0, false
	}
	return b.Instrs[0].VA, true
}

// Last returns the address of the final instruction.
func (b *Block) Last() (uint64, bool) {
	if len(b.Instrs) == 0 {
		return 0, false
	}
	return b.Instrs[len(b.Instrs)-1].VA, true
}

// Len is the number of instructions.
func (b *Block) Len() int { return len(b.Instrs) }

// Contains reports whether some instruction of b sits at addr.
func (b *Block) Contains(addr uint64) bool {
	for _, in := range b.Instrs {
		if in.VA == addr {
			return true
		}
	}
	return false
}

// boundary returns the index of the first non-leading instruction at addr,
// or -1.
func (b *Block) boundary(addr uint64) int {
	for i := 1; i < len(b.Instrs); i++ {
		if b.Instrs[i].VA == addr {
			return i
		}
	}
	return -1
}

// SplitAt partitions b in front of the instruction at addr. ok is false when
// no instruction other than the first is located at addr, in which case b
// is left as is.
func (b *Block) SplitAt(addr uint64) (left, right *Block, ok bool) {
	i := b.boundary(addr)
	if i < 0 {
		return nil, nil, false
	}
	return &Block{Instrs: b.Instrs[:i:i]}, &Block{Instrs: b.Instrs[i:]}, true
}

// Kind tells the two vertex variants apart.
type Kind uint8

const (
	KindBlock Kind = iota + 1
	KindForeign
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindForeign:
		return "foreign"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Vertex holds either a Block or a foreign marker.
type Vertex struct {
	kind    Kind
	block   *Block
	foreign trace.Foreign

	// Visited is scratch state for traversals such as MarkReachable.
	Visited bool
}

// NewBlockVertex wraps b.
func NewBlockVertex(b *Block) *Vertex {
	return &Vertex{kind: KindBlock, block: b}
}

// NewForeignVertex wraps a foreign marker.
func NewForeignVertex(f trace.Foreign) *Vertex {
	return &Vertex{kind: KindForeign, foreign: f}
}

func (v *Vertex) Kind() Kind { return v.kind }

// Block returns the wrapped block, if v is one.
func (v *Vertex) Block() (*Block, bool) {
	if v.kind != KindBlock {
		return nil, false
	}
	return v.block, true
}

// Foreign returns the wrapped marker, if v is one.
func (v *Vertex) Foreign() (trace.Foreign, bool) {
	if v.kind != KindForeign {
		return trace.Foreign{}, false
	}
	return v.foreign, true
}

// Addr is the first-instruction address of a block or the target of a
// foreign marker.
func (v *Vertex) Addr() (uint64, bool) {
	switch v.kind {
	case KindBlock:
		return v.block.Addr()
	case KindForeign:
		return v.foreign.Addr()
	}
	return 0, false
}

func (v *Vertex) String() string {
	switch v.kind {
	case KindBlock:
		first, _ := v.block.Addr()
		last, _ := v.block.Last()
		return fmt.Sprintf("block %#x..%#x (%d instrs)", first, last, v.block.Len())
	case KindForeign:
		return fmt.Sprintf("foreign %#x %s", v.foreign.Target, v.foreign.Name)
	}
	return "invalid vertex"
}

var (
	_ Addressable = (*Block)(nil)
	_ Addressable = (*Vertex)(nil)
	_ Addressable = trace.Foreign{}
)
