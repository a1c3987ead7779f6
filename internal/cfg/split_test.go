package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracecfg/internal/trace"
)

func linear(t *testing.T) *Cfg {
	t.Helper()
	g, err := FromStream(seq(16, 3, 7, 11))
	require.NoError(t, err)
	return g
}

func instrAddrs(t *testing.T, g *Cfg, at uint64) []uint64 {
	t.Helper()
	v, ok := g.Vertex(at)
	require.True(t, ok, "no vertex at %#x", at)
	b, ok := v.Block()
	require.True(t, ok, "%#x is not a block", at)
	var out []uint64
	for _, in := range b.Instrs {
		out = append(out, in.VA)
	}
	return out
}

func TestSplitLinear(t *testing.T) {
	g := linear(t)
	whole := instrAddrs(t, g, 4)

	out, err := g.Split(5)
	require.NoError(t, err)
	assert.Equal(t, SplitDone, out)

	assert.Equal(t, []uint64{0, 4, 5, 8, 12}, g.Addrs())
	assert.Equal(t, edges(0, 4, 4, 5, 5, 8, 8, 12), g.Edges())
	assert.Equal(t, 4, g.NumEdgeSources())
	assert.Equal(t, []uint64{0}, g.Predecessors(4), "incoming edges stay on the left part")
	assert.Equal(t, 16, g.Stats().Instructions)
	assert.NoError(t, g.Validate())

	left, right := instrAddrs(t, g, 4), instrAddrs(t, g, 5)
	assert.Equal(t, []uint64{4}, left)
	assert.Equal(t, whole, append(left, right...), "halves keep the original order")
}

func TestSplitIdempotent(t *testing.T) {
	g := linear(t)
	_, err := g.Split(5)
	require.NoError(t, err)
	before := g.Edges()

	out, err := g.Split(5)
	require.NoError(t, err)
	assert.Equal(t, SplitNoOp, out)
	assert.Equal(t, before, g.Edges())
	assert.Equal(t, []uint64{0, 4, 5, 8, 12}, g.Addrs())
}

func TestSplitNoOp(t *testing.T) {
	tests := []struct {
		name string
		addr uint64
	}{
		{"block start", 4},
		{"graph entry", 0},
		{"past the last instruction", 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := linear(t)
			out, err := g.Split(tt.addr)
			require.NoError(t, err)
			assert.Equal(t, SplitNoOp, out)
			assert.Equal(t, []uint64{0, 4, 8, 12}, g.Addrs())
			assert.Equal(t, edges(0, 4, 4, 8, 8, 12), g.Edges())
		})
	}
}

func TestSplitRelocatesOutgoing(t *testing.T) {
	g := New()
	for _, v := range []*Vertex{blockOf(0, 1, 2, 3), blockOf(8), blockOf(9)} {
		_, err := g.AddVertex(v)
		require.NoError(t, err)
	}
	for _, e := range edges(0, 8, 0, 9, 8, 0, 9, 0) {
		require.NoError(t, g.AddEdge(e.From, e.To))
	}

	out, err := g.Split(2)
	require.NoError(t, err)
	require.Equal(t, SplitDone, out)

	assert.Equal(t, []uint64{2}, g.Successors(0))
	assert.Equal(t, []uint64{8, 9}, g.Successors(2))
	assert.Equal(t, []uint64{8, 9}, g.Predecessors(0))
}

func TestSplitSelfLoop(t *testing.T) {
	g := New()
	_, _ = g.AddVertex(blockOf(0, 1, 2))
	require.NoError(t, g.AddEdge(0, 0))

	_, err := g.Split(1)
	require.NoError(t, err)

	assert.Equal(t, edges(0, 1, 1, 0), g.Edges(), "the loop now leaves from the tail")
}

func TestSplitErrors(t *testing.T) {
	_, err := New().Split(3)
	assert.ErrorIs(t, err, ErrVertexNotFound)

	g := New()
	_, _ = g.AddVertex(blockOf(0, 1, 2, 3))
	_, _ = g.AddVertex(NewForeignVertex(trace.Foreign{Target: 0x1000, Name: "puts"}))

	_, err = g.Split(0x1004)
	assert.ErrorIs(t, err, ErrUnsplittable)

	out, err := g.Split(0x1000)
	assert.ErrorIs(t, err, ErrUnsplittable, "a marker cannot be split at its own address")
	assert.Equal(t, SplitNoOp, out)
	assert.Equal(t, 2, g.Len())

	lone := New()
	_, _ = lone.AddVertex(NewForeignVertex(trace.Foreign{Target: 0x1000}))
	_, err = lone.Split(0x1000)
	assert.ErrorIs(t, err, ErrUnsplittable, "nothing below the marker")

	stacked := New()
	_, _ = stacked.AddVertex(NewForeignVertex(trace.Foreign{Target: 0x800}))
	_, _ = stacked.AddVertex(NewForeignVertex(trace.Foreign{Target: 0x1000}))
	_, err = stacked.Split(0x1000)
	assert.ErrorIs(t, err, ErrUnsplittable, "a marker below the marker")
}

func TestSplitAtOverlappedMarker(t *testing.T) {
	g := New()
	_, _ = g.AddVertex(blockOf(0, 1, 2, 3))
	_, _ = g.AddVertex(NewForeignVertex(trace.Foreign{Target: 2}))

	out, err := g.Split(2)
	require.NoError(t, err)
	assert.Equal(t, SplitDone, out, "the block below still holds an instruction at the marker")
	assert.Equal(t, []uint64{0, 2}, g.Addrs())
}

func TestBlockSplitAt(t *testing.T) {
	b := &Block{Instrs: straight(0x10, 0x14, 0x18)}

	left, right, ok := b.SplitAt(0x14)
	require.True(t, ok)
	assert.Equal(t, 1, left.Len())
	assert.Equal(t, 2, right.Len())
	addr, _ := right.Addr()
	assert.Equal(t, uint64(0x14), addr)

	_, _, ok = b.SplitAt(0x10)
	assert.False(t, ok, "first instruction is not a boundary")
	_, _, ok = b.SplitAt(0x16)
	assert.False(t, ok)

	assert.True(t, b.Contains(0x18))
	last, _ := b.Last()
	assert.Equal(t, uint64(0x18), last)
}
