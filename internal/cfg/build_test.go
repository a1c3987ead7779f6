package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracecfg/internal/trace"
)

func TestSegment(t *testing.T) {
	segs := Segment(seq(10, 3, 7))
	require.Len(t, segs, 3)

	var lens []int
	for _, v := range segs {
		b, ok := v.Block()
		require.True(t, ok)
		lens = append(lens, b.Len())
	}
	assert.Equal(t, []int{4, 4, 2}, lens, "trailing run without a branch is kept")
}

func TestSegmentForeignMarker(t *testing.T) {
	stream := seq(8, 7)
	stream[3].Foreign = &trace.Foreign{Target: 0x1000, Name: "puts"}

	segs := Segment(stream)
	require.Len(t, segs, 3)
	assert.Equal(t, KindBlock, segs[0].Kind())
	f, ok := segs[1].Foreign()
	require.True(t, ok)
	assert.Equal(t, "puts", f.Name)
	addr, _ := segs[2].Addr()
	assert.Equal(t, uint64(4), addr)
}

func TestSegmentEmpty(t *testing.T) {
	assert.Empty(t, Segment(nil))
}

func TestBuildLinear(t *testing.T) {
	g, err := FromStream(seq(16, 3, 7, 11))
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, 4, 8, 12}, g.Addrs())
	assert.Equal(t, edges(0, 4, 4, 8, 8, 12), g.Edges())
	entry, ok := g.Entry()
	assert.True(t, ok)
	assert.Equal(t, uint64(0), entry)
	assert.NoError(t, g.Validate())
}

func TestBuildLoopFromTrace(t *testing.T) {
	// 0..3 | 4..7 | back to 5..7 | 8..11
	var stream trace.Stream
	stream = append(stream, straight(0, 1, 2, 3)...)
	stream = append(stream, straight(4, 5, 6, 7)...)
	stream = append(stream, straight(5, 6, 7)...)
	stream = append(stream, straight(8, 9, 10, 11)...)

	rec := &recorder{}
	g, err := FromStream(stream, WithObserver(rec))
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, 4, 5, 8}, g.Addrs())
	assert.Equal(t, edges(0, 4, 4, 5, 5, 5, 5, 8), g.Edges())
	assert.Equal(t, []uint64{5}, rec.splits)
	assert.Equal(t, []uint64{5}, rec.overlaps)
	assert.Empty(t, rec.collisions, "repeated iterations are not collisions")

	v, _ := g.Vertex(4)
	b, _ := v.Block()
	assert.Equal(t, 1, b.Len())

	loops := g.Loops()
	require.Len(t, loops, 1)
	assert.Equal(t, Loop{Head: 5, Members: []uint64{5}}, loops[0])
	assert.NoError(t, g.Validate())
}

func TestBuildBackEdgeOverlap(t *testing.T) {
	g := New()
	for _, v := range []*Vertex{
		blockOf(0, 1, 2, 3),
		blockOf(4, 5, 6, 7),
		blockOf(8, 9, 10, 11),
		blockOf(12, 13, 14, 15),
	} {
		_, err := g.AddVertex(v)
		require.NoError(t, err)
	}
	for _, e := range edges(0, 4, 4, 8, 8, 12, 4, 12, 8, 4, 12, 4) {
		require.NoError(t, g.AddEdge(e.From, e.To))
	}
	_, err := g.AddVertex(blockOf(5, 6, 7))
	require.NoError(t, err)

	assert.Equal(t, []uint64{5}, g.Overlaps())
	require.NoError(t, g.ResolveOverlaps())

	assert.Equal(t, []uint64{0, 4, 5, 8, 12}, g.Addrs())
	assert.Equal(t, edges(0, 4, 4, 5, 5, 8, 5, 12, 8, 4, 8, 12, 12, 4), g.Edges())
	assert.Equal(t, 5, g.NumEdgeSources())
	assert.Empty(t, g.Overlaps())
	assert.NoError(t, g.Validate())
}

func TestBuildNestedOverlaps(t *testing.T) {
	// One long run first, then two later entries into its middle.
	var stream trace.Stream
	stream = append(stream, straight(0, 1, 2, 3, 4, 5, 6, 7)...)
	stream = append(stream, straight(6, 7)...)
	stream = append(stream, straight(3, 4, 5, 6, 7)...)

	g, err := FromStream(stream)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 3, 6}, g.Addrs())
	assert.Equal(t, 8, g.Stats().Instructions)
	assert.True(t, g.HasEdge(0, 3))
	assert.True(t, g.HasEdge(3, 6))
	assert.True(t, g.HasEdge(6, 6))
	assert.True(t, g.HasEdge(6, 3))
	assert.NoError(t, g.Validate())
}

func TestBuildCollisions(t *testing.T) {
	rec := &recorder{}
	segs := []*Vertex{
		blockOf(0, 1),
		NewForeignVertex(trace.Foreign{Target: 0, Name: "dup"}),
		blockOf(0, 1, 2),
	}
	g, err := Build(segs, WithObserver(rec))
	require.NoError(t, err)

	v, ok := g.Vertex(0)
	require.True(t, ok)
	b, ok := v.Block()
	require.True(t, ok, "block wins over a marker")
	assert.Equal(t, 3, b.Len(), "longer block wins")
	assert.Equal(t, []uint64{0, 0}, rec.collisions)
	assert.True(t, g.HasEdge(0, 0))
}

func TestBuildSkipsEmptyBlocks(t *testing.T) {
	g, err := Build([]*Vertex{NewBlockVertex(&Block{}), blockOf(4)})
	require.NoError(t, err)
	assert.Equal(t, []uint64{4}, g.Addrs())
	assert.Zero(t, g.NumEdges())

	_, err = g.AddVertex(NewBlockVertex(&Block{}))
	assert.ErrorIs(t, err, ErrEmptyBlock)
}

func TestAddEdgeRequiresEndpoints(t *testing.T) {
	g := New()
	_, err := g.AddVertex(blockOf(0))
	require.NoError(t, err)

	assert.ErrorIs(t, g.AddEdge(0, 9), ErrVertexNotFound)
	assert.ErrorIs(t, g.AddEdge(9, 0), ErrVertexNotFound)
	assert.Zero(t, g.NumEdges())
}

func TestValidateReportsOverlap(t *testing.T) {
	g := New()
	_, _ = g.AddVertex(blockOf(0, 1, 2, 3))
	_, _ = g.AddVertex(blockOf(2, 3))

	err := g.Validate()
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, err.Error(), "covers vertex 0x2")
}

func TestMarkReachable(t *testing.T) {
	g := New()
	for _, a := range []uint64{0, 4, 8} {
		_, _ = g.AddVertex(blockOf(a))
	}
	require.NoError(t, g.AddEdge(0, 4))

	assert.Equal(t, 2, g.MarkReachable(0))
	v, _ := g.Vertex(8)
	assert.False(t, v.Visited)
	assert.Zero(t, g.MarkReachable(100))
}

func TestUnreachable(t *testing.T) {
	g, err := FromStream(seq(12, 3, 7))
	require.NoError(t, err)
	assert.Empty(t, g.Unreachable(), "a trace reaches every vertex it built")
	assert.Empty(t, New().Unreachable())

	_, _ = g.AddVertex(blockOf(0x40, 0x41))
	assert.Equal(t, []uint64{0x40}, g.Unreachable())
	assert.Equal(t, 1, g.Stats().Unreachable)
}

func TestStats(t *testing.T) {
	stream := seq(8, 7)
	stream[3].Foreign = &trace.Foreign{Target: 0x1000, Name: "puts"}
	g, err := FromStream(stream)
	require.NoError(t, err)

	assert.Equal(t, Stats{
		Vertices:     3,
		Blocks:       2,
		Foreign:      1,
		Instructions: 8,
		Edges:        2,
		EdgeSources:  2,
	}, g.Stats())
}
