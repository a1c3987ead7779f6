package cfg

// Observer receives notifications while a graph is built and edited.
// Callbacks run synchronously on the goroutine mutating the graph.
type Observer interface {
	// OnVertex fires when a vertex is inserted at a new address.
	OnVertex(addr uint64, v *Vertex)
	// OnCollision fires when two different vertices claim the same address.
	OnCollision(addr uint64, kept, dropped *Vertex)
	// OnOverlap fires when the block at owner also covers addr.
	OnOverlap(addr, owner uint64)
	// OnSplit fires after the block at owner was split at addr.
	OnSplit(owner, addr uint64)
	// OnMerge fires after old was folded into target.
	OnMerge(old, target uint64)
	// OnMergeMismatch fires when replacing the outgoing edges of target
	// discarded successors the merged vertex did not have.
	OnMergeMismatch(old, target uint64, discarded []uint64)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) OnVertex(uint64, *Vertex)                  {}
func (NopObserver) OnCollision(uint64, *Vertex, *Vertex)      {}
func (NopObserver) OnOverlap(uint64, uint64)                  {}
func (NopObserver) OnSplit(uint64, uint64)                    {}
func (NopObserver) OnMerge(uint64, uint64)                    {}
func (NopObserver) OnMergeMismatch(uint64, uint64, []uint64) {}

var _ Observer = NopObserver{}
