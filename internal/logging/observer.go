package logging

import (
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"tracecfg/internal/cfg"
)

// GraphObserver logs graph construction events. Routine steps go to debug,
// collisions and merge mismatches to warn. It also counts events so the
// CLI can print a summary.
type GraphObserver struct {
	lg *log.Logger

	Vertices   atomic.Int64
	Collisions atomic.Int64
	Splits     atomic.Int64
	Merges     atomic.Int64
	Mismatches atomic.Int64
}

// NewGraphObserver logs through lg. A nil lg only counts.
func NewGraphObserver(lg *log.Logger) *GraphObserver {
	return &GraphObserver{lg: lg}
}

func hex(a uint64) string { return fmt.Sprintf("%#x", a) }

func (o *GraphObserver) OnVertex(addr uint64, v *cfg.Vertex) {
	o.Vertices.Add(1)
	if o.lg != nil {
		o.lg.Debug("vertex", "addr", hex(addr), "kind", v.Kind())
	}
}

func (o *GraphObserver) OnCollision(addr uint64, kept, dropped *cfg.Vertex) {
	o.Collisions.Add(1)
	if o.lg != nil {
		o.lg.Warn("address collision", "addr", hex(addr), "kept", kept.String(), "dropped", dropped.String())
	}
}

func (o *GraphObserver) OnOverlap(addr, owner uint64) {
	if o.lg != nil {
		o.lg.Debug("overlap", "addr", hex(addr), "block", hex(owner))
	}
}

func (o *GraphObserver) OnSplit(owner, addr uint64) {
	o.Splits.Add(1)
	if o.lg != nil {
		o.lg.Debug("split", "block", hex(owner), "at", hex(addr))
	}
}

func (o *GraphObserver) OnMerge(old, target uint64) {
	o.Merges.Add(1)
	if o.lg != nil {
		o.lg.Debug("merge", "old", hex(old), "into", hex(target))
	}
}

func (o *GraphObserver) OnMergeMismatch(old, target uint64, discarded []uint64) {
	o.Mismatches.Add(1)
	if o.lg == nil {
		return
	}
	lost := make([]string, len(discarded))
	for i, d := range discarded {
		lost[i] = hex(d)
	}
	o.lg.Warn("merge replaced outgoing edges", "old", hex(old), "into", hex(target), "discarded", lost)
}

var _ cfg.Observer = (*GraphObserver)(nil)
