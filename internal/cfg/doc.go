// Package cfg reconstructs a control flow graph from a linear execution
// trace.
//
// A trace is cut into basic blocks by Segment. Build inserts the blocks
// under their first address, links every pair of blocks that ran one after
// the other, and then splits any block whose range contains the start of
// another vertex. Those overlaps appear when a back-edge lands in the
// middle of code that was first seen as one straight run. Split and Merge
// are also available for callers that refine a graph after the fact.
//
// Every mutation goes through the owning Cfg. Vertex pointers obtained from
// a graph should not be held across Split or Merge.
package cfg
