package cfg

import "errors"

var (
	ErrVertexNotFound = errors.New("vertex not found")
	ErrUnsplittable   = errors.New("vertex cannot be split")
	ErrEmptyBlock     = errors.New("block has no instructions")
	ErrInconsistent   = errors.New("graph inconsistent")
	ErrMergeCycle     = errors.New("merge mapping has a cycle")
	ErrMergeTarget    = errors.New("merge target not in graph")
)
