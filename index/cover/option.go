package cover

import "github.com/viant/nearstop/internal/cover/tree"

// BoundStrategy selects the radius used to prune subtrees.
type BoundStrategy = tree.BoundStrategy

const (
	// BoundPerNode prunes with the exact subtree radius.
	BoundPerNode = tree.BoundPerNode
	// BoundLevel prunes with the geometric level bound.
	BoundLevel = tree.BoundLevel
)

// Search selects the traversal order.
type Search int

const (
	// DepthFirst visits children nearest first.
	DepthFirst Search = iota
	// BestFirst expands nodes by ascending lower bound.
	BestFirst
)

// DefaultBase is the cover tree base.
const DefaultBase = 1.3

// Option configures an Index.
type Option func(*Index)

// WithBase sets the tree base; values <= 1 are ignored.
func WithBase(base float64) Option {
	return func(i *Index) {
		if base > 1 {
			i.base = base
		}
	}
}

// WithBoundStrategy sets the pruning bound.
func WithBoundStrategy(s BoundStrategy) Option {
	return func(i *Index) { i.bound = s }
}

// WithSearch sets the traversal order.
func WithSearch(s Search) Option {
	return func(i *Index) { i.search = s }
}

// New creates an empty cover tree index.
func New(opts ...Option) *Index {
	ret := &Index{base: DefaultBase}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
