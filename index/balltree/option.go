package balltree

// DefaultLeafSize is the number of candidates below which a ball is scanned.
const DefaultLeafSize = 15

// Option configures an Index.
type Option func(*Index)

// WithLeafSize sets the maximum number of candidates in a leaf ball.
func WithLeafSize(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.leafSize = n
		}
	}
}

// New creates an empty ball tree index.
func New(opts ...Option) *Index {
	ret := &Index{leafSize: DefaultLeafSize}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}
