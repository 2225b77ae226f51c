package index

import (
	"fmt"
	"strings"

	"github.com/viant/nearstop/geo"
	"github.com/viant/nearstop/index/balltree"
	"github.com/viant/nearstop/index/bruteforce"
	"github.com/viant/nearstop/index/cover"
	"github.com/viant/nearstop/index/vptree"
)

// Kind names an index strategy.
type Kind string

const (
	Auto     Kind = "auto"
	Brute    Kind = "brute"
	BallTree Kind = "balltree"
	Cover    Kind = "cover"
	VPTree   Kind = "vptree"
)

// autoTreeMinCandidates is the candidate count from which Auto picks a tree.
const autoTreeMinCandidates = 64

// ParseKind parses a strategy name; an empty name means Auto.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto, nil
	case "brute", "bruteforce":
		return Brute, nil
	case "ball", "balltree":
		return BallTree, nil
	case "cover", "covertree":
		return Cover, nil
	case "vp", "vptree":
		return VPTree, nil
	}
	return "", fmt.Errorf("index: unsupported kind %q", name)
}

// Resolve maps Auto to a concrete strategy for the given candidate count.
func (k Kind) Resolve(candidates int) Kind {
	if k != Auto && k != "" {
		return k
	}
	if candidates >= autoTreeMinCandidates {
		return BallTree
	}
	return Brute
}

// Options carries strategy tuning knobs.
type Options struct {
	LeafSize    int
	CoverBase   float64
	CoverBound  string // "node" or "level"
	CoverSearch string // "depth" or "best"
}

func (o Options) coverOptions() []cover.Option {
	var opts []cover.Option
	if o.CoverBase > 1 {
		opts = append(opts, cover.WithBase(o.CoverBase))
	}
	switch strings.ToLower(o.CoverBound) {
	case "level", "boundlevel":
		opts = append(opts, cover.WithBoundStrategy(cover.BoundLevel))
	case "node", "per_node", "pernode":
		opts = append(opts, cover.WithBoundStrategy(cover.BoundPerNode))
	}
	switch strings.ToLower(o.CoverSearch) {
	case "best", "best_first", "bestfirst":
		opts = append(opts, cover.WithSearch(cover.BestFirst))
	case "depth", "depth_first", "depthfirst":
		opts = append(opts, cover.WithSearch(cover.DepthFirst))
	}
	return opts
}

// New returns an empty index of a concrete kind. Auto is resolved as if the
// candidate set were small; use Build to resolve against real candidates.
func New(kind Kind, opts Options) (Index, error) {
	switch kind.Resolve(0) {
	case Brute:
		return &bruteforce.Index{}, nil
	case BallTree:
		var ballOpts []balltree.Option
		if opts.LeafSize > 0 {
			ballOpts = append(ballOpts, balltree.WithLeafSize(opts.LeafSize))
		}
		return balltree.New(ballOpts...), nil
	case Cover:
		return cover.New(opts.coverOptions()...), nil
	case VPTree:
		return &vptree.Index{}, nil
	}
	return nil, fmt.Errorf("index: unsupported kind %q", kind)
}

// Build resolves kind against the candidate count, creates the index and builds it.
func Build(kind Kind, candidates *geo.PointSet, opts Options) (Index, error) {
	idx, err := New(kind.Resolve(candidates.Len()), opts)
	if err != nil {
		return nil, err
	}
	if err := idx.Build(candidates); err != nil {
		return nil, err
	}
	return idx, nil
}

// Load restores a serialized index of the given kind.
func Load(kind Kind, data []byte, opts Options) (Index, error) {
	set := &geo.PointSet{}
	if err := set.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return Build(kind, set, opts)
}
