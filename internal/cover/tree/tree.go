package tree

// This implementation is adapted from github.com/viant/gds/tree/cover.

import (
	"container/heap"
	"math"
	"sort"

	"github.com/viant/nearstop/internal/knn"
)

// Tree represents a cover tree for haversine kNN queries. It is built once
// and then only read, so concurrent searches need no locking.
type Tree struct {
	root          *Node
	base          float64
	distanceFunc  DistanceFunc
	size          int
	boundStrategy BoundStrategy
}

// BoundStrategy selects which lower-bound radius to use when pruning.
type BoundStrategy int

const (
	// BoundPerNode uses cached per-node subtree radius (tighter pruning).
	BoundPerNode BoundStrategy = iota
	// BoundLevel uses a geometric bound derived from the node level.
	BoundLevel
)

// maxAngle is the largest possible central angle.
const maxAngle = math.Pi

// NewTree constructs a cover tree with the provided base.
func NewTree(base float64) *Tree {
	if base <= 1 {
		base = 1.3
	}
	return &Tree{
		base:          base,
		distanceFunc:  HaversineDistance,
		boundStrategy: BoundPerNode,
	}
}

// SetBoundStrategy switches the pruning strategy.
func (t *Tree) SetBoundStrategy(s BoundStrategy) { t.boundStrategy = s }

// Size returns the number of inserted points.
func (t *Tree) Size() int { return t.size }

// Root returns the root node or nil.
func (t *Tree) Root() *Node { return t.root }

// topLevel is the smallest level whose cover distance spans the sphere.
func (t *Tree) topLevel() int32 {
	return int32(math.Ceil(math.Log(maxAngle) / math.Log(t.base)))
}

// Insert adds a point to the tree.
func (t *Tree) Insert(point *Point) {
	t.size++
	if t.root == nil {
		node := NewNode(point, t.topLevel(), t.base)
		t.root = &node
		return
	}
	node := t.root
	for {
		if t.distanceFunc(point, node.point) == 0 {
			node.dups = append(node.dups, point)
			return
		}
		var next *Node
		for i := range node.children {
			child := &node.children[i]
			if t.distanceFunc(point, child.point) <= child.baseLevel {
				next = child
				break
			}
		}
		if next == nil {
			node.children = append(node.children, NewNode(point, node.level-1, t.base))
			return
		}
		node = next
	}
}

// Seal computes subtree radii. It must be called after the last Insert and
// before searching.
func (t *Tree) Seal() {
	t.ensureRadius(t.root)
}

func (t *Tree) ensureRadius(n *Node) float64 {
	if n == nil {
		return 0
	}
	maxR := 0.0
	for i := range n.children {
		child := &n.children[i]
		cr := t.ensureRadius(child)
		if d := t.distanceFunc(n.point, child.point) + cr; d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	return maxR
}

func (t *Tree) levelCoverRadius(n *Node) float64 {
	if n == nil {
		return math.MaxFloat64
	}
	return n.baseLevel * t.base / (t.base - 1)
}

func (t *Tree) boundRadius(n *Node) float64 {
	if t.boundStrategy == BoundLevel {
		return t.levelCoverRadius(n)
	}
	return n.radius
}

func offer(best *knn.Best, n *Node, dist float64) {
	best.Offer(int(n.point.Position), dist)
	for _, dup := range n.dups {
		best.Offer(int(dup.Position), dist)
	}
}

// KNearestNeighbors runs a depth-first kNN search, collecting into best.
func (t *Tree) KNearestNeighbors(point *Point, best *knn.Best) {
	if t.root == nil {
		return
	}
	t.kNearestNeighbors(t.root, point, t.distanceFunc(point, t.root.point), best)
}

func (t *Tree) kNearestNeighbors(node *Node, point *Point, dc float64, best *knn.Best) {
	offer(best, node, dc)
	if len(node.children) == 0 {
		return
	}
	type childDist struct {
		child *Node
		dist  float64
	}
	cds := make([]childDist, 0, len(node.children))
	for i := range node.children {
		child := &node.children[i]
		cds = append(cds, childDist{child: child, dist: t.distanceFunc(point, child.point)})
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	for _, cd := range cds {
		if best.Prune(cd.dist - t.boundRadius(cd.child)) {
			continue
		}
		t.kNearestNeighbors(cd.child, point, cd.dist, best)
	}
}

// KNearestNeighborsBestFirst performs a best-first search with a node priority queue.
func (t *Tree) KNearestNeighborsBestFirst(point *Point, best *knn.Best) {
	if t.root == nil {
		return
	}
	pq := &nodeQueue{}
	rootDist := t.distanceFunc(point, t.root.point)
	heap.Push(pq, nodeItem{node: t.root, lb: rootDist - t.boundRadius(t.root), centerDist: rootDist})
	for pq.Len() > 0 {
		top := heap.Pop(pq).(nodeItem)
		if best.Prune(top.lb) {
			break
		}
		offer(best, top.node, top.centerDist)
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distanceFunc(point, child.point)
			lb := cd - t.boundRadius(child)
			if best.Prune(lb) {
				continue
			}
			heap.Push(pq, nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
}

type nodeItem struct {
	node       *Node
	lb         float64
	centerDist float64
}

type nodeQueue []nodeItem

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].lb < q[j].lb }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x interface{}) { *q = append(*q, x.(nodeItem)) }
func (q *nodeQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
