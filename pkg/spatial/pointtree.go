package spatial

import (
	"sort"

	"github.com/urbanmorph/axialnet/pkg/geometry"
)

// ObjectSet is a contiguous run of objects in a BSP-ordered array,
// reported by tree queries.
type ObjectSet struct {
	First int
	Count int
}

type bspNode struct {
	// Internal node: splitAt/vertical/right. Cell: first/count, right < 0.
	splitAt  float64
	right    int
	vertical bool
	first    int
	count    int
}

func (n *bspNode) isCell() bool { return n.right < 0 }

// PointTree is a recursive axis-aligned binary space partition over a
// point set. Queries report leaf object ranges referring to the
// BSP-ordered point array; the order mapping returned at construction
// lets the caller permute parallel attribute arrays to match.
type PointTree struct {
	bb     geometry.Rect
	nodes  []bspNode
	points []geometry.Vec // points in BSP order
}

// DefaultMaxPointsPerCell is the leaf size used when 0 is passed to
// NewPointTree.
const DefaultMaxPointsPerCell = 16

type pointAndIndex struct {
	pt    geometry.Vec
	index int
}

// NewPointTree builds a BSP over points. On return order[i] holds the
// position that input point i was given in the tree's internal
// ordering, so callers can reorder parallel arrays for cache locality.
func NewPointTree(points []geometry.Vec, maxPointsPerCell int) (*PointTree, []int) {
	t := &PointTree{}
	order := make([]int, len(points))
	if len(points) == 0 {
		return t, order
	}
	if maxPointsPerCell < 2 {
		maxPointsPerCell = DefaultMaxPointsPerCell
	}

	work := make([]pointAndIndex, len(points))
	t.bb = geometry.RectFromPoint(points[0])
	for i, p := range points {
		t.bb.Grow(p)
		work[i] = pointAndIndex{pt: p, index: i}
	}
	t.points = make([]geometry.Vec, 0, len(points))
	t.nodes = make([]bspNode, 0, (len(points)/maxPointsPerCell+1)*3)
	t.createSubTree(t.bb, work, maxPointsPerCell, order)
	return t, order
}

// BB returns the bounding rectangle of the indexed points.
func (t *PointTree) BB() geometry.Rect { return t.bb }

// Point returns the point stored at BSP position i.
func (t *PointTree) Point(i int) geometry.Vec { return t.points[i] }

func (t *PointTree) createSubTree(bb geometry.Rect, pts []pointAndIndex, maxPerCell int, order []int) {
	if len(pts) <= maxPerCell {
		t.makeCell(pts, order)
		return
	}

	vertical := bb.Height() > bb.Width()
	sort.Slice(pts, func(i, j int) bool {
		if vertical {
			return pts[i].pt.Y < pts[j].pt.Y
		}
		return pts[i].pt.X < pts[j].pt.X
	})
	mid := len(pts) / 2
	var splitAt float64
	if vertical {
		splitAt = pts[mid].pt.Y
	} else {
		splitAt = pts[mid].pt.X
	}

	nodeIndex := len(t.nodes)
	t.nodes = append(t.nodes, bspNode{splitAt: splitAt, vertical: vertical})

	leftBB, rightBB := bb, bb
	if vertical {
		leftBB.MaxY = splitAt
		rightBB.MinY = splitAt
	} else {
		leftBB.MaxX = splitAt
		rightBB.MinX = splitAt
	}

	t.createSubTree(leftBB, pts[:mid], maxPerCell, order)
	t.nodes[nodeIndex].right = len(t.nodes)
	t.createSubTree(rightBB, pts[mid:], maxPerCell, order)
}

func (t *PointTree) makeCell(pts []pointAndIndex, order []int) {
	first := len(t.points)
	for _, p := range pts {
		order[p.index] = len(t.points)
		t.points = append(t.points, p.pt)
	}
	t.nodes = append(t.nodes, bspNode{right: -1, first: first, count: len(pts)})
}

// TestSphere appends to sets the object ranges of every cell whose
// bounding rectangle overlaps the disc around center. The slice is
// reset before use.
func (t *PointTree) TestSphere(center geometry.Vec, radius float64, sets []ObjectSet) []ObjectSet {
	sets = sets[:0]
	if len(t.nodes) == 0 {
		return sets
	}
	return t.testSphere(t.bb, center, radius, 0, sets)
}

func (t *PointTree) testSphere(bb geometry.Rect, center geometry.Vec, radius float64, node int, sets []ObjectSet) []ObjectSet {
	n := &t.nodes[node]
	if n.isCell() {
		if bb.OverlapsDisc(center, radius) {
			sets = append(sets, ObjectSet{First: n.first, Count: n.count})
		}
		return sets
	}
	leftBB, rightBB := bb, bb
	if n.vertical {
		leftBB.MaxY = n.splitAt
		rightBB.MinY = n.splitAt
	} else {
		leftBB.MaxX = n.splitAt
		rightBB.MinX = n.splitAt
	}
	if leftBB.OverlapsDisc(center, radius) {
		sets = t.testSphere(leftBB, center, radius, node+1, sets)
	}
	if rightBB.OverlapsDisc(center, radius) {
		sets = t.testSphere(rightBB, center, radius, n.right, sets)
	}
	return sets
}

// TestCapsule appends to sets the object ranges of every cell whose
// bounding rectangle intersects the segment (p0, p1) inflated by
// radius. The slice is reset before use.
func (t *PointTree) TestCapsule(p0, p1 geometry.Vec, radius float64, sets []ObjectSet) []ObjectSet {
	sets = sets[:0]
	if len(t.nodes) == 0 {
		return sets
	}
	return t.testCapsule(t.bb, p0, p1, radius, 0, sets)
}

func (t *PointTree) testCapsule(bb geometry.Rect, p0, p1 geometry.Vec, radius float64, node int, sets []ObjectSet) []ObjectSet {
	n := &t.nodes[node]
	if n.isCell() {
		if bb.OverlapsCapsule(p0, p1, radius) {
			sets = append(sets, ObjectSet{First: n.first, Count: n.count})
		}
		return sets
	}
	leftBB, rightBB := bb, bb
	if n.vertical {
		leftBB.MaxY = n.splitAt
		rightBB.MinY = n.splitAt
	} else {
		leftBB.MaxX = n.splitAt
		rightBB.MinX = n.splitAt
	}
	if leftBB.OverlapsCapsule(p0, p1, radius) {
		sets = t.testCapsule(leftBB, p0, p1, radius, node+1, sets)
	}
	if rightBB.OverlapsCapsule(p0, p1, radius) {
		sets = t.testCapsule(rightBB, p0, p1, radius, n.right, sets)
	}
	return sets
}
