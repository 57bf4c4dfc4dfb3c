package spatial

import (
	"sort"

	"github.com/urbanmorph/axialnet/pkg/geometry"
)

// LineTree is the line-segment variant of the AA-BSP tree. Each cell
// stores the global indices of lines whose geometry passes through the
// cell box; lines crossing a splitter are duplicated into both
// children up to a bounded depth, after which the remainder lands in a
// shared cell. Query results refer to the per-leaf line-index list via
// LineIndex.
type LineTree struct {
	bb    geometry.Rect
	nodes []bspNode
	lines []int
}

// DefaultMaxLinesPerCell is the leaf size used when 0 is passed to
// NewLineTree.
const DefaultMaxLinesPerCell = 16

// lineTreeMaxDepth bounds splitter duplication so degenerate inputs
// (many lines through one point) cannot blow up the tree.
const lineTreeMaxDepth = 24

type lineAndIndex struct {
	p0, p1 geometry.Vec
	index  int
}

// NewLineTree builds a BSP over line segments.
func NewLineTree(lines []geometry.Line, maxLinesPerCell int) *LineTree {
	t := &LineTree{}
	if len(lines) == 0 {
		return t
	}
	if maxLinesPerCell < 2 {
		maxLinesPerCell = DefaultMaxLinesPerCell
	}

	work := make([]lineAndIndex, len(lines))
	t.bb = geometry.RectFromPoint(lines[0].P1)
	for i, l := range lines {
		t.bb.Grow(l.P1)
		t.bb.Grow(l.P2)
		work[i] = lineAndIndex{p0: l.P1, p1: l.P2, index: i}
	}
	t.lines = make([]int, 0, len(lines))
	t.createSubTree(t.bb, work, maxLinesPerCell, lineTreeMaxDepth)
	return t
}

// BB returns the bounding rectangle of the indexed lines.
func (t *LineTree) BB() geometry.Rect { return t.bb }

// LineIndex maps a query object position to a global line index.
func (t *LineTree) LineIndex(i int) int { return t.lines[i] }

func (t *LineTree) createSubTree(bb geometry.Rect, lines []lineAndIndex, maxPerCell, maxDepth int) {
	if len(lines) <= maxPerCell || maxDepth <= 0 {
		t.makeCell(lines)
		return
	}

	vertical := bb.Height() > bb.Width()
	coord := func(l lineAndIndex) float64 {
		if vertical {
			return (l.p0.Y + l.p1.Y) * 0.5
		}
		return (l.p0.X + l.p1.X) * 0.5
	}
	sort.Slice(lines, func(i, j int) bool { return coord(lines[i]) < coord(lines[j]) })
	splitAt := coord(lines[len(lines)/2])

	low := func(l lineAndIndex) float64 {
		if vertical {
			if l.p0.Y < l.p1.Y {
				return l.p0.Y
			}
			return l.p1.Y
		}
		if l.p0.X < l.p1.X {
			return l.p0.X
		}
		return l.p1.X
	}
	high := func(l lineAndIndex) float64 {
		if vertical {
			if l.p0.Y > l.p1.Y {
				return l.p0.Y
			}
			return l.p1.Y
		}
		if l.p0.X > l.p1.X {
			return l.p0.X
		}
		return l.p1.X
	}

	var left, right []lineAndIndex
	for _, l := range lines {
		if low(l) < splitAt {
			left = append(left, l)
		}
		if high(l) >= splitAt {
			right = append(right, l)
		}
	}
	// A split that fails to separate anything would recurse forever.
	if len(left) == len(lines) || len(right) == len(lines) {
		t.makeCell(lines)
		return
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

	t.createSubTree(leftBB, left, maxPerCell, maxDepth-1)
	t.nodes[nodeIndex].right = len(t.nodes)
	t.createSubTree(rightBB, right, maxPerCell, maxDepth-1)
}

func (t *LineTree) makeCell(lines []lineAndIndex) {
	first := len(t.lines)
	for _, l := range lines {
		t.lines = append(t.lines, l.index)
	}
	t.nodes = append(t.nodes, bspNode{right: -1, first: first, count: len(lines)})
}

// TestCapsule appends to sets the object ranges of every cell whose box
// intersects the segment (p0, p1) inflated by radius. A line duplicated
// across splitters may appear in more than one reported range. The
// slice is reset before use.
func (t *LineTree) TestCapsule(p0, p1 geometry.Vec, radius float64, sets []ObjectSet) []ObjectSet {
	sets = sets[:0]
	if len(t.nodes) == 0 {
		return sets
	}
	return t.testCapsule(t.bb, p0, p1, radius, 0, sets)
}

func (t *LineTree) testCapsule(bb geometry.Rect, p0, p1 geometry.Vec, radius float64, node int, sets []ObjectSet) []ObjectSet {
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
