// Package spatial provides the spatial indices used by the graph
// builders: a quadtree-like hierarchy of bounding circles for
// nearest-line queries, and axis-aligned BSP trees over points and
// line segments.
package spatial

import (
	"math"

	"github.com/urbanmorph/axialnet/pkg/geometry"
)

// SphereTree is a fixed-depth quadtree of bounding circles built once
// from a bounding box. Lines are registered into every leaf whose
// circle they touch; proximity queries then visit only leaves whose
// circle overlaps the query region.
type SphereTree struct {
	nodes    []sphereNode
	leaves   []sphereLeaf
	elements []int
}

type sphereNode struct {
	x, y, rad float64
	hasLeaves bool
	children  [4]int
}

type sphereLeaf struct {
	firstElement int
	numElements  int
}

// SphereTreeLevels returns the tree depth used for a network of
// lineCount lines, chosen so each leaf ideally holds O(log N) lines.
func SphereTreeLevels(lineCount int) int {
	a := math.Log(float64(lineCount+1)) / math.Log(4)
	levels := int(a+0.5) - 1
	if levels < 3 {
		levels = 3
	}
	return levels
}

// NewSphereTree builds the node hierarchy covering the given bounds
// with the given number of levels. Lines are registered separately
// with SetLines.
func NewSphereTree(bounds geometry.Rect, levels int) *SphereTree {
	t := &SphereTree{}

	numNodes := 0
	n := 1
	for i := 0; i < levels; i++ {
		numNodes += n
		n <<= 2
	}
	t.nodes = make([]sphereNode, 1, numNodes)
	t.leaves = make([]sphereLeaf, 0, n>>2)

	root := &t.nodes[0]
	root.x = (bounds.MinX + bounds.MaxX) / 2
	root.y = (bounds.MinY + bounds.MaxY) / 2
	rad := bounds.Width()
	if bounds.Height() > rad {
		rad = bounds.Height()
	}
	rad /= 2
	root.rad = math.Sqrt(rad * rad * 2)

	t.createSubTree(0, levels)
	return t
}

func (t *SphereTree) createSubTree(node, levels int) {
	if levels <= 1 {
		t.nodes[node].hasLeaves = true
		t.nodes[node].children[0] = len(t.leaves)
		t.leaves = append(t.leaves, sphereLeaf{})
		return
	}

	first := len(t.nodes)
	// Child radius is scaled by 1/1.99 rather than 1/2 so circles
	// overlap slightly at cell corners and numerical slack cannot drop
	// a line between siblings.
	childRad := t.nodes[node].rad / 1.99
	d := t.nodes[node].rad * 0.7071068 / 2
	cx, cy := t.nodes[node].x, t.nodes[node].y

	for i := 0; i < 4; i++ {
		t.nodes[node].children[i] = first + i
		t.nodes = append(t.nodes, sphereNode{rad: childRad})
	}
	t.nodes[first+0].x, t.nodes[first+0].y = cx-d, cy-d
	t.nodes[first+1].x, t.nodes[first+1].y = cx+d, cy-d
	t.nodes[first+2].x, t.nodes[first+2].y = cx+d, cy+d
	t.nodes[first+3].x, t.nodes[first+3].y = cx-d, cy+d

	for i := 0; i < 4; i++ {
		t.createSubTree(t.nodes[node].children[i], levels-1)
	}
}

// lineInSphere tests whether the line starting at (lx, ly) with unit
// direction (nx, ny) and the given length passes within rad of the
// sphere centre.
func lineInSphere(sx, sy, rad, lx, ly, nx, ny, length float64) bool {
	dx := sx - lx
	dy := sy - ly

	// Perpendicular distance from the infinite line.
	if d := dx*ny + dy*(-nx); d > rad || d < -rad {
		return false
	}

	// Beyond either end: fall back to endpoint distance.
	d := dx*nx + dy*ny
	if d < 0 || d > length {
		if math.Sqrt(dx*dx+dy*dy) > rad {
			ex := sx - (lx + nx*length)
			ey := sy - (ly + ny*length)
			if math.Sqrt(ex*ex+ey*ey) > rad {
				return false
			}
		}
	}
	return true
}

// SetLines registers every line into each leaf whose circle it passes.
// Zero-length lines are skipped.
func (t *SphereTree) SetLines(lines []geometry.Line) {
	for i := range t.leaves {
		t.leaves[i].numElements = 0
	}

	type unitLine struct {
		x, y, nx, ny, length float64
	}
	units := make([]unitLine, len(lines))
	for i, l := range lines {
		x := l.P2.X - l.P1.X
		y := l.P2.Y - l.P1.Y
		length := math.Sqrt(x*x + y*y)
		units[i] = unitLine{x: l.P1.X, y: l.P1.Y, length: length}
		if length > 0 {
			units[i].nx = x / length
			units[i].ny = y / length
		}
	}

	// First pass counts entries per leaf, second pass stores them.
	for _, u := range units {
		if u.length > 0 {
			t.count(0, u.x, u.y, u.nx, u.ny, u.length)
		}
	}
	total := 0
	for i := range t.leaves {
		t.leaves[i].firstElement = total
		total += t.leaves[i].numElements
		t.leaves[i].numElements = 0
	}
	t.elements = make([]int, total)
	for i, u := range units {
		if u.length > 0 {
			t.add(0, i, u.x, u.y, u.nx, u.ny, u.length)
		}
	}
}

func (t *SphereTree) count(node int, x, y, nx, ny, length float64) {
	n := &t.nodes[node]
	if !lineInSphere(n.x, n.y, n.rad, x, y, nx, ny, length) {
		return
	}
	if n.hasLeaves {
		t.leaves[n.children[0]].numElements++
		return
	}
	for i := 0; i < 4; i++ {
		t.count(n.children[i], x, y, nx, ny, length)
	}
}

func (t *SphereTree) add(node, element int, x, y, nx, ny, length float64) {
	n := &t.nodes[node]
	if !lineInSphere(n.x, n.y, n.rad, x, y, nx, ny, length) {
		return
	}
	if n.hasLeaves {
		leaf := &t.leaves[n.children[0]]
		t.elements[leaf.firstElement+leaf.numElements] = element
		leaf.numElements++
		return
	}
	for i := 0; i < 4; i++ {
		t.add(n.children[i], element, x, y, nx, ny, length)
	}
}

// ForEachCloseLine invokes fn for every registered line whose leaf
// circle overlaps the disc around (x, y). The callback may fire more
// than once for the same line index; callers that need unique indices
// must deduplicate. Safe for concurrent use.
func (t *SphereTree) ForEachCloseLine(x, y, rad float64, fn func(lineIndex int)) {
	if len(t.nodes) == 0 {
		return
	}
	t.forEachCloseLine(0, x, y, rad, fn)
}

func (t *SphereTree) forEachCloseLine(node int, x, y, rad float64, fn func(int)) {
	n := &t.nodes[node]
	dx := n.x - x
	dy := n.y - y
	if r := n.rad + rad; dx*dx+dy*dy > r*r {
		return
	}
	if n.hasLeaves {
		leaf := t.leaves[n.children[0]]
		for i := leaf.firstElement; i < leaf.firstElement+leaf.numElements; i++ {
			fn(t.elements[i])
		}
		return
	}
	for i := 0; i < 4; i++ {
		t.forEachCloseLine(n.children[i], x, y, rad, fn)
	}
}

// ForEachLineNearSegment invokes fn for every registered line whose
// leaf circle touches the segment (p1, p2). Like ForEachCloseLine the
// callback may fire multiple times per line. Zero-length query
// segments degrade to a point query.
func (t *SphereTree) ForEachLineNearSegment(p1, p2 geometry.Vec, fn func(lineIndex int)) {
	if len(t.nodes) == 0 {
		return
	}
	x := p2.X - p1.X
	y := p2.Y - p1.Y
	length := math.Sqrt(x*x + y*y)
	if length == 0 {
		t.forEachCloseLine(0, p1.X, p1.Y, 0, fn)
		return
	}
	t.forEachLineNearSegment(0, p1.X, p1.Y, x/length, y/length, length, fn)
}

func (t *SphereTree) forEachLineNearSegment(node int, x, y, nx, ny, length float64, fn func(int)) {
	n := &t.nodes[node]
	if !lineInSphere(n.x, n.y, n.rad, x, y, nx, ny, length) {
		return
	}
	if n.hasLeaves {
		leaf := t.leaves[n.children[0]]
		for i := leaf.firstElement; i < leaf.firstElement+leaf.numElements; i++ {
			fn(t.elements[i])
		}
		return
	}
	for i := 0; i < 4; i++ {
		t.forEachLineNearSegment(n.children[i], x, y, nx, ny, length, fn)
	}
}
