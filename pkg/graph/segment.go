package graph

import (
	"sort"

	"github.com/urbanmorph/axialnet/pkg/geometry"
)

// Intersection is a hyperedge of the segment graph: a coordinate plus
// the segment indices incident at that coordinate. Created by fusing
// identical line endpoints.
type Intersection struct {
	Pos      geometry.Vec
	Segments []int
}

// Segment is a node of the segment graph, one per input line.
// Intersections[0] and [1] belong to the line's first and second
// endpoint respectively; nil means a dead end.
type Segment struct {
	Center        geometry.Vec
	Orientation   float64
	Length        float64
	Intersections [2]*Intersection
}

// SegmentGraph treats lines as nodes and fused endpoints as
// hyperedges, the representation used by the angular analyses.
type SegmentGraph struct {
	segments    []Segment
	worldOrigin geometry.Vec
}

// NewSegmentGraph builds the segment graph from world-space line
// coordinates. coords holds the endpoint pool; indices, when non-nil,
// selects two coordinate indices per line (pairs sharing a coordinate
// index fuse trivially). A nil indices means line i uses coords[2i] and
// coords[2i+1], and identical coordinates fuse by value.
func NewSegmentGraph(coords []geometry.Vec, indices []int, lineCount int) *SegmentGraph {
	g := &SegmentGraph{}

	coordCount := len(coords)
	if indices == nil {
		coordCount = lineCount * 2
	}
	if coordCount == 0 {
		return g
	}

	bb := geometry.RectFromPoints(coords[:coordCount])
	g.worldOrigin = bb.Center()

	coordIndex := func(line, end int) int {
		if indices != nil {
			return indices[line*2+end]
		}
		return line*2 + end
	}

	// Count how many line endpoints use each coordinate index.
	occurrences := make([]int, coordCount)
	for i := 0; i < lineCount*2; i++ {
		if indices != nil {
			occurrences[indices[i]]++
		} else {
			occurrences[i]++
		}
	}

	// Group coordinate indices by (x, y); any run of identical
	// coordinates used by two or more endpoints becomes an intersection.
	order := make([]int, coordCount)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		p0 := coords[order[a]]
		p1 := coords[order[b]]
		if p0.X == p1.X {
			return p0.Y < p1.Y
		}
		return p0.X < p1.X
	})

	coordToIntersection := make([]*Intersection, coordCount)
	for i := 0; i < len(order); {
		start := i
		segCount := 0
		for ; i < len(order) && coords[order[i]] == coords[order[start]]; i++ {
			segCount += occurrences[order[i]]
		}
		if segCount <= 1 {
			continue // dead end
		}
		intersection := &Intersection{
			Pos:      geometry.Sub(coords[order[start]], g.worldOrigin),
			Segments: make([]int, 0, segCount),
		}
		for j := start; j < i; j++ {
			coordToIntersection[order[j]] = intersection
		}
	}

	g.segments = make([]Segment, lineCount)
	for line := 0; line < lineCount; line++ {
		p0 := coords[coordIndex(line, 0)]
		p1 := coords[coordIndex(line, 1)]
		v := geometry.Sub(p1, p0)
		seg := &g.segments[line]
		seg.Length = geometry.Length(v)
		seg.Orientation = geometry.OrientationAngle(v)
		seg.Center = geometry.Sub(geometry.Mid(p0, p1), g.worldOrigin)

		for end := 0; end < 2; end++ {
			intersection := coordToIntersection[coordIndex(line, end)]
			seg.Intersections[end] = intersection
			if intersection != nil {
				intersection.Segments = append(intersection.Segments, line)
			}
		}
	}

	return g
}

// SegmentGraphFromLines is a convenience wrapper flattening lines into
// the coordinate-pool form.
func SegmentGraphFromLines(lines []geometry.Line) *SegmentGraph {
	coords := make([]geometry.Vec, len(lines)*2)
	for i, l := range lines {
		coords[i*2] = l.P1
		coords[i*2+1] = l.P2
	}
	return NewSegmentGraph(coords, nil, len(lines))
}

// SegmentCount returns the number of segments.
func (g *SegmentGraph) SegmentCount() int { return len(g.segments) }

// Segment returns segment i.
func (g *SegmentGraph) Segment(i int) *Segment { return &g.segments[i] }

// WorldOrigin returns the world-space origin of the local frame.
func (g *SegmentGraph) WorldOrigin() geometry.Vec { return g.worldOrigin }
