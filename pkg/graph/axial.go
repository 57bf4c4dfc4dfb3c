// Package graph contains the network representations used by the
// analysis kernels: the axial graph of lines and crossings, the
// segment graph of lines fused at identical endpoints, and a directed
// multi-distance graph built on demand for shortest-path analyses.
//
// Every entity lives in a dense array and refers to related entities
// by integer index; the graph owns all arrays. Graphs are immutable
// once built and safe for concurrent readers.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/spatial"
)

// minLineLength is the shortest line considered during crossing
// detection; anything below is treated as degenerate and skipped.
const minLineLength = 0.01

// Line is one axial line of the network. Attached points and
// line-crossings occupy contiguous ranges of the graph's auxiliary
// arrays.
type Line struct {
	P1, P2        geometry.Vec
	Length        float64
	Angle         float64 // orientation of P2-P1 in [0, 360)
	FirstPoint    int
	NumPoints     int
	FirstCrossing int
	NumCrossings  int
}

// Mid returns the midpoint of the line.
func (l *Line) Mid() geometry.Vec { return geometry.Mid(l.P1, l.P2) }

// Crossing is a geometric intersection shared by two or more lines,
// unique by coordinate.
type Crossing struct {
	Pt       geometry.Vec
	NumLines int
}

// LineCrossing is a directional half-edge: one end of a crossing
// attached to one line at parametric position LinePos along it.
// Opposite indexes the line-crossing of the other line at the same
// crossing.
type LineCrossing struct {
	Crossing int
	Line     int
	Opposite int
	LinePos  float64
}

// Point is a destination attached to its nearest line. Line < 0 means
// the point could not be attached.
type Point struct {
	Coords       geometry.Vec
	DistFromLine float64
	LinePos      float64
	Line         int
}

// ErrPointGroupMismatch is returned when per-group point counts do not
// sum to the number of points.
var ErrPointGroupMismatch = errors.New("graph: point group sizes do not sum to point count")

// AxialGraph is the indexed axial network: lines, crossings,
// line-crossings, attached points and point groups, plus a sphere tree
// for nearest-line queries.
type AxialGraph struct {
	lines         []Line
	crossings     []Crossing
	lineCrossings []LineCrossing
	points        []Point
	linePoints    []int
	pointGroups   []int

	bbox        geometry.Rect
	maxDist     float64
	worldOrigin geometry.Vec
	sphereTree  *spatial.SphereTree
}

// NewAxialGraph builds the axial graph from world-space line
// coordinates, optional unlink points and optional destination points.
// The world origin is set to the centre of the input bounding box and
// all geometry is stored relative to it.
func NewAxialGraph(lines []geometry.Line, unlinks, points []geometry.Vec) *AxialGraph {
	g := &AxialGraph{}
	if len(lines) == 0 {
		return g
	}

	// Bounding box over every input, in world space.
	g.bbox = geometry.RectFromPoint(lines[0].P1)
	for _, l := range lines {
		g.bbox.Grow(l.P1)
		g.bbox.Grow(l.P2)
	}
	for _, p := range points {
		g.bbox.Grow(p)
	}
	g.worldOrigin = g.bbox.Center()
	g.maxDist = g.bbox.Diagonal()

	// Translate into the local frame.
	g.bbox = geometry.Rect{
		MinX: g.bbox.MinX - g.worldOrigin.X, MinY: g.bbox.MinY - g.worldOrigin.Y,
		MaxX: g.bbox.MaxX - g.worldOrigin.X, MaxY: g.bbox.MaxY - g.worldOrigin.Y,
	}

	g.lines = make([]Line, len(lines))
	localLines := make([]geometry.Line, len(lines))
	for i, l := range lines {
		p1 := g.WorldToLocal(l.P1)
		p2 := g.WorldToLocal(l.P2)
		v := geometry.Sub(p2, p1)
		g.lines[i] = Line{
			P1:     p1,
			P2:     p2,
			Length: geometry.Length(v),
			Angle:  geometry.OrientationAngle(v),
		}
		localLines[i] = geometry.Line{P1: p1, P2: p2}
	}

	g.sphereTree = spatial.NewSphereTree(g.bbox, spatial.SphereTreeLevels(len(lines)))
	g.sphereTree.SetLines(localLines)

	localUnlinks := make([]geometry.Vec, len(unlinks))
	for i, u := range unlinks {
		localUnlinks[i] = g.WorldToLocal(u)
	}
	g.findCrossings(localUnlinks)

	if len(points) > 0 {
		g.connectPoints(points)
	}

	return g
}

// WorldToLocal translates a world-space point into the graph's local
// frame.
func (g *AxialGraph) WorldToLocal(pt geometry.Vec) geometry.Vec {
	return geometry.Sub(pt, g.worldOrigin)
}

// LocalToWorld translates a local point back into world space.
func (g *AxialGraph) LocalToWorld(pt geometry.Vec) geometry.Vec {
	return geometry.Add(pt, g.worldOrigin)
}

// WorldOrigin returns the world-space origin of the local frame.
func (g *AxialGraph) WorldOrigin() geometry.Vec { return g.worldOrigin }

// BB returns the local-frame bounding box of the network.
func (g *AxialGraph) BB() geometry.Rect { return g.bbox }

// LineCount returns the number of lines.
func (g *AxialGraph) LineCount() int { return len(g.lines) }

// CrossingCount returns the number of unique crossings.
func (g *AxialGraph) CrossingCount() int { return len(g.crossings) }

// LineCrossingCount returns the number of line-crossing half-edges.
func (g *AxialGraph) LineCrossingCount() int { return len(g.lineCrossings) }

// PointCount returns the number of destination points, attached or not.
func (g *AxialGraph) PointCount() int { return len(g.points) }

// Line returns line i.
func (g *AxialGraph) Line(i int) *Line { return &g.lines[i] }

// Crossing returns crossing i.
func (g *AxialGraph) Crossing(i int) *Crossing { return &g.crossings[i] }

// LineCrossing returns line-crossing i.
func (g *AxialGraph) LineCrossing(i int) *LineCrossing { return &g.lineCrossings[i] }

// Point returns point i.
func (g *AxialGraph) Point(i int) *Point { return &g.points[i] }

// LinePoint resolves position i of the per-line point-index array.
func (g *AxialGraph) LinePoint(i int) int { return g.linePoints[i] }

// PointGroupCount returns the number of point groups.
func (g *AxialGraph) PointGroupCount() int { return len(g.pointGroups) }

// PointGroupSize returns the number of points in group i.
func (g *AxialGraph) PointGroupSize(i int) int { return g.pointGroups[i] }

// SetPointGroups installs an ordered partition of the point array into
// groups, used by the PointGroups origin type.
func (g *AxialGraph) SetPointGroups(pointsPerGroup []int) error {
	sum := 0
	for _, n := range pointsPerGroup {
		sum += n
	}
	if sum != len(g.points) {
		return fmt.Errorf("%w: %d != %d", ErrPointGroupMismatch, sum, len(g.points))
	}
	g.pointGroups = pointsPerGroup
	return nil
}

// ClosestLine locates the line nearest to the local-frame point pt
// using expanding-radius sphere-tree sampling. It returns the line
// index (-1 when the graph is empty), the perpendicular distance and
// the parametric position in metres along the line.
func (g *AxialGraph) ClosestLine(pt geometry.Vec) (line int, distance, linePos float64) {
	line = -1
	distance, linePos = -1, -1
	if len(g.lines) == 0 {
		return
	}

	graphCenter := g.bbox.Center()
	maxDist := g.maxDist + geometry.Dist(graphCenter, pt)

	tolerance := 15.0
	for {
		tolerance *= 2

		line = -1
		distance, linePos = -1, -1

		g.sphereTree.ForEachCloseLine(pt.X, pt.Y, tolerance, func(lineIndex int) {
			l := &g.lines[lineIndex]
			t, d := geometry.NearestPoint(pt, l.P1, l.P2)
			if line < 0 || d < distance {
				distance = d
				line = lineIndex
				linePos = t * l.Length
			}
		})

		// Only accept a hit closer than the query tolerance; a farther
		// hit may be beaten by a line outside the current radius.
		if distance >= 0 && distance < tolerance {
			break
		}
		if tolerance >= maxDist {
			break
		}
	}
	return
}

// LinesWithinRadius appends to dst the indices of lines whose distance
// to the local point pt is at most radius, without duplicates.
func (g *AxialGraph) LinesWithinRadius(pt geometry.Vec, radius float64, dst []int) []int {
	dst = dst[:0]
	seen := make(map[int]struct{})
	g.sphereTree.ForEachCloseLine(pt.X, pt.Y, radius, func(lineIndex int) {
		if _, ok := seen[lineIndex]; ok {
			return
		}
		seen[lineIndex] = struct{}{}
		l := &g.lines[lineIndex]
		if _, d := geometry.NearestPoint(pt, l.P1, l.P2); d <= radius {
			dst = append(dst, lineIndex)
		}
	})
	sort.Ints(dst)
	return dst
}

type crossRecord struct {
	point    geometry.Vec
	crossing int
	line0    int
	line1    int
}

func (g *AxialGraph) findCrossings(unlinks []geometry.Vec) {
	var crossMap []crossRecord

	// Pair discovery through the sphere tree. Only pairs (i, j) with
	// j > i are recorded; the callback may repeat indices, so candidates
	// are deduplicated per source line.
	seen := make([]int, len(g.lines))
	for i := range seen {
		seen[i] = -1
	}
	for i0 := 0; i0 < len(g.lines)-1; i0++ {
		line0 := &g.lines[i0]
		if line0.Length < minLineLength {
			continue
		}
		var candidates []int
		g.sphereTree.ForEachLineNearSegment(line0.P1, line0.P2, func(i1 int) {
			if i1 <= i0 || seen[i1] == i0 {
				return
			}
			seen[i1] = i0
			candidates = append(candidates, i1)
		})
		sort.Ints(candidates)
		for _, i1 := range candidates {
			line1 := &g.lines[i1]
			if line1.Length < minLineLength {
				continue
			}
			t0, _, ok := geometry.Intersect(
				geometry.Line{P1: line0.P1, P2: line0.P2},
				geometry.Line{P1: line1.P1, P2: line1.P2})
			if !ok {
				continue
			}
			crossMap = append(crossMap, crossRecord{
				point:    geometry.Add(geometry.Scale(1-t0, line0.P1), geometry.Scale(t0, line0.P2)),
				crossing: -1,
				line0:    i0,
				line1:    i1,
			})
		}
	}

	// Unlink resolution. Only true crossings are removed - points where
	// lines meet at endpoints stay connected.
	for _, u := range unlinks {
		closest := -1
		minSqrDist := -1.0
		for i := range crossMap {
			c := &crossMap[i]
			if c.line0 < 0 {
				continue // already unlinked
			}
			sqrDist := geometry.DistSqr(c.point, u)
			if closest < 0 || sqrDist < minSqrDist {
				// Only true crossings qualify; a point where either line
				// ends is a touching connection, not a crossing.
				line0 := &g.lines[c.line0]
				line1 := &g.lines[c.line1]
				if line0.P1 != c.point && line0.P2 != c.point &&
					line1.P1 != c.point && line1.P2 != c.point {
					minSqrDist = sqrDist
					closest = i
				}
			}
		}
		if closest >= 0 {
			crossMap[closest].line0 = -1
		}
	}
	n := 0
	for i := range crossMap {
		if crossMap[i].line0 < 0 {
			continue
		}
		crossMap[n] = crossMap[i]
		n++
	}
	crossMap = crossMap[:n]

	// Assign one crossing id per distinct coordinate, ordering records
	// lexicographically by point.
	order := make([]int, len(crossMap))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		p0 := crossMap[order[a]].point
		p1 := crossMap[order[b]].point
		if p0.X == p1.X {
			return p0.Y < p1.Y
		}
		return p0.X < p1.X
	})

	if len(order) > 0 {
		crossMap[order[0]].crossing = 0
		id := 0
		for i := 1; i < len(order); i++ {
			if crossMap[order[i]].point != crossMap[order[i-1]].point {
				id++
			}
			crossMap[order[i]].crossing = id
		}
		g.crossings = make([]Crossing, id+1)
		last := -1
		var crossingLines []int
		for _, oi := range order {
			c := &crossMap[oi]
			if c.crossing != last {
				last = c.crossing
				g.crossings[c.crossing] = Crossing{Pt: c.point}
				crossingLines = crossingLines[:0]
			}
			for _, l := range [2]int{c.line0, c.line1} {
				if !containsInt(crossingLines, l) {
					crossingLines = append(crossingLines, l)
					g.crossings[c.crossing].NumLines++
				}
			}
		}
	}

	// Bucket line-crossings into contiguous per-line ranges.
	for i := range g.lines {
		g.lines[i].NumCrossings = 0
	}
	for i := range crossMap {
		g.lines[crossMap[i].line0].NumCrossings++
		g.lines[crossMap[i].line1].NumCrossings++
	}
	total := 0
	for i := range g.lines {
		g.lines[i].FirstCrossing = total
		total += g.lines[i].NumCrossings
		g.lines[i].NumCrossings = 0
	}

	g.lineCrossings = make([]LineCrossing, len(crossMap)*2)
	for i := range crossMap {
		c := &crossMap[i]
		line0 := &g.lines[c.line0]
		line1 := &g.lines[c.line1]
		lc0Index := line0.FirstCrossing + line0.NumCrossings
		line0.NumCrossings++
		lc1Index := line1.FirstCrossing + line1.NumCrossings
		line1.NumCrossings++
		g.lineCrossings[lc0Index] = LineCrossing{
			Crossing: c.crossing,
			Line:     c.line0,
			Opposite: lc1Index,
			LinePos:  linePosition(c.point, line0),
		}
		g.lineCrossings[lc1Index] = LineCrossing{
			Crossing: c.crossing,
			Line:     c.line1,
			Opposite: lc0Index,
			LinePos:  linePosition(c.point, line1),
		}
	}
}

// linePosition projects a crossing point onto a line, in metres from
// P1. A point equal to P2 maps to exactly the line length so endpoint
// crossings do not pick up rounding slack.
func linePosition(pt geometry.Vec, l *Line) float64 {
	if pt == l.P2 {
		return l.Length
	}
	return geometry.Dot(geometry.Sub(pt, l.P1), geometry.Sub(l.P2, l.P1)) / l.Length
}

func (g *AxialGraph) connectPoints(points []geometry.Vec) {
	for i := range g.lines {
		g.lines[i].NumPoints = 0
	}

	g.points = make([]Point, len(points))
	for i, world := range points {
		pt := &g.points[i]
		pt.Coords = g.WorldToLocal(world)
		pt.Line, pt.DistFromLine, pt.LinePos = g.ClosestLine(pt.Coords)
		if pt.Line >= 0 {
			g.lines[pt.Line].NumPoints++
		}
	}

	// Second pass lays point indices out contiguously per line.
	g.linePoints = make([]int, len(g.points))
	first := 0
	for i := range g.lines {
		g.lines[i].FirstPoint = first
		first += g.lines[i].NumPoints
		g.lines[i].NumPoints = 0
	}
	for i := range g.points {
		pt := &g.points[i]
		if pt.Line < 0 {
			continue
		}
		l := &g.lines[pt.Line]
		g.linePoints[l.FirstPoint+l.NumPoints] = i
		l.NumPoints++
	}
}

// AttachedPointCount returns the number of points attached to a line.
func (g *AxialGraph) AttachedPointCount() int {
	n := 0
	for i := range g.points {
		if g.points[i].Line >= 0 {
			n++
		}
	}
	return n
}

// JunctionCoords returns every crossing coordinate in world space.
func (g *AxialGraph) JunctionCoords() []geometry.Vec {
	out := make([]geometry.Vec, len(g.crossings))
	for i := range g.crossings {
		out[i] = g.LocalToWorld(g.crossings[i].Pt)
	}
	return out
}
