package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAngleDiff(t *testing.T) {
	cases := []struct {
		a1, a2, want float64
	}{
		{0, 0, 0},
		{0, 90, 90},
		{90, 0, 90},
		{0, 180, 180},
		{10, 350, 20},
		{350, 10, 20},
		{0, 270, 90},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, AngleDiff(c.a1, c.a2), 1e-12, "angleDiff(%v, %v)", c.a1, c.a2)
	}
}

func TestReverseAngle(t *testing.T) {
	assert.Equal(t, 180.0, ReverseAngle(0))
	assert.Equal(t, 0.0, ReverseAngle(180))
	assert.Equal(t, 270.0, ReverseAngle(90))
	assert.Equal(t, 90.0, ReverseAngle(270))
}

func TestOrientationAngle(t *testing.T) {
	assert.InDelta(t, 0, OrientationAngle(V(1, 0)), 1e-9)
	assert.InDelta(t, 90, OrientationAngle(V(0, 1)), 1e-9)
	assert.InDelta(t, 180, OrientationAngle(V(-1, 0)), 1e-9)
	assert.InDelta(t, 270, OrientationAngle(V(0, -1)), 1e-9)
	assert.InDelta(t, 45, OrientationAngle(V(1, 1)), 1e-9)
}

func TestSyntaxAngle(t *testing.T) {
	assert.InDelta(t, 0, SyntaxAngle(0), 1e-12)
	assert.InDelta(t, 1, SyntaxAngle(90), 1e-12)
	assert.InDelta(t, 2, SyntaxAngle(180), 1e-12)
}

func TestIntersectCrossing(t *testing.T) {
	a := Line{P1: V(-1, 0), P2: V(1, 0)}
	b := Line{P1: V(0, -1), P2: V(0, 1)}
	t1, t2, ok := Intersect(a, b)
	require.True(t, ok)
	assert.InDelta(t, 0.5, t1, 1e-9)
	assert.InDelta(t, 0.5, t2, 1e-9)
}

func TestIntersectSharedEndpointsPinned(t *testing.T) {
	a := Line{P1: V(0, 0), P2: V(1, 0)}
	b := Line{P1: V(1, 0), P2: V(1, 1)}
	t1, t2, ok := Intersect(a, b)
	require.True(t, ok)
	assert.Equal(t, 1.0, t1, "shared endpoint must pin exactly")
	assert.Equal(t, 0.0, t2)
}

func TestIntersectParallelAndDisjoint(t *testing.T) {
	a := Line{P1: V(0, 0), P2: V(1, 0)}
	b := Line{P1: V(0, 1), P2: V(1, 1)}
	_, _, ok := Intersect(a, b)
	assert.False(t, ok, "parallel lines must not intersect")

	c := Line{P1: V(5, 5), P2: V(6, 5)}
	d := Line{P1: V(0, -1), P2: V(0, 1)}
	_, _, ok = Intersect(c, d)
	assert.False(t, ok, "disjoint segments must not intersect")
}

func TestNearestPoint(t *testing.T) {
	l1, l2 := V(0, 0), V(10, 0)

	pos, d := NearestPoint(V(5, 3), l1, l2)
	assert.InDelta(t, 0.5, pos, 1e-9)
	assert.InDelta(t, 3, d, 1e-9)

	pos, d = NearestPoint(V(-4, 0), l1, l2)
	assert.Equal(t, 0.0, pos, "before segment clamps to start")
	assert.InDelta(t, 4, d, 1e-9)

	pos, d = NearestPoint(V(13, 4), l1, l2)
	assert.Equal(t, 1.0, pos, "past segment clamps to end")
	assert.InDelta(t, 5, d, 1e-9)

	// Degenerate segment.
	pos, d = NearestPoint(V(3, 4), V(0, 0), V(0, 0))
	assert.Equal(t, 0.0, pos)
	assert.InDelta(t, 5, d, 1e-9)
}

func TestConvexHullSquare(t *testing.T) {
	pts := []Vec{
		V(0, 0), V(1, 0), V(0, 1), V(1, 1),
		V(0.5, 0.5), V(0.25, 0.75), // interior
	}
	pts = SortAndDedupPoints(pts)
	hull := ConvexHull(pts)
	require.Len(t, hull, 4)
	assert.InDelta(t, 1.0, ConvexPolyArea(hull), 1e-9)
}

func TestConvexHullCollinear(t *testing.T) {
	pts := SortAndDedupPoints([]Vec{V(0, 0), V(1, 0), V(2, 0), V(3, 0)})
	hull := ConvexHull(pts)
	assert.InDelta(t, 0, ConvexPolyArea(hull), 1e-12)
}

func TestConvexHullSmallInputs(t *testing.T) {
	assert.Empty(t, ConvexHull(nil))
	assert.Len(t, ConvexHull([]Vec{V(1, 2)}), 1)
	assert.Len(t, ConvexHull([]Vec{V(1, 2), V(3, 4)}), 2)
}

func TestSortAndDedupPoints(t *testing.T) {
	pts := SortAndDedupPoints([]Vec{V(2, 1), V(0, 0), V(2, 1), V(0, 0), V(1, 5)})
	require.Len(t, pts, 3)
	assert.Equal(t, V(0, 0), pts[0])
	assert.Equal(t, V(1, 5), pts[1])
	assert.Equal(t, V(2, 1), pts[2])
}

func TestSampleRegionEdgesUnitSquare(t *testing.T) {
	square := []Vec{V(0, 0), V(1, 0), V(1, 1), V(0, 1)}
	pts := SampleRegionEdges(square, 0.5)
	// First vertex plus one point every 0.5 m along a 4 m perimeter,
	// with the closing gap kept in [0.25, 0.75].
	require.NotEmpty(t, pts)
	assert.Equal(t, V(0, 0), pts[0])
	assert.Len(t, pts, 8)
}

func TestSampleRegionEdgesSeparators(t *testing.T) {
	nan := math.NaN()
	region := []Vec{
		V(0, 0), V(1, 0), V(1, 1), V(0, 1),
		V(nan, nan),
		V(10, 10), V(11, 10), V(11, 11), V(10, 11),
	}
	pts := SampleRegionEdges(region, 0.5)
	assert.Len(t, pts, 16, "two rings sample independently")
}

func TestRectOverlaps(t *testing.T) {
	r := Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	assert.True(t, r.OverlapsDisc(V(5, 5), 1))
	assert.True(t, r.OverlapsDisc(V(-1, 5), 1.5))
	assert.False(t, r.OverlapsDisc(V(-3, 5), 1))
	assert.True(t, r.OverlapsCapsule(V(-5, 5), V(15, 5), 0.1))
	assert.False(t, r.OverlapsCapsule(V(-5, 20), V(15, 20), 1))
}
