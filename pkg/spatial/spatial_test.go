package spatial

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/geometry"
)

func randomPoints(n int, seed int64) []geometry.Vec {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]geometry.Vec, n)
	for i := range pts {
		pts[i] = geometry.V(rng.Float64()*1000-500, rng.Float64()*1000-500)
	}
	return pts
}

// TestPointTreeSelfLookup checks that a zero-radius sphere query at an
// input point reports a cell containing that point's permuted position.
func TestPointTreeSelfLookup(t *testing.T) {
	pts := randomPoints(300, 1)
	tree, order := NewPointTree(pts, 0)

	var sets []ObjectSet
	for i, pt := range pts {
		sets = tree.TestSphere(pt, 0, sets)
		found := false
		for _, set := range sets {
			if order[i] >= set.First && order[i] < set.First+set.Count {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("point %d not found by TestSphere(p, 0)", i)
		}
		// The permuted position must hold the original coordinates.
		if tree.Point(order[i]) != pts[i] {
			t.Fatalf("order mapping broken for point %d", i)
		}
	}
}

func TestPointTreeSphereQueryMatchesBruteForce(t *testing.T) {
	pts := randomPoints(500, 2)
	tree, order := NewPointTree(pts, 8)

	fromBSP := make([]int, len(order))
	for i, pos := range order {
		fromBSP[pos] = i
	}

	centers := randomPoints(20, 3)
	for _, center := range centers {
		radius := 120.0

		want := map[int]bool{}
		for i, pt := range pts {
			if geometry.DistSqr(pt, center) <= radius*radius {
				want[i] = true
			}
		}

		got := map[int]bool{}
		var sets []ObjectSet
		sets = tree.TestSphere(center, radius, sets)
		for _, set := range sets {
			for k := 0; k < set.Count; k++ {
				i := fromBSP[set.First+k]
				if geometry.DistSqr(pts[i], center) <= radius*radius {
					got[i] = true
				}
			}
		}
		assert.Equal(t, want, got)
	}
}

func TestPointTreeEmpty(t *testing.T) {
	tree, order := NewPointTree(nil, 0)
	require.Empty(t, order)
	assert.Empty(t, tree.TestSphere(geometry.V(0, 0), 10, nil))
}

func randomLines(n int, seed int64) []geometry.Line {
	rng := rand.New(rand.NewSource(seed))
	lines := make([]geometry.Line, n)
	for i := range lines {
		p := geometry.V(rng.Float64()*1000-500, rng.Float64()*1000-500)
		d := geometry.V(rng.Float64()*60-30, rng.Float64()*60-30)
		lines[i] = geometry.Line{P1: p, P2: geometry.Add(p, d)}
	}
	return lines
}

func TestLineTreeCapsuleQueryFindsAllCloseLines(t *testing.T) {
	lines := randomLines(400, 4)
	tree := NewLineTree(lines, 8)

	queries := randomLines(25, 5)
	for _, q := range queries {
		radius := 40.0

		want := map[int]bool{}
		for i, l := range lines {
			if geometry.SegmentDistance(q.P1, q.P2, l.P1, l.P2) <= radius {
				want[i] = true
			}
		}

		got := map[int]bool{}
		var sets []ObjectSet
		sets = tree.TestCapsule(q.P1, q.P2, radius, sets)
		for _, set := range sets {
			for k := 0; k < set.Count; k++ {
				i := tree.LineIndex(set.First + k)
				if geometry.SegmentDistance(q.P1, q.P2, lines[i].P1, lines[i].P2) <= radius {
					got[i] = true
				}
			}
		}
		assert.Equal(t, want, got, "capsule query must be a superset of the true close set")
	}
}

func TestSphereTreeLevels(t *testing.T) {
	assert.Equal(t, 3, SphereTreeLevels(0))
	assert.Equal(t, 3, SphereTreeLevels(100))
	assert.GreaterOrEqual(t, SphereTreeLevels(100000), 4)
}

func TestSphereTreeFindsRegisteredLines(t *testing.T) {
	lines := randomLines(300, 6)
	bb := geometry.RectFromPoint(lines[0].P1)
	for _, l := range lines {
		bb.Grow(l.P1)
		bb.Grow(l.P2)
	}
	tree := NewSphereTree(bb, SphereTreeLevels(len(lines)))
	tree.SetLines(lines)

	// Every line must be discoverable by a point query at its midpoint.
	for i, l := range lines {
		mid := l.Mid()
		found := false
		tree.ForEachCloseLine(mid.X, mid.Y, 1, func(index int) {
			if index == i {
				found = true
			}
		})
		if !found {
			t.Fatalf("line %d not found at its own midpoint", i)
		}
	}
}

func TestSphereTreeSegmentQuery(t *testing.T) {
	lines := []geometry.Line{
		{P1: geometry.V(-100, 0), P2: geometry.V(100, 0)},
		{P1: geometry.V(0, -100), P2: geometry.V(0, 100)},
		{P1: geometry.V(400, 400), P2: geometry.V(500, 400)},
	}
	bb := geometry.Rect{MinX: -100, MinY: -100, MaxX: 500, MaxY: 400}
	tree := NewSphereTree(bb, 4)
	tree.SetLines(lines)

	seen := map[int]bool{}
	tree.ForEachLineNearSegment(geometry.V(-50, -50), geometry.V(50, 50), func(index int) {
		seen[index] = true
	})
	assert.True(t, seen[0], "horizontal line crosses the query segment")
	assert.True(t, seen[1], "vertical line crosses the query segment")
}
