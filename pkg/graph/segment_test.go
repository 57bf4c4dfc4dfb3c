package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/geometry"
)

func chainLines() []geometry.Line {
	return []geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(1, 0)},
		{P1: geometry.V(1, 0), P2: geometry.V(2, 0)},
		{P1: geometry.V(2, 0), P2: geometry.V(2, 1)},
	}
}

func TestSegmentGraphChain(t *testing.T) {
	g := SegmentGraphFromLines(chainLines())
	require.Equal(t, 3, g.SegmentCount())

	a := g.Segment(0)
	b := g.Segment(1)
	c := g.Segment(2)

	// Dead ends at the chain's outer tips.
	assert.Nil(t, a.Intersections[0])
	assert.Nil(t, c.Intersections[1])

	// A's end fuses with B's start, B's end with C's start.
	require.NotNil(t, a.Intersections[1])
	assert.Same(t, a.Intersections[1], b.Intersections[0])
	require.NotNil(t, b.Intersections[1])
	assert.Same(t, b.Intersections[1], c.Intersections[0])

	assert.ElementsMatch(t, []int{0, 1}, a.Intersections[1].Segments)
	assert.ElementsMatch(t, []int{1, 2}, b.Intersections[1].Segments)

	// Invariant: segment i appears in intersections[k].Segments iff its
	// endpoint k lies at that intersection.
	for i := 0; i < g.SegmentCount(); i++ {
		seg := g.Segment(i)
		for k := 0; k < 2; k++ {
			if seg.Intersections[k] == nil {
				continue
			}
			found := false
			for _, s := range seg.Intersections[k].Segments {
				if s == i {
					found = true
				}
			}
			assert.True(t, found, "segment %d missing from its endpoint-%d intersection", i, k)
		}
	}
}

func TestSegmentGeometry(t *testing.T) {
	g := SegmentGraphFromLines(chainLines())
	a := g.Segment(0)
	assert.InDelta(t, 1.0, a.Length, 1e-9)
	assert.InDelta(t, 0.0, a.Orientation, 1e-9)

	c := g.Segment(2)
	assert.InDelta(t, 90.0, c.Orientation, 1e-9)
}

func TestSegmentGraphIndexedCoordinates(t *testing.T) {
	// Shared coordinate indices fuse without value comparison.
	coords := []geometry.Vec{
		geometry.V(0, 0), geometry.V(1, 0), geometry.V(2, 0),
	}
	indices := []int{0, 1 /* line 0 */, 1, 2 /* line 1 */}
	g := NewSegmentGraph(coords, indices, 2)
	require.Equal(t, 2, g.SegmentCount())
	assert.Same(t, g.Segment(0).Intersections[1], g.Segment(1).Intersections[0])
	assert.ElementsMatch(t, []int{0, 1}, g.Segment(0).Intersections[1].Segments)
}

func TestSegmentGraphStarIntersection(t *testing.T) {
	// Four segments meeting at one point form a single intersection of
	// degree four.
	lines := []geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(1, 0)},
		{P1: geometry.V(0, 0), P2: geometry.V(-1, 0)},
		{P1: geometry.V(0, 0), P2: geometry.V(0, 1)},
		{P1: geometry.V(0, 0), P2: geometry.V(0, -1)},
	}
	g := SegmentGraphFromLines(lines)
	hub := g.Segment(0).Intersections[0]
	require.NotNil(t, hub)
	assert.Len(t, hub.Segments, 4)
	for i := 1; i < 4; i++ {
		assert.Same(t, hub, g.Segment(i).Intersections[0])
	}
}

func TestSegmentGraphEmpty(t *testing.T) {
	g := SegmentGraphFromLines(nil)
	assert.Equal(t, 0, g.SegmentCount())
}
