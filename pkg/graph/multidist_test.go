package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
)

func TestResolveDistanceTypes(t *testing.T) {
	var r dist.Radii
	r.SetStraight(100)
	r.SetSteps(3)

	types, limits, straight := ResolveDistanceTypes(dist.Walking, r)
	require.Equal(t, []dist.Type{dist.Walking, dist.Steps}, types)
	assert.Equal(t, 100.0, straight)
	assert.True(t, limits[0] > 1e300, "walking cap unset means unbounded")
	assert.Equal(t, 3.0, limits[1])
}

func TestBuildMultiDistGraphWalking(t *testing.T) {
	// One long line crossed by a short one, a destination point on the
	// long line's far end, one origin at its near end.
	lines := []geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(10, 0)},
		{P1: geometry.V(5, -1), P2: geometry.V(5, 1)},
	}
	points := []geometry.Vec{geometry.V(9, 0.5)}
	g := NewAxialGraph(lines, nil, points)
	require.Equal(t, 1, g.PointCount())
	require.Equal(t, 2, g.LineCrossingCount())

	origins := []geometry.Vec{g.WorldToLocal(geometry.V(1, 0))}
	mdg, err := BuildMultiDistGraph(g, MultiDistOptions{
		DistanceTypes:   []dist.Type{dist.Walking, dist.Steps},
		Origins:         origins,
		DestinationType: ElementPoint,
	})
	require.NoError(t, err)

	// One node per line-crossing plus one origin.
	assert.Equal(t, 2, mdg.NetworkNodeCount())
	assert.Equal(t, 1, mdg.OriginNodeCount())
	assert.Equal(t, 1, mdg.DestinationCount())
	assert.Equal(t, dist.Walking, mdg.PrimaryDistanceType())
	assert.Equal(t, 2, mdg.DistanceTypeCount())

	// The origin node reaches the crossing on its line and the
	// destination point directly.
	origin := mdg.OriginNodeIndex(0)
	foundDest := false
	foundNode := false
	for e := 0; e < mdg.EdgeCount(origin); e++ {
		target, destIndex, dists := mdg.Edge(origin, e)
		if destIndex >= 0 {
			foundDest = true
			assert.Equal(t, 0, destIndex)
			// |9-1| along the line plus 0.5 perpendicular.
			assert.InDelta(t, 8.5, dists[0], 1e-6)
		} else {
			foundNode = true
			assert.GreaterOrEqual(t, target, 0)
			// 1 m to the line start side... the only crossing is at 5 m,
			// so 4 m along the line.
			assert.InDelta(t, 4.0, dists[0], 1e-6)
			assert.Equal(t, 1.0, dists[1], "steps contribution is 1")
		}
	}
	assert.True(t, foundDest, "origin must have a destination edge")
	assert.True(t, foundNode, "origin must have a network edge")
}

func TestBuildMultiDistGraphAngularDoublesNodes(t *testing.T) {
	lines := []geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(10, 0)},
		{P1: geometry.V(5, -1), P2: geometry.V(5, 1)},
	}
	g := NewAxialGraph(lines, nil, nil)
	mdg, err := BuildMultiDistGraph(g, MultiDistOptions{
		DistanceTypes:   []dist.Type{dist.Angular},
		DestinationType: ElementLine,
	})
	require.NoError(t, err)
	assert.Equal(t, g.LineCrossingCount()*2, mdg.NetworkNodeCount(),
		"angular mode creates forward and backward nodes")
}

func TestBuildMultiDistGraphRejectsBadTypes(t *testing.T) {
	g := NewAxialGraph(crossLines(), nil, nil)

	_, err := BuildMultiDistGraph(g, MultiDistOptions{
		DistanceTypes:   []dist.Type{dist.Straight},
		DestinationType: ElementLine,
	})
	assert.ErrorIs(t, err, ErrUnsupportedDistanceType)

	_, err = BuildMultiDistGraph(g, MultiDistOptions{
		DistanceTypes:   []dist.Type{dist.Walking, dist.Steps, dist.Angular, dist.Weights, dist.Walking},
		DestinationType: ElementLine,
	})
	assert.ErrorIs(t, err, ErrTooManyDistanceTypes)
}

func TestBuildMultiDistGraphLineWeights(t *testing.T) {
	lines := []geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(10, 0)},
		{P1: geometry.V(5, -1), P2: geometry.V(5, 1)},
	}
	g := NewAxialGraph(lines, nil, nil)
	mdg, err := BuildMultiDistGraph(g, MultiDistOptions{
		DistanceTypes:   []dist.Type{dist.Weights},
		LineWeights:     []float64{3, 1},
		DestinationType: ElementLine,
		Origins:         []geometry.Vec{g.WorldToLocal(geometry.V(0, 0))},
	})
	require.NoError(t, err)

	// The origin edge along line 0 spans 5 m at weight 3 per metre.
	origin := mdg.OriginNodeIndex(0)
	foundWeighted := false
	for e := 0; e < mdg.EdgeCount(origin); e++ {
		target, _, dists := mdg.Edge(origin, e)
		if target >= 0 {
			foundWeighted = true
			assert.InDelta(t, 15.0, dists[0], 1e-6)
		}
	}
	assert.True(t, foundWeighted)
}
