package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
)

func crossGraph() *graph.AxialGraph {
	return graph.NewAxialGraph([]geometry.Line{
		{P1: geometry.V(-1, 0), P2: geometry.V(1, 0)},
		{P1: geometry.V(0, -1), P2: geometry.V(0, 1)},
	}, nil, nil)
}

func crossGraphUnlinked() *graph.AxialGraph {
	return graph.NewAxialGraph([]geometry.Line{
		{P1: geometry.V(-1, 0), P2: geometry.V(1, 0)},
		{P1: geometry.V(0, -1), P2: geometry.V(0, 1)},
	}, []geometry.Vec{geometry.V(0, 0)}, nil)
}

func chainAxialGraph() *graph.AxialGraph {
	return graph.NewAxialGraph([]geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(1, 0)},
		{P1: geometry.V(1, 0), P2: geometry.V(2, 0)},
		{P1: geometry.V(2, 0), P2: geometry.V(2, 1)},
	}, nil, nil)
}

func TestReachCrossWithinOneStep(t *testing.T) {
	g := crossGraph()
	var r dist.Radii
	r.SetSteps(1)

	count := make([]int, 2)
	length := make([]float64, 2)
	require.NoError(t, Reach(g, ReachOptions{Radii: r}, count, length, nil))

	assert.Equal(t, []int{2, 2}, count)
	assert.InDelta(t, 4.0, length[0], 1e-9)
	assert.InDelta(t, 4.0, length[1], 1e-9)
}

func TestReachUnlinkedCross(t *testing.T) {
	// S2: after the unlink each line only reaches itself.
	g := crossGraphUnlinked()
	var r dist.Radii
	r.SetSteps(1)

	count := make([]int, 2)
	require.NoError(t, Reach(g, ReachOptions{Radii: r}, count, nil, nil))
	assert.Equal(t, []int{1, 1}, count)
}

func TestReachSingleLine(t *testing.T) {
	g := graph.NewAxialGraph([]geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(5, 0)},
	}, nil, nil)

	count := make([]int, 1)
	require.NoError(t, Reach(g, ReachOptions{}, count, nil, nil))
	assert.Equal(t, []int{1}, count)
}

func TestReachStraightOnlyAreaIsDisc(t *testing.T) {
	g := crossGraph()
	var r dist.Radii
	r.SetStraight(10)

	count := make([]int, 2)
	area := make([]float64, 2)
	require.NoError(t, Reach(g, ReachOptions{Radii: r}, count, nil, area))

	assert.Equal(t, []int{2, 2}, count)
	assert.InDelta(t, 100*math.Pi, area[0], 1e-6)
}

func TestReachConvexHullArea(t *testing.T) {
	// A square ring of four lines; the hull of all endpoints is the
	// unit square.
	g := graph.NewAxialGraph([]geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(1, 0)},
		{P1: geometry.V(1, 0), P2: geometry.V(1, 1)},
		{P1: geometry.V(1, 1), P2: geometry.V(0, 1)},
		{P1: geometry.V(0, 1), P2: geometry.V(0, 0)},
	}, nil, nil)

	area := make([]float64, 4)
	require.NoError(t, Reach(g, ReachOptions{}, nil, nil, area))
	for i := range area {
		assert.InDelta(t, 1.0, area[i], 1e-9, "hull area from line %d", i)
	}
}

func TestReachFromOriginPoints(t *testing.T) {
	g := chainAxialGraph()
	var r dist.Radii
	r.SetSteps(0)

	origins := []geometry.Vec{geometry.V(0.5, 0), geometry.V(2, 0.5)}
	count := make([]int, 2)
	require.NoError(t, Reach(g, ReachOptions{Radii: r, OriginPoints: origins}, count, nil, nil))
	assert.Equal(t, []int{1, 1}, count, "zero steps reaches only the entry line")
}

func TestReachOutputSizeMismatch(t *testing.T) {
	g := crossGraph()
	err := Reach(g, ReachOptions{}, make([]int, 3), nil, nil)
	assert.ErrorIs(t, err, ErrOutputSize)
}

func TestReachEmptyGraph(t *testing.T) {
	g := graph.NewAxialGraph(nil, nil, nil)
	require.NoError(t, Reach(g, ReachOptions{}, []int{}, nil, nil))
}
