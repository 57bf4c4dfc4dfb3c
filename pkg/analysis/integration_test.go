package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
)

func TestIntegrationScoreDegenerate(t *testing.T) {
	assert.Equal(t, -1.0, IntegrationScore(0, 0))
	assert.Equal(t, -1.0, IntegrationScore(1, 0))
}

func TestIntegrationCross(t *testing.T) {
	// S1: each line of the cross reaches the other at depth 1;
	// N=2 leaves the relative asymmetry undefined.
	g := crossGraph()

	scores := make([]float64, 2)
	nodeCounts := make([]int, 2)
	totalDepths := make([]float64, 2)
	require.NoError(t, Integration(g, IntegrationOptions{}, scores, nodeCounts, totalDepths))

	assert.Equal(t, []int{2, 2}, nodeCounts)
	assert.Equal(t, []float64{1, 1}, totalDepths)
	assert.Equal(t, []float64{-1, -1}, scores)
}

func TestIntegrationSingleLine(t *testing.T) {
	g := graph.NewAxialGraph([]geometry.Line{
		{P1: geometry.V(0, 0), P2: geometry.V(5, 0)},
	}, nil, nil)

	scores := make([]float64, 1)
	nodeCounts := make([]int, 1)
	require.NoError(t, Integration(g, IntegrationOptions{}, scores, nodeCounts, nil))
	assert.Equal(t, 1, nodeCounts[0])
	assert.Equal(t, -1.0, scores[0])
}

func TestIntegrationChainDepths(t *testing.T) {
	g := chainAxialGraph()

	nodeCounts := make([]int, 3)
	totalDepths := make([]float64, 3)
	scores := make([]float64, 3)
	require.NoError(t, Integration(g, IntegrationOptions{}, scores, nodeCounts, totalDepths))

	assert.Equal(t, []int{3, 3, 3}, nodeCounts)
	// From the ends: 1 + 2. From the middle: 1 + 1.
	assert.Equal(t, 3.0, totalDepths[0])
	assert.Equal(t, 2.0, totalDepths[1])
	assert.Equal(t, 3.0, totalDepths[2])
	// Middle line is better integrated.
	assert.Greater(t, scores[1], scores[0])
}

func TestIntegrationJunctionScores(t *testing.T) {
	g := crossGraph()
	junction, err := IntegrationJunctionScores(g, []float64{2, 4})
	require.NoError(t, err)
	require.Len(t, junction, 1)
	// Each line contributes score/2 to the shared crossing.
	assert.InDelta(t, 3.0, junction[0], 1e-9)

	_, err = IntegrationJunctionScores(g, []float64{1})
	assert.ErrorIs(t, err, ErrInputSize)
}

func TestIntegrationEmptyGraph(t *testing.T) {
	g := graph.NewAxialGraph(nil, nil, nil)
	require.NoError(t, Integration(g, IntegrationOptions{}, []float64{}, []int{}, []float64{}))
}
