package dist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZeroRadiiUnbounded(t *testing.T) {
	var r Radii
	assert.True(t, math.IsInf(r.Straight(), 1))
	assert.True(t, math.IsInf(r.Walking(), 1))
	assert.Equal(t, math.MaxInt, r.Steps())
	assert.True(t, math.IsInf(r.Angular(), 1))
	assert.True(t, math.IsInf(r.Axmeter(), 1))
	assert.Equal(t, uint(0), r.Mask())
}

func TestSettersAndGetters(t *testing.T) {
	var r Radii
	r.SetStraight(100)
	r.SetWalking(500)
	r.SetSteps(3)
	r.SetAngular(90)
	r.SetAxmeter(1200)

	assert.Equal(t, 100.0, r.Straight())
	assert.Equal(t, 10000.0, r.StraightSqr())
	assert.Equal(t, 500.0, r.Walking())
	assert.Equal(t, 3, r.Steps())
	assert.Equal(t, 90.0, r.Angular())
	assert.Equal(t, 1200.0, r.Axmeter())

	assert.Equal(t, 500.0, r.Get(Walking))
	assert.Equal(t, 500.0, r.Get(Weights), "Weights shares the walking cap")
	assert.Equal(t, 3.0, r.Get(Steps))
}

func TestLimitsRoundTrip(t *testing.T) {
	cases := []func(*Radii){
		func(r *Radii) {},
		func(r *Radii) { r.SetStraight(50) },
		func(r *Radii) { r.SetWalking(250); r.SetSteps(2) },
		func(r *Radii) { r.SetAngular(135.5) },
		func(r *Radii) {
			r.SetStraight(10)
			r.SetWalking(20)
			r.SetSteps(30)
			r.SetAngular(40)
			r.SetAxmeter(50)
		},
	}
	for i, set := range cases {
		var r Radii
		set(&r)
		back := RadiiFromLimits(LimitsFromRadii(r))
		assert.Equal(t, r.Mask(), back.Mask(), "case %d mask", i)
		assert.InDelta(t, r.Straight(), back.Straight(), 1e-9, "case %d straight", i)
		assert.Equal(t, r.Walking(), back.Walking(), "case %d walking", i)
		assert.Equal(t, r.Steps(), back.Steps(), "case %d steps", i)
		assert.Equal(t, r.Angular(), back.Angular(), "case %d angular", i)
		assert.Equal(t, r.Axmeter(), back.Axmeter(), "case %d axmeter", i)
	}
}

func TestLimitsPredicates(t *testing.T) {
	var r Radii
	r.SetStraight(10)
	lim := LimitsFromRadii(r)
	assert.True(t, lim.HasStraight())
	assert.True(t, lim.StraightOnly())
	assert.Equal(t, 100.0, lim.StraightSqr)

	r.SetWalking(5)
	lim = LimitsFromRadii(r)
	assert.False(t, lim.StraightOnly())
	assert.True(t, lim.HasWalking())
}

func TestTypeStrings(t *testing.T) {
	assert.Equal(t, "straight", Straight.String())
	assert.Equal(t, "walking", Walking.String())
	assert.Equal(t, "steps", Steps.String())
	assert.Equal(t, "angular", Angular.String())
	assert.Equal(t, "axmeter", Axmeter.String())
	assert.Equal(t, "weights", Weights.String())
	assert.Equal(t, "undefined", Undefined.String())
	assert.False(t, Undefined.Valid())
	assert.True(t, Angular.Valid())
}

func TestRadiiString(t *testing.T) {
	var r Radii
	r.SetWalking(500)
	r.SetAngular(90)
	assert.Equal(t, "walk_500m_ang_90deg", r.String())
}
