package dist

import "math"

// Limits is the traversal-facing form of Radii. The straight-line cap
// is stored squared so the inner loops compare squared distances.
type Limits struct {
	Mask        uint
	StraightSqr float64
	Walking     float64
	Steps       int
	Angular     float64
	Axmeter     float64
}

// LimitsFromRadii converts a Radii set into its traversal form.
func LimitsFromRadii(r Radii) Limits {
	return Limits{
		Mask:        r.mask,
		StraightSqr: r.straight * r.straight,
		Walking:     r.walking,
		Steps:       r.steps,
		Angular:     r.angular,
		Axmeter:     r.axmeter,
	}
}

// RadiiFromLimits is the inverse of LimitsFromRadii.
// RadiiFromLimits(LimitsFromRadii(r)) reproduces r for every
// representable Radii.
func RadiiFromLimits(lim Limits) Radii {
	var r Radii
	if lim.Mask&Straight.Mask() != 0 {
		r.SetStraight(math.Sqrt(lim.StraightSqr))
	}
	if lim.Mask&Walking.Mask() != 0 {
		r.SetWalking(lim.Walking)
	}
	if lim.Mask&Steps.Mask() != 0 {
		r.SetSteps(lim.Steps)
	}
	if lim.Mask&Angular.Mask() != 0 {
		r.SetAngular(lim.Angular)
	}
	if lim.Mask&Axmeter.Mask() != 0 {
		r.SetAxmeter(lim.Axmeter)
	}
	return r
}

// HasStraight reports whether the straight-line cap is active.
func (l Limits) HasStraight() bool { return l.Mask&Straight.Mask() != 0 }

// HasWalking reports whether the walking cap is active.
func (l Limits) HasWalking() bool { return l.Mask&Walking.Mask() != 0 }

// HasSteps reports whether the steps cap is active.
func (l Limits) HasSteps() bool { return l.Mask&Steps.Mask() != 0 }

// HasAngular reports whether the angular cap is active.
func (l Limits) HasAngular() bool { return l.Mask&Angular.Mask() != 0 }

// HasAxmeter reports whether the axmeter cap is active.
func (l Limits) HasAxmeter() bool { return l.Mask&Axmeter.Mask() != 0 }

// StraightOnly reports whether the straight-line cap is the only
// active limit. Several kernels switch to a brute-force sweep in that
// case.
func (l Limits) StraightOnly() bool { return l.Mask == Straight.Mask() }
