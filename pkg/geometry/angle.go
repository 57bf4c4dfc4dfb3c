package geometry

import "math"

// AngleDiff returns the unsigned difference between two orientation
// angles in degrees, always in [0, 180].
func AngleDiff(a1, a2 float64) float64 {
	a := math.Abs(a1 - a2)
	if a > 180 {
		return 360 - a
	}
	return a
}

// ReverseAngle flips an orientation angle by 180 degrees, keeping the
// result in [0, 360).
func ReverseAngle(a float64) float64 {
	if a < 180 {
		return a + 180
	}
	return a - 180
}

// OrientationAngle returns the orientation of v in degrees, in [0, 360).
// Zero points along the positive X-axis, 90 along the positive Y-axis.
func OrientationAngle(v Vec) float64 {
	angle := math.Atan2(v.Y, v.X) * (180 / math.Pi)
	if angle < 0 {
		angle += 360
	}
	return angle
}

// SyntaxAngle maps degrees to the [0..2] syntax-angle range used by the
// angular integration and choice normalizations (Hillier and Iida).
func SyntaxAngle(degrees float64) float64 {
	return degrees * (1.0 / 90.0)
}
