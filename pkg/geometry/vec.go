// Package geometry provides the 2-D primitives shared by the graph
// builders and analysis kernels: vectors, line intersection, angle
// arithmetic in degrees, bounding rectangles, convex hulls and
// polygon-edge point sampling.
//
// All analyses operate in a local Cartesian frame centred on the input
// bounding box; see graph.AxialGraph for the world<->local bridging.
// Lengths are metres, angles are degrees unless stated otherwise.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is the 2-D vector type used throughout the module.
type Vec = r2.Vec

// V is shorthand for constructing a Vec.
func V(x, y float64) Vec { return Vec{X: x, Y: y} }

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistSqr returns the squared Euclidean distance between a and b.
func DistSqr(a, b Vec) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Cross returns the 2-D cross product (z-component) of a and b.
func Cross(a, b Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Dot returns the dot product of a and b.
func Dot(a, b Vec) float64 {
	return a.X*b.X + a.Y*b.Y
}

// Add returns the vector sum of a and b.
func Add(a, b Vec) Vec {
	return Vec{X: a.X + b.X, Y: a.Y + b.Y}
}

// Sub returns the vector difference a-b.
func Sub(a, b Vec) Vec {
	return Vec{X: a.X - b.X, Y: a.Y - b.Y}
}

// Scale returns v scaled by f.
func Scale(f float64, v Vec) Vec {
	return Vec{X: v.X * f, Y: v.Y * f}
}

// Length returns the Euclidean norm of v.
func Length(v Vec) float64 {
	return math.Hypot(v.X, v.Y)
}

// Mid returns the midpoint of a and b.
func Mid(a, b Vec) Vec {
	return Vec{X: (a.X + b.X) * 0.5, Y: (a.Y + b.Y) * 0.5}
}
