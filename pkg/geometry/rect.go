package geometry

import "math"

// Rect is an axis-aligned bounding rectangle.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectFromPoint returns a degenerate rect covering a single point.
func RectFromPoint(p Vec) Rect {
	return Rect{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
}

// RectFromPoints returns the bounding rect of pts. The zero Rect is
// returned for an empty slice.
func RectFromPoints(pts []Vec) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := RectFromPoint(pts[0])
	for _, p := range pts[1:] {
		r.Grow(p)
	}
	return r
}

// Grow extends r to include p.
func (r *Rect) Grow(p Vec) {
	if p.X < r.MinX {
		r.MinX = p.X
	}
	if p.X > r.MaxX {
		r.MaxX = p.X
	}
	if p.Y < r.MinY {
		r.MinY = p.Y
	}
	if p.Y > r.MaxY {
		r.MaxY = p.Y
	}
}

// Center returns the midpoint of r.
func (r Rect) Center() Vec {
	return Vec{X: (r.MinX + r.MaxX) * 0.5, Y: (r.MinY + r.MaxY) * 0.5}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Diagonal returns the length of the diagonal of r.
func (r Rect) Diagonal() float64 {
	return math.Hypot(r.Width(), r.Height())
}

// OverlapsDisc reports whether r intersects the disc around center.
func (r Rect) OverlapsDisc(center Vec, radius float64) bool {
	dx := math.Max(0, math.Max(r.MinX-center.X, center.X-r.MaxX))
	dy := math.Max(0, math.Max(r.MinY-center.Y, center.Y-r.MaxY))
	return dx*dx+dy*dy <= radius*radius
}

// Contains reports whether p lies inside r (borders included).
func (r Rect) Contains(p Vec) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// OverlapsCapsule reports whether r intersects the segment (p0, p1)
// inflated by radius.
func (r Rect) OverlapsCapsule(p0, p1 Vec, radius float64) bool {
	// Quick reject on the inflated bounding box of the segment.
	if math.Min(p0.X, p1.X)-radius > r.MaxX || math.Max(p0.X, p1.X)+radius < r.MinX ||
		math.Min(p0.Y, p1.Y)-radius > r.MaxY || math.Max(p0.Y, p1.Y)+radius < r.MinY {
		return false
	}
	// A segment endpoint inside the rect settles it.
	if r.Contains(p0) || r.Contains(p1) {
		return true
	}
	// Otherwise the segment is within reach iff it passes within radius
	// of a rect edge.
	corners := [4]Vec{
		{X: r.MinX, Y: r.MinY},
		{X: r.MaxX, Y: r.MinY},
		{X: r.MaxX, Y: r.MaxY},
		{X: r.MinX, Y: r.MaxY},
	}
	for i := 0; i < 4; i++ {
		if SegmentDistance(p0, p1, corners[i], corners[(i+1)&3]) <= radius {
			return true
		}
	}
	return false
}
