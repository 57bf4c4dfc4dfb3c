package geometry

import (
	"math"
	"sort"
)

// linePointTest tests which side of the infinite line through p0 and p1
// the point p falls on: negative left, zero on, positive right.
func linePointTest(p0, p1, p Vec) float64 {
	return (p.X-p0.X)*(p1.Y-p0.Y) - (p1.X-p0.X)*(p.Y-p0.Y)
}

// SortAndDedupPoints sorts pts lexicographically by (x, y) and removes
// exact duplicates in place, returning the compacted slice. ConvexHull
// requires its input in this form.
func SortAndDedupPoints(pts []Vec) []Vec {
	if len(pts) < 2 {
		return pts
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X == pts[j].X {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
	n := 1
	for i := 1; i < len(pts); i++ {
		if pts[n-1] != pts[i] {
			pts[n] = pts[i]
			n++
		}
	}
	return pts[:n]
}

// ConvexHull computes the convex hull of a point set using Andrew's
// monotone-chain variant. The input must be sorted by (x, y) with
// duplicates removed (see SortAndDedupPoints). The hull is returned in
// counter-clockwise order starting at the lexicographically smallest point.
func ConvexHull(sorted []Vec) []Vec {
	count := len(sorted)
	if count < 3 {
		hull := make([]Vec, count)
		copy(hull, sorted)
		return hull
	}

	hull := make([]Vec, 0, count)

	// Lower-Y hull. Find the point with lowest Y among those sharing the
	// maximum X value.
	pMaxMin := count - 1
	for pMaxMin > 0 && sorted[pMaxMin].X == sorted[pMaxMin-1].X {
		pMaxMin--
	}

	hull = append(hull, sorted[0])
	for i := 1; i <= pMaxMin; i++ {
		if i == pMaxMin || linePointTest(sorted[0], sorted[pMaxMin], sorted[i]) > 0 {
			for len(hull) > 1 && linePointTest(hull[len(hull)-2], hull[len(hull)-1], sorted[i]) >= 0 {
				hull = hull[:len(hull)-1]
			}
			hull = append(hull, sorted[i])
		}
	}

	// Transition point.
	if count-1 != pMaxMin {
		hull = append(hull, sorted[count-1])
	}

	// Higher-Y hull.
	minLen := len(hull)

	pMinMax := 0
	for pMinMax < count-1 && sorted[pMinMax].X == sorted[pMinMax+1].X {
		pMinMax++
	}

	for i := count - 2; i >= pMinMax; i-- {
		if i == pMinMax || linePointTest(sorted[count-1], sorted[pMinMax], sorted[i]) > 0 {
			for len(hull) > minLen && linePointTest(hull[len(hull)-2], hull[len(hull)-1], sorted[i]) >= 0 {
				hull = hull[:len(hull)-1]
			}
			if i != 0 {
				hull = append(hull, sorted[i])
			}
		}
	}

	return hull
}

// ConvexPolyArea returns the area of a convex polygon given as an
// ordered vertex ring.
func ConvexPolyArea(points []Vec) float64 {
	area := 0.0
	for i := 1; i < len(points)-1; i++ {
		area += math.Abs(Cross(Sub(points[i], points[0]), Sub(points[i+1], points[0])))
	}
	return 0.5 * area
}
