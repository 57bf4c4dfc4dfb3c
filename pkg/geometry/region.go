package geometry

import "math"

// IsRegionSeparator reports whether p is the NaN marker separating
// polygon rings inside a flat region point list.
func IsRegionSeparator(p Vec) bool {
	return math.IsNaN(p.X)
}

// samplePolygonEdge walks one closed polygon ring and appends points at
// uniform arc-length intervals to out, starting with the first vertex.
// The gap closing the ring back to the start is kept within
// [0.5*interval, 1.5*interval].
func samplePolygonEdge(points []Vec, interval float64, out []Vec) []Vec {
	if len(points) == 0 {
		return out
	}
	out = append(out, points[0])

	t := interval
	for i := range points {
		p0 := points[i]
		next := points[0]
		if i+1 < len(points) {
			next = points[i+1]
		}
		v := Sub(next, p0)
		length := Length(v)
		if length <= 0 {
			continue
		}
		v = Scale(1/length, v)
		if i == len(points)-1 {
			length -= 0.5 * interval
		}
		for ; t < length; t += interval {
			out = append(out, Add(p0, Scale(t, v)))
		}
		t -= length
	}
	return out
}

// SampleRegionEdges samples points at uniform intervals along the edges
// of one or more polygons. Rings are separated by NaN marker points in
// the flat input list. Every ring contributes its first vertex and then
// one point per further interval of edge length, so a ring of perimeter
// P yields about P/interval points.
func SampleRegionEdges(points []Vec, interval float64) []Vec {
	var out []Vec
	first := 0
	for i := 0; i <= len(points); i++ {
		if i == len(points) || IsRegionSeparator(points[i]) {
			if i > first {
				out = samplePolygonEdge(points[first:i], interval, out)
			}
			first = i + 1
		}
	}
	return out
}
