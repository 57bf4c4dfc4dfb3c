package analysis

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/spatial"
	"github.com/urbanmorph/axialnet/pkg/traversal"
)

// AttractionDistanceOptions parameterizes the attraction-distance
// kernel.
type AttractionDistanceOptions struct {
	// OriginType selects the scored network elements. They act as
	// destinations in the traversal, which runs backwards from the
	// attractions.
	OriginType OriginType
	// DistanceType is the primary metric.
	DistanceType dist.Type
	// Radii caps the traversal.
	Radii dist.Radii
	// AttractionPoints are world-space attraction locations, or
	// polygon vertices with PointsPerPolygon set.
	AttractionPoints []geometry.Vec
	// PointsPerPolygon partitions AttractionPoints into polygons whose
	// edges are sampled at PolygonPointInterval metres.
	PointsPerPolygon     []int
	PolygonPointInterval float64
	// LineWeights and WeightPerMeterForPointEdges feed the Weights
	// distance when it is active.
	LineWeights                 []float64
	WeightPerMeterForPointEdges float64
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

// AttractionDistance computes, per scored element, the minimum
// distance to any attraction. Unreachable elements report -1.
// outAttractionIndices, when non-nil, additionally receives the index of
// the attraction (or polygon) realizing the minimum; ties prefer the
// lower index so output is stable across runs.
func AttractionDistance(g *graph.AxialGraph, opts AttractionDistanceOptions, outMinDistance []float64, outAttractionIndices []int) error {
	if g == nil {
		return ErrNilGraph
	}

	var destType graph.NetworkElement
	switch opts.OriginType {
	case OriginPoints, OriginPointGroups:
		destType = graph.ElementPoint
	case OriginJunctions:
		destType = graph.ElementJunction
	case OriginLines:
		destType = graph.ElementLine
	default:
		return ErrUnsupportedOriginType
	}

	elementCount := len(elementPositions(g, destType))
	outputCount := elementCount
	if opts.OriginType == OriginPointGroups {
		outputCount = g.PointGroupCount()
	}
	if len(outMinDistance) != outputCount {
		return ErrOutputSize
	}
	if outAttractionIndices != nil && len(outAttractionIndices) != outputCount {
		return ErrOutputSize
	}

	// Point-group runs compute per-point results first, then fold.
	results := outMinDistance
	resultIndices := outAttractionIndices
	if opts.OriginType == OriginPointGroups {
		results = make([]float64, elementCount)
		if outAttractionIndices != nil {
			resultIndices = make([]int, elementCount)
		}
	}

	// Resolve attraction points, sampling polygon edges when needed.
	attractions := make([]geometry.Vec, 0, len(opts.AttractionPoints))
	var pointToPolygon []int
	if opts.PointsPerPolygon != nil {
		vertices := opts.AttractionPoints
		off := 0
		for polygon, n := range opts.PointsPerPolygon {
			sampled := geometry.SampleRegionEdges(vertices[off:off+n], opts.PolygonPointInterval)
			for range sampled {
				pointToPolygon = append(pointToPolygon, polygon)
			}
			attractions = append(attractions, sampled...)
			off += n
		}
		if off != len(vertices) {
			return ErrInputSize
		}
	} else {
		attractions = append(attractions, opts.AttractionPoints...)
	}
	localAttractions := make([]geometry.Vec, len(attractions))
	for i, p := range attractions {
		localAttractions[i] = g.WorldToLocal(p)
	}

	progress := NewProgress(opts.Progress)

	if opts.DistanceType == dist.Straight && opts.Radii.Mask()&^dist.Straight.Mask() == 0 {
		// Straight-line metric with at most a straight radius: a BSP
		// sweep replaces the graph traversal.
		straightLineMinDistances(elementPositions(g, destType), localAttractions, opts.Radii.Straight(), results, resultIndices)
		progress.Report(1)
	} else {
		distanceTypes, limits, straightLimit := graph.ResolveDistanceTypes(opts.DistanceType, opts.Radii)

		mdg, err := graph.BuildMultiDistGraph(g, graph.MultiDistOptions{
			DistanceTypes:               distanceTypes,
			LineWeights:                 opts.LineWeights,
			WeightPerMeterForPointEdges: opts.WeightPerMeterForPointEdges,
			StorePositions:              opts.Radii.HasStraight(),
			Origins:                     localAttractions,
			DestinationType:             destType,
		})
		if err != nil {
			return err
		}

		minimumDistances(mdg, progress, limits, straightLimit, results, resultIndices)
	}

	// Polygon runs translate sampled-point indices to polygon indices.
	if opts.PointsPerPolygon != nil && resultIndices != nil {
		for i, idx := range resultIndices {
			if idx >= 0 {
				resultIndices[i] = pointToPolygon[idx]
			}
		}
	}

	if opts.OriginType == OriginPointGroups {
		pointIndex := 0
		for group := 0; group < g.PointGroupCount(); group++ {
			minDist := math.Inf(1)
			destIdx := -1
			for i := 0; i < g.PointGroupSize(group); i++ {
				if results[pointIndex] < minDist {
					minDist = results[pointIndex]
					if resultIndices != nil {
						destIdx = resultIndices[pointIndex]
					}
				}
				pointIndex++
			}
			outMinDistance[group] = minDist
			if outAttractionIndices != nil {
				outAttractionIndices[group] = destIdx
			}
		}
	}

	// Replace unreachable sentinels.
	for i := range outMinDistance {
		if math.IsInf(outMinDistance[i], 1) {
			outMinDistance[i] = -1
		}
	}
	return nil
}

// straightLineMinDistances fills results with the minimum Euclidean
// distance from each element to any attraction within radius, +Inf
// when none is. A point BSP accelerates bounded radii; an unbounded
// radius falls back to the O(N*M) sweep.
func straightLineMinDistances(elements, attractions []geometry.Vec, radius float64, results []float64, resultIndices []int) {
	for i := range results {
		results[i] = math.Inf(1)
	}
	if resultIndices != nil {
		for i := range resultIndices {
			resultIndices[i] = -1
		}
	}

	update := func(element int, distSqr float64, attraction int) {
		d := math.Sqrt(distSqr)
		if d < results[element] {
			results[element] = d
			if resultIndices != nil {
				resultIndices[element] = attraction
			}
		} else if resultIndices != nil && d == results[element] && results[element] < math.Inf(1) {
			// Deterministic tie-break toward the lower attraction index.
			if attraction < resultIndices[element] {
				resultIndices[element] = attraction
			}
		}
	}

	if !math.IsInf(radius, 1) {
		tree, order := spatial.NewPointTree(elements, 0)
		// Invert the order mapping: BSP position -> element index.
		fromBSP := make([]int, len(order))
		for element, bspPos := range order {
			fromBSP[bspPos] = element
		}
		radiusSqr := radius * radius
		var sets []spatial.ObjectSet
		for attraction, pt := range attractions {
			sets = tree.TestSphere(pt, radius, sets)
			for _, set := range sets {
				for i := 0; i < set.Count; i++ {
					element := fromBSP[set.First+i]
					distSqr := geometry.DistSqr(pt, elements[element])
					if distSqr <= radiusSqr {
						update(element, distSqr, attraction)
					}
				}
			}
		}
	} else {
		for element, pt := range elements {
			for attraction, a := range attractions {
				update(element, geometry.DistSqr(pt, a), attraction)
			}
		}
	}
}

// minimumDistances runs one shortest-path traversal per origin across
// the worker pool, keeping worker-local minima that merge under a
// mutex at task end. Equal distances prefer the lower origin index.
func minimumDistances(mdg *graph.MultiDistGraph, progress *Progress, limits []float64, straightLimit float64, results []float64, resultIndices []int) {
	for i := range results {
		results[i] = math.Inf(1)
	}
	if resultIndices != nil {
		for i := range resultIndices {
			resultIndices[i] = -1
		}
	}

	var mu sync.Mutex
	var next atomic.Uint64
	originCount := mdg.OriginNodeCount()

	merge := func(minDists []float64, minOrigins []int) {
		mu.Lock()
		defer mu.Unlock()
		for i := range results {
			switch {
			case minDists[i] < results[i]:
				results[i] = minDists[i]
				if resultIndices != nil {
					resultIndices[i] = minOrigins[i]
				}
			case resultIndices != nil && minDists[i] == results[i] && !math.IsInf(minDists[i], 1):
				// Lower origin index wins ties for output stability.
				if minOrigins[i] >= 0 && (resultIndices[i] < 0 || minOrigins[i] < resultIndices[i]) {
					resultIndices[i] = minOrigins[i]
				}
			}
		}
	}

	workers := workerCount()
	if originCount < workers {
		workers = originCount
	}
	if workers < 1 {
		workers = 1
	}

	dispatch(workers, progress, func() float64 {
		if originCount == 0 {
			return 1
		}
		n := next.Load()
		if n > uint64(originCount) {
			n = uint64(originCount)
		}
		return float64(n) / float64(originCount)
	}, func(int) {
		minDists := make([]float64, mdg.DestinationCount())
		for i := range minDists {
			minDists[i] = math.Inf(1)
		}
		minOrigins := make([]int, mdg.DestinationCount())
		for i := range minOrigins {
			minOrigins[i] = -1
		}

		sp := traversal.NewShortestPath(mdg)
		origin := -1
		cb := func(destination int, distance float64) {
			if distance < minDists[destination] ||
				(distance == minDists[destination] && origin < minOrigins[destination]) {
				minDists[destination] = distance
				minOrigins[destination] = origin
			}
		}

		for !progress.Cancelled() {
			n := int(next.Add(1)) - 1
			if n >= originCount {
				break
			}
			origin = n
			if mdg.DistanceTypeCount() == 1 {
				sp.SearchAccumulative(origin, cb, limits, straightLimit)
			} else {
				sp.Search(origin, cb, limits, straightLimit)
			}
		}

		merge(minDists, minOrigins)
	})
}
