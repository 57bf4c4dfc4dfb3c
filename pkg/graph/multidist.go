package graph

import (
	"errors"
	"math"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
)

// NetworkElement selects which axial-graph entity plays the role of a
// destination in a multi-distance graph.
type NetworkElement int

const (
	// ElementPoint targets attached destination points.
	ElementPoint NetworkElement = iota
	// ElementJunction targets crossings.
	ElementJunction
	// ElementLine targets line midpoints.
	ElementLine
)

// MaxDistanceTypes is the maximum number of distance scalars carried
// per edge.
const MaxDistanceTypes = 4

// ErrUnsupportedDistanceType is returned when a multi-distance graph is
// asked to carry a distance its edges cannot express.
var ErrUnsupportedDistanceType = errors.New("graph: unsupported distance type for multi-distance graph")

// ErrTooManyDistanceTypes is returned when more than MaxDistanceTypes
// distances are requested.
var ErrTooManyDistanceTypes = errors.New("graph: too many distance types")

type mdNode struct {
	firstEdge int
	numEdges  int
}

// MultiDistGraph is a sparse directed graph carrying up to four
// distance scalars per edge. Nodes live in one flat store; edges are
// packed contiguously per node, with per-edge distances in a parallel
// array of stride DistanceTypeCount. An edge either targets another
// node or leaves the graph toward a destination index. Origin nodes
// are appended after the network nodes.
type MultiDistGraph struct {
	distTypes []dist.Type

	nodes       []mdNode
	edgeTargets []int32 // >= 0: node index; < 0: destination -(index+1)
	edgeDists   []float64

	destCount    int
	firstOrigin  int
	hasPositions bool
	nodePos      []geometry.Vec
	destPos      []geometry.Vec
}

// DistanceTypeCount returns the number of distances carried per edge.
func (g *MultiDistGraph) DistanceTypeCount() int { return len(g.distTypes) }

// DistanceType returns the distance type at slot index.
func (g *MultiDistGraph) DistanceType(index int) dist.Type { return g.distTypes[index] }

// PrimaryDistanceType returns the distance in slot 0, which orders the
// shortest-path queue.
func (g *MultiDistGraph) PrimaryDistanceType() dist.Type { return g.distTypes[0] }

// NodeCount returns the total node count including origins.
func (g *MultiDistGraph) NodeCount() int { return len(g.nodes) }

// NetworkNodeCount returns the number of non-origin nodes.
func (g *MultiDistGraph) NetworkNodeCount() int { return g.firstOrigin }

// OriginNodeCount returns the number of appended origin nodes.
func (g *MultiDistGraph) OriginNodeCount() int { return len(g.nodes) - g.firstOrigin }

// OriginNodeIndex maps an origin ordinal to its node index.
func (g *MultiDistGraph) OriginNodeIndex(origin int) int { return g.firstOrigin + origin }

// DestinationCount returns the number of destination slots.
func (g *MultiDistGraph) DestinationCount() int { return g.destCount }

// NodePositionsEnabled reports whether positions were stored.
func (g *MultiDistGraph) NodePositionsEnabled() bool { return g.hasPositions }

// NodePosition returns the stored position of a node.
func (g *MultiDistGraph) NodePosition(node int) geometry.Vec { return g.nodePos[node] }

// DestinationPosition returns the stored position of a destination.
func (g *MultiDistGraph) DestinationPosition(index int) geometry.Vec { return g.destPos[index] }

// EdgeCount returns the out-degree of node.
func (g *MultiDistGraph) EdgeCount(node int) int { return g.nodes[node].numEdges }

// Edge unpacks out-edge e of node: target is the node index (negative
// when the edge leaves the graph), destIndex the destination index (or
// -1), and dists the per-distance contributions aliased into the edge
// store.
func (g *MultiDistGraph) Edge(node, e int) (target int, destIndex int, dists []float64) {
	idx := g.nodes[node].firstEdge + e
	t := int(g.edgeTargets[idx])
	stride := len(g.distTypes)
	dists = g.edgeDists[idx*stride : idx*stride+stride]
	if t < 0 {
		return -1, -t - 1, dists
	}
	return t, -1, dists
}

// TargetPosition returns the position of the entity an edge points at.
func (g *MultiDistGraph) TargetPosition(node, e int) geometry.Vec {
	target, destIndex, _ := g.Edge(node, e)
	if destIndex >= 0 {
		return g.destPos[destIndex]
	}
	return g.nodePos[target]
}

func (g *MultiDistGraph) newNode() int {
	g.nodes = append(g.nodes, mdNode{firstEdge: len(g.edgeTargets)})
	if g.hasPositions {
		g.nodePos = append(g.nodePos, geometry.Vec{})
	}
	return len(g.nodes) - 1
}

func (g *MultiDistGraph) addEdge(node int, target int32, dists []float64) {
	g.edgeTargets = append(g.edgeTargets, target)
	g.edgeDists = append(g.edgeDists, dists...)
	g.nodes[node].numEdges++
}

func destTarget(destIndex int) int32 { return int32(-destIndex - 1) }

// MultiDistOptions parameterizes BuildMultiDistGraph.
type MultiDistOptions struct {
	// DistanceTypes selects the per-edge distance slots; slot 0 is the
	// primary. At most MaxDistanceTypes entries of Walking, Steps,
	// Angular or Weights.
	DistanceTypes []dist.Type
	// LineWeights supplies the per-line cost per metre for the Weights
	// distance. Nil means weight 1.
	LineWeights []float64
	// WeightPerMeterForPointEdges is the Weights cost per metre on the
	// synthetic edges from lines to attached points and from origins.
	WeightPerMeterForPointEdges float64
	// StorePositions keeps node and destination positions for
	// straight-line radius tests.
	StorePositions bool
	// Origins are local-frame origin points, each appended as one node.
	Origins []geometry.Vec
	// DestinationType selects which network element the destination
	// edges leave toward.
	DestinationType NetworkElement
}

// ResolveDistanceTypes orders the distance slots for a shortest-path
// analysis: the primary type first, then every radius-capped type not
// already present. Straight-line is handled separately and returned as
// its own limit. The limits slice is parallel to the types.
func ResolveDistanceTypes(primary dist.Type, radii dist.Radii) (types []dist.Type, limits []float64, straight float64) {
	straight = radii.Straight()
	mask := radii.Mask() &^ dist.Straight.Mask()

	types = append(types, primary)
	limits = append(limits, radii.Get(primary))
	mask &^= primary.Mask()

	for t := dist.Straight; int(t) < dist.TypeCount; t++ {
		if mask&t.Mask() == 0 {
			continue
		}
		types = append(types, t)
		limits = append(limits, radii.Get(t))
	}
	return
}

// BuildMultiDistGraph constructs a directed multi-distance graph from
// an axial graph. One network node is created per line-crossing, or two
// (forward and backward) when an angular distance is carried. Edges
// connect each line-crossing to the others reachable along its line in
// the correct direction, destination edges leave toward the chosen
// network element, and one origin node is appended per origin point
// with edges into its nearest line.
func BuildMultiDistGraph(axial *AxialGraph, opts MultiDistOptions) (*MultiDistGraph, error) {
	distTypes := opts.DistanceTypes
	if len(distTypes) > MaxDistanceTypes {
		return nil, ErrTooManyDistanceTypes
	}
	hasAngular := false
	for _, t := range distTypes {
		switch t {
		case dist.Walking, dist.Steps, dist.Weights:
		case dist.Angular:
			hasAngular = true
		default:
			return nil, ErrUnsupportedDistanceType
		}
	}

	g := &MultiDistGraph{
		distTypes:    distTypes,
		hasPositions: opts.StorePositions,
	}

	switch opts.DestinationType {
	case ElementPoint:
		g.destCount = axial.PointCount()
		if opts.StorePositions {
			g.destPos = make([]geometry.Vec, g.destCount)
			for i := 0; i < g.destCount; i++ {
				g.destPos[i] = axial.Point(i).Coords
			}
		}
	case ElementJunction:
		g.destCount = axial.CrossingCount()
		if opts.StorePositions {
			g.destPos = make([]geometry.Vec, g.destCount)
			for i := 0; i < g.destCount; i++ {
				g.destPos[i] = axial.Crossing(i).Pt
			}
		}
	case ElementLine:
		g.destCount = axial.LineCount()
		if opts.StorePositions {
			g.destPos = make([]geometry.Vec, g.destCount)
			for i := 0; i < g.destCount; i++ {
				g.destPos[i] = axial.Line(i).Mid()
			}
		}
	default:
		return nil, errors.New("graph: unsupported destination type")
	}

	lineWeight := func(line int) float64 {
		if opts.LineWeights == nil {
			return 1
		}
		return opts.LineWeights[line]
	}

	// raw holds one value per distance type enum; the packed edge picks
	// out the selected slots.
	var raw [dist.TypeCount]float64
	packed := make([]float64, len(distTypes))
	pack := func() []float64 {
		for i, t := range distTypes {
			packed[i] = raw[t]
		}
		return packed
	}
	clearRaw := func() {
		for i := range raw {
			raw[i] = 0
		}
	}

	nodeIndexFor := func(lineCrossing int, backward bool) int32 {
		if hasAngular {
			idx := int32(lineCrossing * 2)
			if backward {
				idx++
			}
			return idx
		}
		return int32(lineCrossing)
	}

	// Network nodes.
	directions := 1
	if hasAngular {
		directions = 2
	}
	var junctionSeen []int

	for i := 0; i < axial.LineCrossingCount(); i++ {
		lc := axial.LineCrossing(i)
		line := axial.Line(lc.Line)

		for direction := 0; direction < directions; direction++ {
			node := g.newNode()
			if opts.StorePositions {
				g.nodePos[node] = axial.Crossing(lc.Crossing).Pt
			}
			backward := direction == 1
			angle := line.Angle
			if backward {
				angle = geometry.ReverseAngle(angle)
			}

			// Edges to the other line-crossings reachable along this line.
			for c := 0; c < line.NumCrossings; c++ {
				lcSrc := axial.LineCrossing(line.FirstCrossing + c)
				if hasAngular {
					if (!backward && lcSrc.LinePos <= lc.LinePos) ||
						(backward && lcSrc.LinePos >= lc.LinePos) {
						continue
					}
				} else if lcSrc.LinePos == lc.LinePos {
					continue
				}
				lcDst := axial.LineCrossing(lcSrc.Opposite)
				lineDst := axial.Line(lcDst.Line)

				delta := math.Abs(lc.LinePos - lcSrc.LinePos)
				clearRaw()
				raw[dist.Walking] = delta
				raw[dist.Steps] = 1
				raw[dist.Weights] = delta * lineWeight(lc.Line)

				if hasAngular {
					raw[dist.Angular] = geometry.AngleDiff(angle, lineDst.Angle)
					g.addEdge(node, nodeIndexFor(lcSrc.Opposite, false), pack())
					raw[dist.Angular] = geometry.AngleDiff(angle, geometry.ReverseAngle(lineDst.Angle))
					g.addEdge(node, nodeIndexFor(lcSrc.Opposite, true), pack())
				} else {
					g.addEdge(node, nodeIndexFor(lcSrc.Opposite, false), pack())
				}
			}

			// Destination edges leaving the graph.
			switch opts.DestinationType {
			case ElementPoint:
				for p := 0; p < line.NumPoints; p++ {
					ptIdx := axial.LinePoint(line.FirstPoint + p)
					pt := axial.Point(ptIdx)
					if hasAngular {
						if (!backward && pt.LinePos < lc.LinePos) ||
							(backward && pt.LinePos > lc.LinePos) {
							continue
						}
					}
					meters := math.Abs(lc.LinePos-pt.LinePos) + pt.DistFromLine
					clearRaw()
					raw[dist.Walking] = meters
					raw[dist.Weights] = meters * opts.WeightPerMeterForPointEdges
					g.addEdge(node, destTarget(ptIdx), pack())
				}
			case ElementJunction:
				junctionSeen = junctionSeen[:0]
				for c := 0; c < line.NumCrossings; c++ {
					lcDst := axial.LineCrossing(line.FirstCrossing + c)
					if hasAngular {
						if (!backward && lcDst.LinePos <= lc.LinePos) ||
							(backward && lcDst.LinePos >= lc.LinePos) {
							continue
						}
					} else if lcDst.LinePos == lc.LinePos {
						continue
					}
					if containsInt(junctionSeen, lcDst.Crossing) {
						continue
					}
					junctionSeen = append(junctionSeen, lcDst.Crossing)
					meters := math.Abs(lcDst.LinePos - lc.LinePos)
					clearRaw()
					raw[dist.Walking] = meters
					raw[dist.Weights] = meters * lineWeight(lc.Line)
					g.addEdge(node, destTarget(lcDst.Crossing), pack())
				}
			case ElementLine:
				centerPos := line.Length * 0.5
				if hasAngular {
					if (!backward && centerPos < lc.LinePos) ||
						(backward && centerPos > lc.LinePos) {
						break
					}
				}
				meters := math.Abs(lc.LinePos - centerPos)
				clearRaw()
				raw[dist.Walking] = meters
				raw[dist.Weights] = meters * lineWeight(lc.Line)
				g.addEdge(node, destTarget(lc.Line), pack())
			}
		}
	}

	g.firstOrigin = len(g.nodes)

	// Origin nodes with edges into the network.
	for _, origin := range opts.Origins {
		node := g.newNode()
		if opts.StorePositions {
			g.nodePos[node] = origin
		}
		lineIndex, distFromLine, posOnLine := axial.ClosestLine(origin)
		if lineIndex < 0 {
			continue
		}
		line := axial.Line(lineIndex)

		for c := 0; c < line.NumCrossings; c++ {
			lcSrc := axial.LineCrossing(line.FirstCrossing + c)
			lcDst := axial.LineCrossing(lcSrc.Opposite)
			lineDst := axial.Line(lcDst.Line)

			meters := distFromLine + math.Abs(posOnLine-lcSrc.LinePos)
			clearRaw()
			raw[dist.Walking] = meters
			raw[dist.Steps] = 1
			raw[dist.Weights] = distFromLine*opts.WeightPerMeterForPointEdges +
				math.Abs(posOnLine-lcSrc.LinePos)*lineWeight(lineIndex)

			if hasAngular {
				angle := line.Angle
				if lcSrc.LinePos < posOnLine {
					angle = geometry.ReverseAngle(angle)
				}
				raw[dist.Angular] = geometry.AngleDiff(angle, lineDst.Angle)
				g.addEdge(node, nodeIndexFor(lcSrc.Opposite, false), pack())
				raw[dist.Angular] = geometry.AngleDiff(angle, geometry.ReverseAngle(lineDst.Angle))
				g.addEdge(node, nodeIndexFor(lcSrc.Opposite, true), pack())
			} else {
				g.addEdge(node, nodeIndexFor(lcSrc.Opposite, false), pack())
			}
		}

		switch opts.DestinationType {
		case ElementPoint:
			for p := 0; p < line.NumPoints; p++ {
				ptIdx := axial.LinePoint(line.FirstPoint + p)
				pt := axial.Point(ptIdx)
				meters := distFromLine + math.Abs(posOnLine-pt.LinePos) + pt.DistFromLine
				clearRaw()
				raw[dist.Walking] = meters
				raw[dist.Weights] = meters * opts.WeightPerMeterForPointEdges
				g.addEdge(node, destTarget(ptIdx), pack())
			}
		case ElementJunction:
			junctionSeen = junctionSeen[:0]
			for c := 0; c < line.NumCrossings; c++ {
				lcDst := axial.LineCrossing(line.FirstCrossing + c)
				if containsInt(junctionSeen, lcDst.Crossing) {
					continue
				}
				junctionSeen = append(junctionSeen, lcDst.Crossing)
				meters := distFromLine + math.Abs(lcDst.LinePos-posOnLine)
				clearRaw()
				raw[dist.Walking] = meters
				raw[dist.Weights] = distFromLine*opts.WeightPerMeterForPointEdges +
					math.Abs(lcDst.LinePos-posOnLine)*lineWeight(lineIndex)
				g.addEdge(node, destTarget(lcDst.Crossing), pack())
			}
		case ElementLine:
			centerPos := line.Length * 0.5
			meters := distFromLine + math.Abs(centerPos-posOnLine)
			clearRaw()
			raw[dist.Walking] = meters
			raw[dist.Weights] = distFromLine*opts.WeightPerMeterForPointEdges +
				math.Abs(centerPos-posOnLine)*lineWeight(lineIndex)
			g.addEdge(node, destTarget(lineIndex), pack())
		}
	}

	return g, nil
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
