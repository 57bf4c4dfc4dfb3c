package analysis

import (
	"math"
	"sync/atomic"

	"github.com/urbanmorph/axialnet/pkg/dist"
	"github.com/urbanmorph/axialnet/pkg/geometry"
	"github.com/urbanmorph/axialnet/pkg/graph"
	"github.com/urbanmorph/axialnet/pkg/util/bucketq"
)

// AngularOptions parameterizes the angular choice and angular
// integration kernels on the segment graph.
type AngularOptions struct {
	// Radii caps the traversal (straight, walking, steps, angular).
	Radii dist.Radii
	// WeighByLength switches to length-weighted flows per Turner 2007.
	WeighByLength bool
	// AngleThreshold is the deviation in degrees below which a turn
	// counts as zero.
	AngleThreshold float64
	// AnglePrecision is the priority-bucket width in degrees; 0 means 1.
	AnglePrecision int
	// Progress receives throttled progress reports; may be nil.
	Progress ProgressFunc
}

type angularMode int

const (
	modeAngularChoice angularMode = iota
	modeAngularIntegration
)

// AngularChoice computes angular (segment) choice: Brandes-style
// betweenness over the segment graph ordered by accumulated angular
// deviation. Output slices may be nil; non-nil slices must hold one
// element per segment. Total depths are reported in syntax-angle
// units.
func AngularChoice(g *graph.SegmentGraph, opts AngularOptions, outChoice []float64, outNodeCounts []int, outTotalDepths, outTotalDepthWeights []float64) error {
	return runAngular(g, opts, modeAngularChoice, outChoice, outNodeCounts, outTotalDepths, nil, outTotalDepthWeights)
}

// AngularIntegration runs the same traversal without the back-trace,
// reporting reached counts, total depths and total weights per origin
// segment.
func AngularIntegration(g *graph.SegmentGraph, opts AngularOptions, outNodeCounts []int, outTotalDepths, outTotalWeights, outTotalDepthWeights []float64) error {
	return runAngular(g, opts, modeAngularIntegration, nil, outNodeCounts, outTotalDepths, outTotalWeights, outTotalDepthWeights)
}

func runAngular(g *graph.SegmentGraph, opts AngularOptions, mode angularMode, outChoice []float64, outNodeCounts []int, outTotalDepths, outTotalWeights, outTotalDepthWeights []float64) error {
	if g == nil {
		return ErrNilGraph
	}
	segCount := g.SegmentCount()
	for _, out := range [][]float64{outChoice, outTotalDepths, outTotalWeights, outTotalDepthWeights} {
		if out != nil && len(out) != segCount {
			return ErrOutputSize
		}
	}
	if outNodeCounts != nil && len(outNodeCounts) != segCount {
		return ErrOutputSize
	}

	precision := opts.AnglePrecision
	if precision < 1 {
		precision = 1
	}

	radius := angularRadius{
		straightSqr: opts.Radii.StraightSqr(),
		walking:     opts.Radii.Walking(),
		angle:       opts.Radii.Angular(),
		steps:       opts.Radii.Steps(),
	}

	progress := NewProgress(opts.Progress)
	ranges := staticRanges(segCount, workerCount())
	var processed atomic.Uint64

	workers := make([]*angularWorker, len(ranges))
	for i := range workers {
		workers[i] = newAngularWorker(g, mode, radius, opts.WeighByLength, opts.AngleThreshold, precision)
	}

	dispatch(len(ranges), progress, func() float64 {
		if segCount == 0 {
			return 1
		}
		return float64(processed.Load()) / float64(segCount)
	}, func(workerIndex int) {
		w := workers[workerIndex]
		r := ranges[workerIndex]
		for i := r.first; i < r.first+r.count; i++ {
			if progress.Cancelled() {
				return
			}
			res := w.processSegment(i)
			if mode == modeAngularChoice {
				w.collectChoiceScores(i)
			}
			w.clearProcessedFlags(i)

			if outNodeCounts != nil {
				outNodeCounts[i] = res.nodeCount
			}
			if outTotalDepths != nil {
				outTotalDepths[i] = res.totalDepth
			}
			if outTotalWeights != nil {
				outTotalWeights[i] = res.totalWeight
			}
			if outTotalDepthWeights != nil {
				outTotalDepthWeights[i] = res.totalDepthWeight
			}
			processed.Add(1)
		}
	})

	if outChoice != nil {
		// Fixed segment-first, worker-second order for reproducible
		// float accumulation.
		for seg := 0; seg < segCount; seg++ {
			score := 0.0
			for _, w := range workers {
				score += w.scores[seg]
			}
			outChoice[seg] = score
		}
	}
	return nil
}

type angularRadius struct {
	straightSqr float64
	walking     float64
	angle       float64
	steps       int
}

// maxIntersectionDegree bounds the out-segment bit set; intersections
// of higher degree do not occur in real axial maps.
const maxIntersectionDegree = 64

type segmentState struct {
	lowestAngle      uint
	outSegmentBits   uint64
	score            float64
	numShortestPaths int
	processed        bool
}

func (s *segmentState) setOutSegmentBit(i int) { s.outSegmentBits |= 1 << uint(i) }

func (s *segmentState) outSegmentBit(i int) bool { return s.outSegmentBits&(1<<uint(i)) != 0 }

const noSourceState = -1

type angularTravState struct {
	segmentIndex int
	forwards     bool
	accAngleDisc uint
	sourceState  int // segment-state index, noSourceState at origin

	accWalking float64
	accAngle   float64
	accSteps   int
}

type angularResult struct {
	nodeCount        int
	totalDepth       float64
	totalWeight      float64
	totalDepthWeight float64
}

type angularWorker struct {
	graph          *graph.SegmentGraph
	mode           angularMode
	radius         angularRadius
	weighByLength  bool
	angleThreshold float64
	precision      int

	origin geometry.Vec
	queue  *bucketq.Queue[angularTravState]
	states []segmentState
	scores []float64

	// accumulators of the origin currently being processed
	reached          int
	totalDepthDeg    float64
	totalWeight      float64
	totalDepthWeight float64
}

func newAngularWorker(g *graph.SegmentGraph, mode angularMode, radius angularRadius, weighByLength bool, angleThreshold float64, precision int) *angularWorker {
	w := &angularWorker{
		graph:          g,
		mode:           mode,
		radius:         radius,
		weighByLength:  weighByLength,
		angleThreshold: angleThreshold,
		precision:      precision,
		queue:          bucketq.New[angularTravState](uint(360/precision + 1)),
		states:         make([]segmentState, g.SegmentCount()*2),
	}
	if mode == modeAngularChoice {
		w.scores = make([]float64, g.SegmentCount())
	}
	return w
}

func (w *angularWorker) stateIndex(segment int, forwards bool) int {
	idx := segment << 1
	if !forwards {
		idx++
	}
	return idx
}

func (w *angularWorker) state(segment int, forwards bool) *segmentState {
	return &w.states[w.stateIndex(segment, forwards)]
}

func (w *angularWorker) discreteAngle(angle float64) uint {
	return uint(angle/float64(w.precision) + 0.5)
}

func (w *angularWorker) withinStraight(pos geometry.Vec) bool {
	return geometry.DistSqr(pos, w.origin) <= w.radius.straightSqr
}

func (w *angularWorker) processSegment(origin int) angularResult {
	w.queue.Reset(0)
	w.reached = 0
	w.totalDepthDeg = 0
	w.totalWeight = 0
	w.totalDepthWeight = 0

	w.origin = w.graph.Segment(origin).Center

	state := angularTravState{segmentIndex: origin, forwards: false, sourceState: noSourceState}
	w.processTraversalState(state)
	state.forwards = true
	w.processTraversalState(state)

	for !w.queue.Empty() {
		w.processTraversalState(w.queue.Pop())
	}

	return angularResult{
		nodeCount:        w.reached + 1,
		totalDepth:       geometry.SyntaxAngle(w.totalDepthDeg),
		totalWeight:      w.totalWeight,
		totalDepthWeight: geometry.SyntaxAngle(w.totalDepthWeight),
	}
}

func (w *angularWorker) processTraversalState(state angularTravState) {
	segment := w.graph.Segment(state.segmentIndex)
	segState := w.state(state.segmentIndex, state.forwards)

	if segState.processed && state.accAngleDisc > segState.lowestAngle {
		return // already reached via a shorter path
	}

	if state.sourceState != noSourceState {
		// Record the step into this segment on the source state.
		sourceState := &w.states[state.sourceState]
		var sourceIntersection *graph.Intersection
		if state.forwards {
			sourceIntersection = segment.Intersections[0]
		} else {
			sourceIntersection = segment.Intersections[1]
		}
		for i, seg := range sourceIntersection.Segments {
			if seg == state.segmentIndex {
				if sourceState.outSegmentBit(i) {
					return // the step is already known
				}
				sourceState.setOutSegmentBit(i)
				break
			}
		}
	}

	if segState.processed {
		// Another equally short path into this segment.
		segState.numShortestPaths++
		return
	}

	if state.sourceState != noSourceState && !w.state(state.segmentIndex, !state.forwards).processed {
		// First reach of this segment from either direction.
		w.reached++
		weight := 1.0
		if w.weighByLength {
			weight = segment.Length
		}
		w.totalDepthDeg += state.accAngle
		w.totalWeight += weight
		w.totalDepthWeight += state.accAngle * weight
	}

	segState.processed = true
	segState.score = -1
	segState.numShortestPaths = 1
	segState.lowestAngle = state.accAngleDisc
	segState.outSegmentBits = 0

	if state.accSteps >= w.radius.steps {
		return
	}
	var intersection *graph.Intersection
	if state.forwards {
		intersection = segment.Intersections[1]
	} else {
		intersection = segment.Intersections[0]
	}
	if intersection == nil || !w.withinStraight(intersection.Pos) {
		return
	}

	orientation := segment.Orientation
	if !state.forwards {
		orientation = geometry.ReverseAngle(orientation)
	}

	for _, otherIndex := range intersection.Segments {
		if otherIndex == state.segmentIndex {
			continue // do not go back into the current segment
		}
		other := w.graph.Segment(otherIndex)
		if !w.withinStraight(other.Center) {
			continue
		}

		accWalking := state.accWalking + (segment.Length+other.Length)*0.5
		if accWalking > w.radius.walking {
			continue
		}

		otherForwards := other.Intersections[0] == intersection
		otherOrientation := other.Orientation
		if !otherForwards {
			otherOrientation = geometry.ReverseAngle(otherOrientation)
		}
		deltaAngle := geometry.AngleDiff(orientation, otherOrientation)
		if deltaAngle < w.angleThreshold {
			deltaAngle = 0
		}

		accAngle := state.accAngle + deltaAngle
		if accAngle > w.radius.angle {
			continue
		}

		accAngleDisc := state.accAngleDisc + w.discreteAngle(deltaAngle)
		w.queue.Insert(accAngleDisc, angularTravState{
			segmentIndex: otherIndex,
			forwards:     otherForwards,
			accAngleDisc: accAngleDisc,
			sourceState:  w.stateIndex(state.segmentIndex, state.forwards),
			accWalking:   accWalking,
			accAngle:     accAngle,
			accSteps:     state.accSteps + 1,
		})
	}
}

// collectChoiceScores runs the depth-first back-accumulation from every
// reached segment toward the origin and folds the per-direction flow
// into the worker score array.
func (w *angularWorker) collectChoiceScores(origin int) {
	prevScore := w.scores[origin]

	w.collectScores(origin, false, origin)
	w.collectScores(origin, true, origin)

	if w.weighByLength {
		// Weighted choice gives the origin half the score an
		// intermediate segment would earn (Turner 2007, page 544).
		w.scores[origin] = prevScore + (w.scores[origin]-prevScore)*0.5
	} else {
		// Unweighted: the origin is an end of every path here and earns
		// nothing.
		w.scores[origin] = prevScore
	}
}

func (w *angularWorker) collectScores(segmentIndex int, forwards bool, origin int) {
	segment := w.graph.Segment(segmentIndex)
	segState := w.state(segmentIndex, forwards)
	oppositeState := w.state(segmentIndex, !forwards)

	segState.score = 0

	var intersection *graph.Intersection
	if forwards {
		intersection = segment.Intersections[1]
	} else {
		intersection = segment.Intersections[0]
	}
	if intersection != nil {
		for i, otherIndex := range intersection.Segments {
			if !segState.outSegmentBit(i) {
				continue
			}
			other := w.graph.Segment(otherIndex)
			otherForwards := other.Intersections[0] == intersection
			otherState := w.state(otherIndex, otherForwards)
			if otherState.score < 0 {
				w.collectScores(otherIndex, otherForwards, origin)
			}
			segState.score += otherState.score / float64(otherState.numShortestPaths)
		}
	}

	w.scores[segmentIndex] += segState.score

	oppositeLowest := uint(math.MaxUint)
	if oppositeState.processed {
		oppositeLowest = oppositeState.lowestAngle
	}
	if segState.lowestAngle <= oppositeLowest {
		stateScore := 1.0
		if w.weighByLength {
			stateScore = segment.Length * w.graph.Segment(origin).Length
		}
		if segState.lowestAngle == oppositeLowest {
			total := segState.numShortestPaths + oppositeState.numShortestPaths
			stateScore *= float64(segState.numShortestPaths) / float64(total)
		}

		segState.score += stateScore

		if w.weighByLength && segmentIndex != origin {
			// Weighted choice credits destination segments with half an
			// intermediate segment's score (Turner 2007, page 544).
			w.scores[segmentIndex] += stateScore * 0.5
		}
	}
}

func (w *angularWorker) clearProcessedFlags(origin int) {
	w.clearProcessedFlagsDir(origin, false)
	w.clearProcessedFlagsDir(origin, true)
}

func (w *angularWorker) clearProcessedFlagsDir(segmentIndex int, forwards bool) {
	segState := w.state(segmentIndex, forwards)
	if !segState.processed {
		return
	}
	segState.processed = false
	segment := w.graph.Segment(segmentIndex)
	var intersection *graph.Intersection
	if forwards {
		intersection = segment.Intersections[1]
	} else {
		intersection = segment.Intersections[0]
	}
	if intersection == nil {
		return
	}
	for i, otherIndex := range intersection.Segments {
		if !segState.outSegmentBit(i) {
			continue
		}
		other := w.graph.Segment(otherIndex)
		otherForwards := other.Intersections[0] == intersection
		w.clearProcessedFlagsDir(otherIndex, otherForwards)
	}
}
