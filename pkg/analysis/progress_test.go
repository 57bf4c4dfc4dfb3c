package analysis

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanmorph/axialnet/pkg/dist"
)

func TestProgressNilCallback(t *testing.T) {
	p := NewProgress(nil)
	p.Report(0.5)
	p.ReportStatus("ignored")
	assert.False(t, p.Cancelled())
}

func TestProgressThrottles(t *testing.T) {
	calls := 0
	p := NewProgress(func(string, float64) bool {
		calls++
		return false
	})
	// A burst of reports inside one interval must collapse.
	for i := 0; i < 100; i++ {
		p.Report(float64(i) / 100)
	}
	assert.LessOrEqual(t, calls, 2)
}

func TestProgressCancelLatches(t *testing.T) {
	p := NewProgress(func(string, float64) bool { return true })
	p.ReportStatus("starting")
	assert.True(t, p.Cancelled())
	require.NotNil(t, p.CancelFlag())
	assert.True(t, p.CancelFlag().Load())
}

func TestProgressConcurrentReports(t *testing.T) {
	p := NewProgress(func(string, float64) bool { return false })
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				p.Report(float64(i) / 1000)
			}
		}()
	}
	wg.Wait()
}

func TestMultiTaskProgressScales(t *testing.T) {
	var last float64
	p := NewProgress(func(_ string, progress float64) bool {
		last = progress
		return false
	})

	m := NewMultiTaskProgress(p)
	m.AddTask(1, 1, "build graph")
	m.AddTask(2, 3, "traverse")

	m.SetCurrentTask(1)
	time.Sleep(progressInterval + 10*time.Millisecond)
	m.Report(1)
	assert.InDelta(t, 0.25, last, 1e-9, "first task is a quarter of the weight")

	m.SetCurrentTask(2)
	time.Sleep(progressInterval + 10*time.Millisecond)
	m.Report(0.5)
	assert.InDelta(t, 0.25+0.375, last, 1e-9)
}

func TestCancellationLeavesPartialResults(t *testing.T) {
	t.Log("a cancelling callback stops workers after their current origin...")

	g := gridGraph(5, 5)
	scores := make([]float64, g.LineCount())
	err := Betweenness(g, BetweennessOptions{
		DistanceType: dist.Walking,
		Progress:     func(string, float64) bool { return true },
	}, scores, nil, nil)
	require.NoError(t, err, "cancellation is normal completion")
}

func TestStaticRangesCoverEverything(t *testing.T) {
	for _, tc := range []struct{ total, workers int }{
		{0, 4}, {1, 4}, {7, 3}, {16, 4}, {5, 8},
	} {
		ranges := staticRanges(tc.total, tc.workers)
		covered := 0
		next := 0
		for _, r := range ranges {
			assert.Equal(t, next, r.first, "ranges must be contiguous")
			covered += r.count
			next = r.first + r.count
		}
		assert.Equal(t, tc.total, covered, "total=%d workers=%d", tc.total, tc.workers)
	}
}

func TestCounterDispenses(t *testing.T) {
	c := newCounter(3)
	seen := map[int]bool{}
	for {
		i, ok := c.fetch()
		if !ok {
			break
		}
		seen[i] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, 1.0, c.progress())
}
