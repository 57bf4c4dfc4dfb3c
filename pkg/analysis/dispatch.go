package analysis

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// workerCount returns the number of workers an analysis runs:
// one per logical core, never less than one.
func workerCount() int {
	n := runtime.NumCPU()
	if n < 1 {
		n = 1
	}
	return n
}

// counter is the shared atomic "next origin" dispenser workers loop on.
type counter struct {
	next  atomic.Uint64
	total uint64
}

func newCounter(total int) *counter {
	return &counter{total: uint64(total)}
}

// fetch hands out the next origin index, or ok=false when exhausted.
func (c *counter) fetch() (index int, ok bool) {
	n := c.next.Add(1) - 1
	if n >= c.total {
		return 0, false
	}
	return int(n), true
}

// processed returns how many origins have been handed out, capped at
// the total.
func (c *counter) processed() uint64 {
	n := c.next.Load()
	if n > c.total {
		n = c.total
	}
	return n
}

func (c *counter) progress() float64 {
	if c.total == 0 {
		return 1
	}
	return float64(c.processed()) / float64(c.total)
}

// workerRange is a contiguous slice of origins assigned to one worker.
type workerRange struct {
	first int
	count int
}

// staticRanges splits total origins into at most workers contiguous
// ranges. The kernels whose workers accumulate float scores use a
// static split so the origin-to-worker assignment - and therefore the
// summation order of the final reduction - is identical from run to
// run.
func staticRanges(total, workers int) []workerRange {
	if total <= 0 {
		return nil
	}
	per := total/workers + 1
	var ranges []workerRange
	for w := 0; w < workers; w++ {
		first := per * w
		count := total - first
		if count <= 0 {
			break
		}
		if count > per {
			count = per
		}
		ranges = append(ranges, workerRange{first: first, count: count})
	}
	return ranges
}

// dispatch runs work on workers parallel goroutines while the calling
// goroutine reports progress every ~100ms. It returns once every
// worker has drained; a cancellation latched in progress lets workers
// finish their current origin and stop.
func dispatch(workers int, progress *Progress, frac func() float64, work func(workerIndex int)) {
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			work(w)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait() // workers never return errors
		close(done)
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			progress.Report(frac())
			return
		case <-ticker.C:
			progress.Report(frac())
		}
	}
}
