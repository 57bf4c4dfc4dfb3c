// Package topk provides a heap-based top-K collector for network
// element scores.
//
// The Collector maintains the K highest-scoring element indices from a
// stream in O(n log k) time instead of the O(n log n) a full sort would
// cost. Ties on score break toward the lower element index so results
// are deterministic regardless of feed order.
//
// Example usage:
//
//	collector := topk.New(10)
//	for i, score := range betweenness {
//	    collector.Add(i, score)
//	}
//	top := collector.Results()
package topk

import (
	"container/heap"
	"sort"
)

// Entry pairs a network element index with its score.
type Entry struct {
	Index int
	Score float64
}

// Collector collects the top-K highest-scoring element indices.
// Internally a min-heap keeps the current K-th score at the root.
type Collector struct {
	k int
	h minHeap
}

// New creates a Collector for the top k entries. A k <= 0 collector
// accepts nothing.
func New(k int) *Collector {
	if k < 0 {
		k = 0
	}
	c := &Collector{k: k}
	c.h = make(minHeap, 0, k)
	return c
}

// Add considers an element for inclusion in the top-K. Returns true if
// it was admitted, either because there was room or because it beats
// the current minimum (ties admit the lower index).
func (c *Collector) Add(index int, score float64) bool {
	if c.k <= 0 {
		return false
	}
	e := Entry{Index: index, Score: score}
	if c.h.Len() < c.k {
		heap.Push(&c.h, e)
		return true
	}
	root := c.h[0]
	if score > root.Score || (score == root.Score && index < root.Index) {
		c.h[0] = e
		heap.Fix(&c.h, 0)
		return true
	}
	return false
}

// Len returns the number of collected entries.
func (c *Collector) Len() int { return c.h.Len() }

// K returns the capacity of the collector.
func (c *Collector) K() int { return c.k }

// Reset empties the collector for reuse.
func (c *Collector) Reset() { c.h = c.h[:0] }

// Results returns the collected entries in descending score order,
// ascending index on equal scores.
func (c *Collector) Results() []Entry {
	out := make([]Entry, len(c.h))
	copy(out, c.h)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// minHeap keeps the entry that should be evicted first at the root:
// lowest score, and on ties the highest index.
type minHeap []Entry

func (h minHeap) Len() int { return len(h) }

func (h minHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].Index > h[j].Index
}

func (h minHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *minHeap) Push(x any) { *h = append(*h, x.(Entry)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
