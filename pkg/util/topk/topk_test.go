package topk

import "testing"

func TestCollectsHighestScores(t *testing.T) {
	c := New(3)
	scores := []float64{0.5, 9, 3, 7, 1, 8}
	for i, s := range scores {
		c.Add(i, s)
	}
	got := c.Results()
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	want := []Entry{{Index: 1, Score: 9}, {Index: 5, Score: 8}, {Index: 3, Score: 7}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result[%d]: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDeterministicTies(t *testing.T) {
	// Equal scores must keep the lowest indices regardless of feed
	// order.
	feedOrders := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 4, 0, 3, 1},
	}
	for _, order := range feedOrders {
		c := New(2)
		for _, i := range order {
			c.Add(i, 1.0)
		}
		got := c.Results()
		if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
			t.Errorf("feed %v: got %+v, want indices [0 1]", order, got)
		}
	}
}

func TestFewerItemsThanK(t *testing.T) {
	c := New(10)
	c.Add(0, 2)
	c.Add(1, 1)
	got := c.Results()
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Index != 0 || got[1].Index != 1 {
		t.Errorf("order: got %+v", got)
	}
}

func TestZeroK(t *testing.T) {
	c := New(0)
	if c.Add(0, 100) {
		t.Error("k=0 collector must not admit anything")
	}
	if len(c.Results()) != 0 {
		t.Error("k=0 collector must return no results")
	}
}

func TestReset(t *testing.T) {
	c := New(2)
	c.Add(0, 1)
	c.Reset()
	if c.Len() != 0 {
		t.Error("Reset should empty the collector")
	}
	c.Add(3, 5)
	got := c.Results()
	if len(got) != 1 || got[0].Index != 3 {
		t.Errorf("collector unusable after Reset: %+v", got)
	}
}
