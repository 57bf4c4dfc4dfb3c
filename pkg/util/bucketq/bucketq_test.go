package bucketq

import "testing"

func TestPopOrder(t *testing.T) {
	q := New[string](16)
	q.Insert(3, "c")
	q.Insert(1, "a")
	q.Insert(7, "d")
	q.Insert(2, "b")

	got := []string{q.Pop(), q.Pop(), q.Pop(), q.Pop()}
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order: got %v, want %v", got, want)
		}
	}
	if !q.Empty() {
		t.Error("queue should be empty")
	}
}

func TestSamePriorityLIFO(t *testing.T) {
	q := New[int](4)
	q.Insert(2, 10)
	q.Insert(2, 20)
	q.Insert(2, 30)
	if v := q.Pop(); v != 30 {
		t.Errorf("first pop: got %d, want 30 (LIFO within bucket)", v)
	}
	if v := q.Pop(); v != 20 {
		t.Errorf("second pop: got %d, want 20", v)
	}
	if v := q.Pop(); v != 10 {
		t.Errorf("third pop: got %d, want 10", v)
	}
}

func TestInsertAfterPopWrapsRing(t *testing.T) {
	// The live priority span stays below the range while the absolute
	// priority keeps growing, exercising the ring wrap-around.
	q := New[uint](8)
	q.Insert(0, 0)
	for p := uint(0); p < 40; p++ {
		v := q.Pop()
		if v != p {
			t.Fatalf("pop: got %d, want %d", v, p)
		}
		if p < 39 {
			q.Insert(p+1, p+1)
		}
	}
	if !q.Empty() {
		t.Error("queue should be empty")
	}
}

func TestTopDoesNotRemove(t *testing.T) {
	q := New[int](4)
	q.Insert(1, 42)
	if q.Top() != 42 {
		t.Error("Top should see the queued item")
	}
	if q.Len() != 1 {
		t.Error("Top must not remove")
	}
	if q.Pop() != 42 {
		t.Error("Pop after Top")
	}
}

func TestReset(t *testing.T) {
	q := New[int](8)
	q.Insert(3, 1)
	q.Insert(5, 2)
	q.Reset(0)
	if !q.Empty() {
		t.Error("Reset should empty the queue")
	}
	q.Insert(1, 7)
	if q.Pop() != 7 {
		t.Error("queue unusable after Reset")
	}
}
