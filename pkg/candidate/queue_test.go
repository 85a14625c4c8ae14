package candidate

import "testing"

func TestBasicInsertions(t *testing.T) {
	q := NewQueue(3)
	q.Push("foo", 0.5)
	q.Push("bar", 0.7)
	q.Push("baz", 0.6)
	q.Push("qux", 0.8)
	q.Push("quux", 0.9)

	got := q.IntoSortedVec()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantOrder := []string{"quux", "qux", "bar"}
	for i, w := range wantOrder {
		if got[i].Text != w {
			t.Errorf("entries[%d].Text = %q, want %q", i, got[i].Text, w)
		}
	}
}

func TestBasicInsertionsWithDuplicates(t *testing.T) {
	q := NewQueue(3)
	q.Push("quux", 0.9)
	q.Push("quux", 0.9)

	got := q.IntoSortedVec()
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestEmptyCandidateSet(t *testing.T) {
	q := NewQueue(3)
	if got := q.IntoSortedVec(); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestNaNConfidenceInsertions(t *testing.T) {
	q := NewQueue(3)
	q.Push("foo", 0.5)
	q.Push("baz", 0.6)
	q.Push("nope", nanValue())

	got := q.IntoSortedVec()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Text != "baz" || got[1].Text != "foo" {
		t.Errorf("order = %v, want [baz foo]", got)
	}
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestCapacityNeverExceeded(t *testing.T) {
	q := NewQueue(2)
	for i := 0; i < 10; i++ {
		q.Push(string(rune('a'+i)), float64(i)/10)
	}
	if got := len(q.IntoSortedVec()); got > 2 {
		t.Fatalf("len = %d, want <= 2", got)
	}
}
