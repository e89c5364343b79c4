package backref

import "testing"

func TestSubRangeInclusive(t *testing.T) {
	tests := []struct {
		start, end int
		in         []int
		want       []int
	}{
		{5, 6, []int{4, 5, 6, 7}, []int{5, 6}},
		{5, 6, []int{5, 6, 7}, []int{5, 6}},
		{5, 6, []int{4, 5, 6}, []int{5, 6}},
		{4, 7, []int{2, 3, 5, 6, 8, 9}, []int{5, 6}},
		{4, 7, []int{5, 6, 8, 9}, []int{5, 6}},
		{4, 7, []int{2, 3, 5, 6}, []int{5, 6}},
		{7, 8, []int{4, 5, 6}, nil},
		{7, 8, []int{9, 10}, nil},
		{7, 8, nil, nil},
	}
	for i, tt := range tests {
		got := subRangeInclusive(tt.start, tt.end, tt.in)
		if !equalInts(got, tt.want) {
			t.Errorf("case %d: subRangeInclusive(%d,%d,%v) = %v, want %v", i, tt.start, tt.end, tt.in, got, tt.want)
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenNoKeyNearEnd(t *testing.T) {
	idx := Build(nil, []byte("ab"))
	if _, ok := idx.Open(0); ok {
		t.Fatal("expected no key with only 2 bytes of data")
	}
}

func TestOpenAtAbsoluteZeroIsEmpty(t *testing.T) {
	idx := Build(nil, []byte("abcabc"))
	it, ok := idx.Open(0)
	if !ok {
		t.Fatal("expected a key at position 0")
	}
	if _, ok := it.Peek(); ok {
		t.Fatal("expected no candidates at the very start of the stream")
	}
}

func TestCandidateFoundAndNearestFirst(t *testing.T) {
	// "abcdef" + "bcdefghi": "bcd" occurs at data position 0 and at
	// preroll position 1.
	idx := Build([]byte("abcdef"), []byte("bcdefghi"))
	it, ok := idx.Open(0)
	if !ok {
		t.Fatal("expected a key at position 0")
	}
	c, ok := it.Peek()
	if !ok {
		t.Fatal("expected a candidate")
	}
	// preroll "abcdef" (len 6) + data pos 0 = absolute pos 6. The only
	// prior occurrence of "bcd" is preroll[1:4], absolute pos 1, distance 5.
	if c.Distance != 5 {
		t.Errorf("Distance = %d, want 5", c.Distance)
	}
	if c.Run < 3 {
		t.Errorf("Run = %d, want at least 3", c.Run)
	}
}

func TestCandidateDistanceNeverExceedsWindow(t *testing.T) {
	data := make([]byte, 40000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	idx := Build(nil, data)
	for pos := 0; pos < len(data)-3; pos += 97 {
		it, ok := idx.Open(pos)
		if !ok {
			continue
		}
		for {
			c, ok := it.Next()
			if !ok {
				break
			}
			if c.Distance < 1 || int(c.Distance) > windowSize {
				t.Fatalf("pos %d: candidate distance %d out of window bound", pos, c.Distance)
			}
		}
	}
}

func TestSortedOrdersByRunThenDistance(t *testing.T) {
	idx := Build(nil, []byte("xyzxyzxyz"))
	it, ok := idx.Open(3)
	if !ok {
		t.Fatal("expected a key")
	}
	sorted := it.Sorted()
	if len(sorted) == 0 {
		t.Fatal("expected at least one candidate")
	}
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Run < cur.Run {
			t.Fatalf("not sorted by run descending at %d: %+v then %+v", i, prev, cur)
		}
		if prev.Run == cur.Run && prev.Distance > cur.Distance {
			t.Fatalf("not sorted by distance ascending at %d: %+v then %+v", i, prev, cur)
		}
	}
}
