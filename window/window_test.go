package window

import "testing"

func TestAppendAndGetAtDist(t *testing.T) {
	w := New()
	w.AppendAll([]byte("abcdef"))
	if got := w.GetAtDist(1); got != 'f' {
		t.Errorf("GetAtDist(1) = %q, want 'f'", got)
	}
	if got := w.GetAtDist(6); got != 'a' {
		t.Errorf("GetAtDist(6) = %q, want 'a'", got)
	}
}

func TestCopySelfOverlap(t *testing.T) {
	w := New()
	w.AppendAll([]byte("ab"))
	out := w.Copy(2, 5, nil)
	if string(out) != "ababa" {
		t.Errorf("Copy(2,5) = %q, want %q", out, "ababa")
	}
}

func TestCopyDistanceOne(t *testing.T) {
	w := New()
	w.AppendAll([]byte("x"))
	out := w.Copy(1, 4, nil)
	if string(out) != "xxxx" {
		t.Errorf("Copy(1,4) = %q, want %q", out, "xxxx")
	}
}

func TestGetAtDistOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range distance")
		}
	}()
	w := New()
	w.AppendAll([]byte("a"))
	w.GetAtDist(2)
}

func TestWrapAroundFullWindow(t *testing.T) {
	w := New()
	for i := 0; i < Size+10; i++ {
		w.Append(byte(i))
	}
	// the last byte appended was (Size+10-1) mod 256, at distance 1
	want := byte((Size + 9) % 256)
	if got := w.GetAtDist(1); got != want {
		t.Errorf("GetAtDist(1) after wraparound = %d, want %d", got, want)
	}
}
