package token

import "testing"

func TestPackRunWidenRunRoundTrip(t *testing.T) {
	for run := uint16(3); run <= 258; run++ {
		got := WidenRun(PackRun(run))
		if got != run {
			t.Errorf("run %d: round trip got %d", run, got)
		}
	}
}

func TestPackRunSaturates(t *testing.T) {
	if got := PackRun(0); got != PackRun(3) {
		t.Errorf("PackRun(0) did not saturate to minimum")
	}
	if got := PackRun(1000); got != PackRun(258) {
		t.Errorf("PackRun(1000) did not saturate to maximum")
	}
}

func TestRefAndEmittedBytes(t *testing.T) {
	tok := Ref(12, 258)
	if tok.Kind != KindReference {
		t.Fatal("expected KindReference")
	}
	if tok.Run() != 258 {
		t.Errorf("Run() = %d, want 258", tok.Run())
	}
	if tok.EmittedBytes() != 258 {
		t.Errorf("EmittedBytes() = %d, want 258", tok.EmittedBytes())
	}
}

func TestLitEmittedBytes(t *testing.T) {
	tok := Lit('x')
	if tok.EmittedBytes() != 1 {
		t.Errorf("EmittedBytes() = %d, want 1", tok.EmittedBytes())
	}
	if tok.Run() != 0 {
		t.Errorf("Run() on literal = %d, want 0", tok.Run())
	}
}
