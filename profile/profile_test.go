package profile

import "testing"

func TestForLevelRange(t *testing.T) {
	for _, bad := range []int{0, -1, 10, 100} {
		if _, err := ForLevel(bad); err == nil {
			t.Errorf("level %d: expected error", bad)
		}
	}
	for level := 1; level <= 9; level++ {
		cfg, err := ForLevel(level)
		if err != nil {
			t.Fatalf("level %d: %v", level, err)
		}
		if cfg.Level != level {
			t.Errorf("level %d: cfg.Level = %d", level, cfg.Level)
		}
	}
}

func TestLevelShapes(t *testing.T) {
	for level := 1; level <= 3; level++ {
		cfg, _ := ForLevel(level)
		if cfg.Mode != Greedy {
			t.Errorf("level %d: expected Greedy mode", level)
		}
	}
	for level := 4; level <= 9; level++ {
		cfg, _ := ForLevel(level)
		if cfg.Mode != Lookahead {
			t.Errorf("level %d: expected Lookahead mode", level)
		}
	}
}

func TestLevel9Values(t *testing.T) {
	cfg, err := ForLevel(9)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.QuitSearchAboveLength != 258 {
		t.Errorf("level 9 QuitSearchAboveLength = %d, want 258", cfg.QuitSearchAboveLength)
	}
	if cfg.LimitCountOfDistances != 4096 {
		t.Errorf("level 9 LimitCountOfDistances = %d, want 4096", cfg.LimitCountOfDistances)
	}
	if cfg.AbortLookaheadAboveLength != 258 {
		t.Errorf("level 9 AbortLookaheadAboveLength = %d, want 258", cfg.AbortLookaheadAboveLength)
	}
}

func TestUnconstrainedNeverCutsSearchShort(t *testing.T) {
	if Unconstrained.QuitSearchAboveLength != 258 {
		t.Errorf("Unconstrained.QuitSearchAboveLength = %d, want 258 (the max possible run)", Unconstrained.QuitSearchAboveLength)
	}
	if Unconstrained.LimitCountOfDistances != 0 {
		t.Errorf("Unconstrained.LimitCountOfDistances = %d, want 0 (no limit)", Unconstrained.LimitCountOfDistances)
	}
}
