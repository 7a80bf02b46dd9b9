// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"
	"math"
	"testing"
)

func newTestEngine(t *testing.T, w, h int) *Engine {
	t.Helper()
	e, err := New(Options{Width: w, Height: h})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 8}); err == nil {
		t.Error("width=0 should be rejected")
	}
	if _, err := New(Options{Width: 8, Height: 8, HistoryDecayRate: 2}); err == nil {
		t.Error("historyDecayRate=2 should be rejected")
	}
}

func TestStepRejectsNonFiniteReward(t *testing.T) {
	e := newTestEngine(t, 8, 8)
	if err := e.Step(float32(math.NaN())); err == nil {
		t.Error("NaN reward should be rejected")
	}
	if err := e.Step(float32(math.Inf(1))); err == nil {
		t.Error("+Inf reward should be rejected")
	}
}

// TestStepScenarioS1 is spec §8 scenario S1 with all-zero noise and neutral
// (0.5) probability everywhere; the initial state is left at its random
// value, since it cannot change the outcome. threshold=logistic(0)=0.5 for
// every cell; random=uniformFromSeed(0)=0, and 0<=0.5, so every cell
// transitions to 1 regardless of its own or its neighbours' state.
func TestStepScenarioS1(t *testing.T) {
	e := newTestEngine(t, 8, 8)

	// Zero the noise texture directly (New seeds it randomly); with
	// probability neutral at 0.5 everywhere, threshold=logistic(0)=0.5
	// and random=uniformFromSeed(0)=0, so every cell transitions to 1
	// regardless of neighbour states.
	zero := make([]byte, 8*8*4)
	if err := e.dev.WritePixels(e.noise.tex[e.textureIndex], image.Rect(0, 0, 8, 8), zero); err != nil {
		t.Fatalf("zeroing noise: %v", err)
	}

	if err := e.Step(0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			got, err := e.GetState(x, y)
			if err != nil {
				t.Fatalf("GetState(%d,%d): %v", x, y, err)
			}
			if !got {
				t.Errorf("GetState(%d,%d) = false, want true (S1)", x, y)
			}
		}
	}
}

// TestDeterminismUnderFixedSeed is spec §8 property 3, reduced to a
// reproducible form: New() seeds state/noise from the process RNG, so two
// independent runs may legitimately diverge; what must hold is that
// stepping forward from an identical snapshot always reproduces identical
// results (the property any fixed-seed comparison actually relies on).
func TestDeterminismUnderFixedSeed(t *testing.T) {
	e, err := New(Options{Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	collect := func() []byte {
		for i := 0; i < 5; i++ {
			if err := e.Step(0.1); err != nil {
				t.Fatalf("Step: %v", err)
			}
		}
		out := make([]byte, 8*8*4)
		if err := e.GetStates(0, 0, 8, 8, out); err != nil {
			t.Fatalf("GetStates: %v", err)
		}
		return out
	}
	first := collect()
	if err := e.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	second := collect()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("byte %d diverged after Restore: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestStepNeverAllocatesFramebuffers(t *testing.T) {
	// Regression guard for spec §4.6's "step never allocates": call Step
	// many times and confirm no error surfaces from repeatedly reusing
	// the same transition framebuffers (an allocate-per-step bug would
	// still "work" functionally, so this mainly documents the invariant;
	// see engine.go's transitionFB field).
	e := newTestEngine(t, 4, 4)
	for i := 0; i < 50; i++ {
		if err := e.Step(0.01); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
}

func TestGetSetStateOutOfBounds(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	if _, err := e.GetState(4, 0); err == nil {
		t.Error("GetState(4,0) on a 4x4 grid should be out of bounds")
	}
	if err := e.SetState(-1, 0, true); err == nil {
		t.Error("SetState(-1,0) should be out of bounds")
	}
	if err := e.GetStates(0, 0, 5, 4, make([]byte, 5*4*4)); err == nil {
		t.Error("GetStates width=5 on a 4-wide grid should be out of bounds")
	}
}

func TestSetStateTakesEffect(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	if err := e.SetState(1, 1, true); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	got, err := e.GetState(1, 1)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if !got {
		t.Error("GetState(1,1) = false after SetState(1,1,true)")
	}
}

func TestDisposeIdempotent(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	e.Dispose()
	e.Dispose() // must not panic
}

func TestPoisonedEngineRejectsFurtherSteps(t *testing.T) {
	e := newTestEngine(t, 4, 4)
	e.poisoned = true
	if err := e.Step(0); err != ErrPoisoned {
		t.Errorf("Step on poisoned engine = %v, want ErrPoisoned", err)
	}
	if _, err := e.GetState(0, 0); err != ErrPoisoned {
		t.Errorf("GetState on poisoned engine = %v, want ErrPoisoned", err)
	}
}
