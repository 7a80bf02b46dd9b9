// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"
	"math"
	"testing"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

// fixedSamples builds a driver.SampleFunc backed by a fixed map, for unit
// testing decideAt without a full Engine/device.
func fixedSamples(values map[[2]int][4]float32) driver.SampleFunc {
	return func(idx int, p image.Point) [4]float32 {
		return values[[2]int{idx, (p.X << 16) ^ p.Y}]
	}
}

func TestDecideAtRecordTransitionAgreement(t *testing.T) {
	// Both Record and Transition call decideAt with the same sampler
	// layout order (connection, state, probability, noise); a single
	// call site therefore guarantees spec §8 property 6 by construction.
	// This test just exercises decideAt directly to confirm it is
	// deterministic given identical inputs.
	key := func(idx, x, y int) [2]int { return [2]int{idx, (x << 16) ^ y} }
	conn := [4]float32{1, 0.5, 0, 0.5} // dx1=+1,dy1=0,dx2=-1,dy2=0
	samples := map[[2]int][4]float32{
		key(0, 2, 2): conn,
		key(1, 2, 2): {1, 0, 0, 0}, // self state = 1
		key(1, 3, 2): {0, 0, 0, 0}, // neighbour1 state = 0
		key(1, 1, 2): {1, 0, 0, 0}, // neighbour2 state = 1
		key(2, 5, 2): {0.5, 0.6, 0.7, 0.8}, // probTexel(2,2,c=1) = (5,2), since self state bit is 1
		key(3, 2, 2): {0.25, 0.25, 0.25, 0.25},
	}
	sample := fixedSamples(samples)

	d1 := decideAt(2, 2, false, 6, sample, 0, 1, 2, 3)
	d2 := decideAt(2, 2, false, 6, sample, 0, 1, 2, 3)
	if d1 != d2 {
		t.Fatalf("decideAt is not deterministic: %v vs %v", d1, d2)
	}
	if d1.c != 1 {
		t.Errorf("c = %d, want 1 (self state sampled as 1)", d1.c)
	}
	if d1.n1 != 0 || d1.n2 != 1 {
		t.Errorf("n1=%d n2=%d, want n1=0 n2=1", d1.n1, d1.n2)
	}
}

// TestHistoryDecayClosedForm is spec §8 property 5: if the same
// (c,n1,n2,next) combination is the active one every step, its history
// counter follows the closed form of out = old*(1-r) + target*r with a
// constant target=1, namely history_k = 1-(1-r)^k.
//
// Forcing every cell to state=1 and zeroing the noise sampled each step
// keeps the combination constant round after round: self and both
// neighbours always read back as state 1 (c=n1=n2=1), and
// random=uniformFromSeed(0)=0 is <= any logistic threshold in (0,1), so
// next=1 regardless of how probability drifts, which in turn keeps the
// grid at all-ones for the following step too.
func TestHistoryDecayClosedForm(t *testing.T) {
	const decayRate = 0.1
	e, err := New(Options{Width: 4, Height: 4, HistoryDecayRate: decayRate})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Dispose()

	ones := make([]byte, 4*4*4)
	for i := range ones {
		ones[i] = 255
	}
	if err := e.SetStates(0, 0, 4, 4, ones); err != nil {
		t.Fatalf("SetStates: %v", err)
	}

	// cell (0,0) with self state 1 and both neighbours (clamped or not)
	// also at state 1 selects c=1, n1=1; the active history texel is
	// historyTexel(0,0,1,1), channel historyChannel(n2=1,next=1).
	texel := historyTexel(0, 0, 1, 1)
	channel := historyChannel(1, 1)
	r := image.Rect(texel.X, texel.Y, texel.X+1, texel.Y+1)

	zeroNoise := make([]byte, 4*4*4)
	want := float32(0)
	for step := 1; step <= 5; step++ {
		// Re-zero the noise buffer Step is about to sample (Transition
		// advances it via the LCG each round, so it must be reset before
		// every call, not just once up front).
		if err := e.dev.WritePixels(e.noise.tex[e.textureIndex], image.Rect(0, 0, 4, 4), zeroNoise); err != nil {
			t.Fatalf("zeroing noise before step %d: %v", step, err)
		}
		if err := e.Step(0); err != nil {
			t.Fatalf("Step %d: %v", step, err)
		}
		want = want*(1-decayRate) + decayRate

		got, err := e.DebugReadTexture("history", r)
		if err != nil {
			t.Fatalf("DebugReadTexture: %v", err)
		}
		if diff := math.Abs(float64(got[channel] - want)); diff > 1e-4 {
			t.Errorf("step %d: history[%d] = %v, want %v (1-(1-%v)^%d)", step, channel, got[channel], want, decayRate, step)
		}
	}
}
