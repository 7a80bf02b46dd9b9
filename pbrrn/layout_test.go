// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"
	"testing"
)

func TestBuildConnectionChecker(t *testing.T) {
	conn := buildConnection(4, 4)
	get := func(x, y int) (connectionOffset, connectionOffset) {
		i := (y*4 + x) * 2
		return conn[i], conn[i+1]
	}
	// (0,0): x+y even -> horizontal motif.
	a, b := get(0, 0)
	if a != (connectionOffset{-1, 0}) || b != (connectionOffset{1, 0}) {
		t.Errorf("cell (0,0) = %v,%v, want horizontal motif", a, b)
	}
	// (1,0): x+y odd -> vertical motif ("rotated" on alternating cells).
	a, b = get(1, 0)
	if a != (connectionOffset{0, -1}) || b != (connectionOffset{0, 1}) {
		t.Errorf("cell (1,0) = %v,%v, want vertical motif", a, b)
	}
	// Every offset is unit Manhattan distance (spec §3 invariant).
	for _, o := range conn {
		if abs(o.dx)+abs(o.dy) != 1 {
			t.Errorf("offset %v has Manhattan distance != 1", o)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestEncodeDecodeOffsetRoundTrip(t *testing.T) {
	for _, v := range []int{-1, 0, 1} {
		got := decodeOffset(float32(encodeOffset(v)) / 255)
		if got != v {
			t.Errorf("decodeOffset(encodeOffset(%d)) = %d", v, got)
		}
	}
}

func TestProbAndHistoryAddressingDistinct(t *testing.T) {
	// Every (c,n1,n2) combination must address a distinct (texel,channel)
	// pair in the probability layout, else two rules would alias.
	seen := map[image.Point]map[int]bool{}
	for c := 0; c < 2; c++ {
		for n1 := 0; n1 < 2; n1++ {
			for n2 := 0; n2 < 2; n2++ {
				texel := probTexel(3, 5, c)
				ch := probChannel(n1, n2)
				if seen[texel] == nil {
					seen[texel] = map[int]bool{}
				}
				seen[texel][ch] = true
			}
		}
	}
	// 2 texels (c=0,1) x 4 channels = 8 distinct addresses total.
	total := 0
	for _, chans := range seen {
		total += len(chans)
	}
	if total != 8 {
		t.Errorf("got %d distinct probability addresses, want 8", total)
	}
}

func TestHistoryAddressingCoversSixteen(t *testing.T) {
	seen := map[image.Point]map[int]bool{}
	for c := 0; c < 2; c++ {
		for n1 := 0; n1 < 2; n1++ {
			texel := historyTexel(2, 2, c, n1)
			for n2 := 0; n2 < 2; n2++ {
				for next := 0; next < 2; next++ {
					ch := historyChannel(n2, next)
					if seen[texel] == nil {
						seen[texel] = map[int]bool{}
					}
					seen[texel][ch] = true
				}
			}
		}
	}
	total := 0
	for _, chans := range seen {
		total += len(chans)
	}
	if total != 16 {
		t.Errorf("got %d distinct history addresses, want 16", total)
	}
}

func TestDecideThresholdMonotonic(t *testing.T) {
	// Higher mixed probability -> higher decision threshold (logistic is
	// monotonic in its logit).
	low := decide(0, 0, 0, false, [4]float32{0.4, 0, 0, 0}, 6, 0)
	high := decide(0, 0, 0, false, [4]float32{0.6, 0, 0, 0}, 6, 0)
	if !(low.threshold < high.threshold) {
		t.Errorf("threshold not monotonic: low=%v high=%v", low.threshold, high.threshold)
	}
}

func TestDecideDisableSelfInputsForcesC0(t *testing.T) {
	d := decide(1 /* self=1 */, 0, 0, true, [4]float32{0.5, 0.9, 0.1, 0.2}, 6, 0)
	if d.c != 0 {
		t.Errorf("disableSelfInputs=true: c=%d, want 0", d.c)
	}
}
