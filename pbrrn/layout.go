// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"
	"math"
)

// This file is the sub-texel addressing discipline spec §4.2/§9 calls out
// as the critical, not-to-be-reinvented part of the design: every pass must
// compute identical texel indices, or host getState(s) readback and the
// passes' own cross-checks (spec §8 property 6) would disagree.

// connectionOffset is one of a cell's two neighbour offsets, always unit
// Manhattan distance per spec §3's connection invariant.
type connectionOffset struct{ dx, dy int }

// buildConnection constructs the static W×H connection map (spec §3): a
// checkerboard of two neighbour-offset motifs, horizontal on cells where
// (x+y) is even and vertical where it is odd. This is exactly the "even
// rows (−1,0,+1,0) alternating with (0,−1,0,+1) across columns; odd rows
// rotated" checker pattern — row parity flips which motif starts a row,
// which (x+y)%2 already produces without separate row-handling. See
// DESIGN.md for this as a resolved Open Question.
func buildConnection(w, h int) []connectionOffset {
	// Two offsets per cell, flattened row-major.
	conn := make([]connectionOffset, w*h*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 2
			if (x+y)%2 == 0 {
				conn[i] = connectionOffset{-1, 0}
				conn[i+1] = connectionOffset{1, 0}
			} else {
				conn[i] = connectionOffset{0, -1}
				conn[i+1] = connectionOffset{0, 1}
			}
		}
	}
	return conn
}

// encodeOffset maps an offset component in {-1,0,1} to the [0,128,255]
// connection-texture byte encoding from spec §3.
func encodeOffset(v int) byte {
	switch v {
	case -1:
		return 0
	case 1:
		return 255
	default:
		return 128
	}
}

// decodeOffset is the inverse of encodeOffset, rounding to the nearest of
// {-1,0,1}.
func decodeOffset(b float32) int {
	switch {
	case b < 0.33:
		return -1
	case b > 0.66:
		return 1
	default:
		return 0
	}
}

// connectionBytes packs a cell's two offsets into the four RGBA8 channels
// (dx1,dy1,dx2,dy2), per spec §3.
func connectionBytes(a, b connectionOffset) [4]float32 {
	return [4]float32{
		float32(encodeOffset(a.dx)) / 255,
		float32(encodeOffset(a.dy)) / 255,
		float32(encodeOffset(b.dx)) / 255,
		float32(encodeOffset(b.dy)) / 255,
	}
}

// probTexel returns the (x,y) texel coordinate in the (2W)×H probability
// texture holding the four rule probabilities for cell (x,y) with self-input
// c, keyed by (n1,n2) across the texel's four channels (spec §3/§4.2: left
// half is c=0, right half is c=1).
func probTexel(x, y, c int) image.Point {
	return image.Point{X: 2*x + c, Y: y}
}

// probChannel returns the channel index within a probTexel for a given
// (n1,n2) pair.
func probChannel(n1, n2 int) int {
	return n1*2 + n2
}

// historyTexel returns the (x,y) texel coordinate in the (2W)×(2H) history
// texture holding the four (n2,next) counters for cell (x,y), self-input c
// and first-neighbour state n1 (spec §3/§4.2).
func historyTexel(x, y, c, n1 int) image.Point {
	return image.Point{X: 2*x + c, Y: 2*y + n1}
}

// historyChannel returns the channel index within a historyTexel for a
// given (n2,next) pair.
func historyChannel(n2, next int) int {
	return n2*2 + next
}

// bit converts a boolean cell state to its {0,1} integer form.
func bit(v float32) int {
	if v >= 0.5 {
		return 1
	}
	return 0
}

// decision is the single per-cell outcome that Record and Transition must
// agree on bit-for-bit (spec §4.4/§4.5's linchpin invariant): the rule
// selected and the next state drawn from it. Both passes call decide with
// identical inputs, so there is exactly one implementation to keep in sync.
type decision struct {
	c, n1, n2 int
	threshold float32
	next      int
}

// decide implements spec §4.4 steps 1-4 (shared verbatim by Record and
// Transition, spec §4.5's "must share the snippet").
func decide(selfState, n1State, n2State float32, disableSelfInputs bool, prob [4]float32, probLimit float32, noiseSeed uint32) decision {
	c := bit(selfState)
	if disableSelfInputs {
		c = 0
	}
	n1 := bit(n1State)
	n2 := bit(n2State)

	mixed := prob[probChannel(n1, n2)]
	qFinal := (mixed - 0.5) * 2 * probLimit
	threshold := logistic(qFinal)

	random := uniformFromSeed(noiseSeed)
	next := 0
	if random <= threshold {
		next = 1
	}
	return decision{c: c, n1: n1, n2: n2, threshold: threshold, next: next}
}

func logistic(q float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(q))))
}
