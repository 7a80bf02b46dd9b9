// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

const (
	transitionSamplerConnection  = 0
	transitionSamplerState       = 1
	transitionSamplerProbability = 2
	transitionSamplerNoise       = 3
)

// newTransitionProgram builds the Transition pass (spec §4.5): connection +
// state[prev] + probability[curr] + noise[prev] -> state[curr], noise[curr],
// executed over W×H fragments, one per cell, with two color attachments.
//
// It recomputes decideAt exactly as Record does (spec §4.5's "must share
// the snippet") so the committed next state always agrees with the decision
// Record already recorded into history.
func newTransitionProgram(dev driver.Device, disableSelfInputs bool) (driver.Program, error) {
	src := driver.ProgramSource{Name: "transition", SamplerHint: []string{"connection", "state", "probability", "noise"}}
	return dev.NewDualProgram(src, func(frag image.Point, u driver.Uniforms, sample driver.SampleFunc) (stateOut, noiseOut [4]float32) {
		limit := u["probabilityLimit"]
		d := decideAt(frag.X, frag.Y, disableSelfInputs, limit, sample,
			transitionSamplerConnection, transitionSamplerState, transitionSamplerProbability, transitionSamplerNoise)

		stateOut = [4]float32{float32(d.next), 0, 0, 0}

		noise := sample(transitionSamplerNoise, frag)
		seed := seedFromBytes([4]byte{byteClamp(noise[0]), byteClamp(noise[1]), byteClamp(noise[2]), byteClamp(noise[3])})
		next := bytesFromSeed(nextLCG(seed))
		noiseOut = [4]float32{
			float32(next[0]) / 255,
			float32(next[1]) / 255,
			float32(next[2]) / 255,
			float32(next[3]) / 255,
		}
		return stateOut, noiseOut
	})
}
