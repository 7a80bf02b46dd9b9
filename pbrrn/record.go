// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

const (
	recordSamplerConnection  = 0
	recordSamplerState       = 1
	recordSamplerProbability = 2
	recordSamplerHistory     = 3
	recordSamplerNoise       = 4
)

// newRecordProgram builds the Record pass (spec §4.4): connection +
// state[prev] + probability[curr] + history[prev] + noise[prev] ->
// history[curr], executed over (2W)×(2H) fragments, one per history texel.
func newRecordProgram(dev driver.Device, disableSelfInputs bool) (driver.Program, error) {
	src := driver.ProgramSource{Name: "record", SamplerHint: []string{"connection", "state", "probability", "history", "noise"}}
	return dev.NewProgram(src, func(frag image.Point, u driver.Uniforms, sample driver.SampleFunc) [4]float32 {
		x, cFrag := frag.X/2, frag.X%2
		y, n1Frag := frag.Y/2, frag.Y%2
		limit := u["probabilityLimit"]
		decayRate := u["historyDecayRate"]

		d := decideAt(x, y, disableSelfInputs, limit, sample,
			recordSamplerConnection, recordSamplerState, recordSamplerProbability, recordSamplerNoise)

		old := sample(recordSamplerHistory, frag)
		active := cFrag == d.c && n1Frag == d.n1

		var out [4]float32
		for ch := 0; ch < 4; ch++ {
			target := float32(0)
			if active && ch == historyChannel(d.n2, d.next) {
				target = 1
			}
			out[ch] = old[ch]*(1-decayRate) + target*decayRate
		}
		return out
	})
}

// decideAt gathers a cell's connection-addressed inputs and runs decide
// (spec §4.4 steps 1-4), shared identically by Record and Transition.
func decideAt(x, y int, disableSelfInputs bool, limit float32, sample driver.SampleFunc,
	connSampler, stateSampler, probSampler, noiseSampler int) decision {
	self := sample(stateSampler, image.Point{X: x, Y: y})[0]

	conn := sample(connSampler, image.Point{X: x, Y: y})
	dx1 := decodeOffset(conn[0])
	dy1 := decodeOffset(conn[1])
	dx2 := decodeOffset(conn[2])
	dy2 := decodeOffset(conn[3])
	n1State := sample(stateSampler, image.Point{X: x + dx1, Y: y + dy1})[0]
	n2State := sample(stateSampler, image.Point{X: x + dx2, Y: y + dy2})[0]

	c := bit(self)
	if disableSelfInputs {
		c = 0
	}
	prob := sample(probSampler, probTexel(x, y, c))

	noise := sample(noiseSampler, image.Point{X: x, Y: y})
	seed := seedFromBytes([4]byte{
		byteClamp(noise[0]), byteClamp(noise[1]), byteClamp(noise[2]), byteClamp(noise[3]),
	})

	return decide(self, n1State, n2State, disableSelfInputs, prob, limit, seed)
}
