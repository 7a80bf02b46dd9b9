// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"image"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

const (
	rewardSamplerProbability = 0
	rewardSamplerHistory     = 1
)

// newRewardProgram builds the Reward pass (spec §4.3): history[prev] +
// probability[prev] + reward -> probability[curr], executed over (2W)×H
// fragments, one per probability texel (four rule probabilities at once,
// one per channel).
func newRewardProgram(dev driver.Device, w, h int) (driver.Program, error) {
	src := driver.ProgramSource{Name: "reward", SamplerHint: []string{"probability", "history"}}
	return dev.NewProgram(src, func(frag image.Point, u driver.Uniforms, sample driver.SampleFunc) [4]float32 {
		x, c := frag.X/2, frag.X%2
		y := frag.Y
		reward := u["reward"]
		limit := u["probabilityLimit"]

		prevProb := sample(rewardSamplerProbability, frag)

		var out [4]float32
		for n1 := 0; n1 < 2; n1++ {
			hist := sample(rewardSamplerHistory, historyTexel(x, y, c, n1))
			for n2 := 0; n2 < 2; n2++ {
				ch := probChannel(n1, n2)
				pos := hist[historyChannel(n2, 1)]
				neg := hist[historyChannel(n2, 0)]
				out[ch] = rewardUpdate(prevProb[ch], pos, neg, reward, limit)
			}
		}
		return out
	})
}

// rewardUpdate implements spec §4.3's per-rule-probability algorithm on the
// internal logit q = (p-0.5)*2*L.
func rewardUpdate(p, pos, neg, reward, limit float32) float32 {
	q := (p - 0.5) * 2 * limit
	diff := pos - neg
	sum := pos + neg

	qPrime := q + max32(reward, 0)*diff

	punishSums := min32(reward, 0) * sum
	qPP := qPrime + max32(-max32(qPrime, 0), punishSums) - max32(min32(qPrime, 0), punishSums)

	if qPP > limit {
		qPP = limit
	}
	if qPP < -limit {
		qPP = -limit
	}
	return qPP/(2*limit) + 0.5
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
