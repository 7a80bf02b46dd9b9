// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import "fmt"

// Options are the construction-time parameters for an Engine, matching
// spec §6's construction options.
type Options struct {
	Width, Height int

	// ProbabilityLimit is L in spec §3/§4.3: the clamp bound for the
	// internal logit representation of a rule probability.
	ProbabilityLimit float32

	// HistoryDecayRate is the per-step multiplicative decay applied to
	// history counters (spec §3's History decay invariant).
	HistoryDecayRate float32

	// DisableSelfInputs forces a cell's own previous state to 0 when
	// selecting a rule and computing its next state (spec §4.2, §9).
	DisableSelfInputs bool
}

// DefaultOptions returns an Options with spec §6's documented defaults; the
// caller must still set Width and Height.
func DefaultOptions() Options {
	return Options{
		ProbabilityLimit: 6.0,
		HistoryDecayRate: 0.01,
	}
}

// Validate reports a usage error (spec §7) for option values the engine
// cannot act on. It never mutates o.
func (o Options) Validate() error {
	if o.Width < 1 || o.Height < 1 {
		return fmt.Errorf("%w: width=%d height=%d, both must be >= 1", ErrInvalidOption, o.Width, o.Height)
	}
	if o.ProbabilityLimit <= 0 {
		return fmt.Errorf("%w: probabilityLimit=%v must be > 0", ErrInvalidOption, o.ProbabilityLimit)
	}
	if o.HistoryDecayRate < 0 || o.HistoryDecayRate > 1 {
		return fmt.Errorf("%w: historyDecayRate=%v must be in [0,1]", ErrInvalidOption, o.HistoryDecayRate)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.ProbabilityLimit == 0 {
		o.ProbabilityLimit = 6.0
	}
	return o
}
