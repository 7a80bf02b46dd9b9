// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import "errors"

// Error kinds, matching spec §7's three-way split between initialisation,
// runtime, and usage errors.
var (
	// ErrInvalidOption is a construction-time usage error: a negative
	// dimension, an out-of-range decay rate, and so on.
	ErrInvalidOption = errors.New("pbrrn: invalid option")

	// ErrOutOfBounds is returned by SetState(s)/GetState(s) for a
	// coordinate or range outside the grid. Coordinates are never
	// clamped (spec §6's "never allocates... out-of-bounds is reported,
	// not clamped").
	ErrOutOfBounds = errors.New("pbrrn: coordinate out of bounds")

	// ErrInvalidReward is returned by Step for a non-finite reward.
	ErrInvalidReward = errors.New("pbrrn: reward must be finite")

	// ErrPoisoned is returned by every method once a Step has failed
	// with a fatal device error; the engine must be disposed and
	// reconstructed (spec §7).
	ErrPoisoned = errors.New("pbrrn: engine poisoned by a previous fatal error")
)
