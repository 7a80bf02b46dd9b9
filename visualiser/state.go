// SPDX-License-Identifier: Unlicense OR MIT

// Package visualiser reduces a pbrrn.Engine's state to human-inspectable
// form: a scrolling pixel strip per cell location (StateVisualiser), a debug
// dump of the backing textures (TextureVisualiser), and an optional
// websocket stream of both for a browser-side viewer.
package visualiser

import (
	"fmt"
)

// Engine is the subset of *pbrrn.Engine the visualisers depend on, letting
// tests substitute a fake model instead of a full fragment-pass pipeline.
type Engine interface {
	GetState(x, y int) (bool, error)
}

// StateVisualiser maintains a scrolling ring buffer of width length and
// height 2*len(locations)-1, one row-pair per tracked location plus a
// background row between them (spec §4.7).
type StateVisualiser struct {
	engine    Engine
	locations []Location
	length    int

	ring   [][]bool // ring[loc][pos]
	pos    int
	filled int

	// averageStates[i] is the mean of the last `length` samples recorded
	// for locations[i], recomputed incrementally on every Update.
	averageStates []float64
}

// Location is a single tracked cell coordinate.
type Location struct{ X, Y int }

// NewStateVisualiser constructs a visualiser tracking the given locations
// over a ring buffer of the given length. length and len(locations) must
// both be at least 1.
func NewStateVisualiser(engine Engine, locations []Location, length int) (*StateVisualiser, error) {
	if length < 1 {
		return nil, fmt.Errorf("visualiser: length=%d must be >= 1", length)
	}
	if len(locations) < 1 {
		return nil, fmt.Errorf("visualiser: at least one location is required")
	}
	sv := &StateVisualiser{
		engine:        engine,
		locations:     append([]Location(nil), locations...),
		length:        length,
		ring:          make([][]bool, len(locations)),
		averageStates: make([]float64, len(locations)),
	}
	for i := range sv.ring {
		sv.ring[i] = make([]bool, length)
	}
	return sv, nil
}

// Update samples every configured location's current state, writes a
// column at the current ring position, and refreshes averageStates. It
// does not mutate the model (spec §4.7: "passive, no model mutation").
func (sv *StateVisualiser) Update() error {
	for i, loc := range sv.locations {
		v, err := sv.engine.GetState(loc.X, loc.Y)
		if err != nil {
			return fmt.Errorf("visualiser: sampling location %d (%d,%d): %w", i, loc.X, loc.Y, err)
		}
		sv.ring[i][sv.pos] = v
	}
	sv.pos = (sv.pos + 1) % sv.length
	if sv.filled < sv.length {
		sv.filled++
	}
	for i := range sv.locations {
		sv.averageStates[i] = sv.average(i)
	}
	return nil
}

func (sv *StateVisualiser) average(loc int) float64 {
	if sv.filled == 0 {
		return 0
	}
	count := 0
	for _, v := range sv.ring[loc] {
		if v {
			count++
		}
	}
	// When the ring hasn't wrapped yet, unset future slots are false and
	// must not be counted toward the denominator.
	return float64(count) / float64(sv.filled)
}

// AverageStates returns the current moving-average value for every tracked
// location, in the order locations were given to NewStateVisualiser.
func (sv *StateVisualiser) AverageStates() []float64 {
	return append([]float64(nil), sv.averageStates...)
}

// Frame renders the ring buffer into a row-major boolean grid of width
// length and height 2*len(locations)-1, copied in two slices so the
// rightmost column is always "now" (spec §4.7). Even rows (0, 2, 4, ...)
// are the tracked locations; odd rows are background (always false),
// giving a visual gap between adjacent location strips.
func (sv *StateVisualiser) Frame() [][]bool {
	height := 2*len(sv.locations) - 1
	frame := make([][]bool, height)
	for i := range sv.locations {
		row := make([]bool, sv.length)
		// Oldest-first ordering: [pos, length) then [0, pos).
		copy(row, sv.ring[i][sv.pos:])
		copy(row[sv.length-sv.pos:], sv.ring[i][:sv.pos])
		frame[i*2] = row
	}
	for i := 1; i < height; i += 2 {
		frame[i] = make([]bool, sv.length)
	}
	return frame
}
