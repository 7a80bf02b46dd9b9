// SPDX-License-Identifier: Unlicense OR MIT

package visualiser

import "time"

// Frame is one published update: the scrolling state strip plus whichever
// texture mode the caller is currently inspecting. Sent to the browser as
// JSON over the debug websocket (server.go).
type Frame struct {
	Time          time.Time   `json:"time"`
	AverageStates []float64   `json:"averageStates"`
	StateFrame    [][]bool    `json:"stateFrame"`
	TextureMode   string      `json:"textureMode,omitempty"`
	TextureFrame  [][4]byte   `json:"textureFrame,omitempty"`
	TextureWidth  int         `json:"textureWidth,omitempty"`
	TextureHeight int         `json:"textureHeight,omitempty"`
}

// Stream pulls a Frame from a StateVisualiser and, if configured, a
// TextureVisualiser, on demand. It holds no goroutines of its own; Server
// drives Poll on its own ticker, matching the teacher's "resolution" rate
// limit in publishUpdates.
type Stream struct {
	state   *StateVisualiser
	texture *TextureVisualiser
}

// NewStream builds a Stream. texture may be nil if no debug texture view
// is wanted.
func NewStream(state *StateVisualiser, texture *TextureVisualiser) *Stream {
	return &Stream{state: state, texture: texture}
}

// Poll advances the state visualiser by one sample and assembles the
// combined Frame to publish.
func (s *Stream) Poll() (Frame, error) {
	if err := s.state.Update(); err != nil {
		return Frame{}, err
	}
	f := Frame{
		Time:          timeNow(),
		AverageStates: s.state.AverageStates(),
		StateFrame:    s.state.Frame(),
	}
	if s.texture != nil {
		tf, tw, th, err := s.texture.Frame()
		if err != nil {
			return Frame{}, err
		}
		f.TextureMode = s.texture.mode.String()
		f.TextureFrame = tf
		f.TextureWidth = tw
		f.TextureHeight = th
	}
	return f, nil
}

// timeNow is a var so tests can freeze it; production code never overrides it.
var timeNow = time.Now
