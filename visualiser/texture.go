// SPDX-License-Identifier: Unlicense OR MIT

package visualiser

import (
	"fmt"
	"image"
)

// TextureMode selects which backing texture TextureVisualiser renders.
type TextureMode int

const (
	ModeConnection TextureMode = iota
	ModeProbability
	ModeHistory
)

func (m TextureMode) String() string {
	switch m {
	case ModeConnection:
		return "connection"
	case ModeProbability:
		return "probability"
	case ModeHistory:
		return "history"
	default:
		return "unknown"
	}
}

// TextureReader is the subset of *pbrrn.Engine a TextureVisualiser needs:
// read-only access to the raw backing textures for debug rendering. A real
// pbrrn.Engine satisfies this via DebugReadTexture (debug.go); it exists as
// its own interface so visualiser never depends on gpu/driver directly.
type TextureReader interface {
	DebugReadTexture(mode string, r image.Rectangle) ([]float32, error)
}

// TextureVisualiser renders one of the connection/probability/history
// textures to an RGBA image for debug inspection (spec §4.7). Probability
// and history are rendered in their native interleaved sub-texel layout
// (each cell's 2 or 4 texels side by side); they are not rearranged into
// per-rule quadrants.
type TextureVisualiser struct {
	reader TextureReader
	mode   TextureMode
	w, h   int // cell grid dimensions
}

// NewTextureVisualiser constructs a visualiser for one texture family.
func NewTextureVisualiser(reader TextureReader, mode TextureMode, width, height int) *TextureVisualiser {
	return &TextureVisualiser{reader: reader, mode: mode, w: width, h: height}
}

// Frame renders the current texture into a row-major RGBA image ([4]byte
// per texel in [0,255]) at the texture's native sub-texel resolution
// (W×H for connection, 2W×H for probability, 2W×2H for history). It is
// passive: it must not mutate the model's primary output (spec §4.7).
func (tv *TextureVisualiser) Frame() ([][4]byte, int, int, error) {
	tw, th := tv.textureSize()
	raw, err := tv.reader.DebugReadTexture(tv.mode.String(), image.Rect(0, 0, tw, th))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("visualiser: reading %s texture: %w", tv.mode, err)
	}
	if len(raw) != tw*th*4 {
		return nil, 0, 0, fmt.Errorf("visualiser: %s texture returned %d floats, want %d", tv.mode, len(raw), tw*th*4)
	}
	out := make([][4]byte, tw*th)
	for i := range out {
		for c := 0; c < 4; c++ {
			out[i][c] = floatToByte(raw[i*4+c])
		}
	}
	return out, tw, th, nil
}

func (tv *TextureVisualiser) textureSize() (int, int) {
	switch tv.mode {
	case ModeProbability:
		return 2 * tv.w, tv.h
	case ModeHistory:
		return 2 * tv.w, 2 * tv.h
	default:
		return tv.w, tv.h
	}
}

func floatToByte(v float32) byte {
	v = v * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}
