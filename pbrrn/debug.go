// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"fmt"
	"image"
	"math"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

// DebugReadTexture reads back the named backing texture ("connection",
// "probability", or "history") as normalised float32 channels (4 per
// texel), for use by visualiser.TextureVisualiser. It samples the
// *current* buffer via its own framebuffer, never the one the Transition
// pass targets, so it cannot disturb the primary output (spec §4.7's
// visualiser invariant: "must restore the model's primary output
// afterward so getState readback remains valid" — here nothing needs
// restoring, since nothing was touched).
func (e *Engine) DebugReadTexture(mode string, r image.Rectangle) ([]float32, error) {
	if e.poisoned {
		return nil, ErrPoisoned
	}
	var t driver.Texture
	switch mode {
	case "connection":
		t = e.connection
	case "probability":
		t = e.probability.curr(e.textureIndex)
	case "history":
		t = e.history.curr(e.textureIndex)
	default:
		return nil, fmt.Errorf("pbrrn: unknown debug texture mode %q", mode)
	}

	fb, err := e.dev.NewFramebuffer(t, nil)
	if err != nil {
		return nil, fmt.Errorf("pbrrn: debug framebuffer for %q: %w", mode, err)
	}
	defer fb.Release()

	bytesPerTexel := 4
	if t.Format() == driver.TextureFormatRGBA32F {
		bytesPerTexel = 16
	}
	buf := make([]byte, r.Dx()*r.Dy()*bytesPerTexel)
	if err := e.dev.ReadPixels(fb, r, buf); err != nil {
		return nil, fmt.Errorf("pbrrn: reading %q texture: %w", mode, err)
	}

	out := make([]float32, r.Dx()*r.Dy()*4)
	if bytesPerTexel == 16 {
		for i := range out {
			bits := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
			out[i] = math.Float32frombits(bits)
		}
	} else {
		for i := range out {
			out[i] = float32(buf[i]) / 255
		}
	}
	return out, nil
}
