// SPDX-License-Identifier: Unlicense OR MIT

package pbrrn

import (
	"fmt"
	"image"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

// Width and Height report the engine's grid dimensions.
func (e *Engine) Width() int  { return e.opts.Width }
func (e *Engine) Height() int { return e.opts.Height }

// GetState returns the current binary state of cell (x,y). Coordinates
// outside the grid are reported as ErrOutOfBounds, never clamped (spec §6).
func (e *Engine) GetState(x, y int) (bool, error) {
	if e.poisoned {
		return false, ErrPoisoned
	}
	if err := e.checkBounds(x, y, 1, 1); err != nil {
		return false, err
	}
	var buf [4]byte
	r := image.Rect(x, y, x+1, y+1)
	if err := e.dev.ReadPixels(e.state.currFB(e.textureIndex), r, buf[:]); err != nil {
		e.poisoned = true
		return false, fmt.Errorf("pbrrn: GetState: %w", err)
	}
	return buf[0] >= 128, nil
}

// GetStates reads the w×h block of cell states at (x,y) into out, an RGBA8
// buffer of length w*h*4 (only the R channel is meaningful per cell,
// matching spec §6's setStates buffer contract "full RGBA simplifies DMA").
func (e *Engine) GetStates(x, y, w, h int, out []byte) error {
	if e.poisoned {
		return ErrPoisoned
	}
	if err := e.checkBounds(x, y, w, h); err != nil {
		return err
	}
	if len(out) != w*h*4 {
		return fmt.Errorf("%w: out has length %d, want %d", ErrInvalidOption, len(out), w*h*4)
	}
	r := image.Rect(x, y, x+w, y+h)
	if err := e.dev.ReadPixels(e.state.currFB(e.textureIndex), r, out); err != nil {
		e.poisoned = true
		return fmt.Errorf("pbrrn: GetStates: %w", err)
	}
	return nil
}

// SetState overwrites the current binary state of cell (x,y) directly,
// bypassing Reward/Record/Transition (spec §6).
func (e *Engine) SetState(x, y int, value bool) error {
	if e.poisoned {
		return ErrPoisoned
	}
	if err := e.checkBounds(x, y, 1, 1); err != nil {
		return err
	}
	buf := [4]byte{}
	if value {
		buf[0] = 255
	}
	r := image.Rect(x, y, x+1, y+1)
	if err := e.dev.WritePixels(e.state.curr(e.textureIndex), r, buf[:]); err != nil {
		e.poisoned = true
		return fmt.Errorf("pbrrn: SetState: %w", err)
	}
	return nil
}

// SetStates overwrites the w×h block of cell states at (x,y) from buffer, an
// RGBA8 buffer of length w*h*4 — only the R channel is read per cell (spec
// §6).
func (e *Engine) SetStates(x, y, w, h int, buffer []byte) error {
	if e.poisoned {
		return ErrPoisoned
	}
	if err := e.checkBounds(x, y, w, h); err != nil {
		return err
	}
	if len(buffer) != w*h*4 {
		return fmt.Errorf("%w: buffer has length %d, want %d", ErrInvalidOption, len(buffer), w*h*4)
	}
	r := image.Rect(x, y, x+w, y+h)
	if err := e.dev.WritePixels(e.state.curr(e.textureIndex), r, buffer); err != nil {
		e.poisoned = true
		return fmt.Errorf("pbrrn: SetStates: %w", err)
	}
	return nil
}

func (e *Engine) checkBounds(x, y, w, h int) error {
	if x < 0 || y < 0 || w < 1 || h < 1 || x+w > e.opts.Width || y+h > e.opts.Height {
		return fmt.Errorf("%w: rect (%d,%d)+(%d,%d) outside grid %dx%d", ErrOutOfBounds, x, y, w, h, e.opts.Width, e.opts.Height)
	}
	return nil
}

// snapshot is the opaque in-memory state handed back by Snapshot, honoring
// spec §6's "no disk persistence" — callers that want durability serialise
// this themselves.
type snapshot struct {
	state, probability, history, noise [2][]byte
	textureIndex                       int
}

// Snapshot captures every engine texture so the caller can later Restore to
// exactly this point, without the engine itself touching disk.
func (e *Engine) Snapshot() (*snapshot, error) {
	if e.poisoned {
		return nil, ErrPoisoned
	}
	s := &snapshot{textureIndex: e.textureIndex}
	w, h := e.opts.Width, e.opts.Height
	var err error
	for i := 0; i < 2; i++ {
		if s.state[i], err = e.readTextureBytes(e.state.tex[i], w, h, 4); err != nil {
			return nil, err
		}
		if s.probability[i], err = e.readTextureBytes(e.probability.tex[i], 2*w, h, 4*4); err != nil {
			return nil, err
		}
		if s.history[i], err = e.readTextureBytes(e.history.tex[i], 2*w, 2*h, 4*4); err != nil {
			return nil, err
		}
		if s.noise[i], err = e.readTextureBytes(e.noise.tex[i], w, h, 4); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// readTextureBytes reads back an entire texture's contents via its
// framebuffer. bytesPerTexel accounts for R8/RGBA8/RGBA32F layouts.
func (e *Engine) readTextureBytes(t driver.Texture, w, h, bytesPerTexel int) ([]byte, error) {
	fb, err := e.dev.NewFramebuffer(t, nil)
	if err != nil {
		return nil, err
	}
	defer fb.Release()
	buf := make([]byte, w*h*bytesPerTexel)
	if err := e.dev.ReadPixels(fb, image.Rect(0, 0, w, h), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Restore overwrites every engine texture from a snapshot previously taken
// by Snapshot on an engine of identical Options.
func (e *Engine) Restore(s *snapshot) error {
	if e.poisoned {
		return ErrPoisoned
	}
	w, h := e.opts.Width, e.opts.Height
	for i := 0; i < 2; i++ {
		if err := e.dev.WritePixels(e.state.tex[i], image.Rect(0, 0, w, h), s.state[i]); err != nil {
			return err
		}
		if err := e.dev.WritePixels(e.probability.tex[i], image.Rect(0, 0, 2*w, h), s.probability[i]); err != nil {
			return err
		}
		if err := e.dev.WritePixels(e.history.tex[i], image.Rect(0, 0, 2*w, 2*h), s.history[i]); err != nil {
			return err
		}
		if err := e.dev.WritePixels(e.noise.tex[i], image.Rect(0, 0, w, h), s.noise[i]); err != nil {
			return err
		}
	}
	e.textureIndex = s.textureIndex
	return nil
}
