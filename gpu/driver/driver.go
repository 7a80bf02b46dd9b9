// SPDX-License-Identifier: Unlicense OR MIT

// Package driver defines the minimal typed abstraction over a
// shader/texture/framebuffer pipeline that the PBRRN engine is built on.
//
// It is deliberately narrow compared to a general-purpose GPU abstraction:
// every PBRRN pass renders a single full-screen quad into one or two colour
// attachments, sampling zero or more input textures by a fixed, documented
// unit index (see pbrrn's reward.go, record.go, transition.go). There is no
// vertex geometry, no blending, and no depth test — the shape of
// gioui.org/gpu/internal/driver.Device, trimmed to what a ping-pong texture
// pipeline actually needs.
package driver

import (
	"errors"
	"image"
)

// Device is the abstraction of an underlying GPU (or CPU-simulated GPU) able
// to run fragment passes over textures. A Device is owned by exactly one
// PBRRN engine; see spec §5 Concurrency & Resource Model.
type Device interface {
	// NewTexture allocates a texture of the given format and dimensions.
	// If data is non-nil it seeds the initial contents; it must have
	// length width*height*4 (four bytes per texel, whatever the channel
	// count), or width*height*16 (four float32 LE per texel) for
	// TextureFormatRGBA32F.
	NewTexture(format TextureFormat, width, height int, data []byte) (Texture, error)

	// NewFramebuffer creates a render target backed by one or two color
	// attachments. A second attachment is required only by the
	// Transition pass, which writes state and noise simultaneously.
	NewFramebuffer(color0 Texture, color1 Texture) (Framebuffer, error)

	// NewProgram compiles (or, for a CPU-simulated backend, registers)
	// a single-output fragment pass. src documents the pass semantics;
	// fn is invoked once per fragment during DrawFullQuad and its result
	// is written to the framebuffer's sole color attachment.
	NewProgram(src ProgramSource, fn FragmentFunc) (Program, error)

	// NewDualProgram is NewProgram for the Transition pass, the one pass
	// that must write two color attachments (state and noise) from a
	// single fragment evaluation — see spec §4.5.
	NewDualProgram(src ProgramSource, fn DualFragmentFunc) (Program, error)

	// DrawFullQuad executes program over every fragment of framebuffer,
	// with the given uniforms and the given samplers bound at their
	// documented unit indices.
	DrawFullQuad(fb Framebuffer, p Program, uniforms Uniforms, samplers []Texture) error

	// ReadPixels reads back a rectangular region of a framebuffer's
	// primary color attachment.
	ReadPixels(fb Framebuffer, r image.Rectangle, buf []byte) error

	// WritePixels uploads pixel data directly into a texture, bypassing
	// any pass. Used by setState/setStates.
	WritePixels(t Texture, r image.Rectangle, buf []byte) error

	// Release frees all resources owned by the device. Idempotent.
	Release()
}

// Texture is an opaque handle to device-resident texel storage.
type Texture interface {
	Format() TextureFormat
	Size() image.Point
	Release()
}

// Framebuffer is a render target wrapping one or two textures.
type Framebuffer interface {
	Release()
}

// Program is a compiled fragment pass, bound to a fixed set of named
// uniforms and a fixed number of sampler inputs.
type Program interface {
	Release()
}

// FragmentFunc computes one fragment of a pass. frag is the integer
// coordinate of the fragment being shaded (the fragment grid may be larger
// than the cell grid — see pbrrn's sub-texel layouts). samplers are bound in
// the order passed to DrawFullQuad; Sample reads a texel as four float32
// channels in [0,1] (or arbitrary range for TextureFormatRGBA32F).
type FragmentFunc func(frag image.Point, u Uniforms, sample SampleFunc) [4]float32

// DualFragmentFunc is FragmentFunc for a pass with two color attachments:
// it returns the color0 and color1 values for the fragment in one
// evaluation, so both outputs are guaranteed to agree on whatever the pass
// computed once (e.g. Transition's nextState feeding both the state and the
// PRNG-advance outputs).
type DualFragmentFunc func(frag image.Point, u Uniforms, sample SampleFunc) (c0, c1 [4]float32)

// SampleFunc samples texture index idx (position in the samplers slice
// passed to DrawFullQuad) at integer texel coordinates, clamped to the
// texture bounds (CLAMP_TO_EDGE), matching spec §3's connection invariant.
type SampleFunc func(idx int, p image.Point) [4]float32

// Uniforms is a small named bag of scalar/vector values passed to a pass.
// Fragment passes in this module need at most a handful of float uniforms
// (reward, probabilityLimit, historyDecayRate, grid dimensions), so a map is
// simpler and just as fast as a packed uniform buffer would be for this
// workload.
type Uniforms map[string]float32

// TextureFormat mirrors spec §3/§6's texture attachment formats.
type TextureFormat uint8

const (
	// TextureFormatR8 is a single 8-bit channel, used for State.
	TextureFormatR8 TextureFormat = iota
	// TextureFormatRGBA8 is four 8-bit channels, used for Connection and Noise.
	TextureFormatRGBA8
	// TextureFormatRGBA32F is four float32 channels, used for Probability and
	// History when the backend supports it (see spec §3's OES_texture_float
	// fallback).
	TextureFormatRGBA32F
)

// Channels reports the number of channels per texel for format.
func (f TextureFormat) Channels() int {
	switch f {
	case TextureFormatR8:
		return 1
	default:
		return 4
	}
}

// ProgramSource documents a pass for diagnostics; it carries no executable
// code (FragmentFunc does), matching this package's CPU-simulated nature —
// see gpu/software's package doc for why no GLSL/SPIR-V is compiled here.
type ProgramSource struct {
	Name        string
	SamplerHint []string
}

var (
	// ErrContextLost is returned from any Device method after a fatal
	// runtime error; the caller must Release and reconstruct, matching
	// gioui's driver.ErrContentLost semantics (spec §7 Runtime errors).
	ErrContextLost = errors.New("driver: device context lost")
	// ErrFramebufferIncomplete is returned by NewFramebuffer when the
	// attachments are invalid (mismatched size, unsupported format).
	ErrFramebufferIncomplete = errors.New("driver: framebuffer incomplete")
)
