// SPDX-License-Identifier: Unlicense OR MIT

// Package software implements driver.Device by dispatching fragment passes
// on the CPU instead of submitting them to a real GPU.
//
// spec.md keeps "the WebGL scene renderer" explicitly out of scope, and this
// module never opens a window or a display surface — the PBRRN engine only
// ever needs an off-screen pipeline of ping-ponged textures, read back as
// bytes. Rather than bind cgo/EGL/ANGLE (unavailable in this environment and
// orthogonal to what the simulation actually tests), this backend keeps the
// teacher's Device/Texture/Framebuffer/Program vocabulary — see
// gpu/internal/opengl/opengl.go's Backend/gpuTexture/gpuFramebuffer/
// gpuProgram types in the retrieval pack — and re-implements it with plain
// Go slices standing in for texture memory and a Go closure standing in for
// a compiled fragment shader. Concrete backend selection by build tag,
// exactly as gioui.org/gpu/headless picks headless_gl.go / headless_vulkan.go
// / headless_metal.go / headless_js.go at compile time, is the natural place
// to add a real GPU backend later without touching pbrrn at all: any type
// satisfying driver.Device works.
package software

import (
	"fmt"
	"image"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

// Backend is the only driver.Device implementation in this module.
type Backend struct {
	released bool
}

// New returns a ready-to-use software device. It never fails: unlike a real
// GPU backend (spec §7's "GPU unavailable" initialisation error), there is no
// external resource to fail to acquire.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) checkAlive() error {
	if b.released {
		return driver.ErrContextLost
	}
	return nil
}

func (b *Backend) NewTexture(format driver.TextureFormat, width, height int, data []byte) (driver.Texture, error) {
	if err := b.checkAlive(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: invalid texture size %dx%d", width, height)
	}
	t := &texture{format: format, w: width, h: height, px: make([]float32, width*height*4)}
	if data != nil {
		want := width * height * 4
		if format == driver.TextureFormatRGBA32F {
			want = width * height * 16
		}
		if len(data) != want {
			return nil, fmt.Errorf("software: texture data length %d, want %d", len(data), want)
		}
		t.uploadBytes(image.Point{}, image.Point{X: width, Y: height}, data)
	}
	return t, nil
}

func (b *Backend) NewFramebuffer(color0, color1 driver.Texture) (driver.Framebuffer, error) {
	if err := b.checkAlive(); err != nil {
		return nil, err
	}
	t0, ok := color0.(*texture)
	if !ok || t0 == nil {
		return nil, driver.ErrFramebufferIncomplete
	}
	fb := &framebuffer{color0: t0}
	if color1 != nil {
		t1, ok := color1.(*texture)
		if !ok || t1.w != t0.w || t1.h != t0.h {
			return nil, driver.ErrFramebufferIncomplete
		}
		fb.color1 = t1
	}
	return fb, nil
}

func (b *Backend) NewProgram(src driver.ProgramSource, fn driver.FragmentFunc) (driver.Program, error) {
	if err := b.checkAlive(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("software: program %q has a nil fragment func", src.Name)
	}
	return &program{src: src, fn: fn}, nil
}

func (b *Backend) NewDualProgram(src driver.ProgramSource, fn driver.DualFragmentFunc) (driver.Program, error) {
	if err := b.checkAlive(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("software: dual program %q has a nil fragment func", src.Name)
	}
	return &program{src: src, dualFn: fn}, nil
}

func (b *Backend) DrawFullQuad(fb driver.Framebuffer, p driver.Program, uniforms driver.Uniforms, samplers []driver.Texture) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	f, ok := fb.(*framebuffer)
	if !ok {
		return fmt.Errorf("software: framebuffer not created by this device")
	}
	prog, ok := p.(*program)
	if !ok {
		return fmt.Errorf("software: program not created by this device")
	}
	samples := make([]*texture, len(samplers))
	for i, s := range samplers {
		t, ok := s.(*texture)
		if !ok {
			return fmt.Errorf("software: sampler %d not created by this device", i)
		}
		samples[i] = t
	}
	sample := func(idx int, p image.Point) [4]float32 {
		if idx < 0 || idx >= len(samples) {
			return [4]float32{}
		}
		return samples[idx].at(p)
	}

	w, h := f.color0.w, f.color0.h
	switch {
	case prog.dualFn != nil:
		out0 := make([]float32, len(f.color0.px))
		var out1 []float32
		if f.color1 != nil {
			out1 = make([]float32, len(f.color1.px))
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				frag := image.Point{X: x, Y: y}
				c0, c1 := prog.dualFn(frag, uniforms, sample)
				copy(out0[(y*w+x)*4:], c0[:])
				if out1 != nil {
					copy(out1[(y*w+x)*4:], c1[:])
				}
			}
		}
		f.color0.px = out0
		if out1 != nil {
			f.color1.px = out1
		}
	case prog.fn != nil:
		out0 := make([]float32, len(f.color0.px))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				frag := image.Point{X: x, Y: y}
				c0 := prog.fn(frag, uniforms, sample)
				copy(out0[(y*w+x)*4:], c0[:])
			}
		}
		f.color0.px = out0
	default:
		return fmt.Errorf("software: program %q has no fragment function", prog.src.Name)
	}
	return nil
}

func (b *Backend) ReadPixels(fb driver.Framebuffer, r image.Rectangle, buf []byte) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	f, ok := fb.(*framebuffer)
	if !ok {
		return fmt.Errorf("software: framebuffer not created by this device")
	}
	return f.color0.downloadBytes(r, buf)
}

func (b *Backend) WritePixels(t driver.Texture, r image.Rectangle, buf []byte) error {
	if err := b.checkAlive(); err != nil {
		return err
	}
	tex, ok := t.(*texture)
	if !ok {
		return fmt.Errorf("software: texture not created by this device")
	}
	return tex.uploadBytes(r.Min, r.Size(), buf)
}

func (b *Backend) Release() {
	b.released = true
}
