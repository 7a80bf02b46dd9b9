// SPDX-License-Identifier: Unlicense OR MIT

package software

import (
	"fmt"
	"image"
	"math"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

// texture is driver.Texture backed by a flat float32 texel buffer, always
// stored at 4 channels regardless of format so sampling code (pbrrn's
// sub-texel addressing) never has to special-case channel count. An R8
// texture still uploads, stores and downloads all four channels.
type texture struct {
	format driver.TextureFormat
	w, h   int
	px     []float32 // len == w*h*4, row-major, origin top-left
}

func (t *texture) Format() driver.TextureFormat { return t.format }
func (t *texture) Size() image.Point            { return image.Point{X: t.w, Y: t.h} }
func (t *texture) Release()                     { t.px = nil }

// at samples p with CLAMP_TO_EDGE wrapping, matching spec §3's connection
// invariant: a cell on the border whose neighbour offset would go
// out-of-bounds reads itself instead of wrapping around.
func (t *texture) at(p image.Point) [4]float32 {
	x := clamp(p.X, 0, t.w-1)
	y := clamp(p.Y, 0, t.h-1)
	i := (y*t.w + x) * 4
	return [4]float32{t.px[i], t.px[i+1], t.px[i+2], t.px[i+3]}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// uploadBytes decodes buf (row-major within the region, always 4 bytes or 4
// float32 LE bytes per texel regardless of the texture's own channel count)
// into the float32 backing store at offset..offset+size. It uses the same
// per-format byte layout as downloadBytes, so R8/RGBA8 textures take the
// RGBA8 buffers of spec §6's setState(s)/getState(s) contract: "buffer: RGBA8
// of length w*h*4 — only R channel read per cell, full RGBA simplifies DMA."
func (t *texture) uploadBytes(offset, size image.Point, buf []byte) error {
	stride := size.X * 4
	if t.format == driver.TextureFormatRGBA32F {
		stride = size.X * 4 * 4
	}
	if len(buf) != stride*size.Y {
		return fmt.Errorf("software: upload buffer length %d, want %d", len(buf), stride*size.Y)
	}
	for y := 0; y < size.Y; y++ {
		ty := offset.Y + y
		if ty < 0 || ty >= t.h {
			continue
		}
		for x := 0; x < size.X; x++ {
			tx := offset.X + x
			if tx < 0 || tx >= t.w {
				continue
			}
			di := (ty*t.w + tx) * 4
			switch t.format {
			case driver.TextureFormatRGBA32F:
				si := (y*size.X + x) * 16
				for c := 0; c < 4; c++ {
					bits := uint32(buf[si+c*4]) | uint32(buf[si+c*4+1])<<8 | uint32(buf[si+c*4+2])<<16 | uint32(buf[si+c*4+3])<<24
					t.px[di+c] = math.Float32frombits(bits)
				}
			default:
				si := (y*size.X + x) * 4
				for c := 0; c < 4; c++ {
					t.px[di+c] = float32(buf[si+c]) / 255
				}
			}
		}
	}
	return nil
}

// downloadBytes is the inverse of uploadBytes: RGBA8/R8 textures emit RGBA8
// bytes (four bytes per texel, 0-255), matching spec §6's RGBA8 boundary
// format for setState(s)/getState(s); RGBA32F textures emit 4 float32 LE
// values per texel so a full-precision readback (e.g. Snapshot) doesn't
// quantise probability/history through an 8-bit channel.
func (t *texture) downloadBytes(r image.Rectangle, buf []byte) error {
	size := r.Size()
	texelBytes := 4
	if t.format == driver.TextureFormatRGBA32F {
		texelBytes = 16
	}
	if len(buf) != size.X*size.Y*texelBytes {
		return fmt.Errorf("software: download buffer length %d, want %d", len(buf), size.X*size.Y*texelBytes)
	}
	for y := 0; y < size.Y; y++ {
		ty := r.Min.Y + y
		for x := 0; x < size.X; x++ {
			tx := r.Min.X + x
			di := (y*size.X + x) * texelBytes
			if tx < 0 || tx >= t.w || ty < 0 || ty >= t.h {
				return fmt.Errorf("software: read rectangle %v out of bounds for %dx%d texture", r, t.w, t.h)
			}
			si := (ty*t.w + tx) * 4
			if t.format == driver.TextureFormatRGBA32F {
				for c := 0; c < 4; c++ {
					bits := math.Float32bits(t.px[si+c])
					buf[di+c*4] = byte(bits)
					buf[di+c*4+1] = byte(bits >> 8)
					buf[di+c*4+2] = byte(bits >> 16)
					buf[di+c*4+3] = byte(bits >> 24)
				}
			} else {
				for c := 0; c < 4; c++ {
					buf[di+c] = byteClamp(t.px[si+c])
				}
			}
		}
	}
	return nil
}

func byteClamp(v float32) byte {
	v = v * 255
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v + 0.5)
}

type framebuffer struct {
	color0, color1 *texture
}

func (f *framebuffer) Release() { f.color0, f.color1 = nil, nil }

type program struct {
	src    driver.ProgramSource
	fn     driver.FragmentFunc
	dualFn driver.DualFragmentFunc
}

func (p *program) Release() {}
