// SPDX-License-Identifier: Unlicense OR MIT

package visualiser

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// encodeScaledPNG rasterizes a row-major RGBA grid (width w, height h) and
// upscales it by factor using Catmull-Rom resampling, grounded on
// cmd/gogio's icon-resizing path (the teacher's only other user of
// golang.org/x/image/draw). A debug texture dump is typically a handful of
// texels across; scaling it up is the difference between an inspectable
// PNG and a few illegible pixels.
func encodeScaledPNG(px [][4]byte, w, h, factor int) ([]byte, error) {
	if len(px) != w*h {
		return nil, fmt.Errorf("visualiser: pixel count %d, want %dx%d", len(px), w, h)
	}
	if factor < 1 {
		factor = 1
	}
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, c := range px {
		src.SetRGBA(i%w, i/w, color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]})
	}
	if factor == 1 {
		return encodePNG(src)
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*factor, h*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return encodePNG(dst)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("visualiser: encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG renders the current texture frame as an upscaled PNG, for a
// debug dump outside the websocket path (e.g. writing the probability
// texture to disk for inspection).
func (tv *TextureVisualiser) EncodePNG(factor int) ([]byte, error) {
	px, w, h, err := tv.Frame()
	if err != nil {
		return nil, err
	}
	return encodeScaledPNG(px, w, h, factor)
}

// EncodePNG renders the current scrolling state strip as an upscaled PNG:
// white for a set cell, black for unset, mid-grey for the background rows
// between tracked locations (spec §4.7's visual gap).
func (sv *StateVisualiser) EncodePNG(factor int) ([]byte, error) {
	frame := sv.Frame()
	h := len(frame)
	if h == 0 {
		return nil, fmt.Errorf("visualiser: empty frame")
	}
	w := len(frame[0])
	px := make([][4]byte, w*h)
	for y, row := range frame {
		for x, v := range row {
			c := [4]byte{64, 64, 64, 255}
			if v {
				c = [4]byte{255, 255, 255, 255}
			} else if y%2 == 0 {
				c = [4]byte{0, 0, 0, 255}
			}
			px[y*w+x] = c
		}
	}
	return encodeScaledPNG(px, w, h, factor)
}
