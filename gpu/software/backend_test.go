// SPDX-License-Identifier: Unlicense OR MIT

package software

import (
	"image"
	"testing"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
)

func TestTextureRoundTrip(t *testing.T) {
	b := New()
	defer b.Release()

	tex, err := b.NewTexture(driver.TextureFormatRGBA8, 4, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	in := make([]byte, 4*3*4)
	for i := range in {
		in[i] = byte(i)
	}
	if err := b.WritePixels(tex, image.Rect(0, 0, 4, 3), in); err != nil {
		t.Fatal(err)
	}
	fb, err := b.NewFramebuffer(tex, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]byte, len(in))
	if err := b.ReadPixels(fb, image.Rect(0, 0, 4, 3), out); err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("byte %d: got %d, want %d", i, out[i], in[i])
		}
	}
}

func TestDrawFullQuadSingle(t *testing.T) {
	b := New()
	defer b.Release()

	tex, err := b.NewTexture(driver.TextureFormatRGBA8, 2, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := b.NewFramebuffer(tex, nil)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := b.NewProgram(driver.ProgramSource{Name: "fill"}, func(frag image.Point, u driver.Uniforms, sample driver.SampleFunc) [4]float32 {
		return [4]float32{u["r"], u["g"], 0, 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.DrawFullQuad(fb, prog, driver.Uniforms{"r": 1, "g": 0.5}, nil); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 2*2*4)
	if err := b.ReadPixels(fb, image.Rect(0, 0, 2, 2), out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 255 || out[1] != 128 {
		t.Fatalf("got rgba %v, want r=255 g~128", out[:4])
	}
}

func TestDrawFullQuadDualWritesBothAttachments(t *testing.T) {
	b := New()
	defer b.Release()

	t0, _ := b.NewTexture(driver.TextureFormatRGBA8, 1, 1, nil)
	t1, _ := b.NewTexture(driver.TextureFormatRGBA8, 1, 1, nil)
	fb, err := b.NewFramebuffer(t0, t1)
	if err != nil {
		t.Fatal(err)
	}
	prog, err := b.NewDualProgram(driver.ProgramSource{Name: "split"}, func(frag image.Point, u driver.Uniforms, sample driver.SampleFunc) (c0, c1 [4]float32) {
		return [4]float32{1, 0, 0, 1}, [4]float32{0, 1, 0, 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.DrawFullQuad(fb, prog, nil, nil); err != nil {
		t.Fatal(err)
	}
	out0 := make([]byte, 4)
	out1 := make([]byte, 4)
	if err := b.ReadPixels(fb, image.Rect(0, 0, 1, 1), out0); err != nil {
		t.Fatal(err)
	}
	fb2, _ := b.NewFramebuffer(t1, nil)
	if err := b.ReadPixels(fb2, image.Rect(0, 0, 1, 1), out1); err != nil {
		t.Fatal(err)
	}
	if out0[0] != 255 || out1[1] != 255 {
		t.Fatalf("got color0=%v color1=%v", out0, out1)
	}
}

func TestSamplingClampsToEdge(t *testing.T) {
	b := New()
	defer b.Release()
	tex, _ := b.NewTexture(driver.TextureFormatRGBA8, 2, 2, []byte{
		10, 0, 0, 0, 20, 0, 0, 0,
		30, 0, 0, 0, 40, 0, 0, 0,
	})
	st := tex.(*texture)
	if got := st.at(image.Pt(-5, -5)); got[0] != 10.0/255 {
		t.Fatalf("out-of-bounds sample got %v, want corner texel", got)
	}
	if got := st.at(image.Pt(50, 50)); got[0] != 40.0/255 {
		t.Fatalf("out-of-bounds sample got %v, want opposite corner texel", got)
	}
}

func TestReleasedDeviceErrors(t *testing.T) {
	b := New()
	b.Release()
	if _, err := b.NewTexture(driver.TextureFormatRGBA8, 1, 1, nil); err != driver.ErrContextLost {
		t.Fatalf("got %v, want ErrContextLost", err)
	}
}
