// SPDX-License-Identifier: Unlicense OR MIT

// Package pbrrn implements the probabilistic binary rule-reinforcement
// network: a grid of binary cells whose next-state rule is a learned
// 8-entry probability table, updated by a ping-ponged pipeline of Reward,
// Record, and Transition fragment passes (spec.md §2-§5).
package pbrrn

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/ey6es/phantasml-sub002/gpu/driver"
	"github.com/ey6es/phantasml-sub002/gpu/software"
)

// doubleBuffer is a pair of same-shaped textures and framebuffers, indexed
// by the engine's shared textureIndex — spec §9's "treat each texture
// family as a pair (prev,curr) with an index flipped atomically at step
// end."
type doubleBuffer struct {
	tex [2]driver.Texture
	fb  [2]driver.Framebuffer
}

func (d doubleBuffer) curr(idx int) driver.Texture       { return d.tex[idx] }
func (d doubleBuffer) currFB(idx int) driver.Framebuffer { return d.fb[idx] }

func (d doubleBuffer) release() {
	for i := range d.fb {
		if d.fb[i] != nil {
			d.fb[i].Release()
		}
		if d.tex[i] != nil {
			d.tex[i].Release()
		}
	}
}

// Engine is a single PBRRN instance: one grid, one device, one ping-ponged
// set of textures. An Engine owns its driver.Device exclusively (spec §5).
type Engine struct {
	opts Options
	dev  driver.Device

	connection  driver.Texture
	state       doubleBuffer
	probability doubleBuffer
	history     doubleBuffer
	noise       doubleBuffer

	// transitionFB[i] renders into state.tex[i] and noise.tex[i]
	// together, since the Transition pass commits both in one dual-
	// attachment draw (spec §4.5). Allocated once at construction so
	// Step itself never allocates (spec §4.6).
	transitionFB [2]driver.Framebuffer

	rewardProg     driver.Program
	recordProg     driver.Program
	transitionProg driver.Program

	textureIndex int
	poisoned     bool
}

// New constructs an Engine with its own software.Backend device, seeding
// state and noise from a process-global random source (spec §3: "at
// construction one [state buffer] is randomly initialised from a uniform
// Bernoulli(½)").
func New(opts Options) (*Engine, error) {
	return NewWithDevice(opts, software.New())
}

// NewWithDevice is New but with a caller-supplied device, so a caller can
// inject its own driver.Device. It takes ownership of dev: dev.Release() is
// called by Engine.Dispose.
func NewWithDevice(opts Options, dev driver.Device) (*Engine, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{opts: opts, dev: dev}
	if err := e.init(); err != nil {
		dev.Release()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init() error {
	w, h := e.opts.Width, e.opts.Height

	connOffsets := buildConnection(w, h)
	connBytes := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a, b := connOffsets[(y*w+x)*2], connOffsets[(y*w+x)*2+1]
			rgba := connectionBytes(a, b)
			i := (y*w + x) * 4
			for c := 0; c < 4; c++ {
				connBytes[i+c] = byte(rgba[c] * 255)
			}
		}
	}
	conn, err := e.dev.NewTexture(driver.TextureFormatRGBA8, w, h, connBytes)
	if err != nil {
		return fmt.Errorf("pbrrn: connection texture: %w", err)
	}
	e.connection = conn

	state0 := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		if rand.Float64() < 0.5 {
			state0[i*4] = 255
		}
	}
	if e.state, err = newDoubleBuffer(e.dev, driver.TextureFormatR8, w, h, state0, state0); err != nil {
		return fmt.Errorf("pbrrn: state textures: %w", err)
	}

	probBytes := floatFill(2*w*h*4, 0.5)
	if e.probability, err = newDoubleBuffer(e.dev, driver.TextureFormatRGBA32F, 2*w, h, probBytes, probBytes); err != nil {
		return fmt.Errorf("pbrrn: probability textures: %w", err)
	}

	historyBytes := floatFill(2*w*2*h*4, 0)
	if e.history, err = newDoubleBuffer(e.dev, driver.TextureFormatRGBA32F, 2*w, 2*h, historyBytes, historyBytes); err != nil {
		return fmt.Errorf("pbrrn: history textures: %w", err)
	}

	noise0 := make([]byte, w*h*4)
	noise1 := make([]byte, w*h*4)
	rand.Read(noise0)
	rand.Read(noise1)
	if e.noise, err = newDoubleBuffer(e.dev, driver.TextureFormatRGBA8, w, h, noise0, noise1); err != nil {
		return fmt.Errorf("pbrrn: noise textures: %w", err)
	}

	for i := 0; i < 2; i++ {
		fb, err := e.dev.NewFramebuffer(e.state.tex[i], e.noise.tex[i])
		if err != nil {
			return fmt.Errorf("pbrrn: transition framebuffer %d: %w", i, err)
		}
		e.transitionFB[i] = fb
	}

	if e.rewardProg, err = newRewardProgram(e.dev, w, h); err != nil {
		return err
	}
	if e.recordProg, err = newRecordProgram(e.dev, e.opts.DisableSelfInputs); err != nil {
		return err
	}
	if e.transitionProg, err = newTransitionProgram(e.dev, e.opts.DisableSelfInputs); err != nil {
		return err
	}
	return nil
}

// floatFill returns n float32 values, each set to v, encoded as little
// endian bytes for TextureFormatRGBA32F seeding.
func floatFill(n int, v float32) []byte {
	bits := math.Float32bits(v)
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		j := i * 4
		out[j] = byte(bits)
		out[j+1] = byte(bits >> 8)
		out[j+2] = byte(bits >> 16)
		out[j+3] = byte(bits >> 24)
	}
	return out
}

// newDoubleBuffer allocates a pair of same-format textures and framebuffers,
// seeding buffer 0 from data0 and buffer 1 from data1.
func newDoubleBuffer(dev driver.Device, format driver.TextureFormat, w, h int, data0, data1 []byte) (doubleBuffer, error) {
	var db doubleBuffer
	seeds := [2][]byte{data0, data1}
	for i := 0; i < 2; i++ {
		tex, err := dev.NewTexture(format, w, h, seeds[i])
		if err != nil {
			return db, err
		}
		fb, err := dev.NewFramebuffer(tex, nil)
		if err != nil {
			return db, err
		}
		db.tex[i] = tex
		db.fb[i] = fb
	}
	return db, nil
}

// Step runs Reward, Record, and Transition in order (spec §4.6/§5) and
// flips textureIndex as the last action of a successful step. It never
// allocates: all textures and framebuffers were created in init.
func (e *Engine) Step(reward float32) error {
	if e.poisoned {
		return ErrPoisoned
	}
	if math.IsNaN(float64(reward)) || math.IsInf(float64(reward), 0) {
		return ErrInvalidReward
	}

	prev, curr := e.textureIndex, e.textureIndex^1

	rewardUniforms := driver.Uniforms{"reward": reward, "probabilityLimit": e.opts.ProbabilityLimit}
	if err := e.dev.DrawFullQuad(e.probability.currFB(curr), e.rewardProg, rewardUniforms,
		[]driver.Texture{e.probability.curr(prev), e.history.curr(prev)}); err != nil {
		e.poisoned = true
		return fmt.Errorf("pbrrn: reward pass: %w", err)
	}

	recordUniforms := driver.Uniforms{"probabilityLimit": e.opts.ProbabilityLimit, "historyDecayRate": e.opts.HistoryDecayRate}
	if err := e.dev.DrawFullQuad(e.history.currFB(curr), e.recordProg, recordUniforms,
		[]driver.Texture{e.connection, e.state.curr(prev), e.probability.curr(curr), e.history.curr(prev), e.noise.curr(prev)}); err != nil {
		e.poisoned = true
		return fmt.Errorf("pbrrn: record pass: %w", err)
	}

	transitionUniforms := driver.Uniforms{"probabilityLimit": e.opts.ProbabilityLimit}
	if err := e.dev.DrawFullQuad(e.transitionFB[curr], e.transitionProg, transitionUniforms,
		[]driver.Texture{e.connection, e.state.curr(prev), e.probability.curr(curr), e.noise.curr(prev)}); err != nil {
		e.poisoned = true
		return fmt.Errorf("pbrrn: transition pass: %w", err)
	}

	e.textureIndex = curr
	return nil
}

// Dispose releases all device resources. Idempotent (spec §7).
func (e *Engine) Dispose() {
	if e.dev == nil {
		return
	}
	for _, fb := range e.transitionFB {
		if fb != nil {
			fb.Release()
		}
	}
	if e.connection != nil {
		e.connection.Release()
	}
	e.state.release()
	e.probability.release()
	e.history.release()
	e.noise.release()
	e.dev.Release()
	e.dev = nil
}

// size returns the engine's grid dimensions.
func (e *Engine) size() image.Point {
	return image.Point{X: e.opts.Width, Y: e.opts.Height}
}
