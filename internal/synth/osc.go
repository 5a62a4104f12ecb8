package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects an oscillator's shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	Sawtooth
)

var waveformNames = [...]string{"sine", "triangle", "square", "sawtooth"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveformNames[w]
}

// ParseWaveform accepts the lower-case names printed by String.
func ParseWaveform(s string) (Waveform, error) {
	for i, name := range waveformNames {
		if strings.EqualFold(s, name) {
			return Waveform(i), nil
		}
	}
	return 0, fmt.Errorf("synth: unknown waveform %q", s)
}

// Oscillator is a naive phase-accumulator generator. It is silent until
// started and after it is stopped.
type Oscillator struct {
	node
	Frequency *Param
	wave      Waveform
	phase     float64
	started   bool
	stopped   bool
}

// NewOscillator returns an unstarted oscillator.
func (c *Context) NewOscillator(w Waveform, freq float64) *Oscillator {
	c.mu.Lock()
	defer c.mu.Unlock()
	o := &Oscillator{Frequency: newParam(c, freq), wave: w}
	o.node = node{ctx: c, render: o.render}
	return o
}

// Waveform returns the oscillator's shape.
func (o *Oscillator) Waveform() Waveform { return o.wave }

// Start begins generating at the next rendered frame. Starting twice, or
// starting a stopped oscillator, does nothing.
func (o *Oscillator) Start() {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.started || o.stopped {
		return
	}
	o.started = true
	o.ctx.live++
}

// Stop silences the oscillator permanently. A second Stop returns
// ErrAlreadyStopped and has no other effect.
func (o *Oscillator) Stop() error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if o.stopped {
		return ErrAlreadyStopped
	}
	o.stopped = true
	if o.started {
		o.ctx.live--
	}
	return nil
}

// Stopped reports whether Stop has been called.
func (o *Oscillator) Stopped() bool {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.stopped
}

func (o *Oscillator) render(frame uint64) float64 {
	if !o.started || o.stopped {
		return 0
	}
	freq := o.Frequency.compute(frame)
	y := shape(o.wave, o.phase)
	_, o.phase = math.Modf(o.phase + freq/o.ctx.sampleRate)
	if o.phase < 0 {
		o.phase++
	}
	return y
}

// shape evaluates one period of w at phase in [0, 1).
func shape(w Waveform, phase float64) float64 {
	switch w {
	case Triangle:
		return 1 - 4*math.Abs(phase-0.5)
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*phase - 1
	}
	return math.Sin(2 * math.Pi * phase)
}
