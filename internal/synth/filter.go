package synth

import (
	"fmt"
	"math"
	"strings"
)

// FilterType selects a biquad response.
type FilterType int

const (
	Lowpass FilterType = iota
	Highpass
)

func (f FilterType) String() string {
	switch f {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	}
	return fmt.Sprintf("FilterType(%d)", int(f))
}

// ParseFilterType accepts "lowpass" or "highpass".
func ParseFilterType(s string) (FilterType, error) {
	switch strings.ToLower(s) {
	case "lowpass":
		return Lowpass, nil
	case "highpass":
		return Highpass, nil
	}
	return 0, fmt.Errorf("synth: unknown filter type %q", s)
}

// BiquadFilter is a second-order RBJ cookbook lowpass or highpass with
// Q = 1/√2. Coefficients are recomputed when the cutoff changes.
type BiquadFilter struct {
	node
	in        bus
	Frequency *Param
	typ       FilterType
	q         float64

	cutoff             float64
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// NewBiquadFilter returns a filter of type typ at cutoff Hz.
func (c *Context) NewBiquadFilter(typ FilterType, cutoff float64) *BiquadFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &BiquadFilter{Frequency: newParam(c, cutoff), typ: typ, q: 1 / math.Sqrt2}
	f.node = node{ctx: c, render: f.render}
	f.design(cutoff)
	return f
}

// Type returns the filter response.
func (f *BiquadFilter) Type() FilterType { return f.typ }

func (f *BiquadFilter) inputBus() *bus { return &f.in }

func (f *BiquadFilter) design(cutoff float64) {
	nyquist := f.ctx.sampleRate / 2
	fc := math.Min(math.Max(cutoff, 1), nyquist*0.99)
	f.cutoff = cutoff

	w0 := 2 * math.Pi * fc / f.ctx.sampleRate
	cosw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * f.q)
	a0 := 1 + alpha

	switch f.typ {
	case Highpass:
		f.b0 = (1 + cosw) / 2
		f.b1 = -(1 + cosw)
		f.b2 = (1 + cosw) / 2
	default:
		f.b0 = (1 - cosw) / 2
		f.b1 = 1 - cosw
		f.b2 = (1 - cosw) / 2
	}
	f.a1 = -2 * cosw
	f.a2 = 1 - alpha

	f.b0 /= a0
	f.b1 /= a0
	f.b2 /= a0
	f.a1 /= a0
	f.a2 /= a0
}

func (f *BiquadFilter) render(frame uint64) float64 {
	if fc := f.Frequency.compute(frame); fc != f.cutoff {
		f.design(fc)
	}
	x := f.in.sum(frame)
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}
