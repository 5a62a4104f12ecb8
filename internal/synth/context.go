// Package synth is a small pull-based audio graph: oscillators, gains and
// biquad filters wired into a destination bus, with sample-timed parameter
// automation. A Context is safe for use by one control goroutine and one
// rendering goroutine at the same time.
package synth

import (
	"errors"
	"sync"
)

var (
	// ErrAlreadyStopped is returned by Oscillator.Stop when the oscillator
	// was stopped before.
	ErrAlreadyStopped = errors.New("synth: oscillator already stopped")

	// ErrNonPositiveRamp is returned when an exponential ramp targets a
	// value <= 0, where the curve is undefined.
	ErrNonPositiveRamp = errors.New("synth: exponential ramp target must be positive")
)

// Context owns the graph, its frame clock and the destination bus.
type Context struct {
	mu         sync.Mutex
	sampleRate float64
	frame      uint64
	dest       *Gain
	live       int
}

// NewContext returns a context rendering at sampleRate frames per second.
func NewContext(sampleRate int) *Context {
	if sampleRate <= 0 {
		panic("synth: sample rate must be positive")
	}
	c := &Context{sampleRate: float64(sampleRate)}
	c.dest = c.newGain(1)
	return c
}

// SampleRate returns the rendering rate in Hz.
func (c *Context) SampleRate() int { return int(c.sampleRate) }

// CurrentTime returns the time in seconds of the next frame to be rendered.
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

func (c *Context) now() float64 { return float64(c.frame) / c.sampleRate }

// Destination is the bus rendered by Render and Reader.
func (c *Context) Destination() *Gain { return c.dest }

// Live returns the number of oscillators started and not yet stopped.
func (c *Context) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Render fills buf with consecutive mono frames from the destination and
// advances the clock by len(buf) frames.
func (c *Context) Render(buf []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range buf {
		buf[i] = c.dest.pull(c.frame)
		c.frame++
	}
}

func (c *Context) timeOf(frame uint64) float64 { return float64(frame) / c.sampleRate }
