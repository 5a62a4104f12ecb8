package engine

import (
	"errors"

	"github.com/Mavwarf/moodscape/internal/mood"
	"github.com/Mavwarf/moodscape/internal/synth"
)

// Pulse layer constants.
const (
	PulseCarrierHz = 55
	PulseBaseGain  = 0.05
	PulseDepth     = 0.05
)

// MaxDetuneHz bounds the random offset applied to each drone voice.
const MaxDetuneHz = 1.0

// chain is the set of graph nodes built for one soundscape layer.
type chain struct {
	layer      string
	generators []*synth.Oscillator
	envelopes  []*synth.Param
	nodes      []synth.Node
}

// fadeOut holds each envelope at its current value and decays it towards
// FadeFloor by now+d.
func (c *chain) fadeOut(now, d float64) error {
	var errs []error
	for _, p := range c.envelopes {
		v := p.CancelAndHoldAtTime(now)
		if v <= FadeFloor {
			p.LinearRampToValueAtTime(0, now+d)
			continue
		}
		errs = append(errs, p.ExponentialRampToValueAtTime(FadeFloor, now+d))
	}
	return errors.Join(errs...)
}

// release stops every generator and detaches every node. It is safe to
// call more than once; it returns how many generators were already stopped.
func (c *chain) release() (redundant int) {
	for _, o := range c.generators {
		if err := o.Stop(); errors.Is(err, synth.ErrAlreadyStopped) {
			redundant++
		}
	}
	for _, n := range c.nodes {
		n.Disconnect()
	}
	return redundant
}

func (e *Engine) fadeIn(p *synth.Param, target, now float64) {
	p.SetValueAtTime(0, now)
	p.LinearRampToValueAtTime(target, now+e.timing.FadeIn.Seconds())
}

func (e *Engine) detune() float64 {
	return (e.rng.Float64()*2 - 1) * MaxDetuneHz
}

func (e *Engine) build(l mood.Layer, now float64) *chain {
	switch l := l.(type) {
	case mood.Drone:
		return e.buildDrone(l, now)
	case mood.Pulse:
		return e.buildPulse(l, now)
	}
	return nil
}

// buildDrone creates one detuned oscillator and gain per frequency.
func (e *Engine) buildDrone(d mood.Drone, now float64) *chain {
	c := &chain{layer: "drone"}
	for _, freq := range d.Frequencies {
		osc := e.graph.NewOscillator(d.Waveform, freq+e.detune())
		g := e.graph.NewGain(0)
		osc.Connect(g)
		g.Connect(e.master)
		e.fadeIn(g.Gain, d.Volume, now)
		osc.Start()

		c.generators = append(c.generators, osc)
		c.envelopes = append(c.envelopes, g.Gain)
		c.nodes = append(c.nodes, osc, g)
	}
	return c
}

// buildPulse creates a filtered sawtooth whose gain is modulated by a sine
// LFO. The depth fades in with the base level so the sum stays >= 0.
func (e *Engine) buildPulse(p mood.Pulse, now float64) *chain {
	carrier := e.graph.NewOscillator(synth.Sawtooth, PulseCarrierHz)
	filter := e.graph.NewBiquadFilter(p.FilterType, p.FilterCutoffHz)
	g := e.graph.NewGain(0)
	lfo := e.graph.NewOscillator(synth.Sine, p.LFORateHz)
	depth := e.graph.NewGain(0)

	carrier.Connect(filter)
	filter.Connect(g)
	g.Connect(e.master)
	lfo.Connect(depth)
	depth.Connect(g.Gain)

	e.fadeIn(g.Gain, PulseBaseGain, now)
	e.fadeIn(depth.Gain, PulseDepth, now)
	lfo.Start()
	carrier.Start()

	return &chain{
		layer:      "pulse",
		generators: []*synth.Oscillator{carrier, lfo},
		envelopes:  []*synth.Param{g.Gain, depth.Gain},
		nodes:      []synth.Node{carrier, filter, g, lfo, depth},
	}
}
