package synth

import (
	"math"
	"sort"
)

type eventKind int

const (
	setValue eventKind = iota
	linearRamp
	exponentialRamp
)

type event struct {
	kind  eventKind
	time  float64
	value float64
}

// Param is an automatable value. Its rendered value is the automation
// curve at the frame's time plus the sum of any nodes connected to it.
type Param struct {
	ctx    *Context
	mod    bus
	value  float64 // value at anchor
	anchor float64 // time at which value took effect
	events []event
	last   float64
}

func newParam(c *Context, v float64) *Param {
	return &Param{ctx: c, value: v, last: v}
}

func (p *Param) inputBus() *bus { return &p.mod }

// SetValue sets the value immediately and drops all scheduled events.
func (p *Param) SetValue(v float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.events = nil
	p.value, p.anchor = v, p.ctx.now()
}

// Value returns the automation value at the context's current time,
// excluding modulation inputs.
func (p *Param) Value() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.at(p.ctx.now())
}

// Last returns the most recently rendered value, including modulation.
func (p *Param) Last() float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	return p.last
}

// SetValueAtTime jumps to v at time t.
func (p *Param) SetValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.insert(event{setValue, t, v})
}

// LinearRampToValueAtTime ramps linearly from the previous event to v,
// arriving at time t.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.anchorRamp()
	p.insert(event{linearRamp, t, v})
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event
// to v, arriving at time t. v must be positive.
func (p *Param) ExponentialRampToValueAtTime(v, t float64) error {
	if v <= 0 {
		return ErrNonPositiveRamp
	}
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.anchorRamp()
	p.insert(event{exponentialRamp, t, v})
	return nil
}

// CancelScheduledValues drops every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	p.cancel(t)
}

// CancelAndHoldAtTime drops every event at or after t and pins the value
// the curve had at t. It returns the held value.
func (p *Param) CancelAndHoldAtTime(t float64) float64 {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	v := p.at(t)
	p.cancel(t)
	p.insert(event{setValue, t, v})
	return v
}

// Pending reports the number of automation events not yet reached.
func (p *Param) Pending() int {
	p.ctx.mu.Lock()
	defer p.ctx.mu.Unlock()
	now := p.ctx.now()
	n := 0
	for _, e := range p.events {
		if e.time > now {
			n++
		}
	}
	return n
}

func (p *Param) cancel(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
}

// anchorRamp starts a ramp scheduled with no prior event from now.
func (p *Param) anchorRamp() {
	if len(p.events) == 0 {
		p.anchor = p.ctx.now()
	}
}

// insert keeps events ordered by time; equal times keep insertion order.
func (p *Param) insert(e event) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// at evaluates the automation curve at time t.
func (p *Param) at(t float64) float64 {
	v, t0 := p.value, p.anchor
	for _, e := range p.events {
		if e.time <= t {
			v, t0 = e.value, e.time
			continue
		}
		switch e.kind {
		case linearRamp:
			return v + (e.value-v)*(t-t0)/(e.time-t0)
		case exponentialRamp:
			if v <= 0 {
				return v
			}
			return v * math.Pow(e.value/v, (t-t0)/(e.time-t0))
		}
		return v
	}
	return v
}

// compute renders the value for frame and folds events that are entirely
// in the past into the anchor.
func (p *Param) compute(frame uint64) float64 {
	t := p.ctx.timeOf(frame)
	for len(p.events) > 0 && p.events[0].time <= t {
		p.value, p.anchor = p.events[0].value, p.events[0].time
		p.events = p.events[1:]
	}
	p.last = p.at(t) + p.mod.sum(frame)
	return p.last
}
