package synth

// Node is a signal source that can feed a bus or a parameter.
type Node interface {
	Connect(dst Input)
	Disconnect()
}

// Input is anything a Node can be connected to: a Gain, a BiquadFilter or
// a Param (modulation).
type Input interface {
	inputBus() *bus
}

// bus sums the outputs of the nodes connected to it.
type bus struct {
	inputs []*node
}

func (b *bus) add(n *node) {
	for _, in := range b.inputs {
		if in == n {
			return
		}
	}
	b.inputs = append(b.inputs, n)
}

func (b *bus) remove(n *node) {
	for i, in := range b.inputs {
		if in == n {
			b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
			return
		}
	}
}

func (b *bus) sum(frame uint64) float64 {
	var s float64
	for _, n := range b.inputs {
		s += n.pull(frame)
	}
	return s
}

// node caches its output per frame so that fan-out and cycles are rendered
// once per frame. A cycle reads the previous frame's value.
type node struct {
	ctx     *Context
	outputs []*bus
	frame   uint64
	primed  bool
	out     float64
	render  func(frame uint64) float64
}

func (n *node) pull(frame uint64) float64 {
	if n.primed && n.frame == frame {
		return n.out
	}
	n.frame, n.primed = frame, true
	n.out = n.render(frame)
	return n.out
}

// Connect routes the node's output into dst.
func (n *node) Connect(dst Input) {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	b := dst.inputBus()
	b.add(n)
	for _, o := range n.outputs {
		if o == b {
			return
		}
	}
	n.outputs = append(n.outputs, b)
}

// Disconnect detaches the node from every destination. Calling it on a
// detached node does nothing.
func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, b := range n.outputs {
		b.remove(n)
	}
	n.outputs = nil
}

// Gain multiplies the sum of its inputs by its Gain parameter.
type Gain struct {
	node
	in   bus
	Gain *Param
}

// NewGain returns a gain node with the given initial level.
func (c *Context) NewGain(level float64) *Gain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newGain(level)
}

func (c *Context) newGain(level float64) *Gain {
	g := &Gain{Gain: newParam(c, level)}
	g.node = node{ctx: c, render: g.render}
	return g
}

func (g *Gain) inputBus() *bus { return &g.in }

func (g *Gain) render(frame uint64) float64 {
	x := g.in.sum(frame)
	return x * g.Gain.compute(frame)
}
