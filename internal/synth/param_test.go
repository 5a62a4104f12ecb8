package synth

import (
	"errors"
	"math"
	"testing"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// advance renders n frames into the void.
func advance(c *Context, n int) {
	c.Render(make([]float64, n))
}

func TestParamLinearRamp(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0)
	g.Gain.SetValueAtTime(0, 0)
	g.Gain.LinearRampToValueAtTime(1, 2)

	advance(c, 1000)
	if v := g.Gain.Value(); !approx(v, 0.5, 1e-9) {
		t.Errorf("Value at t=1 = %v, want 0.5", v)
	}
	advance(c, 1000)
	if v := g.Gain.Value(); !approx(v, 1, 1e-9) {
		t.Errorf("Value at t=2 = %v, want 1", v)
	}
	advance(c, 500)
	if v := g.Gain.Value(); v != 1 {
		t.Errorf("Value after ramp = %v, want 1", v)
	}
}

func TestParamExponentialRamp(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0)
	g.Gain.SetValueAtTime(1, 0)
	if err := g.Gain.ExponentialRampToValueAtTime(0.01, 2); err != nil {
		t.Fatal(err)
	}

	advance(c, 1000)
	// Geometric midpoint of 1 and 0.01.
	if v := g.Gain.Value(); !approx(v, 0.1, 1e-9) {
		t.Errorf("Value at t=1 = %v, want 0.1", v)
	}
}

func TestParamExponentialRampRejectsZero(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(1)
	for _, v := range []float64{0, -0.5} {
		if err := g.Gain.ExponentialRampToValueAtTime(v, 1); !errors.Is(err, ErrNonPositiveRamp) {
			t.Errorf("ExponentialRampToValueAtTime(%v) error = %v, want ErrNonPositiveRamp", v, err)
		}
	}
	if n := g.Gain.Pending(); n != 0 {
		t.Errorf("Pending() = %d after rejected ramps, want 0", n)
	}
}

func TestParamExponentialRampFromZeroHolds(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0)
	g.Gain.SetValueAtTime(0, 0)
	g.Gain.ExponentialRampToValueAtTime(1, 1)
	advance(c, 500)
	if v := g.Gain.Value(); v != 0 {
		t.Errorf("Value = %v, want 0 held", v)
	}
}

func TestParamCancelAndHold(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0)
	g.Gain.SetValueAtTime(0, 0)
	g.Gain.LinearRampToValueAtTime(1, 2)
	advance(c, 500)

	held := g.Gain.CancelAndHoldAtTime(c.CurrentTime())
	if !approx(held, 0.25, 1e-9) {
		t.Fatalf("held = %v, want 0.25", held)
	}
	advance(c, 1000)
	if v := g.Gain.Value(); !approx(v, 0.25, 1e-9) {
		t.Errorf("Value after hold = %v, want 0.25", v)
	}
}

func TestParamCancelScheduledValues(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0.5)
	g.Gain.SetValueAtTime(1, 1)
	g.Gain.SetValueAtTime(2, 2)
	g.Gain.CancelScheduledValues(1.5)
	if n := g.Gain.Pending(); n != 1 {
		t.Fatalf("Pending() = %d, want 1", n)
	}
	advance(c, 3000)
	if v := g.Gain.Value(); v != 1 {
		t.Errorf("Value = %v, want 1", v)
	}
}

func TestParamRampWithoutPriorEventStartsNow(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0.2)
	advance(c, 1000)
	g.Gain.LinearRampToValueAtTime(0.4, 2)
	advance(c, 500)
	if v := g.Gain.Value(); !approx(v, 0.3, 1e-9) {
		t.Errorf("Value = %v, want 0.3", v)
	}
}

func TestParamModulation(t *testing.T) {
	c := NewContext(1000)
	g := c.NewGain(0.5)
	g.Connect(c.Destination())

	// A very slow square wave is a constant +1 for the first half period.
	dc := c.NewOscillator(Square, 0.001)
	depth := c.NewGain(0.25)
	dc.Connect(depth)
	depth.Connect(g.Gain)
	dc.Start()

	advance(c, 10)
	if v := g.Gain.Last(); !approx(v, 0.75, 1e-9) {
		t.Errorf("Last() = %v, want 0.75", v)
	}
	if v := g.Gain.Value(); v != 0.5 {
		t.Errorf("Value() = %v, want 0.5 (modulation excluded)", v)
	}

	depth.Disconnect()
	advance(c, 10)
	if v := g.Gain.Last(); v != 0.5 {
		t.Errorf("Last() after disconnect = %v, want 0.5", v)
	}
}
