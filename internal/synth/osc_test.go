package synth

import (
	"errors"
	"math"
	"testing"
)

func render(c *Context, n int) []float64 {
	buf := make([]float64, n)
	c.Render(buf)
	return buf
}

func rms(buf []float64) float64 {
	var s float64
	for _, x := range buf {
		s += x * x
	}
	return math.Sqrt(s / float64(len(buf)))
}

func TestOscillatorSilentUntilStarted(t *testing.T) {
	c := NewContext(8000)
	o := c.NewOscillator(Sine, 440)
	o.Connect(c.Destination())
	for i, x := range render(c, 100) {
		if x != 0 {
			t.Fatalf("sample %d = %v before Start, want 0", i, x)
		}
	}
	o.Start()
	if rms(render(c, 800)) == 0 {
		t.Fatal("expected signal after Start")
	}
}

func TestOscillatorFrequency(t *testing.T) {
	const sampleRate = 48000
	for _, w := range []Waveform{Sine, Triangle, Square, Sawtooth} {
		c := NewContext(sampleRate)
		o := c.NewOscillator(w, 100)
		o.Connect(c.Destination())
		o.Start()
		buf := render(c, sampleRate)

		// Count upward zero crossings over one second.
		crossings := 0
		for i := 1; i < len(buf); i++ {
			if buf[i-1] < 0 && buf[i] >= 0 {
				crossings++
			}
		}
		if crossings < 99 || crossings > 101 {
			t.Errorf("%s: %d upward crossings in 1s, want ~100", w, crossings)
		}
	}
}

func TestOscillatorStopTwice(t *testing.T) {
	c := NewContext(8000)
	o := c.NewOscillator(Sawtooth, 55)
	o.Start()
	if got := c.Live(); got != 1 {
		t.Fatalf("Live() = %d, want 1", got)
	}
	if err := o.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := o.Stop(); !errors.Is(err, ErrAlreadyStopped) {
		t.Fatalf("second Stop error = %v, want ErrAlreadyStopped", err)
	}
	if got := c.Live(); got != 0 {
		t.Errorf("Live() = %d after stops, want 0", got)
	}
	if !o.Stopped() {
		t.Error("Stopped() = false")
	}
}

func TestOscillatorStopBeforeStart(t *testing.T) {
	c := NewContext(8000)
	o := c.NewOscillator(Sine, 220)
	if err := o.Stop(); err != nil {
		t.Fatal(err)
	}
	o.Start()
	if got := c.Live(); got != 0 {
		t.Errorf("Live() = %d, want 0 for oscillator stopped before start", got)
	}
}

func TestOscillatorStoppedIsSilent(t *testing.T) {
	c := NewContext(8000)
	o := c.NewOscillator(Square, 200)
	o.Connect(c.Destination())
	o.Start()
	render(c, 100)
	o.Stop()
	for i, x := range render(c, 100) {
		if x != 0 {
			t.Fatalf("sample %d = %v after Stop, want 0", i, x)
		}
	}
}

func TestParseWaveform(t *testing.T) {
	for _, w := range []Waveform{Sine, Triangle, Square, Sawtooth} {
		got, err := ParseWaveform(w.String())
		if err != nil || got != w {
			t.Errorf("ParseWaveform(%q) = %v, %v", w.String(), got, err)
		}
	}
	if _, err := ParseWaveform("noise"); err == nil {
		t.Error("expected error for unknown waveform")
	}
}

func TestFanOutRendersOncePerFrame(t *testing.T) {
	c := NewContext(8000)
	o := c.NewOscillator(Sawtooth, 100)
	a := c.NewGain(1)
	b := c.NewGain(1)
	o.Connect(a)
	o.Connect(b)
	a.Connect(c.Destination())
	b.Connect(c.Destination())
	o.Start()

	ref := NewContext(8000)
	r := ref.NewOscillator(Sawtooth, 100)
	r.Connect(ref.Destination())
	r.Start()

	got := render(c, 400)
	want := render(ref, 400)
	for i := range got {
		if !approx(got[i], 2*want[i], 1e-12) {
			t.Fatalf("frame %d: %v, want %v", i, got[i], 2*want[i])
		}
	}
}
