package synth

import "testing"

// filteredRMS returns the steady-state RMS of a unit sine at freq through a
// filter of the given type and cutoff.
func filteredRMS(typ FilterType, cutoff, freq float64) float64 {
	const sampleRate = 48000
	c := NewContext(sampleRate)
	o := c.NewOscillator(Sine, freq)
	f := c.NewBiquadFilter(typ, cutoff)
	o.Connect(f)
	f.Connect(c.Destination())
	o.Start()
	render(c, sampleRate/2) // settle
	return rms(render(c, sampleRate/2))
}

func TestBiquadLowpass(t *testing.T) {
	const unity = 0.7071 // RMS of a unit sine
	if got := filteredRMS(Lowpass, 400, 50); got < 0.95*unity {
		t.Errorf("lowpass 400Hz passes 50Hz at RMS %.4f, want ~%.4f", got, unity)
	}
	if got := filteredRMS(Lowpass, 400, 8000); got > 0.01 {
		t.Errorf("lowpass 400Hz passes 8kHz at RMS %.4f, want < 0.01", got)
	}
}

func TestBiquadHighpass(t *testing.T) {
	const unity = 0.7071
	if got := filteredRMS(Highpass, 800, 8000); got < 0.95*unity {
		t.Errorf("highpass 800Hz passes 8kHz at RMS %.4f, want ~%.4f", got, unity)
	}
	if got := filteredRMS(Highpass, 800, 50); got > 0.01 {
		t.Errorf("highpass 800Hz passes 50Hz at RMS %.4f, want < 0.01", got)
	}
}

func TestBiquadCutoffAutomation(t *testing.T) {
	c := NewContext(48000)
	f := c.NewBiquadFilter(Lowpass, 100)
	f.Frequency.SetValueAtTime(5000, 0.01)
	f.Connect(c.Destination())
	render(c, 1000)
	if f.cutoff != 5000 {
		t.Errorf("cutoff = %v after automation, want 5000", f.cutoff)
	}
}

func TestParseFilterType(t *testing.T) {
	for _, ft := range []FilterType{Lowpass, Highpass} {
		got, err := ParseFilterType(ft.String())
		if err != nil || got != ft {
			t.Errorf("ParseFilterType(%q) = %v, %v", ft.String(), got, err)
		}
	}
	if _, err := ParseFilterType("bandpass"); err == nil {
		t.Error("expected error for bandpass")
	}
}
