package mood

import (
	"slices"

	"github.com/Mavwarf/moodscape/internal/synth"
)

// Layer is one recipe entry of a soundscape: either a Drone or a Pulse.
type Layer interface {
	layer()
}

// Drone is a sustained layer: one oscillator per frequency, all of the same
// waveform, faded in to Volume.
type Drone struct {
	Frequencies []float64
	Waveform    synth.Waveform
	Volume      float64
}

// Pulse is a filtered sawtooth whose level is amplitude-modulated at
// LFORateHz.
type Pulse struct {
	LFORateHz      float64
	FilterCutoffHz float64
	FilterType     synth.FilterType
}

func (Drone) layer() {}
func (Pulse) layer() {}

// Soundscape is the ordered layer list played for a mood.
type Soundscape struct {
	Name   string
	Layers []Layer
}

// Soundscape names.
const (
	Ethereal = "ethereal"
	Harsh    = "harsh"
	Hollow   = "hollow"
	Choir    = "choir"
	Rumble   = "rumble"
	Bright   = "bright"
	Wind     = "wind"
)

var soundscapes = map[string][]Layer{
	Ethereal: {
		Drone{[]float64{110, 220, 330}, synth.Sine, 0.1},
		Drone{[]float64{55}, synth.Sine, 0.2},
	},
	// Dissonant saws over a square sub, with a fast pulse.
	Harsh: {
		Drone{[]float64{50, 52, 100}, synth.Sawtooth, 0.08},
		Drone{[]float64{40}, synth.Square, 0.1},
		Pulse{4, 400, synth.Lowpass},
	},
	Hollow: {
		Drone{[]float64{130.81, 196.00, 261.63}, synth.Triangle, 0.05},
		Drone{[]float64{65.41}, synth.Sine, 0.1},
	},
	// C major 7 with a deep root and a quiet high voice.
	Choir: {
		Drone{[]float64{130.81, 196.00, 261.63, 392.00}, synth.Sine, 0.08},
		Drone{[]float64{65.41}, synth.Sine, 0.15},
		Drone{[]float64{523.25}, synth.Triangle, 0.02},
	},
	// Detuned low squares and a slow heartbeat.
	Rumble: {
		Drone{[]float64{30, 30.5}, synth.Square, 0.05},
		Pulse{0.2, 100, synth.Lowpass},
	},
	// D major.
	Bright: {
		Drone{[]float64{146.83, 220.00, 293.66}, synth.Sine, 0.08},
		Drone{[]float64{73.42}, synth.Triangle, 0.1},
		Pulse{0.5, 800, synth.Highpass},
	},
	Wind: {
		Drone{[]float64{100}, synth.Sine, 0.01},
	},
}

// table maps every mood to its soundscape. Moods sharing a name are
// deliberate aliases.
var table = map[Mood]string{
	Wake:          Ethereal,
	Utopia:        Ethereal,
	Conflict:      Harsh,
	Schadenfreude: Harsh,
	Dystopia:      Harsh,
	Philosophy:    Hollow,
	Narcissism:    Hollow,
	Sanctuary:     Choir,
	Void:          Rumble,
	Myopic:        Rumble,
	Routine:       Rumble,
	Hope:          Bright,
	End:           Wind,
}

// Lookup returns the soundscape for m. The second result is false for a
// mood with no entry.
func Lookup(m Mood) (Soundscape, bool) {
	name, ok := table[m]
	if !ok {
		return Soundscape{}, false
	}
	return soundscape(name), true
}

// Soundscapes returns every soundscape sorted by name.
func Soundscapes() []Soundscape {
	names := make([]string, 0, len(soundscapes))
	for name := range soundscapes {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make([]Soundscape, len(names))
	for i, name := range names {
		out[i] = soundscape(name)
	}
	return out
}

// Aliases returns the moods that play the named soundscape, in
// declaration order.
func Aliases(name string) []Mood {
	var out []Mood
	for _, m := range all {
		if table[m] == name {
			out = append(out, m)
		}
	}
	return out
}

// soundscape copies the named entry so callers cannot mutate the table.
func soundscape(name string) Soundscape {
	src := soundscapes[name]
	layers := make([]Layer, len(src))
	for i, l := range src {
		if d, ok := l.(Drone); ok {
			d.Frequencies = slices.Clone(d.Frequencies)
			l = d
		}
		layers[i] = l
	}
	return Soundscape{Name: name, Layers: layers}
}
