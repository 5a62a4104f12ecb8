// Package mood defines the story moods and the soundscape each one plays.
package mood

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Mood is the emotional tag carried by a story node.
type Mood string

const (
	Wake          Mood = "WAKE"
	Conflict      Mood = "CONFLICT"
	Philosophy    Mood = "PHILOSOPHY"
	Sanctuary     Mood = "SANCTUARY"
	Void          Mood = "VOID"
	Hope          Mood = "HOPE"
	End           Mood = "END"
	Dystopia      Mood = "DYSTOPIA"
	Utopia        Mood = "UTOPIA"
	Narcissism    Mood = "NARCISSISM"
	Schadenfreude Mood = "SCHADENFREUDE"
	Routine       Mood = "ROUTINE"
	Myopic        Mood = "MYOPIC"
)

var all = []Mood{
	Wake, Conflict, Philosophy, Sanctuary, Void, Hope, End,
	Dystopia, Utopia, Narcissism, Schadenfreude, Routine, Myopic,
}

// ErrUnknown is returned by Parse for names outside the enumeration.
var ErrUnknown = errors.New("unknown mood")

// All returns every mood in declaration order.
func All() []Mood { return slices.Clone(all) }

// Parse maps a case-insensitive name to a Mood.
func Parse(s string) (Mood, error) {
	m := Mood(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(all, m) {
		return m, nil
	}
	return m, fmt.Errorf("%w %q", ErrUnknown, s)
}

func (m Mood) String() string { return string(m) }
