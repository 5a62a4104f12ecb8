package main

import (
	"math"
	"testing"

	"github.com/Mavwarf/moodscape/internal/mood"
)

func TestMoodKeysCoverAllMoods(t *testing.T) {
	if len(moodKeys) != len(mood.All()) {
		t.Fatalf("%d keys for %d moods", len(moodKeys), len(mood.All()))
	}
}

func TestMoodForKey(t *testing.T) {
	tests := []struct {
		key  byte
		want mood.Mood
		ok   bool
	}{
		{'1', mood.Wake, true},
		{'0', mood.All()[9], true},
		{'c', mood.All()[12], true},
		{'z', "", false},
		{'+', "", false},
	}
	for _, tt := range tests {
		got, ok := moodForKey(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("moodForKey(%q) = %v, %v; want %v, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAdjustVolume(t *testing.T) {
	tests := []struct {
		v    float64
		key  byte
		want float64
		ok   bool
	}{
		{0.5, '+', 0.55, true},
		{0.5, '=', 0.55, true},
		{0.5, '-', 0.45, true},
		{0.98, '+', 1, true},
		{0.02, '_', 0, true},
		{0.5, 'k', 0.5, false},
	}
	for _, tt := range tests {
		got, ok := adjustVolume(tt.v, tt.key)
		if math.Abs(got-tt.want) > 1e-9 || ok != tt.ok {
			t.Errorf("adjustVolume(%v, %q) = %v, %v; want %v, %v", tt.v, tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsQuit(t *testing.T) {
	for _, k := range []byte{'q', 'Q', 'x', 'X', 3} {
		if !isQuit(k) {
			t.Errorf("isQuit(%q) = false", k)
		}
	}
	if isQuit('1') {
		t.Error("isQuit('1') = true")
	}
}
