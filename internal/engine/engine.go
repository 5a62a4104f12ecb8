// Package engine turns a stream of mood changes into layered, crossfaded
// generative audio on a synth graph.
//
// The engine starts suspended. Start resumes the output device (a user
// gesture in interactive front ends) and SetMood performs a transition:
// the current chains decay over FadeOut and are released TeardownDelay
// later, while the new mood's chains fade in over FadeIn starting at the
// same instant. Every failure mode degrades to silence; nothing is
// reported to the caller.
package engine

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Mavwarf/moodscape/internal/mood"
	"github.com/Mavwarf/moodscape/internal/synth"
)

// Default timing and level constants.
const (
	DefaultFadeOut       = 1500 * time.Millisecond
	DefaultFadeIn        = 2 * time.Second
	DefaultTeardownDelay = 2 * time.Second
	DefaultMasterVolume  = 0.3

	// FadeFloor is the level fade-outs decay to; exponential ramps cannot
	// reach zero.
	FadeFloor = 0.001
)

const masterRampSeconds = 0.05

var tracer = otel.Tracer("github.com/Mavwarf/moodscape/internal/engine")

// Device is the output the graph plays through. It may start suspended
// until a user gesture allows playback.
type Device interface {
	Suspended() bool
	Resume(ctx context.Context) error
}

// Timing holds the crossfade durations. Zero fields take the defaults.
type Timing struct {
	FadeOut       time.Duration
	FadeIn        time.Duration
	TeardownDelay time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.FadeOut <= 0 {
		t.FadeOut = DefaultFadeOut
	}
	if t.FadeIn <= 0 {
		t.FadeIn = DefaultFadeIn
	}
	if t.TeardownDelay <= 0 {
		t.TeardownDelay = DefaultTeardownDelay
	}
	if t.TeardownDelay < t.FadeOut {
		t.TeardownDelay = t.FadeOut
	}
	return t
}

// State is the engine's externally visible state.
type State struct {
	Running      bool
	MasterVolume float64
}

// Transition describes one completed SetMood.
type Transition struct {
	Mood       mood.Mood
	Soundscape string // empty for a mood with no soundscape
	At         time.Time
	AudioTime  float64
	Built      int
	Retired    int
}

// Options configure New. Graph nil means no audio backend: every operation
// becomes a no-op. Device nil means the graph is rendered offline and is
// never suspended.
type Options struct {
	Graph        *synth.Context
	Device       Device
	Clock        Clock
	Seed         uint64 // detune seed; 0 picks a random seed
	Timing       Timing
	MasterVolume float64
	Logger       *log.Logger
	OnTransition func(Transition)
}

// DefaultOptions returns Options with the default master volume and timing.
func DefaultOptions() Options {
	return Options{
		MasterVolume: DefaultMasterVolume,
		Timing: Timing{
			FadeOut:       DefaultFadeOut,
			FadeIn:        DefaultFadeIn,
			TeardownDelay: DefaultTeardownDelay,
		},
	}
}

// Engine is the generative ambient audio engine. Its methods are safe for
// concurrent use.
type Engine struct {
	graph        *synth.Context
	device       Device
	clock        Clock
	timing       Timing
	log          *log.Logger
	onTransition func(Transition)

	mu       sync.Mutex
	rng      *rand.Rand
	master   *synth.Gain
	state    State
	current  mood.Mood
	hasMood  bool
	chains   []*chain
	pending  map[uint64]*teardown
	nextTask uint64
	closed   bool
}

// New returns an engine over opts.Graph. It never fails; a missing graph
// yields an engine that stays silent.
func New(opts Options) *Engine {
	e := &Engine{
		graph:        opts.Graph,
		device:       opts.Device,
		clock:        opts.Clock,
		timing:       opts.Timing.withDefaults(),
		log:          opts.Logger,
		onTransition: opts.OnTransition,
		pending:      make(map[uint64]*teardown),
	}
	if e.clock == nil {
		e.clock = SystemClock()
	}
	if e.log == nil {
		e.log = log.New(io.Discard, "", 0)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	e.state.MasterVolume = clamp01(opts.MasterVolume)
	if e.graph != nil {
		e.master = e.graph.NewGain(e.state.MasterVolume)
		e.master.Connect(e.graph.Destination())
	}
	return e
}

// Start enables playback. With no backend it does nothing. If the device
// is suspended it is resumed first; a failed resume leaves the engine
// stopped and a later Start may retry.
func (e *Engine) Start(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "engine.Start")
	defer span.End()

	if e.graph == nil {
		span.SetAttributes(attribute.Bool("audio.available", false))
		e.log.Printf("start: no audio backend, staying silent")
		return
	}
	if e.device != nil && e.device.Suspended() {
		if err := e.device.Resume(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "resume failed")
			e.log.Printf("start: resume: %v", err)
			return
		}
	}

	e.mu.Lock()
	e.state.Running = true
	e.mu.Unlock()
	span.SetAttributes(attribute.Bool("audio.available", true))
}

// SetMood crossfades to m's soundscape. It is a no-op before a successful
// Start. Setting the current mood again performs a full transition.
func (e *Engine) SetMood(m mood.Mood) {
	e.mu.Lock()
	if e.graph == nil || !e.state.Running || e.closed {
		e.mu.Unlock()
		return
	}
	tr := e.transition(m)
	notify := e.onTransition
	e.mu.Unlock()

	if notify != nil {
		notify(tr)
	}
}

// SetMasterVolume changes the output level with a short ramp.
func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v = clamp01(v)
	e.state.MasterVolume = v
	if e.master == nil {
		return
	}
	now := e.graph.CurrentTime()
	e.master.Gain.CancelAndHoldAtTime(now)
	e.master.Gain.LinearRampToValueAtTime(v, now+masterRampSeconds)
}

// State returns a snapshot of the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Current returns the most recently set mood.
func (e *Engine) Current() (mood.Mood, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.hasMood
}

// Chains returns the number of chains in the current soundscape.
func (e *Engine) Chains() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.chains)
}

// PendingTeardowns returns the number of retired chain sets not yet
// released.
func (e *Engine) PendingTeardowns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Close releases every chain immediately, including those waiting for
// teardown, and disconnects the master bus. Later SetMood calls do nothing.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	pending := e.pending
	e.pending = make(map[uint64]*teardown)
	current := e.chains
	e.chains = nil
	e.mu.Unlock()

	for _, td := range pending {
		td.timer.Stop()
		td.run()
	}
	for _, c := range current {
		c.release()
	}
	if e.master != nil {
		e.master.Disconnect()
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func startSpan(m mood.Mood) trace.Span {
	_, span := tracer.Start(context.Background(), "engine.transition",
		trace.WithAttributes(attribute.String("mood", m.String())))
	return span
}
