package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Mavwarf/moodscape/internal/audio"
	"github.com/Mavwarf/moodscape/internal/config"
	"github.com/Mavwarf/moodscape/internal/engine"
	"github.com/Mavwarf/moodscape/internal/eventlog"
	"github.com/Mavwarf/moodscape/internal/mood"
	"github.com/Mavwarf/moodscape/internal/synth"
	"github.com/Mavwarf/moodscape/internal/telemetry"
)

// session is a live engine wired to the audio device, the history store
// and tracing.
type session struct {
	eng    *engine.Engine
	out    *audio.Output  // nil without an audio backend
	store  eventlog.Store // nil when history is off or unavailable
	source string
	quiet  bool

	shutdownTracing func(context.Context) error
}

// engineOptions maps the config onto engine options.
func engineOptions(cfg config.Config, volume float64) engine.Options {
	opts := engine.DefaultOptions()
	opts.Seed = cfg.Audio.Seed
	opts.MasterVolume = volume
	opts.Timing = engine.Timing{
		FadeOut:       cfg.Audio.FadeOut(),
		FadeIn:        cfg.Audio.FadeIn(),
		TeardownDelay: cfg.Audio.TeardownDelay(),
	}
	if cfg.Debug {
		opts.Logger = log.New(os.Stderr, "engine: ", log.Ltime|log.Lmicroseconds)
	}
	return opts
}

// openSession builds the engine. Failures of optional parts (audio device,
// history, tracing) are reported and the session continues without them.
func openSession(ctx context.Context, cfg config.Config, volume float64, source string) *session {
	s := &session{source: source}

	shutdown, err := telemetry.Setup(ctx, "moodscape", version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
	}
	s.shutdownTracing = shutdown

	if cfg.History.Enabled {
		store, err := eventlog.NewSQLiteStore(cfg.HistoryPath())
		if err != nil {
			fmt.Fprintf(os.Stderr, "eventlog: %v\n", err)
		} else {
			s.store = store
		}
	}

	opts := engineOptions(cfg, volume)
	graph := synth.NewContext(cfg.Audio.SampleRate)
	out, err := audio.NewOutput(graph.Reader(), cfg.Audio.SampleRate, cfg.Audio.Buffer())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (playing silence)\n", err)
	} else {
		s.out = out
		opts.Graph = graph
		opts.Device = out
	}
	opts.OnTransition = s.record
	s.eng = engine.New(opts)
	return s
}

// record logs a transition to history and the terminal. Best-effort.
func (s *session) record(tr engine.Transition) {
	if !s.quiet {
		fmt.Println(describeTransition(tr))
	}
	if s.store == nil {
		return
	}
	err := s.store.Log(eventlog.Entry{
		Time:       tr.At,
		Mood:       tr.Mood.String(),
		Soundscape: tr.Soundscape,
		Chains:     tr.Built,
		Retired:    tr.Retired,
		Source:     s.source,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "eventlog: %v\n", err)
	}
}

func describeTransition(tr engine.Transition) string {
	scape := tr.Soundscape
	if scape == "" {
		scape = "silence"
	}
	return fmt.Sprintf("%s  %-14s %-9s %d chains", tr.At.Format("15:04:05"), tr.Mood, scape, tr.Built)
}

// start resumes the device and reports when the engine stays silent.
func (s *session) start(ctx context.Context) bool {
	s.eng.Start(ctx)
	if !s.eng.State().Running {
		fmt.Fprintln(os.Stderr, "Warning: audio not running, moods will be silent")
		return false
	}
	return true
}

// setMood parses name and hands it to the engine; unknown names still go
// through and play silence.
func (s *session) setMood(name string) {
	moods, unknown := parseMoods([]string{name})
	warnUnknown(unknown)
	s.eng.SetMood(moods[0])
}

func (s *session) current() (mood.Mood, bool) {
	return s.eng.Current()
}

// Close releases the engine, the device and the store, and flushes spans.
func (s *session) Close() {
	s.eng.Close()
	if s.out != nil {
		if err := s.out.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "audio: %v\n", err)
		}
	}
	if s.store != nil {
		s.store.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.shutdownTracing(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: %v\n", err)
	}
}
