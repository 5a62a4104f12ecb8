package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mavwarf/moodscape/internal/audio"
	"github.com/Mavwarf/moodscape/internal/config"
	"github.com/Mavwarf/moodscape/internal/dashboard"
	"github.com/Mavwarf/moodscape/internal/engine"
	"github.com/Mavwarf/moodscape/internal/mood"
	"github.com/Mavwarf/moodscape/internal/paths"
	"github.com/Mavwarf/moodscape/internal/remote"
	"github.com/Mavwarf/moodscape/internal/synth"
)

// renderStep is the block size used when rendering offline.
const renderStep = 10 * time.Millisecond

func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func playCmd(opts options, args []string) {
	if len(args) == 0 {
		fatal("play requires at least one mood\nRun 'moodscape moods' for the list.")
	}
	cfg := loadConfig(opts)
	dwell, err := resolveDwell(opts.dwell, cfg)
	if err != nil {
		fatal("%v", err)
	}
	moods, unknown := parseMoods(args)
	warnUnknown(unknown)

	ctx, stop := interruptContext()
	defer stop()

	s := openSession(ctx, cfg, resolveVolume(opts.volume, cfg), "play")
	defer s.Close()
	s.start(ctx)

	for i, m := range moods {
		s.eng.SetMood(m)
		if i == len(moods)-1 {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(dwell):
		}
	}
	fmt.Println("Press Ctrl+C to stop")
	<-ctx.Done()
}

func listenCmd(opts options) {
	cfg := loadConfig(opts)
	ctx, stop := interruptContext()
	defer stop()

	s := openSession(ctx, cfg, resolveVolume(opts.volume, cfg), "listen")
	defer s.Close()
	s.start(ctx)

	o := remoteOptions(cfg, "listen")
	fmt.Printf("Listening on %s topic %q (Ctrl+C to stop)\n", o.Broker, o.Topic)
	if err := remote.Subscribe(ctx, o, s.setMood); err != nil {
		fatal("%v", err)
	}
}

func sendCmd(opts options, args []string) {
	if len(args) != 1 {
		fatal("send requires exactly one mood")
	}
	m, err := mood.Parse(args[0])
	if err != nil {
		fatal("%v\nRun 'moodscape moods' for the list.", err)
	}
	cfg := loadConfig(opts)
	if err := remote.Publish(remoteOptions(cfg, "send"), m.String()); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Sent %s to %s\n", m, cfg.MQTT.Topic)
}

// remoteOptions maps the MQTT config; role keeps listen and send client
// IDs apart so both can run against one broker.
func remoteOptions(cfg config.Config, role string) remote.Options {
	return remote.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID + "-" + role,
		Topic:    cfg.MQTT.Topic,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		QoS:      cfg.MQTT.QoS,
	}
}

func renderCmd(opts options, args []string) {
	if len(args) == 0 {
		fatal("render requires at least one mood")
	}
	if opts.output == "" {
		fatal("render requires --output <file.wav>")
	}
	cfg := loadConfig(opts)
	dwell, err := resolveDwell(opts.dwell, cfg)
	if err != nil {
		fatal("%v", err)
	}
	moods, unknown := parseMoods(args)
	warnUnknown(unknown)

	samples := renderMoods(cfg, resolveVolume(opts.volume, cfg), moods, dwell)

	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, samples, cfg.Audio.SampleRate, 1); err != nil {
		fatal("%v", err)
	}
	if err := paths.AtomicWrite(opts.output, buf.Bytes()); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Wrote %s (%s, %d moods)\n", opts.output,
		time.Duration(len(samples))*time.Second/time.Duration(cfg.Audio.SampleRate), len(moods))
}

// renderMoods plays moods on an offline graph with a manual clock, each for
// dwell, and returns the mono output.
func renderMoods(cfg config.Config, volume float64, moods []mood.Mood, dwell time.Duration) []float64 {
	sr := cfg.Audio.SampleRate
	graph := synth.NewContext(sr)
	clock := engine.NewManualClock(time.Now())

	eopts := engineOptions(cfg, volume)
	eopts.Graph = graph
	eopts.Clock = clock
	eng := engine.New(eopts)
	defer eng.Close()
	eng.Start(context.Background())

	block := make([]float64, int(renderStep.Seconds()*float64(sr)))
	steps := int(dwell / renderStep)
	samples := make([]float64, 0, len(moods)*steps*len(block))
	for _, m := range moods {
		eng.SetMood(m)
		for range steps {
			graph.Render(block)
			samples = append(samples, block...)
			clock.Advance(renderStep)
		}
	}
	return samples
}

func serveCmd(opts options) {
	cfg := loadConfig(opts)
	ctx, stop := interruptContext()
	defer stop()

	s := openSession(ctx, cfg, resolveVolume(opts.volume, cfg), "dashboard")
	defer s.Close()
	s.start(ctx)

	srv := &dashboard.Server{Engine: s.eng, Store: s.store, Config: cfg}
	fmt.Println("Press Ctrl+C to stop")
	if err := srv.Serve(ctx, opts.port, opts.open); err != nil {
		fatal("%v", err)
	}
}

func initCmd(opts options) {
	path := opts.configPath
	if path == "" {
		path = paths.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !opts.force {
		fatal("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		fatal("%v", err)
	}
	if err := config.Write(path, config.Default()); err != nil {
		fatal("%v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}
