package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ChannelCount is the number of interleaved channels the device plays.
const ChannelCount = 2

// oto allows a single context per process.
var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
)

func getContext(sampleRate int, bufferSize time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: ChannelCount,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferSize,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-readyChan
		}
	})
	return otoCtx, otoInitErr
}

// Output streams stereo float32 LE PCM from src to the default audio device.
// It starts suspended: nothing is heard until Resume.
type Output struct {
	mu        sync.Mutex
	ctx       *oto.Context
	player    *oto.Player
	suspended bool
}

// NewOutput opens the audio device. An error means no backend is available.
func NewOutput(src io.Reader, sampleRate int, bufferSize time.Duration) (*Output, error) {
	ctx, err := getContext(sampleRate, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio: %w", err)
	}
	return &Output{ctx: ctx, player: ctx.NewPlayer(src), suspended: true}, nil
}

// Suspended reports whether the device is paused.
func (o *Output) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

// Resume starts or continues playback. It waits for the device unless ctx
// ends first.
func (o *Output) Resume(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		if err := o.ctx.Resume(); err != nil {
			done <- err
			return
		}
		o.player.Play()
		done <- o.player.Err()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("audio: resume: %w", err)
		}
	}
	o.mu.Lock()
	o.suspended = false
	o.mu.Unlock()
	return nil
}

// Suspend pauses the device.
func (o *Output) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.suspended {
		return nil
	}
	if err := o.ctx.Suspend(); err != nil {
		return fmt.Errorf("audio: suspend: %w", err)
	}
	o.suspended = true
	return nil
}

// Close stops playback and releases the player.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
	return o.player.Close()
}
