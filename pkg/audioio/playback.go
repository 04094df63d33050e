package audioio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// ErrNoAudio is returned when playback is requested with no audio data.
var ErrNoAudio = errors.New("audioio: no audio data")

// Player plays WAV audio through the default output device.
// Playback is synchronous: each call returns after the audio finishes
// or the context is cancelled.
type Player interface {
	// PlayWAV plays in-memory WAV data.
	PlayWAV(ctx context.Context, data []byte) error

	// PlayFile plays a WAV file from disk.
	PlayFile(ctx context.Context, path string) error
}

// SpeakerPlayer implements Player on top of the beep speaker.
// The speaker is initialized lazily at the first play; audio with a
// different sample rate is resampled to the initialized rate.
type SpeakerPlayer struct {
	logger *slog.Logger

	mu   sync.Mutex
	rate beep.SampleRate
}

// NewSpeakerPlayer creates a Player backed by the system speaker.
func NewSpeakerPlayer(logger *slog.Logger) *SpeakerPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeakerPlayer{logger: logger.With("component", "audioio.player")}
}

// PlayWAV plays in-memory WAV data.
func (p *SpeakerPlayer) PlayWAV(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrNoAudio
	}
	return p.play(ctx, io.NopCloser(bytes.NewReader(data)))
}

// PlayFile plays a WAV file from disk.
func (p *SpeakerPlayer) PlayFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return p.play(ctx, f)
}

func (p *SpeakerPlayer) play(ctx context.Context, rc io.ReadCloser) error {
	streamer, format, err := wav.Decode(rc)
	if err != nil {
		rc.Close()
		return err
	}
	defer streamer.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
			return err
		}
		p.rate = format.SampleRate
	}

	var stream beep.Streamer = streamer
	if format.SampleRate != p.rate {
		stream = beep.Resample(4, format.SampleRate, p.rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

var _ Player = (*SpeakerPlayer)(nil)
