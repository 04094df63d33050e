// Package vad segments continuous microphone audio into discrete
// utterances using per-chunk RMS energy.
//
// A turn starts on the first chunk above the energy threshold and ends once
// enough consecutive silent chunks accumulate. Runs of speech shorter than
// the minimum are treated as false starts: buffers reset and listening
// resumes without an utterance. No audio leaves this package until a turn
// qualifies, so silence never reaches the speech recognizer.
package vad

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
)

// Default segmentation parameters, tuned for responsive turn-taking on a
// Raspberry Pi-class microphone.
const (
	DefaultEnergyThreshold   = 0.01
	DefaultSilenceDuration   = 500 * time.Millisecond
	DefaultMinSpeechDuration = 150 * time.Millisecond
)

// Config controls turn segmentation.
type Config struct {
	// EnergyThreshold is the normalized RMS level that counts as speech.
	EnergyThreshold float64

	// SilenceDuration is how much trailing silence ends a turn.
	SilenceDuration time.Duration

	// MinSpeechDuration is the shortest run of speech that counts as an
	// utterance; shorter runs are discarded silently.
	MinSpeechDuration time.Duration

	// Logger for segmentation events. Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the assistant's segmentation defaults.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold:   DefaultEnergyThreshold,
		SilenceDuration:   DefaultSilenceDuration,
		MinSpeechDuration: DefaultMinSpeechDuration,
	}
}

// Utterance is one contiguous speech segment delimited by silence.
type Utterance struct {
	// Samples is the concatenated PCM16 audio of the segment.
	Samples []int16

	// Duration is the audio length of the segment.
	Duration time.Duration
}

// Bytes returns the utterance as raw little-endian PCM16.
func (u *Utterance) Bytes() []byte {
	return audioio.Chunk{Samples: u.Samples}.Bytes()
}

// Segmenter extracts one utterance per Listen call.
type Segmenter struct {
	cfg     Config
	capture audioio.Config
	logger  *slog.Logger

	// OnSpeechStart fires when a turn begins (e.g. indicator light on).
	OnSpeechStart func()

	// OnSpeechEnd fires when a qualifying turn completes. False starts do
	// not fire it.
	OnSpeechEnd func()

	// SinkPath, when set, receives each completed utterance as a WAV file.
	SinkPath string
}

// New creates a Segmenter for the given capture format.
func New(cfg Config, capture audioio.Config) *Segmenter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{
		cfg:     cfg,
		capture: capture,
		logger:  logger.With("component", "vad"),
	}
}

// Listen blocks until one qualifying utterance completes or the source is
// exhausted. It returns nil (without error) when the stream ends before a
// qualifying utterance, matching the "silence this cycle" contract.
func (s *Segmenter) Listen(ctx context.Context, src audioio.Source) (*Utterance, error) {
	silenceChunks := chunksFor(s.cfg.SilenceDuration, s.capture.ChunkDuration)
	minSpeechChunks := chunksFor(s.cfg.MinSpeechDuration, s.capture.ChunkDuration)

	var (
		buffered   []int16
		speaking   bool
		speechRun  int
		silenceRun int
	)

	reset := func() {
		buffered = buffered[:0]
		speaking = false
		speechRun = 0
		silenceRun = 0
	}

	for {
		chunk, err := src.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Stream exhausted: the buffer qualifies only if it already
				// reached the minimum speech length.
				if speaking && speechRun >= minSpeechChunks {
					return s.complete(buffered), nil
				}
				return nil, nil
			}
			return nil, err
		}

		energy := RMS(chunk.Samples)

		if !speaking {
			if energy > s.cfg.EnergyThreshold {
				speaking = true
				speechRun = 1
				buffered = append(buffered, chunk.Samples...)
				if s.OnSpeechStart != nil {
					s.OnSpeechStart()
				}
				s.logger.Debug("speech started", "energy", energy)
			}
			continue
		}

		buffered = append(buffered, chunk.Samples...)
		if energy > s.cfg.EnergyThreshold {
			speechRun++
			silenceRun = 0
			continue
		}

		silenceRun++
		if silenceRun < silenceChunks {
			continue
		}

		if speechRun >= minSpeechChunks {
			s.logger.Debug("speech ended", "chunks", speechRun)
			return s.complete(buffered), nil
		}

		// False start: too little speech before the silence ran out.
		s.logger.Debug("discarding short speech run", "chunks", speechRun)
		reset()
	}
}

func (s *Segmenter) complete(samples []int16) *Utterance {
	if s.OnSpeechEnd != nil {
		s.OnSpeechEnd()
	}

	out := make([]int16, len(samples))
	copy(out, samples)

	u := &Utterance{
		Samples:  out,
		Duration: time.Duration(len(out)) * time.Second / time.Duration(s.capture.SampleRate*s.capture.Channels),
	}

	if s.SinkPath != "" {
		if err := audioio.WriteWAV(s.SinkPath, u.Samples, s.capture); err != nil {
			s.logger.Warn("failed to write utterance sink", "path", s.SinkPath, "error", err)
		}
	}
	return u
}

// RMS computes the normalized root-mean-square energy of PCM16 samples,
// clamped to [0, 1].
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum/float64(len(samples))) / 32768.0
	return math.Min(rms, 1.0)
}

func chunksFor(d, chunk time.Duration) int {
	if chunk <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(d) / float64(chunk)))
	if n < 1 {
		n = 1
	}
	return n
}
