// Package audioio provides microphone capture for the assistant.
//
// Audio is delivered as fixed-duration chunks of 16 kHz mono PCM16, the
// format the speech recognizer expects. The portaudio-backed source owns the
// input device for the lifetime of one recording; callers must Close it so
// the device is released even when the session unwinds on interrupt.
package audioio

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned when reading from a closed source.
var ErrClosed = errors.New("audioio: source closed")

// Config describes the capture format.
type Config struct {
	// SampleRate in Hz. The STT gateway requires 16000.
	SampleRate int

	// Channels is 1 for mono.
	Channels int

	// ChunkDuration is the duration of one captured chunk.
	ChunkDuration time.Duration
}

// DefaultConfig returns the capture format used by the assistant:
// 16 kHz mono PCM16 in 100 ms chunks.
func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		Channels:      1,
		ChunkDuration: 100 * time.Millisecond,
	}
}

// ChunkFrames returns the number of samples per chunk.
func (c Config) ChunkFrames() int {
	return int(float64(c.SampleRate*c.Channels) * c.ChunkDuration.Seconds())
}

// Chunk is one fixed-duration block of captured samples.
type Chunk struct {
	// Samples contains PCM16 samples (little-endian on the wire).
	Samples []int16
}

// Bytes returns the chunk as raw little-endian PCM16 bytes.
func (c Chunk) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

// Source captures audio from a microphone or a test double.
type Source interface {
	// Start begins capture. It must be called before Read.
	Start(ctx context.Context) error

	// Read blocks until the next chunk is available.
	// Returns io.EOF when the stream is exhausted.
	Read(ctx context.Context) (Chunk, error)

	// Stop halts capture. Safe to call multiple times.
	Stop() error

	// Close releases the device. The source cannot be restarted after Close.
	Close() error

	// Name identifies the backend ("portaudio", "mock").
	Name() string
}
