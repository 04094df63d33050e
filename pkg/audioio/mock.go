package audioio

import (
	"context"
	"io"
	"sync"
)

// MockSource replays scripted chunks for tests. Read returns the chunks in
// order and io.EOF once they run out.
type MockSource struct {
	cfg Config

	mu      sync.Mutex
	chunks  []Chunk
	pos     int
	started bool
	closed  bool
}

// NewMockSource creates a source that replays the given chunks.
func NewMockSource(cfg Config, chunks []Chunk) *MockSource {
	return &MockSource{cfg: cfg, chunks: chunks}
}

// NewScriptedSource builds a mock source from per-chunk amplitudes: each
// amplitude in [0,1] becomes one full chunk of constant samples at that
// level. Useful for driving the voice-activity detector deterministically.
func NewScriptedSource(cfg Config, amplitudes []float64) *MockSource {
	frames := cfg.ChunkFrames()
	chunks := make([]Chunk, len(amplitudes))
	for i, a := range amplitudes {
		samples := make([]int16, frames)
		level := int16(a * 32767)
		for j := range samples {
			samples[j] = level
		}
		chunks[i] = Chunk{Samples: samples}
	}
	return NewMockSource(cfg, chunks)
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.started = true
	return nil
}

func (m *MockSource) Read(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.started || m.pos >= len(m.chunks) {
		return Chunk{}, io.EOF
	}
	chunk := m.chunks[m.pos]
	m.pos++
	return chunk, nil
}

func (m *MockSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = false
	return nil
}

func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// MockPlayer records playback calls without touching audio hardware.
type MockPlayer struct {
	mu sync.Mutex

	// PlayWAVFunc and PlayFileFunc override the default no-op behavior.
	PlayWAVFunc  func(ctx context.Context, data []byte) error
	PlayFileFunc func(ctx context.Context, path string) error

	// PlayedWAVs and PlayedFiles record every call in order.
	PlayedWAVs  [][]byte
	PlayedFiles []string
}

func (m *MockPlayer) PlayWAV(ctx context.Context, data []byte) error {
	m.mu.Lock()
	m.PlayedWAVs = append(m.PlayedWAVs, data)
	m.mu.Unlock()
	if m.PlayWAVFunc != nil {
		return m.PlayWAVFunc(ctx, data)
	}
	return nil
}

func (m *MockPlayer) PlayFile(ctx context.Context, path string) error {
	m.mu.Lock()
	m.PlayedFiles = append(m.PlayedFiles, path)
	m.mu.Unlock()
	if m.PlayFileFunc != nil {
		return m.PlayFileFunc(ctx, path)
	}
	return nil
}

var _ Player = (*MockPlayer)(nil)
