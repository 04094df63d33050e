package audioio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures from the default input device via portaudio.
type PortAudioSource struct {
	cfg Config

	mu      sync.Mutex
	stream  *portaudio.Stream
	buf     []int16
	running bool
	closed  bool
}

// NewPortAudioSource initializes portaudio and prepares a capture source.
// Call Close to terminate portaudio and free the device.
func NewPortAudioSource(cfg Config) (*PortAudioSource, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audioio: initialize portaudio: %w", err)
	}
	return &PortAudioSource{
		cfg: cfg,
		buf: make([]int16, cfg.ChunkFrames()),
	}, nil
}

func (s *PortAudioSource) Name() string { return "portaudio" }

// Start opens and starts the default input stream.
func (s *PortAudioSource) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.running {
		return nil
	}

	stream, err := portaudio.OpenDefaultStream(
		s.cfg.Channels, 0, float64(s.cfg.SampleRate), len(s.buf), s.buf,
	)
	if err != nil {
		return fmt.Errorf("audioio: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("audioio: start stream: %w", err)
	}

	s.stream = stream
	s.running = true
	return nil
}

// Read blocks for one chunk duration and returns the captured samples.
func (s *PortAudioSource) Read(ctx context.Context) (Chunk, error) {
	s.mu.Lock()
	stream := s.stream
	running := s.running
	s.mu.Unlock()

	if !running || stream == nil {
		return Chunk{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	if err := stream.Read(); err != nil {
		return Chunk{}, fmt.Errorf("audioio: read stream: %w", err)
	}

	samples := make([]int16, len(s.buf))
	copy(samples, s.buf)
	return Chunk{Samples: samples}, nil
}

// Stop halts the stream but keeps the device initialized for a later Start.
func (s *PortAudioSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	var err error
	if s.stream != nil {
		err = s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
	return err
}

// Close stops capture and terminates portaudio.
func (s *PortAudioSource) Close() error {
	err := s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return err
	}
	s.closed = true

	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}
