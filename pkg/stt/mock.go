package stt

import (
	"context"
	"sync"
)

// MockProvider is a test double for Provider.
// Set RecognizeFunc, or queue Transcripts to return in order.
type MockProvider struct {
	mu sync.Mutex

	RecognizeFunc func(ctx context.Context, audio []byte, language string) (string, error)

	// Transcripts are returned one per call when RecognizeFunc is nil.
	// Calls past the end return "".
	Transcripts []string

	// Calls counts Recognize invocations.
	Calls int
}

// Recognize implements Provider.
func (m *MockProvider) Recognize(ctx context.Context, audio []byte, language string) (string, error) {
	m.mu.Lock()
	n := m.Calls
	m.Calls++
	m.mu.Unlock()

	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, audio, language)
	}
	if n < len(m.Transcripts) {
		return m.Transcripts[n], nil
	}
	return "", nil
}

// Close implements Provider.
func (m *MockProvider) Close() error { return nil }

var _ Provider = (*MockProvider)(nil)
