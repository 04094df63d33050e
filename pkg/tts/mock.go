package tts

import (
	"context"
	"sync"
)

// MockProvider is a test double for Provider.
// Set the Func fields to control behavior; calls are recorded either way.
type MockProvider struct {
	mu sync.Mutex

	SynthesizeFunc func(ctx context.Context, text string, opts SpeechOptions) (*AudioResult, error)
	SpeakFunc      func(ctx context.Context, text string, opts SpeechOptions) error

	// SpokenTexts records every Speak call in order.
	SpokenTexts []string

	// SpokenOptions records the options passed to each Speak call.
	SpokenOptions []SpeechOptions
}

// Synthesize implements Provider.
func (m *MockProvider) Synthesize(ctx context.Context, text string, opts SpeechOptions) (*AudioResult, error) {
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, opts)
	}
	return &AudioResult{Audio: []byte("RIFF"), Format: FormatWAV, CharCount: len([]rune(text))}, nil
}

// Speak implements Provider.
func (m *MockProvider) Speak(ctx context.Context, text string, opts SpeechOptions) error {
	m.mu.Lock()
	m.SpokenTexts = append(m.SpokenTexts, text)
	m.SpokenOptions = append(m.SpokenOptions, opts)
	m.mu.Unlock()
	if m.SpeakFunc != nil {
		return m.SpeakFunc(ctx, text, opts)
	}
	return nil
}

// Close implements Provider.
func (m *MockProvider) Close() error { return nil }

// Spoken returns a copy of the recorded Speak texts.
func (m *MockProvider) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.SpokenTexts))
	copy(out, m.SpokenTexts)
	return out
}

var _ Provider = (*MockProvider)(nil)
