package inference

import (
	"context"
	"sync"
)

// MockProvider is a test double for Provider.
// Set ChatFunc, or queue Replies to return in order.
type MockProvider struct {
	mu sync.Mutex

	ChatFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Replies are returned one per call when ChatFunc is nil.
	// Calls past the end repeat the last reply.
	Replies []string

	// Requests records every ChatRequest received.
	Requests []*ChatRequest
}

// Chat implements Provider.
func (m *MockProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	n := len(m.Requests) - 1
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}

	reply := ""
	if len(m.Replies) > 0 {
		if n >= len(m.Replies) {
			n = len(m.Replies) - 1
		}
		reply = m.Replies[n]
	}
	return &ChatResponse{
		Message:      NewAssistantMessage(reply),
		FinishReason: "stop",
		Model:        "mock",
	}, nil
}

// Health implements Provider.
func (m *MockProvider) Health(ctx context.Context) error { return nil }

// Close implements Provider.
func (m *MockProvider) Close() error { return nil }

// CallCount returns the number of Chat calls received.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

var _ Provider = (*MockProvider)(nil)
