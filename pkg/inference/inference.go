// Package inference provides a unified interface for LLM chat completion.
//
// The package abstracts chat completions behind a single Provider interface,
// enabling switching between OpenAI-compatible APIs and Azure OpenAI
// deployments without changing caller code.
//
// Example usage:
//
//	client, _ := inference.NewClient(
//	    inference.WithAPIKey(os.Getenv("LLM_API_KEY")),
//	    inference.WithModel("gpt-4o"),
//	)
//	defer client.Close()
//
//	resp, _ := client.Chat(ctx, &inference.ChatRequest{
//	    Messages: []inference.Message{
//	        {Role: inference.RoleUser, Content: "안녕!"},
//	    },
//	})
package inference

import (
	"context"
)

// Provider is the chat completion interface.
type Provider interface {
	// Chat generates a response from a sequence of messages.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// ChatRequest for chat completions.
type ChatRequest struct {
	// Messages is the conversation history.
	Messages []Message

	// Model overrides the default model.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	Temperature float64

	// TopP controls nucleus sampling.
	TopP float64

	// Stop sequences that halt generation.
	Stop []string
}

// ChatResponse from chat completion.
type ChatResponse struct {
	// Message is the assistant's response.
	Message Message

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Usage tracks token consumption.
	Usage Usage

	// Model used for generation.
	Model string

	// LatencyMs is the response time in milliseconds.
	LatencyMs int64
}

// Usage tracks token consumption for billing and limits.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
