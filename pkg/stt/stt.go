// Package stt provides a unified interface for speech-to-text providers.
//
// The assistant records 16 kHz mono PCM16 utterances and hands them to a
// Provider; an empty transcript means "nothing usable was said" and is not
// an error. The primary backend is the Azure Speech REST API.
package stt

import (
	"context"
)

// Provider defines the STT provider interface.
type Provider interface {
	// Recognize transcribes raw 16 kHz mono PCM16 audio. It returns an
	// empty string (without error) when recognition succeeds but no speech
	// was understood.
	Recognize(ctx context.Context, audio []byte, language string) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Hints are phrase hints that bias recognition toward expected vocabulary,
// such as the assistant's wake words.
type Hints []string
