// Package tts provides a unified interface for text-to-speech providers.
//
// The primary backend is Supertone's Sona speech API, which the assistant
// uses for Korean voice output. All providers implement the Provider
// interface, enabling switching without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewSupertone(
//	    tts.WithAPIKey(os.Getenv("SUPERTON_API_KEY")),
//	    tts.WithVoice(os.Getenv("SUPERTON_VOICE_ID")),
//	)
//	defer provider.Close()
//
//	_ = provider.Speak(ctx, "안녕하세요", tts.DefaultSpeechOptions())
package tts

import (
	"context"
	"time"
)

// Provider defines the TTS provider interface.
type Provider interface {
	// Synthesize converts text to audio, returning the complete audio buffer.
	Synthesize(ctx context.Context, text string, opts SpeechOptions) (*AudioResult, error)

	// Speak synthesizes text and plays it through the speaker, returning
	// after playback completes. Empty text is rejected before any network
	// call is made.
	Speak(ctx context.Context, text string, opts SpeechOptions) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data (WAV unless configured otherwise).
	Audio []byte

	// Format is the container format of Audio ("wav" or "mp3").
	Format string

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the time to the complete response in milliseconds.
	LatencyMs int64
}

// SpeechOptions controls per-utterance voice characteristics.
type SpeechOptions struct {
	// Style selects an expressive style (e.g. "neutral", "sad").
	Style string

	// PitchShift adjusts pitch in semitone-like steps (-20 to 20).
	PitchShift int

	// PitchVariance controls pitch variability (0 to 2).
	PitchVariance float64

	// Speed controls playback speed (0.5 to 2).
	Speed float64
}

// Speech styles supported by the Sona model.
const (
	StyleNeutral = "neutral"
	StyleSad     = "sad"
	StyleHappy   = "happy"
)

// DefaultSpeechOptions returns the assistant's default delivery.
func DefaultSpeechOptions() SpeechOptions {
	return SpeechOptions{
		Style:         StyleNeutral,
		PitchShift:    0,
		PitchVariance: 1,
		Speed:         1,
	}
}

// SadSpeechOptions returns a lowered, subdued delivery used when the
// user sounds distressed.
func SadSpeechOptions() SpeechOptions {
	opts := DefaultSpeechOptions()
	opts.Style = StyleSad
	opts.PitchShift = -10
	return opts
}

// EstimateDuration estimates playback time for 16-bit mono PCM audio.
func EstimateDuration(audioBytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := audioBytes / 2
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}
