package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	supertoneBaseURL  = "https://supertoneapi.com"
	providerSupertone = "supertone"
)

// Supertone model IDs and output formats.
const (
	// ModelSonaSpeech1 is Supertone's expressive multilingual speech model.
	ModelSonaSpeech1 = "sona_speech_1"

	FormatWAV = "wav"
	FormatMP3 = "mp3"
)

// Supertone implements Provider for the Supertone speech API.
type Supertone struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewSupertone creates a new Supertone TTS provider.
func NewSupertone(opts ...Option) (*Supertone, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = supertoneBaseURL
	}

	return &Supertone{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "tts.supertone"),
		baseURL: baseURL,
	}, nil
}

// Synthesize converts text to audio, returning the complete audio buffer.
func (s *Supertone) Synthesize(ctx context.Context, text string, opts SpeechOptions) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	start := time.Now()

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, s.config.VoiceID)

	body, err := json.Marshal(s.buildPayload(text, opts))
	if err != nil {
		return nil, WrapError(providerSupertone, fmt.Errorf("marshal payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, WrapError(providerSupertone, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("x-sup-api-key", s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerSupertone, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()
	s.logger.Debug("synthesized audio",
		"chars", len([]rune(text)),
		"bytes", len(audio),
		"latency_ms", latency,
		"style", opts.Style,
	)

	return &AudioResult{
		Audio:     audio,
		Format:    s.config.OutputFormat,
		CharCount: len([]rune(text)),
		LatencyMs: latency,
	}, nil
}

// Speak synthesizes text and plays it through the configured player.
func (s *Supertone) Speak(ctx context.Context, text string, opts SpeechOptions) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if s.config.Player == nil {
		return ErrNoPlayer
	}

	result, err := s.Synthesize(ctx, text, opts)
	if err != nil {
		return err
	}

	if err := s.config.Player.PlayWAV(ctx, result.Audio); err != nil {
		return WrapError(providerSupertone, fmt.Errorf("playback: %w", err))
	}
	return nil
}

// Close releases resources held by the provider.
func (s *Supertone) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// VoiceID returns the configured voice ID.
func (s *Supertone) VoiceID() string {
	return s.config.VoiceID
}

// buildPayload constructs the API request payload.
func (s *Supertone) buildPayload(text string, opts SpeechOptions) map[string]interface{} {
	style := opts.Style
	if style == "" {
		style = StyleNeutral
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 1
	}
	return map[string]interface{}{
		"text":          text,
		"language":      s.config.Language,
		"style":         style,
		"model":         s.config.ModelID,
		"output_format": s.config.OutputFormat,
		"voice_settings": map[string]interface{}{
			"pitch_shift":    opts.PitchShift,
			"pitch_variance": opts.PitchVariance,
			"speed":          speed,
		},
	}
}

// doWithRetry performs the request with retry logic.
func (s *Supertone) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, WrapError(providerSupertone, err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req.Body = io.NopCloser(bytes.NewReader(body))

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = WrapError(providerSupertone, err)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			lastErr = s.parseError(resp)
			s.logger.Warn("retrying request",
				"attempt", attempt+1,
				"status", resp.StatusCode,
			)
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

// parseError reads and parses an error response.
func (s *Supertone) parseError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	message := string(body)
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			message = errResp.Message
		} else if errResp.Error != "" {
			message = errResp.Error
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerSupertone,
	}
}

// Verify Supertone implements Provider at compile time.
var _ Provider = (*Supertone)(nil)
