package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	providerGoogle  = "google"
	googleSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"
)

// GoogleSpeech implements Provider for the Google Cloud Speech-to-Text
// REST API. Unlike the Azure endpoint it accepts phrase hints, which
// noticeably improve recognition of short wake-word utterances.
type GoogleSpeech struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewGoogleSpeech creates a new Google Cloud STT provider using API key
// authentication.
func NewGoogleSpeech(opts ...Option) (*GoogleSpeech, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = googleSpeechURL
	}

	return &GoogleSpeech{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "stt.google"),
		baseURL: baseURL,
	}, nil
}

type googleRecognitionConfig struct {
	Encoding        string                `json:"encoding"`
	SampleRateHertz int                   `json:"sampleRateHertz"`
	LanguageCode    string                `json:"languageCode"`
	SpeechContexts  []googleSpeechContext `json:"speechContexts,omitempty"`
}

type googleSpeechContext struct {
	Phrases []string `json:"phrases"`
}

// Recognize transcribes raw 16 kHz mono PCM16 audio.
func (g *GoogleSpeech) Recognize(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}

	reqBody := struct {
		Config googleRecognitionConfig `json:"config"`
		Audio  struct {
			Content string `json:"content"`
		} `json:"audio"`
	}{
		Config: googleRecognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: g.config.SampleRate,
			LanguageCode:    language,
		},
	}
	if len(g.config.Hints) > 0 {
		reqBody.Config.SpeechContexts = []googleSpeechContext{{Phrases: g.config.Hints}}
	}
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(audio)

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", WrapError(providerGoogle, fmt.Errorf("marshal request: %w", err))
	}

	u := g.baseURL + "?key=" + url.QueryEscape(g.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(body))
	if err != nil {
		return "", WrapError(providerGoogle, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", WrapError(providerGoogle, fmt.Errorf("recognize request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(raw),
			Provider:   providerGoogle,
		}
	}

	var result struct {
		Results []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", WrapError(providerGoogle, fmt.Errorf("decode response: %w", err))
	}

	var sb strings.Builder
	for _, r := range result.Results {
		if len(r.Alternatives) > 0 {
			sb.WriteString(r.Alternatives[0].Transcript)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text != "" {
		g.logger.Debug("recognized", "chars", len([]rune(text)))
	}
	return text, nil
}

// Close releases resources held by the provider.
func (g *GoogleSpeech) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

// Verify GoogleSpeech implements Provider at compile time.
var _ Provider = (*GoogleSpeech)(nil)
