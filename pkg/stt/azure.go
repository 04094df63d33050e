package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const providerAzure = "azure"

// azureRecognizePath is the conversation-mode recognition endpoint.
const azureRecognizePath = "/speech/recognition/conversation/cognitiveservices/v1"

// AzureSpeech implements Provider for the Azure Speech REST API.
//
// The REST API accepts raw WAV/PCM bodies up to 60 seconds, which covers
// single conversational turns. Phrase hints are not supported by this
// endpoint and are ignored.
type AzureSpeech struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewAzureSpeech creates a new Azure Speech STT provider.
// The endpoint is the regional base URL, e.g.
// https://koreacentral.stt.speech.microsoft.com.
func NewAzureSpeech(endpoint string, opts ...Option) (*AzureSpeech, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL
	}
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}

	return &AzureSpeech{
		config:  cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  cfg.Logger.With("component", "stt.azure"),
		baseURL: strings.TrimRight(endpoint, "/"),
	}, nil
}

// Recognize transcribes raw 16 kHz mono PCM16 audio.
func (a *AzureSpeech) Recognize(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) == 0 {
		return "", ErrNoAudio
	}

	u := a.baseURL + azureRecognizePath + "?language=" + url.QueryEscape(language)

	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(audio))
	if err != nil {
		return "", WrapError(providerAzure, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", a.config.APIKey)
	req.Header.Set("Content-Type", fmt.Sprintf(
		"audio/wav; codecs=audio/pcm; samplerate=%d; channels=%d",
		a.config.SampleRate, a.config.Channels,
	))
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", WrapError(providerAzure, fmt.Errorf("recognize request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Provider:   providerAzure,
		}
	}

	var result struct {
		RecognitionStatus string `json:"RecognitionStatus"`
		DisplayText       string `json:"DisplayText"`
		Text              string `json:"Text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", WrapError(providerAzure, fmt.Errorf("decode response: %w", err))
	}

	if result.RecognitionStatus != "" && result.RecognitionStatus != "Success" {
		// NoMatch, InitialSilenceTimeout etc. are "nothing said", not errors.
		a.logger.Debug("no recognition", "status", result.RecognitionStatus)
		return "", nil
	}

	text := strings.TrimSpace(result.DisplayText)
	if text == "" {
		text = strings.TrimSpace(result.Text)
	}
	if text != "" {
		a.logger.Debug("recognized", "chars", len([]rune(text)))
	}
	return text, nil
}

// Close releases resources held by the provider.
func (a *AzureSpeech) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// Verify AzureSpeech implements Provider at compile time.
var _ Provider = (*AzureSpeech)(nil)
