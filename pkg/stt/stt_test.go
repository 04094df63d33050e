package stt_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/do0ori/chytonpide-embedded/pkg/stt"
)

func TestAzureSpeechRecognize(t *testing.T) {
	var gotKey, gotContentType, gotLanguage string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotContentType = r.Header.Get("Content-Type")
		gotLanguage = r.URL.Query().Get("language")
		json.NewEncoder(w).Encode(map[string]string{
			"RecognitionStatus": "Success",
			"DisplayText":       "치피야 안녕",
		})
	}))
	defer srv.Close()

	provider, err := stt.NewAzureSpeech(srv.URL, stt.WithAPIKey("azure-key"))
	if err != nil {
		t.Fatalf("NewAzureSpeech() error = %v", err)
	}
	defer provider.Close()

	text, err := provider.Recognize(context.Background(), []byte{0, 0, 1, 1}, "ko-KR")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "치피야 안녕" {
		t.Errorf("Recognize() = %q, want DisplayText", text)
	}
	if gotKey != "azure-key" {
		t.Errorf("subscription key = %q", gotKey)
	}
	if gotContentType != "audio/wav; codecs=audio/pcm; samplerate=16000; channels=1" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotLanguage != "ko-KR" {
		t.Errorf("language = %q, want ko-KR", gotLanguage)
	}
}

func TestAzureSpeechRecognizeNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"RecognitionStatus": "NoMatch"})
	}))
	defer srv.Close()

	provider, err := stt.NewAzureSpeech(srv.URL, stt.WithAPIKey("key"))
	if err != nil {
		t.Fatalf("NewAzureSpeech() error = %v", err)
	}

	text, err := provider.Recognize(context.Background(), []byte{1}, "ko-KR")
	if err != nil {
		t.Fatalf("Recognize() error = %v, NoMatch must not be an error", err)
	}
	if text != "" {
		t.Errorf("Recognize() = %q, want empty transcript", text)
	}
}

func TestAzureSpeechRecognizeAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	provider, err := stt.NewAzureSpeech(srv.URL, stt.WithAPIKey("bad"))
	if err != nil {
		t.Fatalf("NewAzureSpeech() error = %v", err)
	}

	_, err = provider.Recognize(context.Background(), []byte{1}, "ko-KR")
	var apiErr *stt.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
		t.Errorf("Recognize() error = %v, want 401 APIError", err)
	}
}

func TestAzureSpeechEmptyAudio(t *testing.T) {
	provider, err := stt.NewAzureSpeech("https://example.invalid", stt.WithAPIKey("key"))
	if err != nil {
		t.Fatalf("NewAzureSpeech() error = %v", err)
	}
	if _, err := provider.Recognize(context.Background(), nil, "ko-KR"); !errors.Is(err, stt.ErrNoAudio) {
		t.Errorf("Recognize(nil) error = %v, want ErrNoAudio", err)
	}
}

func TestNewAzureSpeechValidation(t *testing.T) {
	if _, err := stt.NewAzureSpeech("https://example.invalid"); !errors.Is(err, stt.ErrNoAPIKey) {
		t.Errorf("error = %v, want ErrNoAPIKey", err)
	}
	if _, err := stt.NewAzureSpeech("", stt.WithAPIKey("key")); !errors.Is(err, stt.ErrNoEndpoint) {
		t.Errorf("error = %v, want ErrNoEndpoint", err)
	}
}

func TestGoogleSpeechRecognize(t *testing.T) {
	var gotBody struct {
		Config struct {
			Encoding        string `json:"encoding"`
			SampleRateHertz int    `json:"sampleRateHertz"`
			LanguageCode    string `json:"languageCode"`
			SpeechContexts  []struct {
				Phrases []string `json:"phrases"`
			} `json:"speechContexts"`
		} `json:"config"`
		Audio struct {
			Content string `json:"content"`
		} `json:"audio"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"불 켜줘"}]}]}`))
	}))
	defer srv.Close()

	provider, err := stt.NewGoogleSpeech(
		stt.WithAPIKey("g-key"),
		stt.WithBaseURL(srv.URL),
		stt.WithHints(stt.Hints{"치피", "치피야"}),
	)
	if err != nil {
		t.Fatalf("NewGoogleSpeech() error = %v", err)
	}
	defer provider.Close()

	text, err := provider.Recognize(context.Background(), []byte{0, 1}, "ko-KR")
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if text != "불 켜줘" {
		t.Errorf("Recognize() = %q", text)
	}
	if gotBody.Config.Encoding != "LINEAR16" || gotBody.Config.SampleRateHertz != 16000 {
		t.Errorf("config = %+v, want LINEAR16 at 16000", gotBody.Config)
	}
	if len(gotBody.Config.SpeechContexts) != 1 || len(gotBody.Config.SpeechContexts[0].Phrases) != 2 {
		t.Errorf("speechContexts = %+v, want the configured hints", gotBody.Config.SpeechContexts)
	}
	if gotBody.Audio.Content == "" {
		t.Error("audio content missing from request")
	}
}

func TestBuildHints(t *testing.T) {
	t.Run("korean triggers expand", func(t *testing.T) {
		hints := stt.BuildHints("ko-KR", []string{"치피"}, "")
		want := map[string]bool{"치피": true, "치피야": true, "치피아": true, "치피이": true, "치피야 안녕": true}
		got := make(map[string]bool, len(hints))
		for _, h := range hints {
			got[h] = true
		}
		for phrase := range want {
			if !got[phrase] {
				t.Errorf("hints missing %q", phrase)
			}
		}
	})

	t.Run("non-korean yields none", func(t *testing.T) {
		if hints := stt.BuildHints("en-US", []string{"chipi"}, ""); hints != nil {
			t.Errorf("BuildHints(en-US) = %v, want nil", hints)
		}
	})

	t.Run("phrases file merged without duplicates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "voice_hints.json")
		os.WriteFile(path, []byte(`{"common_phrases":["몇 시야","치피"]}`), 0o644)

		hints := stt.BuildHints("ko-KR", []string{"치피"}, path)
		count := 0
		hasPhrase := false
		for _, h := range hints {
			if h == "치피" {
				count++
			}
			if h == "몇 시야" {
				hasPhrase = true
			}
		}
		if count != 1 {
			t.Errorf("duplicate trigger appeared %d times", count)
		}
		if !hasPhrase {
			t.Error("common phrase from file missing")
		}
	})
}
