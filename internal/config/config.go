// Package config provides environment configuration for chipi commands.
//
// All assistant settings come from environment variables, optionally seeded
// from a .env file. Missing required credentials are a startup error; the
// session loop never starts half-configured.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/do0ori/chytonpide-embedded/pkg/keyword"
)

// DefaultTriggerWord is used when TRIGGER_WORDS yields no usable phrases.
const DefaultTriggerWord = keyword.DefaultTrigger

// Assistant holds the full configuration of one assistant instance.
type Assistant struct {
	// Wake-word gating
	TriggerWords   []string
	UseTriggerWord bool
	SleepTimeout   time.Duration

	// Speech
	STTLanguage  string
	STTAPIKey    string
	STTEndpoint  string
	GoogleSTTKey string
	HintsFile    string
	TTSLanguage string
	TTSVoiceID  string
	TTSAPIKey   string

	// LLM (OpenAI-compatible; Azure mode when AzureEndpoint is set)
	LLMBaseURL      string
	LLMAPIKey       string
	LLMModel        string
	AzureEndpoint   string
	AzureAPIVersion string
	SystemPrompt    string

	// Device relay
	DeviceSerial string
	ServerURL    string

	// Local files
	HistoryFile  string
	AudioMapFile string
	ServoScript  string
	IntroFile    string
}

// Load seeds the environment from a .env file if one exists.
// A missing file is not an error; explicit environment always wins.
func Load(path string) {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}

// FromEnv builds an Assistant config from the environment.
// It returns an error for missing required credentials so callers can fail
// fast before touching the audio device.
func FromEnv() (*Assistant, error) {
	cfg := &Assistant{
		TriggerWords:   ParseTriggerWords(os.Getenv("TRIGGER_WORDS")),
		UseTriggerWord: envBool("USE_TRIGGER_WORD", true),
		SleepTimeout:   envSeconds("SLEEP_TIMEOUT", 10*time.Second),

		STTLanguage:  envDefault("STT_LANGUAGE", "ko-KR"),
		STTAPIKey:    os.Getenv("AZURE_SPEECH_API_KEY"),
		STTEndpoint:  speechEndpoint(),
		GoogleSTTKey: os.Getenv("GOOGLE_SPEECH_API_KEY"),
		HintsFile:    os.Getenv("COMMON_PHRASES_FILE"),
		TTSLanguage: envDefault("TTS_LANGUAGE", "ko"),
		TTSVoiceID:  os.Getenv("SUPERTON_VOICE_ID"),
		TTSAPIKey:   os.Getenv("SUPERTON_API_KEY"),

		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:       os.Getenv("LLM_API_KEY"),
		LLMModel:        envDefault("LLM_MODEL", "gpt-4o"),
		AzureEndpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
		AzureAPIVersion: envDefault("AZURE_OPENAI_API_VERSION", "2024-12-01-preview"),
		SystemPrompt:    envDefault("SYSTEM_PROMPT_CHIPI", "You are a helpful assistant. Respond in Korean."),

		DeviceSerial: os.Getenv("DEVICE_SERIAL"),
		ServerURL:    envDefault("SERVER_URL", "http://localhost:8000"),

		HistoryFile:  envDefault("HISTORY_FILE", "memory.txt"),
		AudioMapFile: os.Getenv("AUDIO_MAP_FILE"),
		ServoScript:  os.Getenv("SERVO_SCRIPT"),
		IntroFile:    os.Getenv("INTRO_AUDIO_FILE"),
	}

	if cfg.AzureEndpoint != "" {
		cfg.LLMAPIKey = firstNonEmpty(os.Getenv("AZURE_OPENAI_API_KEY"), cfg.LLMAPIKey)
		cfg.LLMModel = firstNonEmpty(os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME"), cfg.LLMModel)
	}

	if cfg.STTAPIKey == "" && cfg.GoogleSTTKey == "" {
		return nil, fmt.Errorf("config: AZURE_SPEECH_API_KEY or GOOGLE_SPEECH_API_KEY is required")
	}
	if cfg.TTSAPIKey == "" || cfg.TTSVoiceID == "" {
		return nil, fmt.Errorf("config: SUPERTON_API_KEY and SUPERTON_VOICE_ID are required")
	}
	if cfg.AzureEndpoint == "" && cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("config: LLM_API_KEY (or AZURE_OPENAI_ENDPOINT) is required")
	}

	return cfg, nil
}

// ParseTriggerWords splits a comma- or space-separated wake-phrase list,
// lower-cases each phrase and drops empties. An empty result falls back to
// the single default trigger word.
func ParseTriggerWords(raw string) []string {
	raw = strings.TrimSpace(raw)

	var parts []string
	switch {
	case strings.Contains(raw, ","):
		parts = strings.Split(raw, ",")
	default:
		parts = strings.Fields(raw)
	}

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		if w := strings.ToLower(strings.TrimSpace(p)); w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		words = []string{DefaultTriggerWord}
	}
	return words
}

// speechEndpoint resolves the Azure Speech endpoint, deriving it from
// AZURE_SPEECH_REGION when no explicit endpoint is set.
func speechEndpoint() string {
	if ep := os.Getenv("AZURE_SPEECH_ENDPOINT"); ep != "" {
		return strings.TrimRight(ep, "/")
	}
	if region := os.Getenv("AZURE_SPEECH_REGION"); region != "" {
		return fmt.Sprintf("https://%s.stt.speech.microsoft.com", region)
	}
	return ""
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
