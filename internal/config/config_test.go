package config

import (
	"testing"
	"time"
)

func TestParseTriggerWords(t *testing.T) {
	t.Run("comma separated", func(t *testing.T) {
		words := ParseTriggerWords("치피, Chipi ,로봇")
		want := []string{"치피", "chipi", "로봇"}
		if len(words) != len(want) {
			t.Fatalf("expected %d words, got %v", len(want), words)
		}
		for i := range want {
			if words[i] != want[i] {
				t.Errorf("word %d: expected %q, got %q", i, want[i], words[i])
			}
		}
	})

	t.Run("space separated", func(t *testing.T) {
		words := ParseTriggerWords("치피 chipi")
		if len(words) != 2 || words[0] != "치피" || words[1] != "chipi" {
			t.Errorf("unexpected words: %v", words)
		}
	})

	t.Run("empty falls back to default", func(t *testing.T) {
		words := ParseTriggerWords("  ,  , ")
		if len(words) != 1 || words[0] != DefaultTriggerWord {
			t.Errorf("expected default trigger word, got %v", words)
		}
	})
}

func TestEnvSeconds(t *testing.T) {
	t.Setenv("SLEEP_TIMEOUT", "2.5")
	if got := envSeconds("SLEEP_TIMEOUT", time.Second); got != 2500*time.Millisecond {
		t.Errorf("expected 2.5s, got %v", got)
	}

	t.Setenv("SLEEP_TIMEOUT", "garbage")
	if got := envSeconds("SLEEP_TIMEOUT", 10*time.Second); got != 10*time.Second {
		t.Errorf("expected default on parse failure, got %v", got)
	}
}

func TestFromEnvRequiresCredentials(t *testing.T) {
	t.Setenv("AZURE_SPEECH_API_KEY", "")
	t.Setenv("GOOGLE_SPEECH_API_KEY", "")
	t.Setenv("SUPERTON_API_KEY", "key")
	t.Setenv("SUPERTON_VOICE_ID", "voice")
	t.Setenv("LLM_API_KEY", "llm")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for missing STT credentials")
	}

	t.Setenv("AZURE_SPEECH_API_KEY", "speech")
	t.Setenv("SUPERTON_API_KEY", "")
	t.Setenv("SUPERTON_VOICE_ID", "")
	t.Setenv("LLM_API_KEY", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for missing TTS credentials")
	}

	t.Setenv("SUPERTON_API_KEY", "key")
	t.Setenv("SUPERTON_VOICE_ID", "voice")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for missing LLM credentials")
	}

	t.Setenv("LLM_API_KEY", "llm")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SleepTimeout != 10*time.Second {
		t.Errorf("expected default sleep timeout, got %v", cfg.SleepTimeout)
	}
	if len(cfg.TriggerWords) == 0 {
		t.Error("expected non-empty trigger words")
	}
}
