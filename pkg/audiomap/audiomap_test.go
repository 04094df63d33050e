package audiomap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/do0ori/chytonpide-embedded/pkg/audiomap"
)

func writeMapping(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "hello.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	mappingJSON := `{
		"audio_mappings": [
			{
				"audio_file": "hello.wav",
				"response_text": "안녕! 만나서 반가워.",
				"user_input": ["안녕", "안녕하세요"]
			},
			{
				"audio_file": "missing.wav",
				"response_text": "잘 지냈어?",
				"user_input": ["잘 지냈니"]
			}
		]
	}`
	path := filepath.Join(dir, "audio_mapping.json")
	if err := os.WriteFile(path, []byte(mappingJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndFind(t *testing.T) {
	m, err := audiomap.Load(writeMapping(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 phrases, got %d", m.Len())
	}

	t.Run("exact match", func(t *testing.T) {
		entry, ok := m.Find("안녕")
		if !ok {
			t.Fatal("expected match")
		}
		if entry.ResponseText != "안녕! 만나서 반가워." {
			t.Errorf("unexpected response text: %q", entry.ResponseText)
		}
		if filepath.Base(entry.AudioPath) != "hello.wav" {
			t.Errorf("unexpected audio path: %q", entry.AudioPath)
		}
	})

	t.Run("partial match", func(t *testing.T) {
		if _, ok := m.Find("치피 안녕 반가워"); !ok {
			t.Error("expected partial match on contained phrase")
		}
	})

	t.Run("case and whitespace normalized", func(t *testing.T) {
		if _, ok := m.Find("  안녕  "); !ok {
			t.Error("expected normalized match")
		}
	})

	t.Run("missing audio file is skipped", func(t *testing.T) {
		if _, ok := m.Find("잘 지냈니"); ok {
			t.Error("expected no match when audio file is absent")
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, ok := m.Find("오늘 날씨 어때"); ok {
			t.Error("unexpected match")
		}
	})
}

func TestNilMapping(t *testing.T) {
	var m *audiomap.Mapping
	if m.Len() != 0 {
		t.Error("nil mapping should be empty")
	}
	if _, ok := m.Find("안녕"); ok {
		t.Error("nil mapping should never match")
	}
}
