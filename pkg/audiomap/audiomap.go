// Package audiomap maps known user phrases to pre-rendered audio replies.
//
// When an utterance matches a mapping the session plays the recorded file
// instead of calling the LLM and synthesizing speech. Matching is exact
// first, then partial in either direction, over lower-cased trimmed phrases.
package audiomap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one canned reply: an audio file plus the text it speaks.
type Entry struct {
	AudioPath    string
	ResponseText string
}

// Mapping resolves user phrases to canned replies.
type Mapping struct {
	entries map[string]Entry
	order   []string
}

type fileFormat struct {
	AudioMappings []struct {
		AudioFile    string   `json:"audio_file"`
		ResponseText string   `json:"response_text"`
		UserInput    []string `json:"user_input"`
	} `json:"audio_mappings"`
}

// Load reads a mapping file. Audio file names are resolved relative to the
// mapping file's directory unless absolute. Entries whose audio file does
// not exist are kept; Find skips them at lookup time.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audiomap: read %s: %w", path, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("audiomap: parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	m := &Mapping{entries: make(map[string]Entry)}
	for _, raw := range ff.AudioMappings {
		audioPath := raw.AudioFile
		if audioPath != "" && !filepath.IsAbs(audioPath) {
			audioPath = filepath.Join(dir, audioPath)
		}
		entry := Entry{AudioPath: audioPath, ResponseText: raw.ResponseText}
		for _, phrase := range raw.UserInput {
			key := normalize(phrase)
			if key == "" {
				continue
			}
			if _, exists := m.entries[key]; !exists {
				m.order = append(m.order, key)
			}
			m.entries[key] = entry
		}
	}
	return m, nil
}

// Len returns the number of mapped phrases.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Find returns the canned reply for text, trying an exact phrase match
// first and then partial containment in either direction. ok is false when
// nothing matches or the matched audio file is missing.
func (m *Mapping) Find(text string) (Entry, bool) {
	if m == nil || len(m.entries) == 0 {
		return Entry{}, false
	}
	key := normalize(text)
	if key == "" {
		return Entry{}, false
	}

	if entry, ok := m.entries[key]; ok && playable(entry) {
		return entry, true
	}

	for _, phrase := range m.order {
		if strings.Contains(key, phrase) || strings.Contains(phrase, key) {
			if entry := m.entries[phrase]; playable(entry) {
				return entry, true
			}
		}
	}
	return Entry{}, false
}

func playable(e Entry) bool {
	if e.AudioPath == "" {
		return false
	}
	_, err := os.Stat(e.AudioPath)
	return err == nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
