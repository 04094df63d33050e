package stt

import (
	"encoding/json"
	"os"
	"strings"
)

// hintSuffixes are the vocative particles users attach to wake words.
var hintSuffixes = []string{"야", "아", "이"}

// hintPhrases are short commands commonly spoken right after a wake word.
var hintPhrases = []string{"야 안녕", "야 뭐해", "야 잘있어"}

// BuildHints assembles phrase hints from the wake words plus an optional
// common-phrases file. Hints only help Korean recognition; other languages
// get none.
func BuildHints(language string, triggerWords []string, phrasesFile string) Hints {
	if !strings.HasPrefix(strings.ToLower(language), "ko") {
		return nil
	}

	seen := make(map[string]bool)
	var hints Hints
	add := func(phrase string) {
		phrase = strings.TrimSpace(phrase)
		if phrase == "" || seen[phrase] {
			return
		}
		seen[phrase] = true
		hints = append(hints, phrase)
	}

	for _, word := range triggerWords {
		add(word)
		for _, suffix := range hintSuffixes {
			add(word + suffix)
		}
		for _, phrase := range hintPhrases {
			add(word + phrase)
		}
	}

	for _, phrase := range loadCommonPhrases(phrasesFile) {
		add(phrase)
	}

	return hints
}

// loadCommonPhrases reads a {"common_phrases": [...]} JSON file.
// A missing or malformed file yields no phrases.
func loadCommonPhrases(path string) []string {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc struct {
		CommonPhrases []string `json:"common_phrases"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.CommonPhrases
}
