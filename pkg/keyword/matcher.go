// Package keyword implements the keyword tables and trigger-word matching
// used by the conversation session and the response dispatcher.
//
// Trigger matching is deliberately tolerant: short wake utterances come back
// from speech recognition acoustically degraded, so a trigger counts as
// present when it appears as a substring, as a prefix, or as a prefix
// followed by a Korean vocative particle. The substring rule over-matches
// longer tokens that merely contain the trigger; that behavior is kept
// as-observed pending product review.
package keyword

import "strings"

// DefaultTrigger is used when configuration yields no usable wake phrases;
// the trigger set is never empty.
const DefaultTrigger = "치피"

// VocativeSuffixes are the Korean vocative particles accepted after a
// trigger word, e.g. "치피야", "치피아".
var VocativeSuffixes = []string{"야", "아", "이", "여", "이야", "이여"}

// Matcher detects and strips configured wake phrases.
type Matcher struct {
	triggers []string
}

// NewMatcher creates a Matcher over an ordered set of normalized
// (lower-cased) trigger words. If no usable word remains after
// normalization, the matcher falls back to DefaultTrigger.
func NewMatcher(triggers []string) *Matcher {
	normalized := make([]string, 0, len(triggers))
	for _, t := range triggers {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		normalized = []string{DefaultTrigger}
	}
	return &Matcher{triggers: normalized}
}

// Triggers returns the normalized trigger words in order.
func (m *Matcher) Triggers() []string {
	return m.triggers
}

// Contains reports whether text contains any trigger word under the
// tolerant matching rules.
func (m *Matcher) Contains(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}

	for _, trigger := range m.triggers {
		if strings.Contains(text, trigger) {
			return true
		}
		if strings.HasPrefix(text, trigger) {
			return true
		}
		for _, suffix := range VocativeSuffixes {
			if strings.HasPrefix(text, trigger+suffix) {
				return true
			}
		}
	}
	return false
}

// Strip removes the first occurrence of each trigger word from text in a
// single pass and trims the result. Only the bare trigger is removed; a
// trailing vocative particle stays in place. Matching ignores case so a
// Latin trigger recognized as "CHIPI" is stripped too.
func (m *Matcher) Strip(text string) string {
	lower := strings.ToLower(text)
	for _, trigger := range m.triggers {
		idx := strings.Index(lower, trigger)
		if idx < 0 {
			continue
		}
		text = text[:idx] + text[idx+len(trigger):]
		lower = lower[:idx] + lower[idx+len(trigger):]
	}
	return strings.TrimSpace(text)
}

// containsAny reports whether lower-cased text contains any of the keywords.
func containsAny(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	text = strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
