// Package history persists the conversation log between runs.
//
// The log is not authoritative state: the system prompt is rebuilt from
// configuration every run and never written to disk. Messages are stored one
// per line as "role:content" with embedded newlines collapsed to spaces.
package history

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Role identifies a message sender. The set is closed.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log.
type Message struct {
	Role    Role
	Content string
}

// Store is a flat-file conversation log.
type Store struct {
	path        string
	maxMessages int
}

// NewStore creates a store backed by the given file. maxMessages bounds how
// many of the most recent messages are kept on save; zero means unbounded.
func NewStore(path string, maxMessages int) *Store {
	return &Store{path: path, maxMessages: maxMessages}
}

// Load reads the persisted messages. A missing file yields an empty history.
// Each line is split on the first colon only, since content may itself
// contain colons.
func (s *Store) Load() ([]Message, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: open %s: %w", s.path, err)
	}
	defer f.Close()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		role, content, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		messages = append(messages, Message{
			Role:    Role(strings.TrimSpace(role)),
			Content: strings.TrimSpace(content),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("history: read %s: %w", s.path, err)
	}
	return messages, nil
}

// Save writes the log, excluding system messages and applying the
// message-count bound. The file is rewritten whole; the log is small.
func (s *Store) Save(messages []Message) error {
	persisted := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		persisted = append(persisted, m)
	}
	persisted = Truncate(persisted, s.maxMessages)

	var b strings.Builder
	for _, m := range persisted {
		content := strings.ReplaceAll(m.Content, "\n", " ")
		fmt.Fprintf(&b, "%s:%s\n", m.Role, content)
	}

	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("history: write %s: %w", s.path, err)
	}
	return nil
}

// Reset clears the persisted log.
func (s *Store) Reset() error {
	if err := os.WriteFile(s.path, nil, 0o644); err != nil {
		return fmt.Errorf("history: reset %s: %w", s.path, err)
	}
	return nil
}

// Truncate keeps the most recent messages up to limit. A non-positive limit
// leaves the history untouched.
func Truncate(messages []Message, limit int) []Message {
	if limit <= 0 || len(messages) <= limit {
		return messages
	}
	return messages[len(messages)-limit:]
}
