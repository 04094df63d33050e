// Package session implements the Sleep/Wake conversation state machine.
//
// A session owns the foreground turn loop: listen, recognize, decide,
// dispatch. In SLEEP it ignores everything except its wake words; in WAKE
// it forwards speech to the LLM and reverts to SLEEP after a configurable
// stretch of inactivity. All mutable session state is touched only by the
// single goroutine running the loop.
package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/audiomap"
	"github.com/do0ori/chytonpide-embedded/pkg/dispatch"
	"github.com/do0ori/chytonpide-embedded/pkg/history"
	"github.com/do0ori/chytonpide-embedded/pkg/inference"
	"github.com/do0ori/chytonpide-embedded/pkg/keyword"
)

// Mode is the session's gating state.
type Mode string

const (
	// ModeSleep ignores everything but wake words.
	ModeSleep Mode = "SLEEP"

	// ModeWake forwards speech to the LLM.
	ModeWake Mode = "WAKE"
)

// Fixed spoken responses. The assistant speaks Korean; these are the only
// phrases not produced by the LLM or the audio mapping.
const (
	AckGoAhead = "네, 말씀해주세요."
	Farewell   = "안녕히 가세요!"
	Apology    = "미안, 다시 말해줄래?"
)

// DefaultSleepTimeout is the WAKE inactivity budget before auto-sleep.
const DefaultSleepTimeout = 10 * time.Second

// OutcomeKind classifies what one turn did.
type OutcomeKind int

const (
	// OutcomeIgnored means the text was discarded while sleeping.
	OutcomeIgnored OutcomeKind = iota

	// OutcomeAcknowledged means a bare wake word got the fixed go-ahead.
	OutcomeAcknowledged

	// OutcomeResponded means a reply was dispatched.
	OutcomeResponded

	// OutcomeSuppressed means the reply duplicated the previous one and
	// produced no audio.
	OutcomeSuppressed

	// OutcomeApologized means the LLM failed and the fixed apology was
	// spoken instead.
	OutcomeApologized

	// OutcomeSlept means a sleep command put the session back to SLEEP.
	OutcomeSlept

	// OutcomeExit means an exit command ended the session.
	OutcomeExit
)

// Outcome reports what one turn did.
type Outcome struct {
	Kind  OutcomeKind
	Reply string
}

// Config holds the session's behavioral knobs.
type Config struct {
	// TriggerWords are the wake phrases. Empty falls back to the matcher's
	// default behavior (the caller should normally pass at least one).
	TriggerWords []string

	// UseTriggerWord gates the session behind wake-word detection. When
	// false the session starts in WAKE and never strips triggers.
	UseTriggerWord bool

	// SleepTimeout is the WAKE inactivity budget.
	SleepTimeout time.Duration

	// STTLanguage is passed to recognition (e.g. "ko-KR").
	STTLanguage string

	// SystemPrompt seeds the LLM conversation each turn.
	SystemPrompt string

	// HistoryLimit bounds persisted conversation messages. Zero keeps all.
	HistoryLimit int
}

// Session is the conversation state machine.
type Session struct {
	cfg        Config
	matcher    *keyword.Matcher
	llm        inference.Provider
	dispatcher *dispatch.Dispatcher
	store      *history.Store
	audioMap   *audiomap.Mapping
	context    ContextBuilder
	logger     *slog.Logger
	now        func() time.Time

	mode            Mode
	lastInteraction time.Time
	lastResponse    string
	messages        []inference.Message
}

// Option configures a Session.
type Option func(*Session)

// WithHistory enables durable conversation history.
func WithHistory(store *history.Store) Option {
	return func(s *Session) { s.store = store }
}

// WithAudioMap enables the pre-rendered phrase short-circuit.
func WithAudioMap(m *audiomap.Mapping) Option {
	return func(s *Session) { s.audioMap = m }
}

// WithContextBuilder augments the system prompt with live device context.
func WithContextBuilder(b ContextBuilder) Option {
	return func(s *Session) { s.context = b }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New creates a Session. The LLM and dispatcher are required; everything
// else is optional capability.
func New(cfg Config, llm inference.Provider, dispatcher *dispatch.Dispatcher, opts ...Option) *Session {
	if cfg.SleepTimeout <= 0 {
		cfg.SleepTimeout = DefaultSleepTimeout
	}

	s := &Session{
		cfg:        cfg,
		matcher:    keyword.NewMatcher(cfg.TriggerWords),
		llm:        llm,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		now:        time.Now,
		mode:       ModeWake,
	}
	if cfg.UseTriggerWord {
		s.mode = ModeSleep
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")

	s.loadHistory()
	return s
}

// Mode returns the current gating state.
func (s *Session) Mode() Mode { return s.mode }

// LastInteraction returns the last WAKE activity time; zero while asleep.
func (s *Session) LastInteraction() time.Time { return s.lastInteraction }

// LastResponse returns the last reply actually spoken.
func (s *Session) LastResponse() string { return s.lastResponse }

// CheckTimeout reverts WAKE to SLEEP when the inactivity budget is spent.
// It belongs at the top of each listening cycle, never mid-turn, so a long
// reply cannot trigger a spurious sleep transition. Returns true when the
// session just went to sleep.
func (s *Session) CheckTimeout() bool {
	if s.mode != ModeWake || s.lastInteraction.IsZero() {
		return false
	}
	if s.now().Sub(s.lastInteraction) < s.cfg.SleepTimeout {
		return false
	}
	s.logger.Info("wake timeout, going to sleep", "timeout", s.cfg.SleepTimeout)
	s.mode = ModeSleep
	s.lastInteraction = time.Time{}
	return true
}

// HandleText runs one turn of the state machine over recognized text.
func (s *Session) HandleText(ctx context.Context, text string) Outcome {
	text = strings.TrimSpace(text)
	if text == "" {
		return Outcome{Kind: OutcomeIgnored}
	}

	if s.mode == ModeSleep {
		if s.cfg.UseTriggerWord {
			if !s.matcher.Contains(text) {
				s.logger.Debug("no wake word, staying asleep")
				return Outcome{Kind: OutcomeIgnored}
			}

			s.logger.Info("wake word detected")
			s.mode = ModeWake
			s.lastInteraction = s.now()

			stripped := s.matcher.Strip(text)
			if stripped == "" {
				s.dispatcher.Say(ctx, AckGoAhead)
				return Outcome{Kind: OutcomeAcknowledged, Reply: AckGoAhead}
			}
			text = stripped
		} else {
			// Gating disabled: any speech wakes the session untouched.
			s.mode = ModeWake
			s.lastInteraction = s.now()
		}
	}

	lower := strings.ToLower(text)

	if keyword.IsExitCommand(lower) {
		s.logger.Info("exit command received")
		s.dispatcher.Say(ctx, Farewell)
		return Outcome{Kind: OutcomeExit, Reply: Farewell}
	}

	if keyword.IsSleepCommand(lower) {
		s.logger.Info("sleep command received")
		s.mode = ModeSleep
		s.lastInteraction = time.Time{}
		return Outcome{Kind: OutcomeSlept}
	}

	// Bump before dispatch so the blocking reply cannot eat the budget.
	s.lastInteraction = s.now()

	if s.audioMap != nil {
		if entry, ok := s.audioMap.Find(text); ok {
			s.logger.Info("audio mapping matched", "audio", entry.AudioPath)
			s.dispatcher.DispatchMapped(ctx, text, entry)
			s.completeTurn(text, entry.ResponseText)
			return Outcome{Kind: OutcomeResponded, Reply: entry.ResponseText}
		}
	}

	reply, err := s.think(ctx, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		if err != nil {
			s.logger.Error("llm failed", "error", err)
		}
		s.dispatcher.Say(ctx, Apology)
		return Outcome{Kind: OutcomeApologized, Reply: Apology}
	}

	if reply == s.lastResponse {
		s.logger.Debug("duplicate reply, skipping speech")
		return Outcome{Kind: OutcomeSuppressed, Reply: reply}
	}

	s.dispatcher.Dispatch(ctx, text, reply)
	s.completeTurn(text, reply)
	return Outcome{Kind: OutcomeResponded, Reply: reply}
}

// completeTurn records a spoken (or played) reply: bookkeeping, history,
// and the post-dispatch activity bump.
func (s *Session) completeTurn(userText, reply string) {
	s.lastResponse = reply
	s.lastInteraction = s.now()

	s.messages = append(s.messages,
		inference.NewUserMessage(userText),
		inference.NewAssistantMessage(reply),
	)
	s.saveHistory()
}

// think asks the LLM for a reply with the full conversation so far.
func (s *Session) think(ctx context.Context, userText string) (string, error) {
	prompt := s.cfg.SystemPrompt
	if s.context != nil {
		prompt = s.context.Augment(ctx, prompt, userText)
	}

	msgs := make([]inference.Message, 0, len(s.messages)+2)
	msgs = append(msgs, inference.NewSystemMessage(prompt))
	msgs = append(msgs, s.messages...)
	msgs = append(msgs, inference.NewUserMessage(userText))

	resp, err := s.llm.Chat(ctx, &inference.ChatRequest{Messages: msgs})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

func (s *Session) loadHistory() {
	if s.store == nil {
		return
	}
	stored, err := s.store.Load()
	if err != nil {
		s.logger.Warn("failed to load history", "error", err)
		return
	}
	for _, m := range stored {
		s.messages = append(s.messages, inference.Message{
			Role:    inference.Role(m.Role),
			Content: m.Content,
		})
	}
}

func (s *Session) saveHistory() {
	if s.store == nil {
		return
	}
	if s.cfg.HistoryLimit > 0 && len(s.messages) > s.cfg.HistoryLimit {
		s.messages = s.messages[len(s.messages)-s.cfg.HistoryLimit:]
	}
	out := make([]history.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = history.Message{Role: history.Role(m.Role), Content: m.Content}
	}
	if err := s.store.Save(out); err != nil {
		s.logger.Warn("failed to save history", "error", err)
	}
}
