package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
	"github.com/do0ori/chytonpide-embedded/pkg/dispatch"
	"github.com/do0ori/chytonpide-embedded/pkg/inference"
	"github.com/do0ori/chytonpide-embedded/pkg/session"
	"github.com/do0ori/chytonpide-embedded/pkg/stt"
	"github.com/do0ori/chytonpide-embedded/pkg/tts"
	"github.com/do0ori/chytonpide-embedded/pkg/vad"
)

// scriptAmplitudes produces n chunks of the given level.
func scriptAmplitudes(level float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

func TestRunnerEndToEnd(t *testing.T) {
	capture := audioio.DefaultConfig()

	// Two utterances separated by silence: a greeting and an exit command.
	var amplitudes []float64
	amplitudes = append(amplitudes, scriptAmplitudes(0.0, 3)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.5, 6)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.0, 6)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.5, 6)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.0, 6)...)
	source := audioio.NewScriptedSource(capture, amplitudes)

	recognizer := &stt.MockProvider{Transcripts: []string{"치피야 안녕", "치피 그만"}}
	llm := &inference.MockProvider{Replies: []string{"안녕하세요!"}}
	speech := &tts.MockProvider{}
	dispatcher := dispatch.New(speech)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		dispatcher.Shutdown(ctx)
	}()

	sess := session.New(session.Config{
		TriggerWords:   []string{"치피"},
		UseTriggerWord: true,
		STTLanguage:    "ko-KR",
	}, llm, dispatcher)

	segmenter := vad.New(vad.DefaultConfig(), capture)
	runner := session.NewRunner(sess, source, segmenter, recognizer)

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if recognizer.Calls != 2 {
		t.Fatalf("recognized %d utterances, want 2", recognizer.Calls)
	}
	spoken := speech.Spoken()
	if len(spoken) != 2 || spoken[0] != "안녕하세요!" || spoken[1] != session.Farewell {
		t.Fatalf("spoken = %v", spoken)
	}
	if llm.CallCount() != 1 {
		t.Fatalf("llm called %d times, want 1", llm.CallCount())
	}
}

func TestRunnerSkipsFailedRecognition(t *testing.T) {
	capture := audioio.DefaultConfig()

	var amplitudes []float64
	amplitudes = append(amplitudes, scriptAmplitudes(0.5, 6)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.0, 6)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.5, 6)...)
	amplitudes = append(amplitudes, scriptAmplitudes(0.0, 6)...)
	source := audioio.NewScriptedSource(capture, amplitudes)

	// First utterance recognizes to nothing, second exits the loop.
	recognizer := &stt.MockProvider{Transcripts: []string{"", "치피 종료"}}
	llm := &inference.MockProvider{}
	speech := &tts.MockProvider{}
	dispatcher := dispatch.New(speech)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		dispatcher.Shutdown(ctx)
	}()

	sess := session.New(session.Config{
		TriggerWords:   []string{"치피"},
		UseTriggerWord: true,
	}, llm, dispatcher)

	runner := session.NewRunner(sess, source, vad.New(vad.DefaultConfig(), capture), recognizer)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if llm.CallCount() != 0 {
		t.Fatalf("llm called %d times for empty recognition", llm.CallCount())
	}
	if got := speech.Spoken(); len(got) != 1 || got[0] != session.Farewell {
		t.Fatalf("spoken = %v", got)
	}
}

func TestRunnerCancellation(t *testing.T) {
	capture := audioio.DefaultConfig()
	source := audioio.NewScriptedSource(capture, scriptAmplitudes(0.0, 3))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dispatcher := dispatch.New(&tts.MockProvider{})
	sess := session.New(session.Config{UseTriggerWord: true}, &inference.MockProvider{}, dispatcher)
	runner := session.NewRunner(sess, source, vad.New(vad.DefaultConfig(), capture), &stt.MockProvider{})

	if err := runner.Run(ctx); err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
}
