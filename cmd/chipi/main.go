// Command chipi runs the voice assistant: it listens on the microphone,
// segments speech, recognizes Korean, talks to the LLM and speaks replies
// while driving the pot's LED, LCD face and shaker servo.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/do0ori/chytonpide-embedded/internal/config"
	"github.com/do0ori/chytonpide-embedded/internal/log"
	"github.com/do0ori/chytonpide-embedded/pkg/actuator"
	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
	"github.com/do0ori/chytonpide-embedded/pkg/audiomap"
	"github.com/do0ori/chytonpide-embedded/pkg/dispatch"
	"github.com/do0ori/chytonpide-embedded/pkg/history"
	"github.com/do0ori/chytonpide-embedded/pkg/inference"
	"github.com/do0ori/chytonpide-embedded/pkg/session"
	"github.com/do0ori/chytonpide-embedded/pkg/stt"
	"github.com/do0ori/chytonpide-embedded/pkg/tts"
	"github.com/do0ori/chytonpide-embedded/pkg/vad"
)

const shutdownGrace = 5 * time.Second

func main() {
	voice := pflag.String("voice", "", "override the Supertone voice ID")
	noIndicator := pflag.Bool("no-indicator", false, "disable the listening indicator light")
	pflag.Parse()

	log.Init(os.Getenv("LOG_LEVEL"))
	logger := log.With("component", "cmd.chipi")

	config.Load("")
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *voice != "" {
		cfg.TTSVoiceID = *voice
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *noIndicator); err != nil && ctx.Err() == nil {
		logger.Error("assistant stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("goodbye")
}

func run(ctx context.Context, cfg *config.Assistant, noIndicator bool) error {
	logger := log.With("component", "cmd.chipi")

	player := audioio.NewSpeakerPlayer(log.L())

	speech, err := tts.NewSupertone(
		tts.WithAPIKey(cfg.TTSAPIKey),
		tts.WithVoice(cfg.TTSVoiceID),
		tts.WithLanguage(cfg.TTSLanguage),
		tts.WithPlayer(player),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		return fmt.Errorf("tts: %w", err)
	}
	defer speech.Close()

	recognizer, err := buildRecognizer(cfg)
	if err != nil {
		return fmt.Errorf("stt: %w", err)
	}
	defer recognizer.Close()

	llmOpts := []inference.Option{
		inference.WithAPIKey(cfg.LLMAPIKey),
		inference.WithModel(cfg.LLMModel),
		inference.WithLogger(log.L()),
	}
	if cfg.AzureEndpoint != "" {
		llmOpts = append(llmOpts, inference.WithAzure(cfg.AzureEndpoint, cfg.AzureAPIVersion))
	} else if cfg.LLMBaseURL != "" {
		llmOpts = append(llmOpts, inference.WithBaseURL(cfg.LLMBaseURL))
	}
	llm, err := inference.NewClient(llmOpts...)
	if err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	defer llm.Close()

	dispatchOpts := []dispatch.Option{
		dispatch.WithPlayer(player),
		dispatch.WithLogger(log.L()),
	}

	var relay *actuator.Relay
	if cfg.DeviceSerial != "" {
		relay, err = actuator.NewRelay(cfg.ServerURL, cfg.DeviceSerial,
			actuator.WithRelayLogger(log.L()))
		if err != nil {
			return fmt.Errorf("relay: %w", err)
		}
		dispatchOpts = append(dispatchOpts, dispatch.WithRelay(relay))
	}

	var servo actuator.Servo
	if scriptServo, err := actuator.NewScriptServo(cfg.ServoScript,
		actuator.WithServoLogger(log.L())); err != nil {
		logger.Warn("servo disabled", "error", err)
	} else {
		servo = scriptServo
		dispatchOpts = append(dispatchOpts, dispatch.WithServo(servo))
	}

	dispatcher := dispatch.New(speech, dispatchOpts...)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			logger.Warn("actuators did not drain", "error", err)
		}
	}()

	sessionOpts := []session.Option{
		session.WithLogger(log.L()),
		session.WithHistory(history.NewStore(cfg.HistoryFile, 40)),
	}
	if cfg.AudioMapFile != "" {
		mapping, err := audiomap.Load(cfg.AudioMapFile)
		if err != nil {
			logger.Warn("audio map unavailable", "error", err)
		} else {
			logger.Info("audio map loaded", "entries", mapping.Len())
			sessionOpts = append(sessionOpts, session.WithAudioMap(mapping))
		}
	}
	if relay != nil {
		sessionOpts = append(sessionOpts,
			session.WithContextBuilder(session.NewSensorContext(relay, log.L())))
	}

	sess := session.New(session.Config{
		TriggerWords:   cfg.TriggerWords,
		UseTriggerWord: cfg.UseTriggerWord,
		SleepTimeout:   cfg.SleepTimeout,
		STTLanguage:    cfg.STTLanguage,
		SystemPrompt:   cfg.SystemPrompt,
		HistoryLimit:   40,
	}, llm, dispatcher, sessionOpts...)

	capture := audioio.DefaultConfig()
	source, err := audioio.NewPortAudioSource(capture)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	greet(ctx, cfg, dispatcher, player, servo, logger)

	segmenter := vad.New(vad.DefaultConfig(), capture)
	if relay != nil && !noIndicator {
		indicator := actuator.NewIndicator(relay,
			actuator.WithIndicatorLogger(log.L()))
		defer indicator.Close()
		segmenter.OnSpeechStart = indicator.On
		segmenter.OnSpeechEnd = indicator.Off
	}
	runner := session.NewRunner(sess, source, segmenter, recognizer,
		session.WithRunnerLogger(log.L()))

	logger.Info("listening",
		"triggers", cfg.TriggerWords,
		"gated", cfg.UseTriggerWord,
		"language", cfg.STTLanguage)
	return runner.Run(ctx)
}

// buildRecognizer prefers Azure Speech and falls back to Google, which
// gets Korean phrase hints seeded from the trigger words.
func buildRecognizer(cfg *config.Assistant) (stt.Provider, error) {
	if cfg.STTAPIKey != "" && cfg.STTEndpoint != "" {
		return stt.NewAzureSpeech(cfg.STTEndpoint,
			stt.WithAPIKey(cfg.STTAPIKey),
			stt.WithLogger(log.L()),
		)
	}
	hints := stt.BuildHints(cfg.STTLanguage, cfg.TriggerWords, cfg.HintsFile)
	return stt.NewGoogleSpeech(
		stt.WithAPIKey(cfg.GoogleSTTKey),
		stt.WithHints(hints),
		stt.WithLogger(log.L()),
	)
}

// greet announces startup: a pre-rendered intro file when configured,
// a synthesized greeting otherwise, plus an attention shake.
func greet(ctx context.Context, cfg *config.Assistant, d *dispatch.Dispatcher, player *audioio.SpeakerPlayer, servo actuator.Servo, logger *slog.Logger) {
	if servo != nil {
		go func() {
			shakeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := servo.Shake(shakeCtx); err != nil {
				logger.Warn("startup shake failed", "error", err)
			}
		}()
	}

	if cfg.IntroFile != "" {
		if err := player.PlayFile(ctx, cfg.IntroFile); err != nil {
			logger.Warn("intro playback failed", "error", err)
		}
		return
	}

	trigger := config.DefaultTriggerWord
	if len(cfg.TriggerWords) > 0 {
		trigger = cfg.TriggerWords[0]
	}
	d.Say(ctx, fmt.Sprintf("안녕하세요! 저는 %s예요. 이름을 불러주세요!", trigger))
}
