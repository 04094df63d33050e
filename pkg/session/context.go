package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/do0ori/chytonpide-embedded/pkg/actuator"
)

// ContextBuilder augments the system prompt with situational context
// derived from the user's words.
type ContextBuilder interface {
	Augment(ctx context.Context, prompt, userText string) string
}

// Keyword sets that mark a question about the plant's environment.
var (
	temperatureKeywords = []string{"온도", "따뜻", "더워", "추워"}
	humidityKeywords    = []string{"습도", "건조", "말라"}
)

// SensorContext pulls the latest temperature and humidity from the device
// relay when the user asks about them, so the LLM can answer with real
// numbers instead of guessing.
type SensorContext struct {
	relay  actuator.DeviceRelay
	logger *slog.Logger
}

// NewSensorContext creates a ContextBuilder backed by the device relay.
func NewSensorContext(relay actuator.DeviceRelay, logger *slog.Logger) *SensorContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &SensorContext{
		relay:  relay,
		logger: logger.With("component", "session.sensorcontext"),
	}
}

// Augment appends sensor readings to the prompt when the user's text asks
// about temperature or humidity. Relay failures leave the prompt untouched.
func (c *SensorContext) Augment(ctx context.Context, prompt, userText string) string {
	asksTemp := containsAny(userText, temperatureKeywords)
	asksHumidity := containsAny(userText, humidityKeywords)
	if !asksTemp && !asksHumidity {
		return prompt
	}

	reading, err := c.relay.Sensor(ctx)
	if err != nil || reading == nil {
		c.logger.Warn("sensor context unavailable", "error", err)
		return prompt
	}

	var sb strings.Builder
	sb.WriteString(prompt)
	if asksTemp {
		sb.WriteString(fmt.Sprintf(
			"\n\n## 특별 상황: user가 온도를 묻고 있어!\n현재 온도는 %.1f도야. 이 정보를 바탕으로 다양하게 응답해.",
			reading.Temperature))
	}
	if asksHumidity {
		sb.WriteString(fmt.Sprintf(
			"\n\n## 특별 상황: user가 습도를 묻고 있어!\n현재 습도는 %.1f%%야. 이 정보를 바탕으로 다양하게 응답해.",
			reading.Humidity))
	}
	return sb.String()
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

var _ ContextBuilder = (*SensorContext)(nil)
