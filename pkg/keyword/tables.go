package keyword

// Command keyword sets for the session state machine.
var (
	// ExitCommands terminate the session loop.
	ExitCommands = []string{"종료", "끝내", "그만", "exit", "quit"}

	// SleepCommands drop the session back into sleep mode.
	SleepCommands = []string{"잘자", "sleep", "휴식", "쉬어"}
)

// Actuator keyword sets, matched against the user's input text.
var (
	// ServoKeywords trigger the plant-shaking servo motion.
	ServoKeywords = []string{"화분 흔들어줘", "화분 흔들어", "흔들어줘", "흔들어"}

	// LEDOnKeywords and LEDOffKeywords toggle the relay LED.
	LEDOnKeywords  = []string{"불 켜", "불켜", "전등 켜", "조명 켜", "led 켜"}
	LEDOffKeywords = []string{"불 꺼", "불꺼", "전등 꺼", "조명 꺼", "led 꺼"}
)

// SadToneKeywords select the sad speaking style with a lowered pitch.
// Matched against the user's input, not the reply.
var SadToneKeywords = []string{"힘들어", "힘들다", "죽고 싶", "우울", "슬퍼", "슬프다", "외로워", "지쳤어"}

// Face emotion categories understood by the LCD face display.
const (
	EmotionHappy     = "HAPPY"
	EmotionSad       = "SAD"
	EmotionAngry     = "ANGRY"
	EmotionSurprised = "SURPRISED"
	EmotionTired     = "TIRED"
	EmotionCalm      = "CALM"
	EmotionNeutral   = "NEUTRAL"
)

// EmotionCheckOrder fixes the priority when a reply matches several
// emotion categories.
var EmotionCheckOrder = []string{
	EmotionSad,
	EmotionAngry,
	EmotionSurprised,
	EmotionTired,
	EmotionHappy,
	EmotionCalm,
}

// EmotionKeywords maps each category to the reply keywords that select it.
var EmotionKeywords = map[string][]string{
	EmotionHappy:     {"행복", "기뻐", "기쁘", "좋아", "신나", "재밌", "즐거"},
	EmotionSad:       {"슬퍼", "슬프", "눈물", "속상", "아쉽", "미안"},
	EmotionAngry:     {"화나", "화가", "짜증", "싫어"},
	EmotionSurprised: {"깜짝", "놀라", "놀랐", "대박", "세상에"},
	EmotionTired:     {"피곤", "졸려", "지쳤", "힘들"},
	EmotionCalm:      {"편안", "차분", "괜찮", "천천히"},
}

// IsExitCommand reports whether text contains an exit command.
func IsExitCommand(text string) bool {
	return containsAny(text, ExitCommands)
}

// IsSleepCommand reports whether text contains a sleep command.
func IsSleepCommand(text string) bool {
	return containsAny(text, SleepCommands)
}

// HasServoTrigger reports whether text asks for the servo shake motion.
func HasServoTrigger(text string) bool {
	return containsAny(text, ServoKeywords)
}

// DetectLED returns the requested LED state. ok is false when the text
// contains no LED keyword.
func DetectLED(text string) (on bool, ok bool) {
	if containsAny(text, LEDOnKeywords) {
		return true, true
	}
	if containsAny(text, LEDOffKeywords) {
		return false, true
	}
	return false, false
}

// IsSadTone reports whether the user's input should select the sad
// speaking style.
func IsSadTone(text string) bool {
	return containsAny(text, SadToneKeywords)
}

// DetectEmotion classifies a reply into a face emotion category by keyword,
// checking categories in EmotionCheckOrder and falling back to neutral.
func DetectEmotion(reply string) string {
	if reply == "" {
		return EmotionNeutral
	}
	for _, emotion := range EmotionCheckOrder {
		if containsAny(reply, EmotionKeywords[emotion]) {
			return emotion
		}
	}
	return EmotionNeutral
}
