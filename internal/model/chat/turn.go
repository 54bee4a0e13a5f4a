package chat

import "time"

// EmotionSignal is one ranked label from the classification capability.
// Confidence is an independent per-label score in [0,1]; scores are not
// normalized to sum to 1 across a turn.
type EmotionSignal struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// SentinelLabel marks a turn whose classification failed. Downstream code
// treats it as "signal unavailable", never as a detected emotion.
const SentinelLabel = "error"

// SentinelSignals returns the single-element signal list used when the
// classification capability raised, returned nothing, or returned garbage.
func SentinelSignals() []EmotionSignal {
	return []EmotionSignal{{Label: SentinelLabel, Confidence: 0}}
}

// IsSentinel reports whether signals carry only the unavailable marker.
func IsSentinel(signals []EmotionSignal) bool {
	return len(signals) == 1 && signals[0].Label == SentinelLabel
}

// ConversationTurn records one completed exchange. Immutable after creation.
type ConversationTurn struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	Timestamp time.Time       `json:"timestamp"`
	UserText  string          `json:"user_text"`
	Emotions  []EmotionSignal `json:"emotion_signals"`
	BotText   string          `json:"bot_text"`
}

// SummaryTag is the only tag value a SessionSummary may carry.
const SummaryTag = "session_dominant_emotion"

// SessionSummary is the closing record appended at most once per session,
// naming the dominant emotion over the session's recent-emotion window.
type SessionSummary struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}
