package chat

// Window capacities are fixed configuration, never user-controlled.
const (
	EmotionWindowCap = 5
	TurnWindowCap    = 3
)

// Exchange is the trimmed user/bot pair kept in the rolling turn window.
type Exchange struct {
	UserText string `json:"user"`
	BotText  string `json:"bot"`
}

// ContextWindow is a point-in-time copy of one session's rolling context.
// Callers own the copy; mutating it never affects the store.
type ContextWindow struct {
	RecentEmotions []string   `json:"recentEmotions"`
	RecentTurns    []Exchange `json:"recentTurns"`
}

// LastEmotion returns the most recently observed label, or "neutral" when
// the window is empty.
func (w ContextWindow) LastEmotion() string {
	if len(w.RecentEmotions) == 0 {
		return "neutral"
	}
	return w.RecentEmotions[len(w.RecentEmotions)-1]
}
