package session

import (
	"context"
	"errors"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
)

var (
	// ErrSessionClosed rejects appends to, or repeat closes of, a session
	// that already went through Close.
	ErrSessionClosed = errors.New("session already closed")
)

// Store owns the rolling context windows, keyed by session id. Sessions are
// created lazily on first touch and every mutation happens under per-session
// exclusive access; contexts of different sessions never share state.
type Store interface {
	// Context returns a copy of the session's current window, creating an
	// empty session if none exists.
	Context(ctx context.Context, sessionID string) (chat.ContextWindow, error)

	// AppendTurn pushes the turn's exchange and every one of its emotion
	// labels into the windows, evicting oldest-first past capacity.
	AppendTurn(ctx context.Context, sessionID string, turn chat.ConversationTurn) error

	// Close seals the session and returns its dominant emotion. ok is false
	// when the session saw no emotions. A second Close returns
	// ErrSessionClosed.
	Close(ctx context.Context, sessionID string) (dominant string, ok bool, err error)
}

// dominantEmotion runs the majority vote over the recent-emotion window.
// Ties go to the label seen most recently.
func dominantEmotion(emotions []string) (string, bool) {
	if len(emotions) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(emotions))
	lastSeen := make(map[string]int, len(emotions))
	for i, label := range emotions {
		counts[label]++
		lastSeen[label] = i
	}

	best := ""
	for label, count := range counts {
		if best == "" {
			best = label
			continue
		}
		if count > counts[best] || (count == counts[best] && lastSeen[label] > lastSeen[best]) {
			best = label
		}
	}
	return best, true
}

// pushWindow appends values to a bounded FIFO, evicting oldest-first.
func pushWindow[T any](window []T, capacity int, values ...T) []T {
	window = append(window, values...)
	if len(window) > capacity {
		window = window[len(window)-capacity:]
	}
	return window
}
