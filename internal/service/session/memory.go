package session

import (
	"context"
	"sync"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
)

// MemoryStore keeps session contexts in process memory. The registry map is
// guarded by its own RWMutex while each session entry carries a private
// mutex, so concurrent sessions never contend with each other.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu       sync.Mutex
	emotions []string
	turns    []chat.Exchange
	closed   bool
}

// NewMemoryStore bootstraps the in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) entry(sessionID string) *memoryEntry {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[sessionID]; ok {
		return e
	}
	e = &memoryEntry{}
	s.entries[sessionID] = e
	return e
}

// Context implements Store.
func (s *MemoryStore) Context(_ context.Context, sessionID string) (chat.ContextWindow, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	return chat.ContextWindow{
		RecentEmotions: append([]string(nil), e.emotions...),
		RecentTurns:    append([]chat.Exchange(nil), e.turns...),
	}, nil
}

// AppendTurn implements Store.
func (s *MemoryStore) AppendTurn(_ context.Context, sessionID string, turn chat.ConversationTurn) error {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrSessionClosed
	}

	e.turns = pushWindow(e.turns, chat.TurnWindowCap, chat.Exchange{
		UserText: turn.UserText,
		BotText:  turn.BotText,
	})

	// Every label from the turn's signals counts, the sentinel included.
	labels := make([]string, 0, len(turn.Emotions))
	for _, sig := range turn.Emotions {
		labels = append(labels, sig.Label)
	}
	e.emotions = pushWindow(e.emotions, chat.EmotionWindowCap, labels...)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close(_ context.Context, sessionID string) (string, bool, error) {
	e := s.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return "", false, ErrSessionClosed
	}
	e.closed = true

	dominant, ok := dominantEmotion(e.emotions)
	return dominant, ok, nil
}
