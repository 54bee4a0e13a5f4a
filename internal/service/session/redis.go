package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MohamedImran7868/Mira/internal/model/chat"
)

const (
	redisKeyPrefix = "mira:session:"
	redisTTL       = 24 * time.Hour
)

// RedisStore keeps session contexts in Redis so several API replicas can
// share them. Each key holds the JSON-encoded windows plus the closed flag;
// read-modify-write cycles for one session are serialized by a process-local
// keyed mutex while distinct sessions proceed in parallel.
type RedisStore struct {
	rdb   *redis.Client
	locks sync.Map // sessionID -> *sync.Mutex
}

type redisRecord struct {
	Emotions []string        `json:"emotions"`
	Turns    []chat.Exchange `json:"turns"`
	Closed   bool            `json:"closed"`
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) lock(sessionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *RedisStore) load(ctx context.Context, sessionID string) (redisRecord, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return redisRecord{}, nil
	}
	if err != nil {
		return redisRecord{}, fmt.Errorf("failed to load session: %w", err)
	}

	var record redisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return redisRecord{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return record, nil
}

func (s *RedisStore) save(ctx context.Context, sessionID string, record redisRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+sessionID, data, redisTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Context implements Store.
func (s *RedisStore) Context(ctx context.Context, sessionID string) (chat.ContextWindow, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.load(ctx, sessionID)
	if err != nil {
		return chat.ContextWindow{}, err
	}

	return chat.ContextWindow{
		RecentEmotions: append([]string(nil), record.Emotions...),
		RecentTurns:    append([]chat.Exchange(nil), record.Turns...),
	}, nil
}

// AppendTurn implements Store.
func (s *RedisStore) AppendTurn(ctx context.Context, sessionID string, turn chat.ConversationTurn) error {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if record.Closed {
		return ErrSessionClosed
	}

	record.Turns = pushWindow(record.Turns, chat.TurnWindowCap, chat.Exchange{
		UserText: turn.UserText,
		BotText:  turn.BotText,
	})

	labels := make([]string, 0, len(turn.Emotions))
	for _, sig := range turn.Emotions {
		labels = append(labels, sig.Label)
	}
	record.Emotions = pushWindow(record.Emotions, chat.EmotionWindowCap, labels...)

	return s.save(ctx, sessionID, record)
}

// Close implements Store.
func (s *RedisStore) Close(ctx context.Context, sessionID string) (string, bool, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	record, err := s.load(ctx, sessionID)
	if err != nil {
		return "", false, err
	}
	if record.Closed {
		return "", false, ErrSessionClosed
	}

	record.Closed = true
	if err := s.save(ctx, sessionID, record); err != nil {
		return "", false, err
	}

	dominant, ok := dominantEmotion(record.Emotions)
	return dominant, ok, nil
}
