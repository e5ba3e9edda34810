package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store persists ChatState keyed by chat. Load returns (nil, nil) for a chat
// that has no state yet; the engine creates one lazily.
type Store interface {
	Load(ctx context.Context, chatID int64) (*ChatState, error)
	Save(ctx context.Context, state *ChatState) error
}

// RedisStore keeps one JSON document per chat under "chat_state:<id>".
// A zero TTL means states never expire.
type RedisStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *goredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func stateKey(chatID int64) string { return fmt.Sprintf("chat_state:%d", chatID) }

func (s *RedisStore) Load(ctx context.Context, chatID int64) (*ChatState, error) {
	raw, err := s.client.Get(ctx, stateKey(chatID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: load state %d: %w", chatID, err)
	}
	var state ChatState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("session: decode state %d: %w", chatID, err)
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *ChatState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode state %d: %w", state.ChatID, err)
	}
	if err := s.client.Set(ctx, stateKey(state.ChatID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save state %d: %w", state.ChatID, err)
	}
	return nil
}

// MemoryStore is an in-process Store used by tests and single-node setups.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[int64]*ChatState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[int64]*ChatState)}
}

func (s *MemoryStore) Load(_ context.Context, chatID int64) (*ChatState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[chatID]
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, state *ChatState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ChatID] = state.Clone()
	return nil
}
