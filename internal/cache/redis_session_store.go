package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"cerebro/internal/model"
)

// RedisSessionStore keeps conversation sessions as JSON blobs with a sliding TTL.
type RedisSessionStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redisv9.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Load(ctx context.Context, sessionID string) (*model.ConversationSession, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redisv9.Nil {
		return model.NewConversationSession(sessionID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session failed: %w", err)
	}

	var session model.ConversationSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("unmarshal cached session failed: %w", err)
	}
	session.ID = sessionID
	if session.History == nil {
		session.History = []string{}
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *model.ConversationSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) key(sessionID string) string {
	return fmt.Sprintf("cerebro:session:%s", sessionID)
}
