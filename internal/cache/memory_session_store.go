package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"cerebro/internal/model"
)

// MemorySessionStore keeps sessions in process. Values are cloned on the way
// in and out so callers never share a history slice.
type MemorySessionStore struct {
	cache *gocache.Cache
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemorySessionStore{cache: gocache.New(ttl, 10*time.Minute)}
}

func (s *MemorySessionStore) Load(_ context.Context, sessionID string) (*model.ConversationSession, error) {
	if x, found := s.cache.Get(sessionID); found {
		return x.(*model.ConversationSession).Clone(), nil
	}
	return model.NewConversationSession(sessionID), nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *model.ConversationSession) error {
	s.cache.Set(session.ID, session.Clone(), gocache.DefaultExpiration)
	return nil
}

func (s *MemorySessionStore) Reset(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}
