package app

import (
	"context"

	"cerebro/internal/model"
	"cerebro/internal/repository"
)

type MaterialStore interface {
	Create(ctx context.Context, material *model.Material) error
	GetByID(ctx context.Context, id uint) (*model.Material, error)
	Update(ctx context.Context, id uint, fields repository.MaterialUpdate) (*model.Material, error)
	List(ctx context.Context, limit int) ([]model.Material, error)
	Search(ctx context.Context, query string, limit int) ([]model.Material, error)
	ListByTitle(ctx context.Context, topic string) ([]model.Material, error)
	MostRecentWithAnalysis(ctx context.Context) (*model.Material, error)
}

// SessionStore is the keyed backing for conversation sessions. Load returns
// an empty session for unknown ids.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*model.ConversationSession, error)
	Save(ctx context.Context, session *model.ConversationSession) error
	Reset(ctx context.Context, sessionID string) error
}

type FileStore interface {
	Save(fileName string, data []byte) (string, error)
	Read(ref string) ([]byte, error)
	Delete(ref string) error
}

type ExchangeRecorder interface {
	Record(ctx context.Context, entry model.ExchangeLog) error
}

// RecorderFunc adapts a plain function to ExchangeRecorder.
type RecorderFunc func(ctx context.Context, entry model.ExchangeLog) error

func (f RecorderFunc) Record(ctx context.Context, entry model.ExchangeLog) error {
	return f(ctx, entry)
}

type ExchangeHistory interface {
	ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ExchangeLog, error)
}
