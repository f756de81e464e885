package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"cerebro/internal/model"
)

type ExchangeLogRepository struct {
	db *gorm.DB
}

func NewExchangeLogRepository(db *gorm.DB) *ExchangeLogRepository {
	return &ExchangeLogRepository{db: db}
}

func (r *ExchangeLogRepository) Create(ctx context.Context, entry *model.ExchangeLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create exchange log failed: %w", err)
	}
	return nil
}

func (r *ExchangeLogRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ExchangeLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var list []model.ExchangeLog
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list exchange logs failed: %w", err)
	}
	return list, nil
}
