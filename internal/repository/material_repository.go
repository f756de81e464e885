package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"cerebro/internal/model"
)

// ErrMaterialNotFound is returned by updates that target a missing row.
var ErrMaterialNotFound = errors.New("material not found")

// MaterialUpdate lists the mutable fields of a material; nil fields are left alone.
type MaterialUpdate struct {
	Title    *string
	Analysis *string
}

type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

func (r *MaterialRepository) Create(ctx context.Context, material *model.Material) error {
	if err := r.db.WithContext(ctx).Create(material).Error; err != nil {
		return fmt.Errorf("create material failed: %w", err)
	}
	return nil
}

func (r *MaterialRepository) GetByID(ctx context.Context, id uint) (*model.Material, error) {
	var material model.Material
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&material).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get material failed: %w", err)
	}
	return &material, nil
}

// Update applies a partial update and refreshes updated_at.
func (r *MaterialRepository) Update(ctx context.Context, id uint, fields MaterialUpdate) (*model.Material, error) {
	material, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if material == nil {
		return nil, ErrMaterialNotFound
	}

	changes := map[string]interface{}{}
	if fields.Title != nil {
		changes["title"] = *fields.Title
	}
	if fields.Analysis != nil {
		changes["analysis"] = *fields.Analysis
	}
	if len(changes) == 0 {
		return material, nil
	}
	changes["updated_at"] = time.Now()

	if err := r.db.WithContext(ctx).Model(material).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update material failed: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *MaterialRepository) List(ctx context.Context, limit int) ([]model.Material, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var list []model.Material
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list materials failed: %w", err)
	}
	return list, nil
}

// Search matches the query case-insensitively against title or analysis.
// An empty query matches nothing.
func (r *MaterialRepository) Search(ctx context.Context, query string, limit int) ([]model.Material, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Material{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	pattern := likePattern(query)
	var list []model.Material
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '!' OR LOWER(analysis) LIKE ? ESCAPE '!'", pattern, pattern).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("search materials failed: %w", err)
	}
	return list, nil
}

// ListByTitle returns every material whose title contains topic, oldest first.
func (r *MaterialRepository) ListByTitle(ctx context.Context, topic string) ([]model.Material, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return []model.Material{}, nil
	}
	var list []model.Material
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? ESCAPE '!'", likePattern(topic)).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list materials by title failed: %w", err)
	}
	return list, nil
}

// MostRecentWithAnalysis returns the latest created material that has been
// analyzed, or nil when none has.
func (r *MaterialRepository) MostRecentWithAnalysis(ctx context.Context) (*model.Material, error) {
	var material model.Material
	err := r.db.WithContext(ctx).
		Where("analysis IS NOT NULL AND analysis <> ''").
		Order("created_at DESC, id DESC").
		First(&material).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest analyzed material failed: %w", err)
	}
	return &material, nil
}

func (r *MaterialRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Material{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count materials failed: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}
