package repository

import (
	"context"
	"errors"
	"fmt"

	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettingsRepository はカリキュラム設定 (単一行) の永続化を担当します
type SettingsRepository interface {
	Find(ctx context.Context, db *gorm.DB) (*model.CurriculumSettings, error)
	Create(ctx context.Context, tx *gorm.DB, settings *model.CurriculumSettings) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type gormSettingsRepository struct{}

func NewGormSettingsRepository() SettingsRepository {
	return &gormSettingsRepository{}
}

func (r *gormSettingsRepository) Find(ctx context.Context, db *gorm.DB) (*model.CurriculumSettings, error) {
	logger := middleware.GetLogger(ctx)
	var settings model.CurriculumSettings
	result := db.WithContext(ctx).Order("created_at ASC").First(&settings)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding curriculum settings in DB", "error", result.Error)
		return nil, fmt.Errorf("gormSettingsRepository.Find: %w", result.Error)
	}
	return &settings, nil
}

func (r *gormSettingsRepository) Create(ctx context.Context, tx *gorm.DB, settings *model.CurriculumSettings) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(settings)
	if result.Error != nil {
		logger.Error("Error creating curriculum settings in DB", "error", result.Error)
		return fmt.Errorf("gormSettingsRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormSettingsRepository) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.CurriculumSettings{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating curriculum settings in DB", "error", result.Error, "settings_id", id.String())
		return fmt.Errorf("gormSettingsRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
