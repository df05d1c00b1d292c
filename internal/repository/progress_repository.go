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

// ProgressRepository は進捗レコードの永続化を担当します
type ProgressRepository interface {
	FindByPassageID(ctx context.Context, db *gorm.DB, passageID string) (*model.ProgressRecord, error)
	Create(ctx context.Context, tx *gorm.DB, record *model.ProgressRecord) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	FindAll(ctx context.Context, db *gorm.DB) ([]model.ProgressRecord, error)
	FindCompletedPassageIDs(ctx context.Context, db *gorm.DB) ([]string, error)
	CountCompleted(ctx context.Context, db *gorm.DB) (int64, error)
	CountCompletedByText(ctx context.Context, db *gorm.DB, textID string) (int64, error)
	FindEarliest(ctx context.Context, db *gorm.DB) (*model.ProgressRecord, error)
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) FindByPassageID(ctx context.Context, db *gorm.DB, passageID string) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var record model.ProgressRecord
	result := db.WithContext(ctx).Where("passage_id = ?", passageID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding progress by passage in DB", "error", result.Error, "passage_id", passageID)
		return nil, fmt.Errorf("gormProgressRepository.FindByPassageID: %w", result.Error)
	}
	return &record, nil
}

func (r *gormProgressRepository) Create(ctx context.Context, tx *gorm.DB, record *model.ProgressRecord) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(record)
	if result.Error != nil {
		logger.Error("Error creating progress in DB", "error", result.Error, "passage_id", record.PassageID)
		return fmt.Errorf("gormProgressRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormProgressRepository) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.ProgressRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating progress in DB", "error", result.Error, "progress_id", id.String())
		return fmt.Errorf("gormProgressRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormProgressRepository) FindAll(ctx context.Context, db *gorm.DB) ([]model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var records []model.ProgressRecord
	result := db.WithContext(ctx).Order("updated_at DESC").Find(&records)
	if result.Error != nil {
		logger.Error("Error finding progress records in DB", "error", result.Error)
		return nil, fmt.Errorf("gormProgressRepository.FindAll: %w", result.Error)
	}
	return records, nil
}

func (r *gormProgressRepository) FindCompletedPassageIDs(ctx context.Context, db *gorm.DB) ([]string, error) {
	logger := middleware.GetLogger(ctx)
	var ids []string
	result := db.WithContext(ctx).Model(&model.ProgressRecord{}).
		Where("status = ?", model.StatusCompleted).
		Pluck("passage_id", &ids)
	if result.Error != nil {
		logger.Error("Error finding completed passage IDs in DB", "error", result.Error)
		return nil, fmt.Errorf("gormProgressRepository.FindCompletedPassageIDs: %w", result.Error)
	}
	return ids, nil
}

func (r *gormProgressRepository) CountCompleted(ctx context.Context, db *gorm.DB) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.ProgressRecord{}).
		Where("status = ?", model.StatusCompleted).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting completed progress in DB", "error", result.Error)
		return 0, fmt.Errorf("gormProgressRepository.CountCompleted: %w", result.Error)
	}
	return count, nil
}

func (r *gormProgressRepository) CountCompletedByText(ctx context.Context, db *gorm.DB, textID string) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.ProgressRecord{}).
		Joins("JOIN curriculum_passages ON curriculum_passages.id = curriculum_progress.passage_id").
		Where("curriculum_passages.text_id = ? AND curriculum_progress.status = ?", textID, model.StatusCompleted).
		Count(&count)
	if result.Error != nil {
		logger.Error("Error counting completed progress by text in DB", "error", result.Error, "text_id", textID)
		return 0, fmt.Errorf("gormProgressRepository.CountCompletedByText: %w", result.Error)
	}
	return count, nil
}

// FindEarliest は最初に作られた進捗レコードを返します (学習開始日の推定用)。
// レコードが無ければ model.ErrNotFound
func (r *gormProgressRepository) FindEarliest(ctx context.Context, db *gorm.DB) (*model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)
	var record model.ProgressRecord
	result := db.WithContext(ctx).Order("created_at ASC").First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding earliest progress in DB", "error", result.Error)
		return nil, fmt.Errorf("gormProgressRepository.FindEarliest: %w", result.Error)
	}
	return &record, nil
}
