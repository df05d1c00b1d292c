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

// JournalRepository は読書ジャーナルの永続化を担当します
type JournalRepository interface {
	FindByPassageID(ctx context.Context, db *gorm.DB, passageID string) (*model.JournalRecord, error)
	Create(ctx context.Context, tx *gorm.DB, record *model.JournalRecord) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	List(ctx context.Context, db *gorm.DB, limit, offset int) ([]model.JournalRecord, error)
}

type gormJournalRepository struct{}

func NewGormJournalRepository() JournalRepository {
	return &gormJournalRepository{}
}

func (r *gormJournalRepository) FindByPassageID(ctx context.Context, db *gorm.DB, passageID string) (*model.JournalRecord, error) {
	logger := middleware.GetLogger(ctx)
	var record model.JournalRecord
	result := db.WithContext(ctx).Where("passage_id = ?", passageID).First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding journal by passage in DB", "error", result.Error, "passage_id", passageID)
		return nil, fmt.Errorf("gormJournalRepository.FindByPassageID: %w", result.Error)
	}
	return &record, nil
}

func (r *gormJournalRepository) Create(ctx context.Context, tx *gorm.DB, record *model.JournalRecord) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(record)
	if result.Error != nil {
		logger.Error("Error creating journal entry in DB", "error", result.Error, "passage_id", record.PassageID)
		return fmt.Errorf("gormJournalRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormJournalRepository) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.JournalRecord{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating journal entry in DB", "error", result.Error, "journal_id", id.String())
		return fmt.Errorf("gormJournalRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// List は新しい順にジャーナルを返します (一覧画面向けのページネーション付き)
func (r *gormJournalRepository) List(ctx context.Context, db *gorm.DB, limit, offset int) ([]model.JournalRecord, error) {
	logger := middleware.GetLogger(ctx)
	var records []model.JournalRecord
	result := db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&records)
	if result.Error != nil {
		logger.Error("Error listing journal entries in DB", "error", result.Error)
		return nil, fmt.Errorf("gormJournalRepository.List: %w", result.Error)
	}
	return records, nil
}
