package repository

import (
	"context"
	"errors"
	"fmt"

	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"

	"gorm.io/gorm"
)

// DiscussionRepository はメンター対話スレッドの永続化を担当します
type DiscussionRepository interface {
	FindByPassageID(ctx context.Context, db *gorm.DB, passageID string) (*model.DiscussionThread, error)
	Create(ctx context.Context, tx *gorm.DB, thread *model.DiscussionThread) error
	Save(ctx context.Context, tx *gorm.DB, thread *model.DiscussionThread) error
	DeleteByPassageID(ctx context.Context, tx *gorm.DB, passageID string) error
}

type gormDiscussionRepository struct{}

func NewGormDiscussionRepository() DiscussionRepository {
	return &gormDiscussionRepository{}
}

func (r *gormDiscussionRepository) FindByPassageID(ctx context.Context, db *gorm.DB, passageID string) (*model.DiscussionThread, error) {
	logger := middleware.GetLogger(ctx)
	var thread model.DiscussionThread
	result := db.WithContext(ctx).Where("passage_id = ?", passageID).First(&thread)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding discussion by passage in DB", "error", result.Error, "passage_id", passageID)
		return nil, fmt.Errorf("gormDiscussionRepository.FindByPassageID: %w", result.Error)
	}
	return &thread, nil
}

func (r *gormDiscussionRepository) Create(ctx context.Context, tx *gorm.DB, thread *model.DiscussionThread) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(thread)
	if result.Error != nil {
		logger.Error("Error creating discussion thread in DB", "error", result.Error, "passage_id", thread.PassageID)
		return fmt.Errorf("gormDiscussionRepository.Create: %w", result.Error)
	}
	return nil
}

// Save はメッセージ列の追記を反映します (スレッド全体を上書き保存)
func (r *gormDiscussionRepository) Save(ctx context.Context, tx *gorm.DB, thread *model.DiscussionThread) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Save(thread)
	if result.Error != nil {
		logger.Error("Error saving discussion thread in DB", "error", result.Error, "passage_id", thread.PassageID)
		return fmt.Errorf("gormDiscussionRepository.Save: %w", result.Error)
	}
	return nil
}

// DeleteByPassageID はスレッドを削除します。存在しない場合もエラーにしない
func (r *gormDiscussionRepository) DeleteByPassageID(ctx context.Context, tx *gorm.DB, passageID string) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("passage_id = ?", passageID).Delete(&model.DiscussionThread{})
	if result.Error != nil {
		logger.Error("Error deleting discussion thread in DB", "error", result.Error, "passage_id", passageID)
		return fmt.Errorf("gormDiscussionRepository.DeleteByPassageID: %w", result.Error)
	}
	return nil
}
