package repository

import (
	"context"
	"errors"
	"fmt"

	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository はカリキュラムカタログ (Phase / Text / Passage / StudyGuide)
// への読み取りアクセスと、シード時の書き込みを提供します。Create 系は
// cmd/seed からのみ使われる
type CatalogRepository interface {
	FindPhases(ctx context.Context, db *gorm.DB) ([]model.Phase, error)
	FindPhaseByID(ctx context.Context, db *gorm.DB, phaseID string) (*model.Phase, error)
	FindTextsByPhase(ctx context.Context, db *gorm.DB, phaseID string) ([]model.Text, error)
	FindTextByID(ctx context.Context, db *gorm.DB, textID string) (*model.Text, error)
	FindPassageByID(ctx context.Context, db *gorm.DB, passageID string) (*model.Passage, error)
	FindPassagesByText(ctx context.Context, db *gorm.DB, textID string) ([]model.Passage, error)
	FindFirstUnread(ctx context.Context, db *gorm.DB) (*model.Passage, error)
	FindNeighbors(ctx context.Context, db *gorm.DB, passage *model.Passage) (prev, next *model.Passage, err error)
	FindGuideByPassage(ctx context.Context, db *gorm.DB, passageID string) (*model.StudyGuide, error)
	CountPassages(ctx context.Context, db *gorm.DB) (int64, error)
	CountPassagesByText(ctx context.Context, db *gorm.DB, textID string) (int64, error)
	TextExists(ctx context.Context, db *gorm.DB, textID string) (bool, error)
	CreatePhase(ctx context.Context, tx *gorm.DB, phase *model.Phase) error
	CreateText(ctx context.Context, tx *gorm.DB, text *model.Text) error
	CreatePassages(ctx context.Context, tx *gorm.DB, passages []model.Passage) error
}

type gormCatalogRepository struct{}

func NewGormCatalogRepository() CatalogRepository {
	return &gormCatalogRepository{}
}

func (r *gormCatalogRepository) FindPhases(ctx context.Context, db *gorm.DB) ([]model.Phase, error) {
	logger := middleware.GetLogger(ctx)
	var phases []model.Phase
	result := db.WithContext(ctx).Order("order_index ASC").Find(&phases)
	if result.Error != nil {
		logger.Error("Error finding phases in DB", "error", result.Error)
		return nil, fmt.Errorf("gormCatalogRepository.FindPhases: %w", result.Error)
	}
	return phases, nil
}

func (r *gormCatalogRepository) FindPhaseByID(ctx context.Context, db *gorm.DB, phaseID string) (*model.Phase, error) {
	logger := middleware.GetLogger(ctx)
	var phase model.Phase
	result := db.WithContext(ctx).Where("id = ?", phaseID).First(&phase)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding phase by ID in DB", "error", result.Error, "phase_id", phaseID)
		return nil, fmt.Errorf("gormCatalogRepository.FindPhaseByID: %w", result.Error)
	}
	return &phase, nil
}

func (r *gormCatalogRepository) FindTextsByPhase(ctx context.Context, db *gorm.DB, phaseID string) ([]model.Text, error) {
	logger := middleware.GetLogger(ctx)
	var texts []model.Text
	result := db.WithContext(ctx).Where("phase_id = ?", phaseID).Order("order_index ASC").Find(&texts)
	if result.Error != nil {
		logger.Error("Error finding texts by phase in DB", "error", result.Error, "phase_id", phaseID)
		return nil, fmt.Errorf("gormCatalogRepository.FindTextsByPhase: %w", result.Error)
	}
	return texts, nil
}

func (r *gormCatalogRepository) FindTextByID(ctx context.Context, db *gorm.DB, textID string) (*model.Text, error) {
	logger := middleware.GetLogger(ctx)
	var text model.Text
	result := db.WithContext(ctx).Where("id = ?", textID).First(&text)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding text by ID in DB", "error", result.Error, "text_id", textID)
		return nil, fmt.Errorf("gormCatalogRepository.FindTextByID: %w", result.Error)
	}
	return &text, nil
}

func (r *gormCatalogRepository) FindPassageByID(ctx context.Context, db *gorm.DB, passageID string) (*model.Passage, error) {
	logger := middleware.GetLogger(ctx)
	var passage model.Passage
	result := db.WithContext(ctx).Where("id = ?", passageID).First(&passage)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding passage by ID in DB", "error", result.Error, "passage_id", passageID)
		return nil, fmt.Errorf("gormCatalogRepository.FindPassageByID: %w", result.Error)
	}
	return &passage, nil
}

func (r *gormCatalogRepository) FindPassagesByText(ctx context.Context, db *gorm.DB, textID string) ([]model.Passage, error) {
	logger := middleware.GetLogger(ctx)
	var passages []model.Passage
	result := db.WithContext(ctx).Where("text_id = ?", textID).Order("order_index ASC").Find(&passages)
	if result.Error != nil {
		logger.Error("Error finding passages by text in DB", "error", result.Error, "text_id", textID)
		return nil, fmt.Errorf("gormCatalogRepository.FindPassagesByText: %w", result.Error)
	}
	return passages, nil
}

// FindFirstUnread は全体通読順 (order_index) で最初の未読了パッセージを
// 返します。進捗レコードが無いパッセージも未読了として扱う。全パッセージ
// 読了済みなら model.ErrNotFound
func (r *gormCatalogRepository) FindFirstUnread(ctx context.Context, db *gorm.DB) (*model.Passage, error) {
	logger := middleware.GetLogger(ctx)
	var passage model.Passage
	result := db.WithContext(ctx).
		Joins("LEFT JOIN curriculum_progress ON curriculum_progress.passage_id = curriculum_passages.id").
		Where("curriculum_progress.id IS NULL OR curriculum_progress.status != ?", model.StatusCompleted).
		Order("curriculum_passages.order_index ASC").
		First(&passage)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding first unread passage in DB", "error", result.Error)
		return nil, fmt.Errorf("gormCatalogRepository.FindFirstUnread: %w", result.Error)
	}
	return &passage, nil
}

// FindNeighbors は同じ著作内で order_index が前後のパッセージを返します。
// 端に達している側は nil (エラーにはしない)
func (r *gormCatalogRepository) FindNeighbors(ctx context.Context, db *gorm.DB, passage *model.Passage) (*model.Passage, *model.Passage, error) {
	logger := middleware.GetLogger(ctx)

	var prev model.Passage
	result := db.WithContext(ctx).
		Where("text_id = ? AND order_index < ?", passage.TextID, passage.OrderIndex).
		Order("order_index DESC").
		First(&prev)
	var prevPtr *model.Passage
	switch {
	case result.Error == nil:
		prevPtr = &prev
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		// 先頭のパッセージ
	default:
		logger.Error("Error finding previous passage in DB", "error", result.Error, "passage_id", passage.ID)
		return nil, nil, fmt.Errorf("gormCatalogRepository.FindNeighbors: %w", result.Error)
	}

	var next model.Passage
	result = db.WithContext(ctx).
		Where("text_id = ? AND order_index > ?", passage.TextID, passage.OrderIndex).
		Order("order_index ASC").
		First(&next)
	var nextPtr *model.Passage
	switch {
	case result.Error == nil:
		nextPtr = &next
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		// 末尾のパッセージ
	default:
		logger.Error("Error finding next passage in DB", "error", result.Error, "passage_id", passage.ID)
		return nil, nil, fmt.Errorf("gormCatalogRepository.FindNeighbors: %w", result.Error)
	}

	return prevPtr, nextPtr, nil
}

// FindGuideByPassage は学習ガイドを返します。ガイドは任意添付のため、
// 未登録の場合は (nil, nil)
func (r *gormCatalogRepository) FindGuideByPassage(ctx context.Context, db *gorm.DB, passageID string) (*model.StudyGuide, error) {
	logger := middleware.GetLogger(ctx)
	var guide model.StudyGuide
	result := db.WithContext(ctx).Where("passage_id = ?", passageID).First(&guide)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.Error("Error finding study guide in DB", "error", result.Error, "passage_id", passageID)
		return nil, fmt.Errorf("gormCatalogRepository.FindGuideByPassage: %w", result.Error)
	}
	return &guide, nil
}

func (r *gormCatalogRepository) CountPassages(ctx context.Context, db *gorm.DB) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Passage{}).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting passages in DB", "error", result.Error)
		return 0, fmt.Errorf("gormCatalogRepository.CountPassages: %w", result.Error)
	}
	return count, nil
}

func (r *gormCatalogRepository) CountPassagesByText(ctx context.Context, db *gorm.DB, textID string) (int64, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Passage{}).Where("text_id = ?", textID).Count(&count)
	if result.Error != nil {
		logger.Error("Error counting passages by text in DB", "error", result.Error, "text_id", textID)
		return 0, fmt.Errorf("gormCatalogRepository.CountPassagesByText: %w", result.Error)
	}
	return count, nil
}

func (r *gormCatalogRepository) TextExists(ctx context.Context, db *gorm.DB, textID string) (bool, error) {
	logger := middleware.GetLogger(ctx)
	var count int64
	result := db.WithContext(ctx).Model(&model.Text{}).Where("id = ?", textID).Count(&count)
	if result.Error != nil {
		logger.Error("Error checking text existence in DB", "error", result.Error, "text_id", textID)
		return false, fmt.Errorf("gormCatalogRepository.TextExists: %w", result.Error)
	}
	return count > 0, nil
}

func (r *gormCatalogRepository) CreatePhase(ctx context.Context, tx *gorm.DB, phase *model.Phase) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(phase)
	if result.Error != nil {
		logger.Error("Error creating phase in DB", "error", result.Error, "phase_id", phase.ID)
		return fmt.Errorf("gormCatalogRepository.CreatePhase: %w", result.Error)
	}
	return nil
}

func (r *gormCatalogRepository) CreateText(ctx context.Context, tx *gorm.DB, text *model.Text) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(text)
	if result.Error != nil {
		logger.Error("Error creating text in DB", "error", result.Error, "text_id", text.ID)
		return fmt.Errorf("gormCatalogRepository.CreateText: %w", result.Error)
	}
	return nil
}

func (r *gormCatalogRepository) CreatePassages(ctx context.Context, tx *gorm.DB, passages []model.Passage) error {
	logger := middleware.GetLogger(ctx)
	if len(passages) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).CreateInBatches(passages, 100)
	if result.Error != nil {
		logger.Error("Error creating passages in DB", "error", result.Error, "count", len(passages))
		return fmt.Errorf("gormCatalogRepository.CreatePassages: %w", result.Error)
	}
	return nil
}
