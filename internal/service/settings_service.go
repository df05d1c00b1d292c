package service

import (
	"context"
	"errors"
	"time"

	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettingsService は読書ペース設定 (単一行) の取得と更新を提供します
type SettingsService interface {
	GetSettings(ctx context.Context) (*model.CurriculumSettings, error)
	UpdateSettings(ctx context.Context, req *model.UpdateSettingsRequest) (*model.CurriculumSettings, error)
}

type settingsService struct {
	db           *gorm.DB
	settingsRepo repository.SettingsRepository
}

func NewSettingsService(db *gorm.DB, settingsRepo repository.SettingsRepository) SettingsService {
	return &settingsService{
		db:           db,
		settingsRepo: settingsRepo,
	}
}

// GetSettings は設定行を返します。未作成の場合は既定値で遅延生成する
func (s *settingsService) GetSettings(ctx context.Context) (*model.CurriculumSettings, error) {
	logger := middleware.GetLogger(ctx)

	settings, err := s.settingsRepo.Find(ctx, s.db)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		logger.Error("Failed to find curriculum settings", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "設定の取得に失敗しました。", "", err)
	}

	created := &model.CurriculumSettings{
		ID:        uuid.New(),
		Frequency: "daily",
		StartDate: time.Now().Format("2006-01-02"),
		IsActive:  true,
	}
	if err := s.settingsRepo.Create(ctx, s.db, created); err != nil {
		logger.Error("Failed to create default curriculum settings", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "設定の作成に失敗しました。", "", err)
	}
	logger.Info("Created default curriculum settings", "settings_id", created.ID.String())
	return created, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, req *model.UpdateSettingsRequest) (*model.CurriculumSettings, error) {
	logger := middleware.GetLogger(ctx)

	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"frequency": req.Frequency}
	if req.PreferredDays != nil {
		updates["preferred_days"] = datatypes.NewJSONSlice(req.PreferredDays)
	}
	if req.ReminderTime != "" {
		updates["reminder_time"] = req.ReminderTime
	}
	if err := s.settingsRepo.Update(ctx, s.db, settings.ID, updates); err != nil {
		logger.Error("Failed to update curriculum settings", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "設定の更新に失敗しました。", "", err)
	}

	updated, err := s.settingsRepo.Find(ctx, s.db)
	if err != nil {
		logger.Error("Failed to reload curriculum settings", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "設定の取得に失敗しました。", "", err)
	}
	logger.Info("Updated curriculum settings", "frequency", req.Frequency)
	return updated, nil
}
