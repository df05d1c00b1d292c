package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CurriculumService はカタログ閲覧・今日の読書・進捗更新を提供します
type CurriculumService interface {
	GetToday(ctx context.Context) (*model.TodayResponse, error)
	GetOverview(ctx context.Context) (*model.OverviewResponse, error)
	ListPhases(ctx context.Context) ([]model.PhaseWithTexts, error)
	GetPassage(ctx context.Context, passageID string) (*model.PassageDetail, error)
	ListTextPassages(ctx context.Context, textID string) ([]model.PassageListItem, error)
	GetNeighbors(ctx context.Context, passageID string) (*model.NeighborsResponse, error)
	UpsertProgress(ctx context.Context, passageID string, req *model.UpsertProgressRequest) (*model.UpsertResult, bool, error)
	ListProgress(ctx context.Context) ([]model.ProgressRecord, error)
}

type curriculumService struct {
	db           *gorm.DB // トランザクション用にDB接続を持つ
	catalogRepo  repository.CatalogRepository
	progRepo     repository.ProgressRepository
	settingsRepo repository.SettingsRepository
}

func NewCurriculumService(db *gorm.DB, catalogRepo repository.CatalogRepository, progRepo repository.ProgressRepository, settingsRepo repository.SettingsRepository) CurriculumService {
	return &curriculumService{
		db:           db,
		catalogRepo:  catalogRepo,
		progRepo:     progRepo,
		settingsRepo: settingsRepo,
	}
}

// GetToday は全体通読順で最初の未読了パッセージを「今日の読書」として
// 返します。独立した現在位置カウンタは持たず、毎回進捗から再計算する
func (s *curriculumService) GetToday(ctx context.Context) (*model.TodayResponse, error) {
	logger := middleware.GetLogger(ctx)

	totalPassages, err := s.catalogRepo.CountPassages(ctx, s.db)
	if err != nil {
		logger.Error("Failed to count passages", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージ数の取得に失敗しました。", "", err)
	}
	completed, err := s.progRepo.CountCompleted(ctx, s.db)
	if err != nil {
		logger.Error("Failed to count completed passages", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の取得に失敗しました。", "", err)
	}

	resp := &model.TodayResponse{
		DayNumber:      int(completed) + 1,
		TotalCompleted: int(completed),
		TotalPassages:  int(totalPassages),
	}

	passage, err := s.catalogRepo.FindFirstUnread(ctx, s.db)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// 全パッセージ読了済み
			resp.DayNumber = int(completed)
			resp.Message = "Curriculum complete. Revisit any passage, or begin again."
			return resp, nil
		}
		logger.Error("Failed to find first unread passage", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "今日の読書の取得に失敗しました。", "", err)
	}

	reading, err := s.assembleReading(ctx, passage)
	if err != nil {
		return nil, err
	}
	resp.CurrentReading = reading

	logger.Info("Resolved today's reading", "passage_id", passage.ID, "day_number", resp.DayNumber)
	return resp, nil
}

// assembleReading はパッセージに著作・段階・ガイド・進捗を付加します
func (s *curriculumService) assembleReading(ctx context.Context, passage *model.Passage) (*model.CurrentReading, error) {
	logger := middleware.GetLogger(ctx)

	text, err := s.catalogRepo.FindTextByID(ctx, s.db, passage.TextID)
	if err != nil {
		logger.Error("Failed to find text for passage", "error", err, "passage_id", passage.ID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "著作情報の取得に失敗しました。", "", err)
	}
	phase, err := s.catalogRepo.FindPhaseByID(ctx, s.db, text.PhaseID)
	if err != nil {
		logger.Error("Failed to find phase for text", "error", err, "text_id", text.ID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "段階情報の取得に失敗しました。", "", err)
	}
	guide, err := s.catalogRepo.FindGuideByPassage(ctx, s.db, passage.ID)
	if err != nil {
		logger.Error("Failed to find study guide", "error", err, "passage_id", passage.ID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "学習ガイドの取得に失敗しました。", "", err)
	}
	progress, err := s.progRepo.FindByPassageID(ctx, s.db, passage.ID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Error("Failed to find progress", "error", err, "passage_id", passage.ID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の取得に失敗しました。", "", err)
	}

	return &model.CurrentReading{
		Passage:    passage,
		StudyGuide: guide,
		Text:       text,
		Phase:      phase,
		Progress:   progress,
	}, nil
}

func (s *curriculumService) GetOverview(ctx context.Context) (*model.OverviewResponse, error) {
	logger := middleware.GetLogger(ctx)

	phases, err := s.catalogRepo.FindPhases(ctx, s.db)
	if err != nil {
		logger.Error("Failed to find phases", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "段階一覧の取得に失敗しました。", "", err)
	}
	completedCount64, err := s.progRepo.CountCompleted(ctx, s.db)
	if err != nil {
		logger.Error("Failed to count completed passages", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の取得に失敗しました。", "", err)
	}

	var (
		phaseProgress []model.PhaseProgress
		totalPassages int
		currentPhase  *model.Phase
		prevComplete  = true // 先頭の段階は常に解放
	)
	for i := range phases {
		phase := phases[i]
		texts, err := s.catalogRepo.FindTextsByPhase(ctx, s.db, phase.ID)
		if err != nil {
			logger.Error("Failed to find texts for phase", "error", err, "phase_id", phase.ID)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "著作一覧の取得に失敗しました。", "", err)
		}

		var phaseTotal, phaseCompleted int
		for _, text := range texts {
			total, err := s.catalogRepo.CountPassagesByText(ctx, s.db, text.ID)
			if err != nil {
				logger.Error("Failed to count passages for text", "error", err, "text_id", text.ID)
				return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージ数の取得に失敗しました。", "", err)
			}
			completed, err := s.progRepo.CountCompletedByText(ctx, s.db, text.ID)
			if err != nil {
				logger.Error("Failed to count completed passages for text", "error", err, "text_id", text.ID)
				return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の取得に失敗しました。", "", err)
			}
			phaseTotal += int(total)
			phaseCompleted += int(completed)
		}
		totalPassages += phaseTotal

		unlocked := prevComplete
		// パッセージを1つも持たない段階 (原典の取り込みに失敗した場合など) は
		// 読了済みとして扱い、後続の段階を塞がない
		phaseDone := phaseCompleted == phaseTotal
		if currentPhase == nil && unlocked && phaseTotal > 0 && !phaseDone {
			currentPhase = &phase
		}
		phaseProgress = append(phaseProgress, model.PhaseProgress{
			Phase:             &phases[i],
			Texts:             texts,
			PassagesCompleted: phaseCompleted,
			PassagesTotal:     phaseTotal,
			IsUnlocked:        unlocked,
		})
		// 終わりのない段階は後続の解放を妨げない
		prevComplete = prevComplete && (phaseDone || phase.IsOngoing)
	}

	completedCount := int(completedCount64)
	percent := 0
	if totalPassages > 0 {
		percent = int(math.Round(float64(completedCount) / float64(totalPassages) * 100))
	}

	return &model.OverviewResponse{
		Progress: model.OverviewStats{
			TotalPassages:     totalPassages,
			CompletedPassages: completedCount,
			PercentComplete:   percent,
			DaysOnJourney:     s.daysOnJourney(ctx),
			DayNumber:         completedCount + 1,
		},
		CurrentPhase: currentPhase,
		Phases:       phaseProgress,
	}, nil
}

// daysOnJourney は学習開始からの経過日数を返します。設定の開始日を優先し、
// 無ければ最初の進捗レコードの作成日から推定する。どちらも無ければ 0
func (s *curriculumService) daysOnJourney(ctx context.Context) int {
	logger := middleware.GetLogger(ctx)

	var start time.Time
	settings, err := s.settingsRepo.Find(ctx, s.db)
	if err == nil && settings.StartDate != "" {
		if t, perr := time.ParseInLocation("2006-01-02", settings.StartDate, time.Local); perr == nil {
			start = t
		}
	}
	if start.IsZero() {
		earliest, err := s.progRepo.FindEarliest(ctx, s.db)
		if err != nil {
			if !errors.Is(err, model.ErrNotFound) {
				logger.Warn("Failed to find earliest progress for day count", "error", err)
			}
			return 0
		}
		start = earliest.CreatedAt
	}

	days := int(time.Since(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return days
}

func (s *curriculumService) ListPhases(ctx context.Context) ([]model.PhaseWithTexts, error) {
	logger := middleware.GetLogger(ctx)

	phases, err := s.catalogRepo.FindPhases(ctx, s.db)
	if err != nil {
		logger.Error("Failed to find phases", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "段階一覧の取得に失敗しました。", "", err)
	}

	result := make([]model.PhaseWithTexts, 0, len(phases))
	for i := range phases {
		texts, err := s.catalogRepo.FindTextsByPhase(ctx, s.db, phases[i].ID)
		if err != nil {
			logger.Error("Failed to find texts for phase", "error", err, "phase_id", phases[i].ID)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "著作一覧の取得に失敗しました。", "", err)
		}
		result = append(result, model.PhaseWithTexts{Phase: phases[i], TextList: texts})
	}
	return result, nil
}

func (s *curriculumService) GetPassage(ctx context.Context, passageID string) (*model.PassageDetail, error) {
	logger := middleware.GetLogger(ctx)

	passage, err := s.catalogRepo.FindPassageByID(ctx, s.db, passageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "指定されたパッセージが見つかりません。", "passage_id", err)
		}
		logger.Error("Failed to find passage", "error", err, "passage_id", passageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージの取得に失敗しました。", "", err)
	}

	reading, err := s.assembleReading(ctx, passage)
	if err != nil {
		return nil, err
	}
	return &model.PassageDetail{
		Passage:    reading.Passage,
		StudyGuide: reading.StudyGuide,
		Text:       reading.Text,
		Phase:      reading.Phase,
		Progress:   reading.Progress,
	}, nil
}

func (s *curriculumService) ListTextPassages(ctx context.Context, textID string) ([]model.PassageListItem, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.catalogRepo.FindTextByID(ctx, s.db, textID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "指定された著作が見つかりません。", "text_id", err)
		}
		logger.Error("Failed to find text", "error", err, "text_id", textID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "著作の取得に失敗しました。", "", err)
	}

	passages, err := s.catalogRepo.FindPassagesByText(ctx, s.db, textID)
	if err != nil {
		logger.Error("Failed to find passages for text", "error", err, "text_id", textID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージ一覧の取得に失敗しました。", "", err)
	}
	completedIDs, err := s.progRepo.FindCompletedPassageIDs(ctx, s.db)
	if err != nil {
		logger.Error("Failed to find completed passage IDs", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の取得に失敗しました。", "", err)
	}
	completedSet := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		completedSet[id] = struct{}{}
	}

	items := make([]model.PassageListItem, 0, len(passages))
	for _, p := range passages {
		_, done := completedSet[p.ID]
		items = append(items, model.PassageListItem{
			ID:         p.ID,
			Reference:  p.Reference,
			OrderIndex: p.OrderIndex,
			Completed:  done,
		})
	}
	return items, nil
}

// GetNeighbors は自由ナビゲーション用の前後パッセージを返します。
// スコープは同一著作内に限る
func (s *curriculumService) GetNeighbors(ctx context.Context, passageID string) (*model.NeighborsResponse, error) {
	logger := middleware.GetLogger(ctx)

	passage, err := s.catalogRepo.FindPassageByID(ctx, s.db, passageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "指定されたパッセージが見つかりません。", "passage_id", err)
		}
		logger.Error("Failed to find passage", "error", err, "passage_id", passageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージの取得に失敗しました。", "", err)
	}

	prev, next, err := s.catalogRepo.FindNeighbors(ctx, s.db, passage)
	if err != nil {
		logger.Error("Failed to find neighbor passages", "error", err, "passage_id", passageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "前後パッセージの取得に失敗しました。", "", err)
	}
	return &model.NeighborsResponse{Prev: prev, Next: next}, nil
}

// UpsertProgress は進捗を遅延生成または更新します。戻り値の bool は
// 新規作成かどうか (ハンドラが 201/200 を出し分ける)。読了の再送信は
// 冪等で、最初の読了日時を保持する
func (s *curriculumService) UpsertProgress(ctx context.Context, passageID string, req *model.UpsertProgressRequest) (*model.UpsertResult, bool, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.catalogRepo.FindPassageByID(ctx, s.db, passageID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, false, model.NewAppError("NOT_FOUND", "指定されたパッセージが見つかりません。", "passage_id", err)
		}
		logger.Error("Failed to find passage for progress", "error", err, "passage_id", passageID)
		return nil, false, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージの取得に失敗しました。", "", err)
	}

	var (
		resultID string
		created  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.progRepo.FindByPassageID(ctx, tx, passageID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}

		now := time.Now()
		if existing == nil {
			record := &model.ProgressRecord{
				ID:        uuid.New(),
				PassageID: passageID,
				Status:    req.Status,
			}
			switch req.Status {
			case model.StatusInProgress:
				record.StartedAt = &now
			case model.StatusCompleted:
				record.StartedAt = &now
				record.CompletedAt = &now
				record.ActualDate = now.Format("2006-01-02")
			}
			if req.TimeSpentMinutes != nil {
				record.TimeSpentMinutes = *req.TimeSpentMinutes
			}
			if err := s.progRepo.Create(ctx, tx, record); err != nil {
				return err
			}
			resultID = record.ID.String()
			created = true
			return nil
		}

		updates := map[string]interface{}{"status": req.Status}
		if req.Status == model.StatusInProgress && existing.StartedAt == nil {
			updates["started_at"] = now
		}
		// 既読了の再送信では最初の読了日時を保持する (冪等)
		if req.Status == model.StatusCompleted && existing.Status != model.StatusCompleted {
			if existing.StartedAt == nil {
				updates["started_at"] = now
			}
			updates["completed_at"] = now
			updates["actual_date"] = now.Format("2006-01-02")
		}
		if req.TimeSpentMinutes != nil {
			updates["time_spent_minutes"] = *req.TimeSpentMinutes
		}
		if err := s.progRepo.Update(ctx, tx, existing.ID, updates); err != nil {
			return err
		}
		resultID = existing.ID.String()
		return nil
	})
	if err != nil {
		logger.Error("Transaction failed for UpsertProgress", "error", err, "passage_id", passageID)
		return nil, false, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗の保存に失敗しました。", "", err)
	}

	logger.Info("Upserted progress", "passage_id", passageID, "status", string(req.Status), "created", created)
	return &model.UpsertResult{ID: resultID, Success: true}, created, nil
}

func (s *curriculumService) ListProgress(ctx context.Context) ([]model.ProgressRecord, error) {
	logger := middleware.GetLogger(ctx)

	records, err := s.progRepo.FindAll(ctx, s.db)
	if err != nil {
		logger.Error("Failed to list progress records", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "進捗一覧の取得に失敗しました。", "", err)
	}
	return records, nil
}
