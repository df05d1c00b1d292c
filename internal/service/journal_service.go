package service

import (
	"context"
	"errors"

	"go_stoic_journal/internal/config"
	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JournalService は読書ジャーナルの upsert と一覧を提供します
type JournalService interface {
	UpsertEntry(ctx context.Context, req *model.UpsertJournalRequest) (*model.UpsertResult, bool, error)
	GetEntry(ctx context.Context, passageID string) (*model.JournalRecord, error)
	ListEntries(ctx context.Context, limit, offset int) ([]model.JournalWithPassage, error)
}

type journalService struct {
	db          *gorm.DB
	journalRepo repository.JournalRepository
	catalogRepo repository.CatalogRepository
	progRepo    repository.ProgressRepository
}

func NewJournalService(db *gorm.DB, journalRepo repository.JournalRepository, catalogRepo repository.CatalogRepository, progRepo repository.ProgressRepository) JournalService {
	return &journalService{
		db:          db,
		journalRepo: journalRepo,
		catalogRepo: catalogRepo,
		progRepo:    progRepo,
	}
}

// UpsertEntry はジャーナルをパッセージ単位で作成または部分更新します。
// リクエストで nil のフィールドは既存値を保持する。戻り値の bool は
// 新規作成かどうか
func (s *journalService) UpsertEntry(ctx context.Context, req *model.UpsertJournalRequest) (*model.UpsertResult, bool, error) {
	logger := middleware.GetLogger(ctx)

	if _, err := s.catalogRepo.FindPassageByID(ctx, s.db, req.PassageID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, false, model.NewAppError("NOT_FOUND", "指定されたパッセージが見つかりません。", "passage_id", err)
		}
		logger.Error("Failed to find passage for journal", "error", err, "passage_id", req.PassageID)
		return nil, false, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージの取得に失敗しました。", "", err)
	}

	var (
		resultID string
		created  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.journalRepo.FindByPassageID(ctx, tx, req.PassageID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}

		if existing == nil {
			record := &model.JournalRecord{
				ID:        uuid.New(),
				PassageID: req.PassageID,
			}
			// 作成時点で進捗レコードがあれば緩く関連付ける。後から進捗が
			// 作られても遡って付け直さない
			if progress, perr := s.progRepo.FindByPassageID(ctx, tx, req.PassageID); perr == nil {
				record.ProgressID = &progress.ID
			}
			if req.Reflection != nil {
				record.Reflection = *req.Reflection
			}
			if req.PersonalConnection != nil {
				record.PersonalConnection = *req.PersonalConnection
			}
			if req.QuestionsAnswered != nil {
				record.QuestionsAnswered = datatypes.NewJSONSlice(req.QuestionsAnswered)
			}
			if req.FavoriteQuote != nil {
				record.FavoriteQuote = *req.FavoriteQuote
			}
			if req.PracticeCommitment != nil {
				record.PracticeCommitment = *req.PracticeCommitment
			}
			record.MoodBefore = req.MoodBefore
			record.MoodAfter = req.MoodAfter
			if err := s.journalRepo.Create(ctx, tx, record); err != nil {
				return err
			}
			resultID = record.ID.String()
			created = true
			return nil
		}

		// 部分更新: 指定されたフィールドだけ上書きする
		updates := map[string]interface{}{}
		if req.Reflection != nil {
			updates["reflection"] = *req.Reflection
		}
		if req.PersonalConnection != nil {
			updates["personal_connection"] = *req.PersonalConnection
		}
		if req.QuestionsAnswered != nil {
			updates["questions_answered"] = datatypes.NewJSONSlice(req.QuestionsAnswered)
		}
		if req.FavoriteQuote != nil {
			updates["favorite_quote"] = *req.FavoriteQuote
		}
		if req.PracticeCommitment != nil {
			updates["practice_commitment"] = *req.PracticeCommitment
		}
		if req.MoodBefore != nil {
			updates["mood_before"] = *req.MoodBefore
		}
		if req.MoodAfter != nil {
			updates["mood_after"] = *req.MoodAfter
		}
		if err := s.journalRepo.Update(ctx, tx, existing.ID, updates); err != nil {
			return err
		}
		resultID = existing.ID.String()
		return nil
	})
	if err != nil {
		logger.Error("Transaction failed for UpsertEntry", "error", err, "passage_id", req.PassageID)
		return nil, false, model.NewAppError("INTERNAL_SERVER_ERROR", "ジャーナルの保存に失敗しました。", "", err)
	}

	logger.Info("Upserted journal entry", "passage_id", req.PassageID, "created", created)
	return &model.UpsertResult{ID: resultID, Success: true}, created, nil
}

func (s *journalService) GetEntry(ctx context.Context, passageID string) (*model.JournalRecord, error) {
	logger := middleware.GetLogger(ctx)

	record, err := s.journalRepo.FindByPassageID(ctx, s.db, passageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "ジャーナルが見つかりません。", "passage_id", err)
		}
		logger.Error("Failed to find journal entry", "error", err, "passage_id", passageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ジャーナルの取得に失敗しました。", "", err)
	}
	return record, nil
}

func (s *journalService) ListEntries(ctx context.Context, limit, offset int) ([]model.JournalWithPassage, error) {
	logger := middleware.GetLogger(ctx)

	if limit <= 0 || limit > 100 {
		limit = config.DefaultJournalListLimit
		if config.Cfg.App.JournalListLimit > 0 {
			limit = config.Cfg.App.JournalListLimit
		}
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.journalRepo.List(ctx, s.db, limit, offset)
	if err != nil {
		logger.Error("Failed to list journal entries", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "ジャーナル一覧の取得に失敗しました。", "", err)
	}

	result := make([]model.JournalWithPassage, 0, len(records))
	for i := range records {
		passage, err := s.catalogRepo.FindPassageByID(ctx, s.db, records[i].PassageID)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			logger.Error("Failed to find passage for journal entry", "error", err, "passage_id", records[i].PassageID)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージの取得に失敗しました。", "", err)
		}
		result = append(result, model.JournalWithPassage{JournalRecord: records[i], Passage: passage})
	}
	return result, nil
}
