package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go_stoic_journal/internal/middleware"
	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MentorProvider は外部のメンター応答生成を抽象化します。履歴は古い順
type MentorProvider interface {
	Reply(ctx context.Context, systemPrompt string, history []model.DiscussionMessage, userMessage string) (string, error)
}

// DiscussionService はパッセージごとのメンター対話を提供します
type DiscussionService interface {
	Discuss(ctx context.Context, req *model.DiscussRequest) (*model.DiscussResponse, error)
	GetHistory(ctx context.Context, passageID string) (*model.DiscussionHistory, error)
	ClearHistory(ctx context.Context, passageID string) error
}

type discussionService struct {
	db          *gorm.DB
	discRepo    repository.DiscussionRepository
	catalogRepo repository.CatalogRepository
	mentor      MentorProvider
}

func NewDiscussionService(db *gorm.DB, discRepo repository.DiscussionRepository, catalogRepo repository.CatalogRepository, mentor MentorProvider) DiscussionService {
	return &discussionService{
		db:          db,
		discRepo:    discRepo,
		catalogRepo: catalogRepo,
		mentor:      mentor,
	}
}

// Discuss はユーザー発話をメンターに渡し、応答をスレッドに追記します。
// 外部呼び出しが失敗した場合はスレッドを一切変更しない (ターン対は
// 成功時のみまとめて永続化)
func (s *discussionService) Discuss(ctx context.Context, req *model.DiscussRequest) (*model.DiscussResponse, error) {
	logger := middleware.GetLogger(ctx)

	passage, err := s.catalogRepo.FindPassageByID(ctx, s.db, req.PassageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "指定されたパッセージが見つかりません。", "passage_id", err)
		}
		logger.Error("Failed to find passage for discussion", "error", err, "passage_id", req.PassageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "パッセージの取得に失敗しました。", "", err)
	}
	text, err := s.catalogRepo.FindTextByID(ctx, s.db, passage.TextID)
	if err != nil {
		logger.Error("Failed to find text for discussion", "error", err, "text_id", passage.TextID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "著作情報の取得に失敗しました。", "", err)
	}
	guide, err := s.catalogRepo.FindGuideByPassage(ctx, s.db, req.PassageID)
	if err != nil {
		logger.Error("Failed to find study guide for discussion", "error", err, "passage_id", req.PassageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "学習ガイドの取得に失敗しました。", "", err)
	}

	thread, err := s.discRepo.FindByPassageID(ctx, s.db, req.PassageID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Error("Failed to find discussion thread", "error", err, "passage_id", req.PassageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "対話履歴の取得に失敗しました。", "", err)
	}

	var history []model.DiscussionMessage
	if thread != nil {
		history = thread.Messages
	}

	reply, err := s.mentor.Reply(ctx, buildMentorPrompt(passage, text, guide), history, req.Message)
	if err != nil {
		logger.Error("Mentor provider call failed", "error", err, "passage_id", req.PassageID)
		return nil, model.NewAppError("EXTERNAL_SERVICE_ERROR", "メンター応答の生成に失敗しました。時間をおいて再試行してください。", "", model.ErrExternalService)
	}

	now := time.Now().Format(time.RFC3339)
	turn := []model.DiscussionMessage{
		{Role: model.RoleUser, Content: req.Message, Timestamp: now},
		{Role: model.RoleAssistant, Content: reply, Timestamp: now},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if thread == nil {
			return s.discRepo.Create(ctx, tx, &model.DiscussionThread{
				ID:        uuid.New(),
				PassageID: req.PassageID,
				Messages:  turn,
			})
		}
		thread.Messages = append(thread.Messages, turn...)
		return s.discRepo.Save(ctx, tx, thread)
	})
	if err != nil {
		logger.Error("Transaction failed for Discuss", "error", err, "passage_id", req.PassageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "対話の保存に失敗しました。", "", err)
	}

	logger.Info("Recorded discussion turn", "passage_id", req.PassageID)
	return &model.DiscussResponse{Response: reply}, nil
}

func (s *discussionService) GetHistory(ctx context.Context, passageID string) (*model.DiscussionHistory, error) {
	logger := middleware.GetLogger(ctx)

	thread, err := s.discRepo.FindByPassageID(ctx, s.db, passageID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// 対話が始まっていないパッセージは空の履歴
			return &model.DiscussionHistory{Messages: []model.DiscussionMessage{}}, nil
		}
		logger.Error("Failed to find discussion thread", "error", err, "passage_id", passageID)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "対話履歴の取得に失敗しました。", "", err)
	}
	return &model.DiscussionHistory{Messages: thread.Messages}, nil
}

// ClearHistory は対話ログを破棄します (存在しない場合も成功扱い)
func (s *discussionService) ClearHistory(ctx context.Context, passageID string) error {
	logger := middleware.GetLogger(ctx)

	if err := s.discRepo.DeleteByPassageID(ctx, s.db, passageID); err != nil {
		logger.Error("Failed to clear discussion thread", "error", err, "passage_id", passageID)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "対話履歴の削除に失敗しました。", "", err)
	}
	logger.Info("Cleared discussion thread", "passage_id", passageID)
	return nil
}

// buildMentorPrompt は対話のシステムプロンプトを組み立てます。読んでいる
// パッセージの本文と学習ガイドの概念を文脈として渡す
func buildMentorPrompt(passage *model.Passage, text *model.Text, guide *model.StudyGuide) string {
	prompt := fmt.Sprintf(`You are a thoughtful Stoic philosophy mentor guiding a student through a structured reading curriculum. The student is currently reading:

%s, %s (%s)

Passage content:
%s
`, text.Title, passage.Reference, text.Author, passage.Content)

	if guide != nil && len(guide.StoicConcepts) > 0 {
		prompt += fmt.Sprintf("\nKey Stoic concepts in this passage: %s\n", strings.Join(guide.StoicConcepts, ", "))
	}

	prompt += "\nDiscuss this passage with the student. Draw on Stoic concepts where relevant, relate the ideas to everyday modern life, and ask occasional questions that prompt genuine reflection. Keep responses concise and conversational."
	return prompt
}
