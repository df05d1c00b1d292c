package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockMentorProvider は MentorProvider の testify モック
type mockMentorProvider struct {
	mock.Mock
}

func (m *mockMentorProvider) Reply(ctx context.Context, systemPrompt string, history []model.DiscussionMessage, userMessage string) (string, error) {
	args := m.Called(ctx, systemPrompt, history, userMessage)
	return args.String(0), args.Error(1)
}

func newDiscussionService(db *gorm.DB, mentor MentorProvider) DiscussionService {
	return NewDiscussionService(
		db,
		repository.NewGormDiscussionRepository(),
		repository.NewGormCatalogRepository(),
		mentor,
	)
}

func TestDiscussionService_Discuss(t *testing.T) {
	t.Run("正常系: 成功時にユーザー発話と応答のターン対が永続化される", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		mentor := new(mockMentorProvider)
		mentor.On("Reply", mock.Anything, mock.Anything, mock.Anything, "What does this mean?").
			Return("It means some things are up to us.", nil)
		svc := newDiscussionService(db, mentor)

		resp, err := svc.Discuss(context.Background(), &model.DiscussRequest{
			PassageID: "passage-001",
			Message:   "What does this mean?",
		})
		require.NoError(t, err)
		assert.Equal(t, "It means some things are up to us.", resp.Response)

		var thread model.DiscussionThread
		require.NoError(t, db.Where("passage_id = ?", "passage-001").First(&thread).Error)
		require.Len(t, thread.Messages, 2)
		assert.Equal(t, model.RoleUser, thread.Messages[0].Role)
		assert.Equal(t, "What does this mean?", thread.Messages[0].Content)
		assert.Equal(t, model.RoleAssistant, thread.Messages[1].Role)
		mentor.AssertExpectations(t)
	})

	t.Run("正常系: 2ターン目は履歴つきで呼ばれ追記される", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		mentor := new(mockMentorProvider)
		mentor.On("Reply", mock.Anything, mock.Anything, mock.MatchedBy(func(h []model.DiscussionMessage) bool {
			return len(h) == 0
		}), mock.Anything).Return("first reply", nil).Once()
		mentor.On("Reply", mock.Anything, mock.Anything, mock.MatchedBy(func(h []model.DiscussionMessage) bool {
			return len(h) == 2
		}), mock.Anything).Return("second reply", nil).Once()
		svc := newDiscussionService(db, mentor)

		_, err := svc.Discuss(context.Background(), &model.DiscussRequest{PassageID: "passage-001", Message: "one"})
		require.NoError(t, err)
		_, err = svc.Discuss(context.Background(), &model.DiscussRequest{PassageID: "passage-001", Message: "two"})
		require.NoError(t, err)

		var thread model.DiscussionThread
		require.NoError(t, db.Where("passage_id = ?", "passage-001").First(&thread).Error)
		assert.Len(t, thread.Messages, 4)
		mentor.AssertExpectations(t)
	})

	t.Run("正常系: システムプロンプトにパッセージ本文が含まれる", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		mentor := new(mockMentorProvider)
		mentor.On("Reply", mock.Anything, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "content 1") && strings.Contains(prompt, "Enchiridion")
		}), mock.Anything, mock.Anything).Return("ok", nil)
		svc := newDiscussionService(db, mentor)

		_, err := svc.Discuss(context.Background(), &model.DiscussRequest{PassageID: "passage-001", Message: "hi"})
		require.NoError(t, err)
		mentor.AssertExpectations(t)
	})

	t.Run("異常系: 外部呼び出し失敗時はスレッドを変更しない", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		mentor := new(mockMentorProvider)
		mentor.On("Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("upstream timeout"))
		svc := newDiscussionService(db, mentor)

		_, err := svc.Discuss(context.Background(), &model.DiscussRequest{
			PassageID: "passage-001",
			Message:   "hello",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrExternalService)

		var count int64
		require.NoError(t, db.Model(&model.DiscussionThread{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("異常系: 存在しないパッセージではメンターを呼ばない", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		mentor := new(mockMentorProvider)
		svc := newDiscussionService(db, mentor)

		_, err := svc.Discuss(context.Background(), &model.DiscussRequest{
			PassageID: "passage-999",
			Message:   "hello",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
		mentor.AssertNotCalled(t, "Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDiscussionService_GetHistory(t *testing.T) {
	t.Run("正常系: 未開始のパッセージは空の履歴", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newDiscussionService(db, new(mockMentorProvider))

		history, err := svc.GetHistory(context.Background(), "passage-001")
		require.NoError(t, err)
		assert.Empty(t, history.Messages)
	})
}

func TestDiscussionService_ClearHistory(t *testing.T) {
	t.Run("正常系: スレッドを破棄し再取得は空になる", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		mentor := new(mockMentorProvider)
		mentor.On("Reply", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)
		svc := newDiscussionService(db, mentor)

		_, err := svc.Discuss(context.Background(), &model.DiscussRequest{PassageID: "passage-001", Message: "hi"})
		require.NoError(t, err)

		require.NoError(t, svc.ClearHistory(context.Background(), "passage-001"))

		history, err := svc.GetHistory(context.Background(), "passage-001")
		require.NoError(t, err)
		assert.Empty(t, history.Messages)
	})

	t.Run("正常系: スレッドが無くても成功する", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newDiscussionService(db, new(mockMentorProvider))

		require.NoError(t, svc.ClearHistory(context.Background(), "passage-001"))
	})
}
