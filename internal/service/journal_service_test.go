package service

import (
	"context"
	"testing"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newJournalService(db *gorm.DB) JournalService {
	return NewJournalService(
		db,
		repository.NewGormJournalRepository(),
		repository.NewGormCatalogRepository(),
		repository.NewGormProgressRepository(),
	)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestJournalService_UpsertEntry(t *testing.T) {
	t.Run("正常系: 新規作成", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newJournalService(db)

		result, created, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
			PassageID:  "passage-001",
			Reflection: strPtr("a"),
			MoodBefore: intPtr(4),
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, result.Success)

		var record model.JournalRecord
		require.NoError(t, db.Where("passage_id = ?", "passage-001").First(&record).Error)
		assert.Equal(t, "a", record.Reflection)
		require.NotNil(t, record.MoodBefore)
		assert.Equal(t, 4, *record.MoodBefore)
		assert.Nil(t, record.ProgressID)
	})

	t.Run("正常系: 部分更新は未指定フィールドを保持する", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newJournalService(db)

		_, _, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
			PassageID:     "passage-001",
			Reflection:    strPtr("a"),
			FavoriteQuote: strPtr("Some things are in our power"),
		})
		require.NoError(t, err)

		// reflection だけ書き換える
		_, created, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
			PassageID:  "passage-001",
			Reflection: strPtr("b"),
		})
		require.NoError(t, err)
		assert.False(t, created)

		var record model.JournalRecord
		require.NoError(t, db.Where("passage_id = ?", "passage-001").First(&record).Error)
		assert.Equal(t, "b", record.Reflection)
		assert.Equal(t, "Some things are in our power", record.FavoriteQuote)
	})

	t.Run("正常系: 作成時に既存の進捗と関連付く", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		curriculumSvc := newCurriculumService(db)
		markCompleted(t, curriculumSvc, "passage-001")
		svc := newJournalService(db)

		_, _, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
			PassageID:  "passage-001",
			Reflection: strPtr("done"),
		})
		require.NoError(t, err)

		var record model.JournalRecord
		require.NoError(t, db.Where("passage_id = ?", "passage-001").First(&record).Error)
		require.NotNil(t, record.ProgressID)

		var progress model.ProgressRecord
		require.NoError(t, db.Where("passage_id = ?", "passage-001").First(&progress).Error)
		assert.Equal(t, progress.ID, *record.ProgressID)
	})

	t.Run("正常系: 設問回答の保存", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newJournalService(db)

		_, _, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
			PassageID: "passage-001",
			QuestionsAnswered: []model.QuestionAnswer{
				{Question: "What is in your power today?", Answer: "My judgments"},
			},
		})
		require.NoError(t, err)

		record, err := svc.GetEntry(context.Background(), "passage-001")
		require.NoError(t, err)
		require.Len(t, record.QuestionsAnswered, 1)
		assert.Equal(t, "My judgments", record.QuestionsAnswered[0].Answer)
	})

	t.Run("異常系: 存在しないパッセージ", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newJournalService(db)

		_, _, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
			PassageID:  "passage-999",
			Reflection: strPtr("a"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestJournalService_GetEntry(t *testing.T) {
	t.Run("異常系: 未記入のパッセージは404相当", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newJournalService(db)

		_, err := svc.GetEntry(context.Background(), "passage-001")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestJournalService_ListEntries(t *testing.T) {
	t.Run("正常系: 新しい順にパッセージつきで返る", func(t *testing.T) {
		db := newTestDB(t)
		seedSmallCatalog(t, db)
		svc := newJournalService(db)

		for _, id := range []string{"passage-001", "passage-002"} {
			_, _, err := svc.UpsertEntry(context.Background(), &model.UpsertJournalRequest{
				PassageID:  id,
				Reflection: strPtr("reflection for " + id),
			})
			require.NoError(t, err)
		}

		entries, err := svc.ListEntries(context.Background(), 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			require.NotNil(t, e.Passage)
			assert.Equal(t, e.PassageID, e.Passage.ID)
		}
	})
}
