package service

import (
	"context"
	"testing"
	"time"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsService(t *testing.T) {
	t.Run("正常系: 初回取得で既定値の行が作られる", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewSettingsService(db, repository.NewGormSettingsRepository())

		settings, err := svc.GetSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "daily", settings.Frequency)
		assert.True(t, settings.IsActive)
		assert.Equal(t, time.Now().Format("2006-01-02"), settings.StartDate)

		// 2回目は同じ行が返る
		again, err := svc.GetSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, settings.ID, again.ID)
	})

	t.Run("正常系: 更新は既存行を書き換える", func(t *testing.T) {
		db := newTestDB(t)
		svc := NewSettingsService(db, repository.NewGormSettingsRepository())

		updated, err := svc.UpdateSettings(context.Background(), &model.UpdateSettingsRequest{
			Frequency:     "3x_week",
			PreferredDays: []int{1, 3, 5},
			ReminderTime:  "08:00",
		})
		require.NoError(t, err)
		assert.Equal(t, "3x_week", updated.Frequency)
		assert.Equal(t, "08:00", updated.ReminderTime)
		require.Len(t, updated.PreferredDays, 3)

		var count int64
		require.NoError(t, db.Model(&model.CurriculumSettings{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}
