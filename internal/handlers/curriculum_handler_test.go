package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/repository"
	"go_stoic_journal/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// setupTestRouter はインメモリ SQLite と実サービスで chi ルータを組み立てます
func setupTestRouter(t *testing.T) (*chi.Mux, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Phase{},
		&model.Text{},
		&model.Passage{},
		&model.StudyGuide{},
		&model.ProgressRecord{},
		&model.JournalRecord{},
		&model.DiscussionThread{},
		&model.CurriculumSettings{},
	))

	// 1段階・1著作・3パッセージの最小カタログ
	require.NoError(t, db.Create(&model.Phase{
		ID: "phase-001", Name: "foundation", Title: "Phase 1: Foundation", OrderIndex: 1,
	}).Error)
	require.NoError(t, db.Create(&model.Text{
		ID: "text-001", PhaseID: "phase-001", Title: "Enchiridion", Author: "Epictetus",
		OrderIndex: 1, TotalPassages: 3,
	}).Error)
	for i := 1; i <= 3; i++ {
		require.NoError(t, db.Create(&model.Passage{
			ID:            fmt.Sprintf("passage-%03d", i),
			TextID:        "text-001",
			SessionNumber: i,
			PassageNumber: 1,
			Reference:     fmt.Sprintf("Chapter %d", i),
			Content:       fmt.Sprintf("content %d", i),
			OrderIndex:    i,
		}).Error)
	}

	catalogRepo := repository.NewGormCatalogRepository()
	progressRepo := repository.NewGormProgressRepository()
	journalRepo := repository.NewGormJournalRepository()
	settingsRepo := repository.NewGormSettingsRepository()

	curriculumService := service.NewCurriculumService(db, catalogRepo, progressRepo, settingsRepo)
	journalService := service.NewJournalService(db, journalRepo, catalogRepo, progressRepo)

	curriculumHandler := NewCurriculumHandler(curriculumService, testLogger)
	journalHandler := NewJournalHandler(journalService, testLogger)

	r := chi.NewRouter()
	r.Route("/api/v1/curriculum", func(r chi.Router) {
		r.Get("/today", curriculumHandler.GetToday)
		r.Get("/overview", curriculumHandler.GetOverview)
		r.Get("/phases", curriculumHandler.GetPhases)
		r.Get("/texts/{text_id}/passages", curriculumHandler.GetTextPassages)
		r.Get("/passages/{passage_id}", curriculumHandler.GetPassage)
		r.Get("/passages/{passage_id}/neighbors", curriculumHandler.GetNeighbors)
		r.Get("/progress", curriculumHandler.GetProgress)
		r.Post("/progress/{passage_id}", curriculumHandler.PostProgress)
		r.Post("/journal", journalHandler.PostEntry)
		r.Get("/journal", journalHandler.GetEntries)
		r.Get("/journal/{passage_id}", journalHandler.GetEntry)
	})
	return r, db
}

func doRequest(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCurriculumAPI_TodayAndProgressFlow(t *testing.T) {
	r, _ := setupTestRouter(t)

	// 1日目: 先頭のパッセージ
	rec := doRequest(t, r, http.MethodGet, "/api/v1/curriculum/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var today model.TodayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &today))
	require.NotNil(t, today.CurrentReading)
	assert.Equal(t, "passage-001", today.CurrentReading.Passage.ID)
	assert.Equal(t, "Chapter 1", today.CurrentReading.Passage.Reference)
	assert.Equal(t, 1, today.DayNumber)

	// 読了を記録 → 201
	rec = doRequest(t, r, http.MethodPost, "/api/v1/curriculum/progress/passage-001",
		map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result model.UpsertResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)

	// 再送信は冪等で 200
	rec = doRequest(t, r, http.MethodPost, "/api/v1/curriculum/progress/passage-001",
		map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	// 2日目: 次のパッセージに進む
	rec = doRequest(t, r, http.MethodGet, "/api/v1/curriculum/today", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &today))
	require.NotNil(t, today.CurrentReading)
	assert.Equal(t, "passage-002", today.CurrentReading.Passage.ID)
	assert.Equal(t, 2, today.DayNumber)
	assert.Equal(t, 1, today.TotalCompleted)
}

func TestCurriculumAPI_Validation(t *testing.T) {
	r, _ := setupTestRouter(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
	}{
		{
			name:     "異常系: 不正なステータス",
			method:   http.MethodPost,
			path:     "/api/v1/curriculum/progress/passage-001",
			body:     map[string]interface{}{"status": "finished"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "異常系: 存在しないパッセージへの進捗",
			method:   http.MethodPost,
			path:     "/api/v1/curriculum/progress/passage-999",
			body:     map[string]interface{}{"status": "completed"},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "異常系: 存在しないパッセージの取得",
			method:   http.MethodGet,
			path:     "/api/v1/curriculum/passages/passage-999",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "異常系: ジャーナルの必須フィールド欠落",
			method:   http.MethodPost,
			path:     "/api/v1/curriculum/journal",
			body:     map[string]interface{}{"reflection": "a"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "異常系: 気分スコアの範囲外",
			method:   http.MethodPost,
			path:     "/api/v1/curriculum/journal",
			body:     map[string]interface{}{"passage_id": "passage-001", "mood_before": 11},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var errResp model.APIErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
			assert.NotEmpty(t, errResp.Error.Code)
		})
	}
}

func TestCurriculumAPI_PassagesAndNeighbors(t *testing.T) {
	r, _ := setupTestRouter(t)

	rec := doRequest(t, r, http.MethodPost, "/api/v1/curriculum/progress/passage-002",
		map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/curriculum/texts/text-001/passages", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []model.PassageListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 3)
	assert.False(t, items[0].Completed)
	assert.True(t, items[1].Completed)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/curriculum/passages/passage-001/neighbors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var neighbors model.NeighborsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &neighbors))
	assert.Nil(t, neighbors.Prev)
	require.NotNil(t, neighbors.Next)
	assert.Equal(t, "passage-002", neighbors.Next.ID)
}

func TestCurriculumAPI_JournalFlow(t *testing.T) {
	r, _ := setupTestRouter(t)

	// 新規作成 → 201
	rec := doRequest(t, r, http.MethodPost, "/api/v1/curriculum/journal",
		map[string]interface{}{"passage_id": "passage-001", "reflection": "first thoughts"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// 部分更新 → 200
	rec = doRequest(t, r, http.MethodPost, "/api/v1/curriculum/journal",
		map[string]interface{}{"passage_id": "passage-001", "mood_after": 8})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/curriculum/journal/passage-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var record model.JournalRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "first thoughts", record.Reflection)
	require.NotNil(t, record.MoodAfter)
	assert.Equal(t, 8, *record.MoodAfter)

	rec = doRequest(t, r, http.MethodGet, "/api/v1/curriculum/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []model.JournalWithPassage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Passage)
	assert.Equal(t, "passage-001", entries[0].Passage.ID)
}
