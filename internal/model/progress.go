// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

// ProgressRecord はパッセージごとの読了状態を表します (Passage あたり最大1件)。
// レコードはパッセージに最初に触れたときに遅延生成される。not_started →
// in_progress → completed が通常の遷移だが、閲覧を経ない not_started →
// completed の直接遷移も許容する
type ProgressRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PassageID   string         `gorm:"not null;uniqueIndex" json:"passage_id"`
	Status      ProgressStatus `gorm:"not null;default:not_started" json:"status"`
	StartedAt   *time.Time     `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	// ActualDate は読了した「暦日」。ユーザーは自分のロケールで今日を
	// 体験するため、UTCに丸めずローカル日付で一貫して記録する
	ActualDate       string    `json:"actual_date"` // YYYY-MM-DD
	TimeSpentMinutes int       `json:"time_spent_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (ProgressRecord) TableName() string {
	return "curriculum_progress"
}

// 進捗更新リクエストDTO
type UpsertProgressRequest struct {
	Status           ProgressStatus `json:"status" validate:"required,oneof=not_started in_progress completed"`
	TimeSpentMinutes *int           `json:"time_spent_minutes,omitempty" validate:"omitempty,min=0"`
}

// UpsertResult は作成/更新系エンドポイント共通のレスポンス
type UpsertResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}

// CurrentReading は「今日の読書」の内訳
type CurrentReading struct {
	Passage    *Passage        `json:"passage"`
	StudyGuide *StudyGuide     `json:"study_guide"`
	Text       *Text           `json:"text"`
	Phase      *Phase          `json:"phase"`
	Progress   *ProgressRecord `json:"progress"`
}

// TodayResponse は GET /today のレスポンスDTO。
// CurrentReading はカタログ全順序上で最初の未読了パッセージから毎回
// 再計算される (独立したカウンタは持たない)
type TodayResponse struct {
	CurrentReading *CurrentReading `json:"current_reading"`
	DayNumber      int             `json:"day_number"`
	TotalCompleted int             `json:"total_completed"`
	TotalPassages  int             `json:"total_passages"`
	Message        string          `json:"message,omitempty"`
}

// PhaseProgress は全体概況の段階別内訳
type PhaseProgress struct {
	Phase             *Phase `json:"phase"`
	Texts             []Text `json:"texts"`
	PassagesCompleted int    `json:"passages_completed"`
	PassagesTotal     int    `json:"passages_total"`
	IsUnlocked        bool   `json:"is_unlocked"`
}

// OverviewStats は全体概況の集計値
type OverviewStats struct {
	TotalPassages     int `json:"total_passages"`
	CompletedPassages int `json:"completed_passages"`
	PercentComplete   int `json:"percent_complete"`
	DaysOnJourney     int `json:"days_on_journey"`
	DayNumber         int `json:"day_number"`
}

// OverviewResponse は GET /overview のレスポンスDTO
type OverviewResponse struct {
	Progress     OverviewStats   `json:"progress"`
	CurrentPhase *Phase          `json:"current_phase"`
	Phases       []PhaseProgress `json:"phases"`
}
