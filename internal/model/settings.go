// internal/model/settings.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CurriculumSettings は読書ペースの設定 (シングルユーザーのため1行のみ)
type CurriculumSettings struct {
	ID            uuid.UUID                `gorm:"type:uuid;primaryKey" json:"id"`
	Frequency     string                   `gorm:"not null;default:daily" json:"frequency"`
	PreferredDays datatypes.JSONSlice[int] `json:"preferred_days"` // 0-6 (日-土)
	StartDate     string                   `json:"start_date"`     // YYYY-MM-DD
	IsActive      bool                     `gorm:"default:true" json:"is_active"`
	ReminderTime  string                   `json:"reminder_time"` // '08:00'
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func (CurriculumSettings) TableName() string {
	return "curriculum_settings"
}

// 設定更新リクエストDTO
type UpdateSettingsRequest struct {
	Frequency     string `json:"frequency" validate:"required,oneof=daily every_other_day 3x_week 2x_week weekly"`
	PreferredDays []int  `json:"preferred_days,omitempty" validate:"omitempty,dive,min=0,max=6"`
	ReminderTime  string `json:"reminder_time,omitempty"`
}
