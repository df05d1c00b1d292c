// internal/model/discussion.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DiscussionMessage はメンターとの対話の1ターン
type DiscussionMessage struct {
	Role      string `json:"role"` // user / assistant
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// DiscussionThread はパッセージごとのメンター対話ログ (Passage あたり最大1件)。
// 追記専用で、ユーザー発話とメンター応答のターン対は外部呼び出しが成功した
// 場合にのみまとめて永続化される (失敗時は一切変更しない)
type DiscussionThread struct {
	ID        uuid.UUID                              `gorm:"type:uuid;primaryKey" json:"id"`
	PassageID string                                 `gorm:"not null;uniqueIndex" json:"passage_id"`
	Messages  datatypes.JSONSlice[DiscussionMessage] `json:"messages"`
	CreatedAt time.Time                              `json:"created_at"`
	UpdatedAt time.Time                              `json:"updated_at"`
}

func (DiscussionThread) TableName() string {
	return "curriculum_discussions"
}

// 対話リクエストDTO
type DiscussRequest struct {
	PassageID string `json:"passage_id" validate:"required"`
	Message   string `json:"message" validate:"required,min=1"`
}

// DiscussResponse はメンター応答のレスポンスDTO
type DiscussResponse struct {
	Response string `json:"response"`
}

// DiscussionHistory は対話履歴のレスポンスDTO
type DiscussionHistory struct {
	Messages []DiscussionMessage `json:"messages"`
}
