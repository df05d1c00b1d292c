// internal/model/journal.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JournalRecord はパッセージごとの読書ジャーナル (Passage あたり最大1件)。
// 一意性は passage_id キーの upsert 操作で振る舞いとして保証する。
// ProgressID は作成時点で進捗レコードが存在した場合のみ設定する緩い関連で、
// 後から進捗が作られても遡って付け直さない (ジャーナルと読了は通常同時に
// 書かれるため許容する)
type JournalRecord struct {
	ID                 uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	PassageID          string                              `gorm:"not null;uniqueIndex" json:"passage_id"`
	ProgressID         *uuid.UUID                          `gorm:"type:uuid" json:"progress_id"`
	Reflection         string                              `json:"reflection"`
	PersonalConnection string                              `json:"personal_connection"`
	QuestionsAnswered  datatypes.JSONSlice[QuestionAnswer] `json:"questions_answered"`
	FavoriteQuote      string                              `json:"favorite_quote"`
	PracticeCommitment string                              `json:"practice_commitment"`
	MoodBefore         *int                                `json:"mood_before"` // 1-10
	MoodAfter          *int                                `json:"mood_after"`  // 1-10
	CreatedAt          time.Time                           `json:"created_at"`
	UpdatedAt          time.Time                           `json:"updated_at"`
}

func (JournalRecord) TableName() string {
	return "reading_journal"
}

// QuestionAnswer は振り返り設問への回答1件
type QuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ジャーナル upsert リクエストDTO。nil のフィールドは「未指定」を意味し、
// 既存レコードの該当フィールドを上書きしない (部分更新)
type UpsertJournalRequest struct {
	PassageID          string           `json:"passage_id" validate:"required"`
	Reflection         *string          `json:"reflection,omitempty"`
	PersonalConnection *string          `json:"personal_connection,omitempty"`
	QuestionsAnswered  []QuestionAnswer `json:"questions_answered,omitempty"`
	FavoriteQuote      *string          `json:"favorite_quote,omitempty"`
	PracticeCommitment *string          `json:"practice_commitment,omitempty"`
	MoodBefore         *int             `json:"mood_before,omitempty" validate:"omitempty,min=1,max=10"`
	MoodAfter          *int             `json:"mood_after,omitempty" validate:"omitempty,min=1,max=10"`
}

// JournalWithPassage はジャーナル一覧レスポンス用のDTO
type JournalWithPassage struct {
	JournalRecord
	Passage *Passage `json:"passage"`
}
