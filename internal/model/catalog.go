// internal/model/catalog.go
package model

import (
	"gorm.io/datatypes"
)

// カリキュラムカタログ (Phase / Text / Passage / StudyGuide) はシード時に
// 一度だけ構築され、以降は読み取り専用として扱う。IDはビルダーが決定的に
// 採番する文字列 ("phase-001", "text-001", "passage-001" ...)。

// Phase はカリキュラムの最上位段階 (Foundation, Meditations, ...) を表します
type Phase struct {
	ID             string `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"not null" json:"name"`  // 内部名 ('foundation' など)
	Title          string `gorm:"not null" json:"title"` // 表示名 ('Phase 1: Foundation')
	Description    string `json:"description"`
	OrderIndex     int    `gorm:"not null" json:"order_index"`
	EstimatedWeeks int    `json:"estimated_weeks"`
	IsOngoing      bool   `gorm:"default:false" json:"is_ongoing"` // 終わりのない段階 (日々の実践など)

	Texts []Text `gorm:"foreignKey:PhaseID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Phase) TableName() string {
	return "curriculum_phases"
}

// Text は段階内のひとつの原典 (著作) を表します
type Text struct {
	ID          string `gorm:"primaryKey" json:"id"`
	PhaseID     string `gorm:"not null;index" json:"phase_id"`
	Title       string `gorm:"not null" json:"title"`
	Author      string `gorm:"not null" json:"author"`
	Description string `json:"description"`
	OrderIndex  int    `gorm:"not null" json:"order_index"`
	// TotalPassages は所属 Passage 数の非正規化キャッシュ。シード時に
	// セグメンタの出力数から設定され、ページネーション計算の唯一の
	// 情報源にはしない (常に Passage テーブル側の集計を正とする)
	TotalPassages int `gorm:"default:0" json:"total_passages"`

	Passages []Passage `gorm:"foreignKey:TextID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Text) TableName() string {
	return "curriculum_texts"
}

// Passage は読書と進捗管理の最小単位です
type Passage struct {
	ID            string `gorm:"primaryKey" json:"id"`
	TextID        string `gorm:"not null;index" json:"text_id"`
	SessionNumber int    `gorm:"not null" json:"session_number"` // 巻番号または通し セッション番号
	PassageNumber int    `gorm:"not null" json:"passage_number"` // セッション内の節番号
	Reference     string `json:"reference"`                      // 'Chapter IV', 'Book 2, Passage III', 'Letter XII'
	Content       string `gorm:"not null" json:"content"`
	Translation   string `json:"translation"` // 訳者・底本の出典表記
	// OrderIndex はカタログ全体で一意な通読順。段階順→著作順→原典内の
	// 構造順と整合する全順序を定義する (シード時の不変条件)
	OrderIndex int `gorm:"not null;uniqueIndex" json:"order_index"`

	Guide      *StudyGuide       `gorm:"foreignKey:PassageID;constraint:OnDelete:CASCADE" json:"-"`
	Progress   *ProgressRecord   `gorm:"foreignKey:PassageID;constraint:OnDelete:CASCADE" json:"-"`
	Journal    *JournalRecord    `gorm:"foreignKey:PassageID;constraint:OnDelete:CASCADE" json:"-"`
	Discussion *DiscussionThread `gorm:"foreignKey:PassageID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Passage) TableName() string {
	return "curriculum_passages"
}

// StudyGuide は Passage ごとの補助資料 (0または1件)。コア側では作成せず、
// 添付コンテンツとして扱う
type StudyGuide struct {
	ID                  string                           `gorm:"primaryKey" json:"id"`
	PassageID           string                           `gorm:"not null;uniqueIndex" json:"passage_id"`
	KeyPoints           datatypes.JSONSlice[string]      `json:"key_points"`
	Vocabulary          datatypes.JSONSlice[VocabEntry]  `json:"vocabulary"`
	ReflectionQuestions datatypes.JSONSlice[string]      `json:"reflection_questions"`
	PracticalExercise   string                           `json:"practical_exercise"`
	StoicConcepts       datatypes.JSONSlice[string]      `json:"stoic_concepts"`
}

func (StudyGuide) TableName() string {
	return "study_guides"
}

// VocabEntry は StudyGuide の語彙リストの1項目
type VocabEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// PhaseWithTexts は段階一覧レスポンス用のDTO
type PhaseWithTexts struct {
	Phase
	TextList []Text `json:"texts"`
}

// PassageListItem は著作内パッセージ一覧のレスポンスDTO
type PassageListItem struct {
	ID         string `json:"id"`
	Reference  string `json:"reference"`
	OrderIndex int    `json:"order_index"`
	Completed  bool   `json:"completed"`
}

// PassageDetail は単一パッセージ取得のレスポンスDTO
type PassageDetail struct {
	Passage    *Passage        `json:"passage"`
	StudyGuide *StudyGuide     `json:"study_guide"`
	Text       *Text           `json:"text"`
	Phase      *Phase          `json:"phase"`
	Progress   *ProgressRecord `json:"progress"`
}

// NeighborsResponse は自由ナビゲーション用の前後パッセージ。
// スコープは現在のパッセージが属する著作内に限る (カタログ全体ではない)
type NeighborsResponse struct {
	Prev *Passage `json:"prev"`
	Next *Passage `json:"next"`
}
