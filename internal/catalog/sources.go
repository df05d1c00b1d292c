// internal/catalog/sources.go
package catalog

import (
	"fmt"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/segmenter"
)

// DefaultPhases はカリキュラムの段階定義を返します
func DefaultPhases() []model.Phase {
	return []model.Phase{
		{
			ID:             "phase-001",
			Name:           "foundation",
			Title:          "Phase 1: Foundation",
			Description:    "Begin your Stoic journey with the Enchiridion, a practical manual of Stoic ethical advice compiled by Arrian from the teachings of Epictetus.",
			OrderIndex:     1,
			EstimatedWeeks: 8,
		},
		{
			ID:             "phase-002",
			Name:           "meditations",
			Title:          "Phase 2: Meditations",
			Description:    "Deepen your practice with the personal writings of Marcus Aurelius, Roman Emperor and Stoic philosopher. These private reflections show Stoicism applied to the challenges of leadership and daily life.",
			OrderIndex:     2,
			EstimatedWeeks: 16,
		},
		{
			ID:             "phase-003",
			Name:           "letters",
			Title:          "Phase 3: Letters from a Stoic",
			Description:    "Study Seneca's Letters to Lucilius, a collection of moral epistles addressing practical Stoic philosophy and the art of living.",
			OrderIndex:     3,
			EstimatedWeeks: 16,
		},
	}
}

// DefaultSources は既知の3原典のビルド設定を返します。
//
// 識別子ブロックは著作ごとに事前予約する: Enchiridion が 1..60、
// Meditations が 61..200、Seneca の書簡集が 201..350。章数の解析結果が
// 多少変動しても、発行済みの識別子が振り直されることはない
func DefaultSources(enchiridionPath, meditationsPath, senecaDir string) []SourceDocument {
	return []SourceDocument{
		{
			TextID:      "text-001",
			PhaseID:     "phase-001",
			Title:       "Enchiridion",
			Author:      "Epictetus",
			Description: "The Enchiridion, or \"Handbook,\" is a short manual of Stoic ethical advice compiled by Arrian, a student of Epictetus. It summarizes the practical philosophy of Epictetus, focusing on what is within our control and what is not.",
			Translation: "Thomas Wentworth Higginson translation (1865)",
			OrderIndex:  1,
			IDBase:      0,
			BlockSize:   60,
			Path:        enchiridionPath,
			Strategy:    segmenter.ChapterStrategy(),
			Reference: func(u segmenter.Unit) string {
				return "Chapter " + u.Numeral
			},
		},
		{
			TextID:      "text-002",
			PhaseID:     "phase-002",
			Title:       "Meditations",
			Author:      "Marcus Aurelius",
			Description: "The Meditations is a series of personal writings by Marcus Aurelius, Roman Emperor 161-180 CE. Written as a source for his own guidance and self-improvement, it offers profound insights into Stoic philosophy applied to the challenges of power, duty, and mortality.",
			Translation: "George Long translation",
			OrderIndex:  1,
			IDBase:      60,
			BlockSize:   140,
			Path:        meditationsPath,
			Strategy:    segmenter.BookPassageStrategy(),
			Reference: func(u segmenter.Unit) string {
				return fmt.Sprintf("Book %d, Passage %s", u.Book, u.Numeral)
			},
		},
		{
			TextID:      "text-003",
			PhaseID:     "phase-003",
			Title:       "Letters from a Stoic",
			Author:      "Seneca",
			Description: "The Epistulae Morales ad Lucilium (Moral Letters to Lucilius) are a collection of letters written by Seneca the Younger at the end of his life, addressed to Lucilius Junior, the procurator of Sicily. The letters cover topics such as friendship, death, virtue, wealth, and the proper way to live.",
			Translation: "Robin Campbell translation (Penguin Classics)",
			OrderIndex:  1,
			IDBase:      200,
			BlockSize:   150,
			Path:        senecaDir,
			Paged:       true,
			Strategy:    segmenter.PagedLetterStrategy(),
			Reference: func(u segmenter.Unit) string {
				return "Letter " + u.Numeral
			},
		},
	}
}
