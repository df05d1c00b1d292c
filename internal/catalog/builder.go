// internal/catalog/builder.go
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/segmenter"
)

// SourceDocument は原典1冊分のビルド設定です。区切りルール (Strategy) と
// 識別子の予約ブロックをデータとして持ち、ビルダー本体は全原典で共通の
// 処理を行う。
type SourceDocument struct {
	TextID      string
	PhaseID     string
	Title       string
	Author      string
	Description string
	Translation string // 訳者・底本の出典表記
	OrderIndex  int    // 段階内での著作順

	// IDBase / BlockSize はこの著作に予約された識別子ブロック。
	// パッセージIDは "passage-%03d" (IDBase+position) で決定的に採番され、
	// 一度発行した識別子は後から原典を追加しても振り直されない
	IDBase    int
	BlockSize int

	Path     string // 単一ファイルのパス。Paged の場合はページディレクトリ
	Paged    bool
	Strategy segmenter.Strategy

	// Reference は構造単位から人間向けの参照ラベルを組み立てる
	// ("Chapter IV", "Book 2, Passage III", "Letter XII")
	Reference func(u segmenter.Unit) string
}

// Catalog はビルド結果 (3階層のカリキュラムカタログ)
type Catalog struct {
	Phases   []model.Phase
	Texts    []model.Text
	Passages []model.Passage
}

// Build は各原典をセグメンタに掛け、決定的な識別子と全体通読順を割り当てて
// カタログを構築します。シード時に一度だけ実行される。
//
// エラー方針: 原典ファイルの欠落・開始マーカー不在・数字の破損はその著作を
// スキップして警告を出し、他の著作の処理は続行する (パッセージ0件の著作は
// カタログに含めない)。予約ブロックの溢れと重なりはカタログ全体の不変条件を
// 壊すためビルドエラーとする。
func Build(phases []model.Phase, sources []SourceDocument, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := validateBlocks(sources); err != nil {
		return nil, err
	}

	cat := &Catalog{Phases: phases}

	for _, src := range sources {
		units, err := segmentSource(src)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn("Source file not found, skipping text",
					"text_id", src.TextID, "path", src.Path)
				continue
			}
			// MalformedNumeral / SectionNotFound はこの著作だけを諦める
			logger.Warn("Segmentation failed, skipping text",
				"text_id", src.TextID, "error", err)
			continue
		}
		if len(units) == 0 {
			logger.Warn("Segmentation produced no units, skipping text",
				"text_id", src.TextID, "path", src.Path)
			continue
		}
		if len(units) > src.BlockSize {
			return nil, fmt.Errorf("catalog.Build: text %s yields %d passages, exceeding reserved block of %d",
				src.TextID, len(units), src.BlockSize)
		}

		cat.Texts = append(cat.Texts, model.Text{
			ID:            src.TextID,
			PhaseID:       src.PhaseID,
			Title:         src.Title,
			Author:        src.Author,
			Description:   src.Description,
			OrderIndex:    src.OrderIndex,
			TotalPassages: len(units),
		})

		for i, u := range units {
			seq := src.IDBase + i + 1
			session := i + 1
			passageNo := 1
			if u.Book > 0 {
				session = u.Book
				passageNo = u.Number
			}
			cat.Passages = append(cat.Passages, model.Passage{
				ID:            fmt.Sprintf("passage-%03d", seq),
				TextID:        src.TextID,
				SessionNumber: session,
				PassageNumber: passageNo,
				Reference:     src.Reference(u),
				Content:       u.Content,
				Translation:   src.Translation,
				OrderIndex:    seq,
			})
		}

		logger.Info("Text segmented",
			"text_id", src.TextID, "title", src.Title, "passages", len(units))
	}

	return cat, nil
}

// validateBlocks は予約ブロックが与えられた並び (段階順→著作順) の通りに
// 単調増加し、互いに重ならないことを検証します。これが全体通読順の
// 不変条件 (通読順は3階層の入れ子順と整合する全順序) を保証する
func validateBlocks(sources []SourceDocument) error {
	end := 0
	for _, src := range sources {
		if src.BlockSize <= 0 {
			return fmt.Errorf("catalog.Build: text %s has no reserved block", src.TextID)
		}
		if src.IDBase < end {
			return fmt.Errorf("catalog.Build: reserved block of text %s overlaps the previous block", src.TextID)
		}
		end = src.IDBase + src.BlockSize
	}
	return nil
}

func segmentSource(src SourceDocument) ([]segmenter.Unit, error) {
	if src.Paged {
		pages, err := readPages(src.Path)
		if err != nil {
			return nil, err
		}
		return segmenter.SegmentPages(pages, src.Strategy)
	}

	raw, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}
	return segmenter.Segment(string(raw), src.Strategy)
}

// readPages は "page_<N>.html" 形式のページファイルを番号順に読み込みます
func readPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type page struct {
		num  int
		name string
	}
	var ordered []page
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "page_") || !strings.HasSuffix(name, ".html") {
			continue
		}
		numStr := strings.TrimSuffix(strings.TrimPrefix(name, "page_"), ".html")
		num, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		ordered = append(ordered, page{num: num, name: name})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].num < ordered[j].num })

	pages := make([]string, 0, len(ordered))
	for _, p := range ordered {
		raw, err := os.ReadFile(filepath.Join(dir, p.name))
		if err != nil {
			return nil, err
		}
		pages = append(pages, string(raw))
	}
	return pages, nil
}
