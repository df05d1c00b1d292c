package catalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go_stoic_journal/internal/model"
	"go_stoic_journal/internal/segmenter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const enchiridionSample = `THE ENCHIRIDION

I

Of things some are in our power, and others are not.

II

Remember that desire demands the attainment of that of which you are desirous.

III

Men are disturbed not by the things which happen, but by the opinions about the things.

Footnotes
`

const meditationsSample = `THE FIRST BOOK

I. Of my grandfather Verus I have learned to be gentle.

II. Of him that brought me up, modesty and a manly character.

THE SECOND BOOK

I. Remember how long thou hast already put off these things.

APPENDIX
`

func writeSample(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testPhases() []model.Phase {
	return []model.Phase{
		{ID: "phase-001", Name: "foundation", Title: "Phase 1", OrderIndex: 1},
		{ID: "phase-002", Name: "meditations", Title: "Phase 2", OrderIndex: 2},
	}
}

func testSources(enchPath, medPath string) []SourceDocument {
	return []SourceDocument{
		{
			TextID: "text-001", PhaseID: "phase-001", Title: "Enchiridion", Author: "Epictetus",
			OrderIndex: 1, IDBase: 0, BlockSize: 10,
			Path: enchPath, Strategy: segmenter.ChapterStrategy(),
			Reference: func(u segmenter.Unit) string { return "Chapter " + u.Numeral },
		},
		{
			TextID: "text-002", PhaseID: "phase-002", Title: "Meditations", Author: "Marcus Aurelius",
			OrderIndex: 1, IDBase: 10, BlockSize: 10,
			Path: medPath, Strategy: segmenter.BookPassageStrategy(),
			Reference: func(u segmenter.Unit) string { return "Book " + u.Numeral },
		},
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	enchPath := writeSample(t, dir, "enchiridion.txt", enchiridionSample)
	medPath := writeSample(t, dir, "meditations.txt", meditationsSample)

	cat, err := Build(testPhases(), testSources(enchPath, medPath), testLogger)
	require.NoError(t, err)

	require.Len(t, cat.Texts, 2)
	assert.Equal(t, 3, cat.Texts[0].TotalPassages)
	assert.Equal(t, 3, cat.Texts[1].TotalPassages)
	require.Len(t, cat.Passages, 6)

	// 決定的なID採番: ブロック内の 1-based 位置をゼロ詰め3桁で振る
	assert.Equal(t, "passage-001", cat.Passages[0].ID)
	assert.Equal(t, "passage-003", cat.Passages[2].ID)
	// 2冊目は予約ブロックのオフセットから始まる
	assert.Equal(t, "passage-011", cat.Passages[3].ID)
	assert.Equal(t, 11, cat.Passages[3].OrderIndex)

	// 入れ子形式では巻番号と節番号が保持される
	assert.Equal(t, 1, cat.Passages[3].SessionNumber)
	assert.Equal(t, 1, cat.Passages[3].PassageNumber)
	assert.Equal(t, 1, cat.Passages[4].SessionNumber)
	assert.Equal(t, 2, cat.Passages[4].PassageNumber)
	assert.Equal(t, 2, cat.Passages[5].SessionNumber)
}

// 全体通読順の不変条件: OrderIndex でソートした列は著作ごとに固まり、
// その著作順は段階順→段階内の著作順と一致する
func TestBuild_GlobalOrderInvariant(t *testing.T) {
	dir := t.TempDir()
	enchPath := writeSample(t, dir, "enchiridion.txt", enchiridionSample)
	medPath := writeSample(t, dir, "meditations.txt", meditationsSample)

	cat, err := Build(testPhases(), testSources(enchPath, medPath), testLogger)
	require.NoError(t, err)

	sorted := make([]model.Passage, len(cat.Passages))
	copy(sorted, cat.Passages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })

	var textOrder []string
	seen := map[string]bool{}
	for _, p := range sorted {
		if !seen[p.TextID] {
			seen[p.TextID] = true
			textOrder = append(textOrder, p.TextID)
			continue
		}
		// 一度閉じた著作が再び現れてはならない (グループ化の検証)
		assert.Equal(t, textOrder[len(textOrder)-1], p.TextID)
	}
	assert.Equal(t, []string{"text-001", "text-002"}, textOrder)
}

func TestBuild_MissingFileSkipsText(t *testing.T) {
	dir := t.TempDir()
	medPath := writeSample(t, dir, "meditations.txt", meditationsSample)

	sources := testSources(filepath.Join(dir, "no_such_file.txt"), medPath)
	cat, err := Build(testPhases(), sources, testLogger)
	require.NoError(t, err)

	// 欠落した原典だけがスキップされ、残りは通常どおり構築される
	require.Len(t, cat.Texts, 1)
	assert.Equal(t, "text-002", cat.Texts[0].ID)
	assert.Equal(t, "passage-011", cat.Passages[0].ID)
}

func TestBuild_EmptySegmentationSkipsText(t *testing.T) {
	dir := t.TempDir()
	// 開始マーカーのない原典 → SectionNotFound → スキップ
	enchPath := writeSample(t, dir, "enchiridion.txt", "no markers at all\n")
	medPath := writeSample(t, dir, "meditations.txt", meditationsSample)

	cat, err := Build(testPhases(), testSources(enchPath, medPath), testLogger)
	require.NoError(t, err)

	require.Len(t, cat.Texts, 1)
	assert.Equal(t, "text-002", cat.Texts[0].ID)
	// パッセージ0件の著作はカタログに含めない
	for _, p := range cat.Passages {
		assert.NotEqual(t, "text-001", p.TextID)
	}
}

func TestBuild_BlockOverflow(t *testing.T) {
	dir := t.TempDir()
	enchPath := writeSample(t, dir, "enchiridion.txt", enchiridionSample)
	medPath := writeSample(t, dir, "meditations.txt", meditationsSample)

	sources := testSources(enchPath, medPath)
	sources[0].BlockSize = 2 // 3章に対してブロックが足りない

	_, err := Build(testPhases(), sources, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeding reserved block")
}

func TestBuild_OverlappingBlocks(t *testing.T) {
	dir := t.TempDir()
	enchPath := writeSample(t, dir, "enchiridion.txt", enchiridionSample)
	medPath := writeSample(t, dir, "meditations.txt", meditationsSample)

	sources := testSources(enchPath, medPath)
	sources[1].IDBase = 5 // 1冊目のブロック (0..10) と重なる

	_, err := Build(testPhases(), sources, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlaps")
}
