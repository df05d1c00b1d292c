package segmenter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chapterFixture = `The Project Gutenberg eBook of The Enchiridion

前付けとして捨てられるべき行。
THE ENCHIRIDION

I

Of things some are in our power, and others are not.

II[1]

Remember that desire demands the attainment of that of which
you are desirous.

III

IV

When you are going about any action, remind yourself what nature
the action is.

Footnotes

[1] A footnote that must not be captured.
`

const bookPassageFixture = `MARCUS AURELIUS ANTONINUS

INTRODUCTION

Front matter to be discarded.

THE FIRST BOOK

I. Of my grandfather Verus I have learned to be gentle and meek.

II. Of him that brought me up, not to be fondly addicted to either
of the two great factions.

THE SECOND BOOK

I. Remember how long thou hast already put off these things.

APPENDIX

Material after the appendix marker.
`

func TestSegment_ChapterStrategy(t *testing.T) {
	units, err := Segment(chapterFixture, ChapterStrategy())
	require.NoError(t, err)

	// III は見出し直後に次の見出しが来るため出力されない
	require.Len(t, units, 3)

	assert.Equal(t, "I", units[0].Numeral)
	assert.Equal(t, 1, units[0].Number)
	assert.Equal(t, "Of things some are in our power, and others are not.", units[0].Content)

	// 脚注参照 "[1]" 付きの見出しも認識される
	assert.Equal(t, "II", units[1].Numeral)
	assert.Equal(t, 2, units[1].Number)
	assert.Contains(t, units[1].Content, "attainment")

	assert.Equal(t, "IV", units[2].Numeral)
	// 終了マーカー "Footnotes" 以降は取り込まれない
	assert.NotContains(t, units[2].Content, "footnote")
}

func TestSegment_BookPassageStrategy(t *testing.T) {
	units, err := Segment(bookPassageFixture, BookPassageStrategy())
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, 1, units[0].Book)
	assert.Equal(t, 1, units[0].Number)
	// 見出し行の残り部分が本文の先頭になる
	assert.True(t, len(units[0].Content) > 0)
	assert.Contains(t, units[0].Content, "grandfather Verus")

	assert.Equal(t, 1, units[1].Book)
	assert.Equal(t, 2, units[1].Number)

	assert.Equal(t, 2, units[2].Book)
	assert.Equal(t, 1, units[2].Number)
	assert.NotContains(t, units[2].Content, "APPENDIX")
}

func TestSegment_Deterministic(t *testing.T) {
	first, err := Segment(chapterFixture, ChapterStrategy())
	require.NoError(t, err)
	second, err := Segment(chapterFixture, ChapterStrategy())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSegment_SectionNotFound(t *testing.T) {
	_, err := Segment("ただのテキスト\n見出しもマーカーもない\n", ChapterStrategy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSectionNotFound))
}

func TestSegment_NoTerminalMarker(t *testing.T) {
	raw := "THE ENCHIRIDION\n\nI\n\nBody of the only chapter.\n"
	units, err := Segment(raw, ChapterStrategy())
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Body of the only chapter.", units[0].Content)
}

func TestSegmentPages_PagedLetterStrategy(t *testing.T) {
	pages := []string{
		"<html><body><p>Page 1 Frontmatter about the translation</p></body></html>",
		"<p>Page 2 LETTERS</p>",
		"<p>Page 3 LETTER I On saving time. Continue to act thus, my dear Lucilius. 3</p>",
		"<p>Page 4 Hold fast to every hour and you will depend less on tomorrow. 4</p>",
		"<p>Page 5 LETTER II On discursiveness in reading. Judging by what you write. 5</p>",
		"<p>Page 6 NOTES</p>",
		"<p>Page 7 Notes content that must be ignored.</p>",
	}

	units, err := SegmentPages(pages, PagedLetterStrategy())
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, 1, units[0].Number)
	assert.Equal(t, "I", units[0].Numeral)
	// 先頭の "LETTER I" 見出しと行末のページ番号はパターン除去される
	assert.NotContains(t, units[0].Content, "LETTER I")
	assert.NotContains(t, units[0].Content, " 3")
	// ページをまたいだ本文が再結合されている
	assert.Contains(t, units[0].Content, "dear Lucilius")
	assert.Contains(t, units[0].Content, "Hold fast to every hour")

	assert.Equal(t, 2, units[1].Number)
	assert.Contains(t, units[1].Content, "discursiveness")
}

func TestSegmentPages_SectionNotFound(t *testing.T) {
	_, err := SegmentPages([]string{"<p>Page 1 nothing here</p>"}, PagedLetterStrategy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSectionNotFound))
}

func TestStripHTML(t *testing.T) {
	got := StripHTML("<p>Virtue &amp; wisdom&nbsp;&mdash; <b>clean</b>  text</p>")
	assert.Equal(t, "Virtue & wisdom &mdash; clean text", got)
}
