// internal/segmenter/strategies.go
package segmenter

import "regexp"

// 既知の3つの原典フォーマットに対応する区切りルール。
// 新しい原典を追加する場合はここに Strategy を1つ定義するだけでよい。

// ChapterStrategy: 1ファイル・章ごとにローマ数字が単独行で現れる形式
// (Enchiridion 型)。"THE ENCHIRIDION" 行から本文開始、"Footnotes" 行で終了。
func ChapterStrategy() Strategy {
	return Strategy{
		Name:         "chapter",
		SectionStart: regexp.MustCompile(`^THE ENCHIRIDION$`),
		SectionEnd:   regexp.MustCompile(`^Footnotes$`),
		UnitHeading:  regexp.MustCompile(`^([IVXLC]+)$`),
		StripRefs:    true,
	}
}

// BookPassageStrategy: 1ファイル・巻見出しの下に節見出しが入れ子になる形式
// (Meditations 型)。節見出しは "I. ..." のように本文を同じ行に含む。
func BookPassageStrategy() Strategy {
	return Strategy{
		Name:          "book-passage",
		SectionEnd:    regexp.MustCompile(`^(APPENDIX|GLOSSARY)$|\*\*\* END OF`),
		BookHeading:   regexp.MustCompile(`^THE (FIRST|SECOND|THIRD|FOURTH|FIFTH|SIXTH|SEVENTH|EIGHTH|NINTH|TENTH|ELEVENTH|TWELFTH) BOOK$`),
		UnitHeading:   regexp.MustCompile(`^([IVXL]+)\.\s`),
		InlineContent: true,
	}
}

// PagedLetterStrategy: 複数のHTMLページに分割され、書簡マーカーでページを
// またいで再結合する形式 (Seneca 書簡集型)。"LETTERS" ページから本文開始、
// "NOTES"/"APPENDIX" で終了。
func PagedLetterStrategy() Strategy {
	return Strategy{
		Name:             "paged-letter",
		SectionStart:     regexp.MustCompile(`^LETTERS$`),
		SectionEnd:       regexp.MustCompile(`^(NOTES|APPENDIX)`),
		UnitHeading:      regexp.MustCompile(`LETTER ([IVXLC]+)`),
		PagePrefix:       regexp.MustCompile(`^Page \d+\s*`),
		UnitHeaderFormat: "LETTER %s",
	}
}
