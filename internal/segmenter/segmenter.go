// internal/segmenter/segmenter.go
package segmenter

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go_stoic_journal/internal/roman"
)

// ErrSectionNotFound は本文の開始マーカーが一度も現れなかった場合に返されます。
// 呼び出し側 (カタログビルダー) はこのテキストをスキップして処理を続行します。
var ErrSectionNotFound = errors.New("section start marker not found")

// Unit は原典テキストから切り出した構造単位 (章・節・書簡) です。
type Unit struct {
	Book    int    // 入れ子形式 (巻→節) での巻番号。フラットな形式では 0
	Number  int    // 見出し数字のアラビア値 (章番号・節番号・書簡番号)
	Numeral string // 原典から回収したローマ数字
	Content string
}

// Strategy は原典フォーマットごとの区切りルールをデータとして表現します。
// 3つの既知フォーマット (Chapter / BookPassage / PagedLetter) はそれぞれ
// strategies.go で定義されており、アルゴリズム本体は全フォーマットで共通です。
type Strategy struct {
	Name string

	// SectionStart にマッチする行 (ページ形式ではページ) より前は前付けとして捨てる。
	// BookHeading が設定されている場合は最初の巻見出しも本文開始とみなす。
	SectionStart *regexp.Regexp
	// SectionEnd にマッチした時点で走査を終了する (処理中の単位はフラッシュする)。
	SectionEnd *regexp.Regexp

	// BookHeading は "THE FIRST BOOK" のような巻見出し。capture 1 = 序数詞。
	// 設定されていないフォーマットでは nil。
	BookHeading *regexp.Regexp
	// UnitHeading は単位の開始行。capture 1 = ローマ数字。
	UnitHeading *regexp.Regexp

	// InlineContent が真の場合、見出し行はマッチ部分の後ろに本文を含む
	// ("I. Of the things which are in our power..." 形式)。
	// この形式では数字として不正なマッチは本文行として扱う。
	InlineContent bool
	// StripRefs が真の場合、見出し判定の前に "[1]" 形式の脚注参照を除去する。
	StripRefs bool

	// --- 以下はページ分割フォーマット (SegmentPages) 専用 ---

	// PagePrefix は各ページ先頭のノイズ ("Page 31 " など)。
	PagePrefix *regexp.Regexp
	// UnitHeaderFormat は再結合後の本文先頭に残る見出しの除去に使う
	// ("LETTER %s" のようにローマ数字を埋め込む書式)。
	UnitHeaderFormat string
}

var bookOrdinals = map[string]int{
	"FIRST": 1, "SECOND": 2, "THIRD": 3, "FOURTH": 4,
	"FIFTH": 5, "SIXTH": 6, "SEVENTH": 7, "EIGHTH": 8,
	"NINTH": 9, "TENTH": 10, "ELEVENTH": 11, "TWELFTH": 12,
}

var (
	footnoteRefPattern = regexp.MustCompile(`\[\d+\]`)
	htmlTagPattern     = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	trailingPageNumber = regexp.MustCompile(`(?m)\s+\d+$`)
)

// Segment は単一ファイルの原典テキストを行単位で走査し、順序付きの構造単位列を
// 返します。同一入力に対して常に同一の結果を返します (冪等)。
//
// アルゴリズム: 「現在蓄積中の本文」と「現在の単位の見出し」を保持しながら
// 1行ずつ読み、見出しパターンにマッチした行で直前の単位を確定 (本文が空なら
// 破棄) して新しい単位を開く。開始マーカーより前の行は捨て、終了マーカーで
// 走査を打ち切る。
func Segment(raw string, strat Strategy) ([]Unit, error) {
	lines := strings.Split(raw, "\n")

	var units []Unit
	inBody := false
	book := 0

	curNumeral := ""
	curNumber := 0
	curBook := 0
	var content []string

	flush := func() {
		if curNumeral == "" {
			return
		}
		// 見出し直後に次の見出しや終了マーカーが来た場合、本文が空の単位は出力しない
		body := strings.TrimSpace(strings.Join(content, "\n"))
		if body == "" {
			return
		}
		units = append(units, Unit{Book: curBook, Number: curNumber, Numeral: curNumeral, Content: body})
	}

	for _, rawLine := range lines {
		line := strings.TrimSpace(rawLine)
		cleaned := line
		if strat.StripRefs {
			cleaned = strings.TrimSpace(footnoteRefPattern.ReplaceAllString(line, ""))
		}

		if !inBody {
			if strat.BookHeading != nil {
				if m := strat.BookHeading.FindStringSubmatch(line); m != nil {
					inBody = true
					book = bookOrdinals[m[1]]
					continue
				}
			}
			if strat.SectionStart != nil && strat.SectionStart.MatchString(line) {
				inBody = true
			}
			continue
		}

		if strat.SectionEnd != nil && strat.SectionEnd.MatchString(line) {
			flush()
			return units, nil
		}

		if strat.BookHeading != nil {
			if m := strat.BookHeading.FindStringSubmatch(line); m != nil {
				flush()
				curNumeral = ""
				content = nil
				book = bookOrdinals[m[1]]
				continue
			}
		}

		if m := strat.UnitHeading.FindStringSubmatch(cleaned); m != nil {
			numeral := m[1]
			n, err := roman.ToArabic(numeral)
			if err != nil {
				if !strat.InlineContent {
					// 見出し以外にあり得ない形式で数字が壊れている → このテキストの解析を中断
					return nil, fmt.Errorf("segmenter: heading %q: %w", numeral, err)
				}
				// 本文行が偶然パターンに掛かっただけとみなす
			} else {
				flush()
				curNumeral = numeral
				curNumber = n
				curBook = book
				content = nil
				if strat.InlineContent {
					if rest := strings.TrimSpace(cleaned[len(m[0]):]); rest != "" {
						content = append(content, rest)
					}
				}
				continue
			}
		}

		if curNumeral != "" {
			content = append(content, rawLine)
		}
	}

	if !inBody {
		return nil, fmt.Errorf("segmenter: %s: %w", strat.Name, ErrSectionNotFound)
	}

	// 終了マーカーなしで入力が尽きた場合も処理中の単位は失わない
	flush()
	return units, nil
}

// SegmentPages はページ単位に分割された原典 (複数HTMLファイルの連結) を走査し、
// ページ境界をまたぐ単位を再結合して返します。単位の本文はページ断片を
// 結合したうえで、先頭に残る見出しの繰り返しと行末のページ番号ノイズを
// パターン除去します (文字数による切り詰めは行わない)。
func SegmentPages(pages []string, strat Strategy) ([]Unit, error) {
	type accumulator struct {
		numeral string
		pages   []string
	}

	var order []*accumulator
	index := make(map[string]*accumulator)
	var current *accumulator
	inBody := false

	for _, page := range pages {
		text := StripHTML(page)
		if strat.PagePrefix != nil {
			text = strings.TrimSpace(strat.PagePrefix.ReplaceAllString(text, ""))
		}

		if !inBody {
			if strat.SectionStart != nil && strat.SectionStart.MatchString(text) {
				inBody = true
			}
			continue
		}

		if strat.SectionEnd != nil && strat.SectionEnd.MatchString(text) {
			break
		}

		// 新しい単位のマーカーが現れたら蓄積先を切り替える。
		// マーカーのないページは現在の単位の続き (ページまたぎ) として蓄積する。
		if m := strat.UnitHeading.FindStringSubmatch(text); m != nil {
			acc, ok := index[m[1]]
			if !ok {
				acc = &accumulator{numeral: m[1]}
				index[m[1]] = acc
				order = append(order, acc)
			}
			current = acc
		}

		// 実質的な本文のない断片 (ページ番号だけのページなど) は捨てる
		if current != nil && len(text) > 10 {
			current.pages = append(current.pages, text)
		}
	}

	if !inBody {
		return nil, fmt.Errorf("segmenter: %s: %w", strat.Name, ErrSectionNotFound)
	}

	units := make([]Unit, 0, len(order))
	for _, acc := range order {
		n, err := roman.ToArabic(acc.numeral)
		if err != nil {
			return nil, fmt.Errorf("segmenter: unit marker %q: %w", acc.numeral, err)
		}

		content := strings.Join(acc.pages, "\n\n")
		if strat.UnitHeaderFormat != "" {
			header := regexp.MustCompile(`^.*?` + fmt.Sprintf(strat.UnitHeaderFormat, acc.numeral) + `\s*`)
			content = header.ReplaceAllString(content, "")
		}
		content = strings.TrimSpace(trailingPageNumber.ReplaceAllString(content, ""))
		if content == "" {
			continue
		}

		units = append(units, Unit{Number: n, Numeral: acc.numeral, Content: content})
	}

	// 書簡番号順に整列 (出現順はページ順だが、念のため番号を正とする)
	sort.SliceStable(units, func(i, j int) bool { return units[i].Number < units[j].Number })

	return units, nil
}

// StripHTML はHTMLタグと主要な文字実体参照を除去し、空白を正規化します。
func StripHTML(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	s = replacer.Replace(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
