// internal/roman/roman.go
package roman

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedNumeral はローマ数字として解釈できない入力に対して返されます。
var ErrMalformedNumeral = errors.New("malformed roman numeral")

// 記号ごとの値。減算記法 (IV, IX, XL, ...) は ToArabic 側のスキャンで処理する。
var symbolValues = map[byte]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

// FromArabic 用の変換テーブル。大きい値から貪欲にマッチさせる。
var arabicPairs = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"},
	{1, "I"},
}

// ToArabic はローマ数字をアラビア数字に変換します。
// 左から右にスキャンして値を加算し、小さい記号が大きい記号の直前にある場合は
// 直前の値を二重に引く（標準的な減算記法アルゴリズム）。
// 正規形でない入力 ("IIII" など) や未知の文字を含む入力は ErrMalformedNumeral。
func ToArabic(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("roman.ToArabic: empty input: %w", ErrMalformedNumeral)
	}

	total := 0
	prev := 0
	for i := 0; i < len(s); i++ {
		value, ok := symbolValues[s[i]]
		if !ok {
			return 0, fmt.Errorf("roman.ToArabic: invalid symbol %q in %q: %w", s[i], s, ErrMalformedNumeral)
		}
		total += value
		if prev < value && prev > 0 {
			// 直前の記号は減算対象だった。加算済みの分を二重に引いて補正する
			total -= 2 * prev
		}
		prev = value
	}

	// 正規形チェック: 逆変換して一致しなければ "IIII" のような非正規形
	canonical, err := FromArabic(total)
	if err != nil || canonical != strings.ToUpper(s) {
		return 0, fmt.Errorf("roman.ToArabic: non-canonical numeral %q: %w", s, ErrMalformedNumeral)
	}

	return total, nil
}

// FromArabic はアラビア数字をローマ数字（正規形）に変換します。
// 対応範囲は 1..3999 (仕様上は最低 1..100 をサポートすればよい)。
func FromArabic(n int) (string, error) {
	if n < 1 || n > 3999 {
		return "", fmt.Errorf("roman.FromArabic: value %d out of range [1,3999]: %w", n, ErrMalformedNumeral)
	}

	var b strings.Builder
	for _, pair := range arabicPairs {
		for n >= pair.value {
			b.WriteString(pair.symbol)
			n -= pair.value
		}
	}
	return b.String(), nil
}
