package lawtext

import "strings"

var kanjiDigits = []string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// NumberToKanji renders an article number the way statute headings
// write it: 21 → 二十一, 105 → 百五, 1000 → 千. Numbers outside
// 1..9999 fall back to the empty string.
func NumberToKanji(n int) string {
	if n <= 0 || n > 9999 {
		return ""
	}

	var b strings.Builder
	units := []struct {
		value int
		kanji string
	}{
		{1000, "千"},
		{100, "百"},
		{10, "十"},
	}

	for _, u := range units {
		d := n / u.value
		if d == 0 {
			continue
		}
		if d > 1 {
			b.WriteString(kanjiDigits[d])
		}
		b.WriteString(u.kanji)
		n %= u.value
	}
	if n > 0 {
		b.WriteString(kanjiDigits[n])
	}
	return b.String()
}
