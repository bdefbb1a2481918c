package pdf

import "strings"

// Answer sheet geometry in points. A4 is 595.28 x 841.89.
const (
	PageWidth  = 595.28
	PageHeight = 841.89

	MarginTop    = 56.0
	MarginBottom = 56.0
	MarginLeft   = 56.0
	MarginRight  = 56.0

	FontSize   = 10.5
	LineHeight = 18.0
	HeaderGap  = 28.0
)

// WrapText breaks text into display lines of at most width runes.
// Explicit newlines always break; an empty input still yields one
// empty line so the layout never produces a zero-page document.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		runes := []rune(raw)
		if len(runes) == 0 {
			lines = append(lines, "")
			continue
		}
		for len(runes) > 0 {
			n := width
			if n > len(runes) {
				n = len(runes)
			}
			lines = append(lines, string(runes[:n]))
			runes = runes[n:]
		}
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// Paginate groups lines into pages of linesPerPage each. Lines keep
// their order and are never divided across a page boundary, so the
// page count is always ceil(len(lines)/linesPerPage).
func Paginate(lines []string, linesPerPage int) [][]string {
	if linesPerPage <= 0 {
		return [][]string{lines}
	}
	var pages [][]string
	for start := 0; start < len(lines); start += linesPerPage {
		end := start + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = [][]string{{}}
	}
	return pages
}

// CountLines reports how many display lines text occupies at width
// runes per line. Used for the answer budget metrics.
func CountLines(text string, width int) int {
	return len(WrapText(text, width))
}
