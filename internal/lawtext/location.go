package lawtext

import (
	"fmt"
	"strconv"
	"strings"
)

// Location identifies a structural position inside a statute: article,
// optional paragraph, optional item. This struct is the canonical
// in-memory form; the string ids below exist only at the storage and
// DOM boundaries.
type Location struct {
	Article   int
	Paragraph int
	Item      int
	Caption   string
}

// NoteID renders the storage key for a sticky note:
// "Article-5", "Article-5-Paragraph-2", "Article-5-Paragraph-2-Item-3".
func (l Location) NoteID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Article-%d", l.Article)
	if l.Paragraph > 0 {
		fmt.Fprintf(&b, "-Paragraph-%d", l.Paragraph)
	}
	if l.Item > 0 {
		fmt.Fprintf(&b, "-Item-%d", l.Item)
	}
	return b.String()
}

// Anchor renders the DOM anchor id used by the law panel. An
// article-level note targets the article heading; deeper notes target
// the paragraph or item element.
func (l Location) Anchor() string {
	if l.Paragraph == 0 && l.Item == 0 {
		return fmt.Sprintf("top-article-%d", l.Article)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d", l.Article)
	if l.Paragraph > 0 {
		fmt.Fprintf(&b, "-paragraph-%d", l.Paragraph)
	}
	if l.Item > 0 {
		fmt.Fprintf(&b, "-item-%d", l.Item)
	}
	return b.String()
}

// Label renders the human-readable citation, article number in kanji:
// 第五条, 第五条第2項, 第五条第2項第3号.
func (l Location) Label() string {
	var b strings.Builder
	fmt.Fprintf(&b, "第%s条", NumberToKanji(l.Article))
	if l.Paragraph > 0 {
		fmt.Fprintf(&b, "第%d項", l.Paragraph)
	}
	if l.Item > 0 {
		fmt.Fprintf(&b, "第%d号", l.Item)
	}
	return b.String()
}

// ParseNoteID recovers a Location from a stored note id. Used only at
// the repository boundary when replaying persisted notes.
func ParseNoteID(id string) (Location, error) {
	parts := strings.Split(id, "-")
	loc := Location{}
	for i := 0; i+1 < len(parts); i += 2 {
		n, err := strconv.Atoi(parts[i+1])
		if err != nil {
			return Location{}, fmt.Errorf("parse note id %q: %w", id, err)
		}
		switch parts[i] {
		case "Article":
			loc.Article = n
		case "Paragraph":
			loc.Paragraph = n
		case "Item":
			loc.Item = n
		default:
			return Location{}, fmt.Errorf("parse note id %q: unknown segment %q", id, parts[i])
		}
	}
	if loc.Article == 0 {
		return Location{}, fmt.Errorf("parse note id %q: missing article", id)
	}
	return loc, nil
}
