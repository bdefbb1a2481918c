package lawtext

import "testing"

func TestNoteID(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{"article only", Location{Article: 5}, "Article-5"},
		{"article paragraph", Location{Article: 5, Paragraph: 2}, "Article-5-Paragraph-2"},
		{"full path", Location{Article: 5, Paragraph: 2, Item: 3}, "Article-5-Paragraph-2-Item-3"},
		{"item without paragraph", Location{Article: 9, Item: 1}, "Article-9-Item-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.NoteID(); got != tt.want {
				t.Errorf("NoteID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{"article heading", Location{Article: 21}, "top-article-21"},
		{"paragraph", Location{Article: 21, Paragraph: 1}, "21-paragraph-1"},
		{"paragraph item", Location{Article: 21, Paragraph: 1, Item: 2}, "21-paragraph-1-item-2"},
		{"item only", Location{Article: 7, Item: 4}, "7-item-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Anchor(); got != tt.want {
				t.Errorf("Anchor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{"article only", Location{Article: 5}, "第五条"},
		{"two digit article", Location{Article: 21, Paragraph: 1}, "第二十一条第1項"},
		{"full citation", Location{Article: 123, Paragraph: 2, Item: 3}, "第百二十三条第2項第3号"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loc.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseNoteID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		locations := []Location{
			{Article: 1},
			{Article: 21, Paragraph: 1},
			{Article: 123, Paragraph: 2, Item: 3},
		}
		for _, want := range locations {
			got, err := ParseNoteID(want.NoteID())
			if err != nil {
				t.Fatalf("ParseNoteID(%q): %v", want.NoteID(), err)
			}
			if got != want {
				t.Errorf("ParseNoteID(%q) = %+v, want %+v", want.NoteID(), got, want)
			}
		}
	})

	t.Run("rejects unknown segment", func(t *testing.T) {
		if _, err := ParseNoteID("Chapter-1"); err == nil {
			t.Error("expected error for unknown segment")
		}
	})

	t.Run("rejects missing article", func(t *testing.T) {
		if _, err := ParseNoteID("Paragraph-2"); err == nil {
			t.Error("expected error when article is absent")
		}
	})

	t.Run("rejects non-numeric value", func(t *testing.T) {
		if _, err := ParseNoteID("Article-x"); err == nil {
			t.Error("expected error for non-numeric article")
		}
	})
}

func TestNumberToKanji(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "一"},
		{9, "九"},
		{10, "十"},
		{11, "十一"},
		{21, "二十一"},
		{100, "百"},
		{105, "百五"},
		{123, "百二十三"},
		{400, "四百"},
		{1000, "千"},
		{2026, "二千二十六"},
		{9999, "九千九百九十九"},
		{0, ""},
		{-3, ""},
		{10000, ""},
	}

	for _, tt := range tests {
		if got := NumberToKanji(tt.n); got != tt.want {
			t.Errorf("NumberToKanji(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
