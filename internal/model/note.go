package model

import "time"

// StickyNote is a bookmark pinned to a structural location inside a
// statute. Notes are keyed by (location_id, law_id) and outlive
// session resets.
type StickyNote struct {
	LocationID   string    `json:"location_id"`
	LawID        string    `json:"law_id"`
	LawName      string    `json:"law_name"`
	DisplayLabel string    `json:"display_label"`
	CapturedText string    `json:"captured_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToggleNoteRequest adds or removes a note at a statute location.
type ToggleNoteRequest struct {
	Article      int    `json:"article" binding:"required,min=1"`
	Paragraph    int    `json:"paragraph" binding:"min=0"`
	Item         int    `json:"item" binding:"min=0"`
	Caption      string `json:"caption"`
	LawID        string `json:"law_id" binding:"required"`
	LawName      string `json:"law_name"`
	CapturedText string `json:"captured_text"`
}

// ToggleNoteResult reports which way the toggle went.
type ToggleNoteResult struct {
	Added bool        `json:"added"`
	Note  *StickyNote `json:"note,omitempty"`
}

// JumpResult tells the UI which document and anchor to scroll to.
type JumpResult struct {
	LawID      string `json:"law_id"`
	LawName    string `json:"law_name"`
	Anchor     string `json:"anchor"`
	SwitchedTo bool   `json:"switched_to"`
	Found      bool   `json:"found"`
}
