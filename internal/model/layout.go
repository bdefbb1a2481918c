package model

// PanelID enumerates the four workspace panels.
type PanelID string

const (
	PanelQuestion PanelID = "question"
	PanelLaw      PanelID = "law"
	PanelAnswer   PanelID = "answer"
	PanelMemo     PanelID = "memo"
)

// LayoutState is the visible panel arrangement. Order always lists all
// panels; Visible is the subset currently shown, never empty.
type LayoutState struct {
	Order      []PanelID `json:"order"`
	Visible    []PanelID `json:"visible"`
	SplitRatio int       `json:"split_ratio"`
	// Generation mirrors the session generation so the UI can remount
	// panel content after a question reset.
	Generation int64 `json:"generation"`
}

// SetVisibleRequest replaces the set of visible panels.
type SetVisibleRequest struct {
	Visible []PanelID `json:"visible" binding:"required,min=1"`
}

// RotateRequest rotates the currently visible panels. Two panels swap,
// three rotate clockwise.
type RotateRequest struct{}

// SetSplitRequest adjusts the divider between visible panels.
type SetSplitRequest struct {
	Ratio int `json:"ratio" binding:"required"`
}
