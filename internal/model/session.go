package model

// AnswerLineWidth is the number of full-width characters that fit on
// one answer-sheet line. The official sheet allows 23 lines per page
// across 8 pages, 30 characters each.
const (
	AnswerLineWidth    = 30
	AnswerMaxLines     = 184
	AnswerMaxChars     = 5520
	AnswerLinesPerPage = 23
)

// SessionState is the full countdown and draft state pushed to the UI.
type SessionState struct {
	Loaded           bool   `json:"loaded"`
	Active           bool   `json:"active"`
	SecondsRemaining int    `json:"seconds_remaining"`
	DefaultDuration  int    `json:"default_duration"`
	Generation       int64  `json:"generation"`
	AnswerText       string `json:"answer_text"`
	MemoContent      string `json:"memo_content"`
	LastLawID        string `json:"last_law_id,omitempty"`
	LastLawName      string `json:"last_law_name,omitempty"`
}

// AnswerMetrics reports draft size against the answer-sheet budget.
type AnswerMetrics struct {
	Chars      int  `json:"chars"`
	Lines      int  `json:"lines"`
	OverBudget bool `json:"over_budget"`
}

// UpdateAnswerRequest is the payload for saving the answer draft.
type UpdateAnswerRequest struct {
	Text string `json:"text"`
}

// UpdateMemoRequest is the payload for saving the memo pad draft.
type UpdateMemoRequest struct {
	Content string `json:"content"`
}

// EditTimeRequest carries the raw countdown edit. The value is
// normalized and parsed server-side, not validated here.
type EditTimeRequest struct {
	Time string `json:"time" binding:"required"`
}

// FinishResult describes a completed submission.
type FinishResult struct {
	Filename string `json:"filename"`
	Auto     bool   `json:"auto"`
	Pages    int    `json:"pages"`
}
