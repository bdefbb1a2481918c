package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidTime    ErrCode = "INVALID_TIME_FORMAT"

	// ─── Session ───────────────────────────────────────────────────────
	ErrSessionNotLoaded  ErrCode = "SESSION_NOT_LOADED"
	ErrSessionInactive   ErrCode = "SESSION_INACTIVE"
	ErrSessionExpired    ErrCode = "SESSION_EXPIRED"
	ErrTimerRunning      ErrCode = "TIMER_RUNNING"
	ErrAnswerOverBudget  ErrCode = "ANSWER_OVER_BUDGET"
	ErrQuestionNotLoaded ErrCode = "QUESTION_NOT_LOADED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Question upload ───────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"
	ErrCorruptPDF      ErrCode = "CORRUPT_PDF"

	// ─── Law proxy ─────────────────────────────────────────────────────
	ErrLawUnavailable ErrCode = "LAW_UNAVAILABLE"

	// ─── Export ────────────────────────────────────────────────────────
	ErrExportFailed ErrCode = "EXPORT_FAILED"
	ErrFontMissing  ErrCode = "FONT_MISSING"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "入力内容に誤りがあります。確認してください。"
	case ErrInvalidPayload:
		return "リクエストの形式が不正です。"
	case ErrInvalidTime:
		return "時間の形式が不正です。HH:MM:SS 形式で入力してください。"

	// ─── Session ───────────────────────────────────────────────────────
	case ErrSessionNotLoaded:
		return "試験が開始されていません。問題文を読み込んでください。"
	case ErrSessionInactive:
		return "試験は進行中ではありません。"
	case ErrSessionExpired:
		return "試験時間が終了しています。"
	case ErrTimerRunning:
		return "試験進行中は残り時間を変更できません。"
	case ErrAnswerOverBudget:
		return "答案が上限（184行・5,520文字）を超えています。"
	case ErrQuestionNotLoaded:
		return "問題文が読み込まれていません。"

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "対象が見つかりません。"
	case ErrConflict:
		return "対象は既に存在します。"

	// ─── Question upload ───────────────────────────────────────────────
	case ErrFileRequired:
		return "ファイルを選択してください。"
	case ErrUnsupportedFile:
		return "PDFファイルのみ読み込めます。"
	case ErrFileTooLarge:
		return "ファイルサイズが上限を超えています。"
	case ErrCorruptPDF:
		return "PDFファイルを解析できませんでした。"

	// ─── Law proxy ─────────────────────────────────────────────────────
	case ErrLawUnavailable:
		return "法令データを取得できませんでした。しばらくしてから再試行してください。"

	// ─── Export ────────────────────────────────────────────────────────
	case ErrExportFailed:
		return "答案PDFの生成に失敗しました。"
	case ErrFontMissing:
		return "答案用フォントを読み込めませんでした。"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "リクエストが多すぎます。しばらくしてから再試行してください。"

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "サーバー内部でエラーが発生しました。"
	default:
		return "予期しないエラーが発生しました。"
	}
}
