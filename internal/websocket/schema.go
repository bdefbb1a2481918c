package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventTick      Event = "tick"
	EventReset     Event = "reset"
	EventSubmitted Event = "submitted"
	EventExpired   Event = "expired"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// TickEvent is pushed once per second while a session is loaded.
type TickEvent struct {
	Event            Event `json:"event"`
	SecondsRemaining int   `json:"seconds_remaining"`
	Active           bool  `json:"active"`
}

// ResetEvent signals that a new question was loaded and the workspace
// must remount with the given generation.
type ResetEvent struct {
	Event      Event `json:"event"`
	Generation int64 `json:"generation"`
}

// SubmittedEvent reports a completed export, manual or automatic.
type SubmittedEvent struct {
	Event    Event  `json:"event"`
	Filename string `json:"filename"`
	Auto     bool   `json:"auto"`
}

// ExpiredEvent signals the countdown reached zero.
type ExpiredEvent struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
