package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/clock"
	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/model"
	"github.com/law-cbt/cbt-backend/internal/pdf"
	"github.com/law-cbt/cbt-backend/internal/repository"
)

// Session errors.
var (
	ErrNotRestored     = errors.New("session state not restored yet")
	ErrSessionInactive = errors.New("session is not in progress")
	ErrSessionExpired  = errors.New("session time has run out")
	ErrTimerRunning    = errors.New("cannot edit time while the countdown runs")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrUnsupportedFile = errors.New("only pdf question files are supported")
	ErrCorruptQuestion = errors.New("question pdf could not be parsed")
)

// Notifier pushes session events to connected clients. Implemented by
// the websocket hub; a nil-safe no-op is used in tests.
type Notifier interface {
	NotifyTick(secondsRemaining int, active bool)
	NotifyReset(generation int64)
	NotifySubmitted(filename string, auto bool)
	NotifyExpired()
}

type sessionPhase int

const (
	phaseUninitialized sessionPhase = iota
	phaseRestored
)

// SessionService owns the countdown state machine and the draft
// editors. All mutable state lives behind one mutex; persistence
// writes are gated on the restore phase so nothing touches the store
// before the startup snapshot has been applied.
type SessionService struct {
	mu sync.Mutex

	stateRepo *repository.StateRepository
	blobRepo  *repository.BlobRepository
	export    *ExportService
	clk       clock.Clock
	notifier  Notifier
	log       zerolog.Logger

	phase            sessionPhase
	active           bool
	secondsRemaining int
	defaultDuration  int
	answerText       string
	memoContent      string
	questionLoaded   bool
	generation       int64
}

func NewSessionService(
	stateRepo *repository.StateRepository,
	blobRepo *repository.BlobRepository,
	export *ExportService,
	clk clock.Clock,
	notifier Notifier,
	cfg *config.Config,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		stateRepo:       stateRepo,
		blobRepo:        blobRepo,
		export:          export,
		clk:             clk,
		notifier:        notifier,
		log:             log.With().Str("component", "session_service").Logger(),
		defaultDuration: cfg.DefaultDurationSeconds,
	}
}

// Restore applies the persisted snapshot. An active session ages by
// the wall-clock time spent away, clamped at zero; a paused session
// comes back exactly as it was left. A session that expired while the
// process was down is shown at zero, inactive, with drafts intact; it
// is never auto-exported retroactively.
func (s *SessionService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, err := s.stateRepo.LoadSessionFields(ctx)
	if err != nil {
		return fmt.Errorf("load session snapshot: %w", err)
	}

	if fields.DefaultDuration != nil {
		s.defaultDuration = *fields.DefaultDuration
	}
	s.answerText = fields.AnswerText
	s.memoContent = fields.MemoContent

	switch {
	case fields.TimeLeft == nil:
		// First run: nothing persisted yet.
		s.secondsRemaining = s.defaultDuration
		s.active = false
	case fields.TimerActive != nil && *fields.TimerActive && fields.LastTimestamp != nil:
		elapsed := int(s.clk.Now().Sub(*fields.LastTimestamp).Seconds())
		if elapsed < 0 {
			elapsed = 0
		}
		s.secondsRemaining = *fields.TimeLeft - elapsed
		if s.secondsRemaining <= 0 {
			s.secondsRemaining = 0
			s.active = false
			s.log.Warn().Msg("Session expired while away")
		} else {
			s.active = true
		}
	default:
		// Paused sessions do not age.
		s.secondsRemaining = *fields.TimeLeft
		s.active = false
	}

	question, err := s.blobRepo.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load question blob on restore")
	}
	s.questionLoaded = question != nil

	s.phase = phaseRestored
	if err := s.persistTimerLocked(ctx); err != nil {
		return fmt.Errorf("persist restored state: %w", err)
	}

	s.log.Info().
		Int("seconds_remaining", s.secondsRemaining).
		Bool("active", s.active).
		Bool("question_loaded", s.questionLoaded).
		Msg("Session restored")
	return nil
}

// State returns the current session snapshot.
func (s *SessionService) State(ctx context.Context) (*model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == phaseUninitialized {
		return nil, ErrNotRestored
	}

	lawID, _, _ := s.stateRepo.Get(ctx, repository.KeyLastLawID)
	lawName, _, _ := s.stateRepo.Get(ctx, repository.KeyLastLawName)

	return &model.SessionState{
		Loaded:           s.questionLoaded,
		Active:           s.active,
		SecondsRemaining: s.secondsRemaining,
		DefaultDuration:  s.defaultDuration,
		Generation:       s.generation,
		AnswerText:       s.answerText,
		MemoContent:      s.memoContent,
		LastLawID:        lawID,
		LastLawName:      lawName,
	}, nil
}

// Active reports whether the countdown is currently running.
func (s *SessionService) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Generation returns the current reset generation.
func (s *SessionService) Generation() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Restored reports whether the startup snapshot has been applied.
func (s *SessionService) Restored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == phaseRestored
}

// Tick advances the countdown by one second. Called at 1 Hz by the
// countdown worker. When the counter reaches exactly zero the
// submission is exported automatically, once, with no confirmation.
func (s *SessionService) Tick(ctx context.Context) {
	s.mu.Lock()
	if s.phase == phaseUninitialized || !s.active {
		s.mu.Unlock()
		return
	}

	s.secondsRemaining--
	if s.secondsRemaining < 0 {
		s.secondsRemaining = 0
	}
	if err := s.persistTimerLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist tick")
	}

	seconds := s.secondsRemaining
	if seconds > 0 {
		s.mu.Unlock()
		s.notify(func(n Notifier) { n.NotifyTick(seconds, true) })
		return
	}

	// Reached zero: stop the countdown before the export so a second
	// tick can never trigger a second submit.
	s.active = false
	if err := s.persistTimerLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist expiry")
	}
	generation := s.generation
	answerText := s.answerText
	s.mu.Unlock()

	s.notify(func(n Notifier) { n.NotifyTick(0, false) })
	s.notify(func(n Notifier) { n.NotifyExpired() })

	question, err := s.blobRepo.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("Question blob unavailable for auto-submit")
	}

	result, _, err := s.export.Build(answerText, question, true)
	if err != nil {
		s.log.Error().Err(err).Msg("Auto-submit export failed, drafts retained")
		return
	}

	s.mu.Lock()
	// A question loaded during the export owns the session now; its
	// reset already cleared the drafts this submit consumed.
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	if err := s.clearAfterSubmitLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear state after auto-submit")
	}
	s.mu.Unlock()

	s.notify(func(n Notifier) { n.NotifySubmitted(result.Filename, true) })
}

// Finish exports the submission manually. Allowed only while the
// countdown is running with time on the clock. On success the drafts
// and the question are cleared and the countdown reseeds from the
// default duration; on failure the drafts stay put and the countdown
// pauses. raster selects the pixel-split export variant.
func (s *SessionService) Finish(ctx context.Context, raster bool) (*model.FinishResult, []byte, error) {
	s.mu.Lock()
	if s.phase == phaseUninitialized {
		s.mu.Unlock()
		return nil, nil, ErrNotRestored
	}
	if !s.active {
		s.mu.Unlock()
		return nil, nil, ErrSessionInactive
	}
	if s.secondsRemaining <= 0 {
		s.mu.Unlock()
		return nil, nil, ErrSessionExpired
	}

	// Stop the countdown before the build starts. A tick arriving while
	// the submission is generated must see an inactive session, and a
	// failed build leaves the session paused with its drafts intact.
	s.active = false
	if err := s.persistTimerLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist pause before export")
	}
	generation := s.generation
	answerText := s.answerText
	s.mu.Unlock()

	question, err := s.blobRepo.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("Question blob unavailable for submit")
	}

	build := s.export.Build
	if raster {
		build = s.export.BuildRaster
	}
	result, data, err := build(answerText, question, false)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return nil, nil, ErrSessionInactive
	}
	if err := s.clearAfterSubmitLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear state after submit")
	}
	s.mu.Unlock()

	s.notify(func(n Notifier) { n.NotifySubmitted(result.Filename, false) })
	return result, data, nil
}

// EditTime sets a new countdown value and makes it the new default
// duration. Rejected while the countdown is running. The input is
// normalized: full-width digits folded to ASCII, anything but digits
// and colons stripped, then parsed as HH:MM:SS, MM:SS or SS.
func (s *SessionService) EditTime(ctx context.Context, input string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == phaseUninitialized {
		return 0, ErrNotRestored
	}
	if s.active {
		return 0, ErrTimerRunning
	}

	seconds, err := ParseTimeInput(input)
	if err != nil {
		return 0, err
	}

	s.secondsRemaining = seconds
	s.defaultDuration = seconds
	if err := s.stateRepo.SetInt(ctx, repository.KeyDefaultDuration, seconds); err != nil {
		return 0, fmt.Errorf("persist default duration: %w", err)
	}
	if err := s.persistTimerLocked(ctx); err != nil {
		return 0, fmt.Errorf("persist edited time: %w", err)
	}
	return seconds, nil
}

// LoadQuestion validates and stores a new question document, then
// unconditionally resets the session: drafts cleared, countdown
// reseeded from the default duration, generation bumped. Validation
// failures leave all state untouched. Sticky notes are not part of
// the session and survive.
func (s *SessionService) LoadQuestion(ctx context.Context, data []byte, contentType string) (*model.SessionState, error) {
	if !isPDF(data, contentType) {
		return nil, ErrUnsupportedFile
	}
	if _, err := pdf.ValidateQuestion(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptQuestion, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == phaseUninitialized {
		return nil, ErrNotRestored
	}

	if err := s.blobRepo.Save(data); err != nil {
		return nil, fmt.Errorf("store question: %w", err)
	}

	s.answerText = ""
	s.memoContent = ""
	s.questionLoaded = true
	s.secondsRemaining = s.defaultDuration
	s.active = s.defaultDuration > 0
	s.generation++

	if err := s.stateRepo.Set(ctx, repository.KeyAnswerText, ""); err != nil {
		return nil, fmt.Errorf("clear answer draft: %w", err)
	}
	if err := s.stateRepo.Set(ctx, repository.KeyMemoContent, ""); err != nil {
		return nil, fmt.Errorf("clear memo draft: %w", err)
	}
	if err := s.persistTimerLocked(ctx); err != nil {
		return nil, fmt.Errorf("persist reset: %w", err)
	}

	generation := s.generation
	s.log.Info().Int64("generation", generation).Msg("Question loaded, session reset")
	s.notify(func(n Notifier) { n.NotifyReset(generation) })

	return s.stateLocked(), nil
}

// Question returns the stored question bytes, nil when none is loaded.
func (s *SessionService) Question() ([]byte, error) {
	return s.blobRepo.Load()
}

// SetAnswer persists the answer draft and reports its size against
// the sheet budget. Drafts over budget are still saved; the budget is
// advisory.
func (s *SessionService) SetAnswer(ctx context.Context, text string) (*model.AnswerMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == phaseUninitialized {
		return nil, ErrNotRestored
	}

	s.answerText = text
	if err := s.stateRepo.Set(ctx, repository.KeyAnswerText, text); err != nil {
		return nil, fmt.Errorf("persist answer draft: %w", err)
	}
	return AnswerMetricsFor(text), nil
}

// SetMemo persists the memo pad draft.
func (s *SessionService) SetMemo(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == phaseUninitialized {
		return ErrNotRestored
	}

	s.memoContent = content
	if err := s.stateRepo.Set(ctx, repository.KeyMemoContent, content); err != nil {
		return fmt.Errorf("persist memo draft: %w", err)
	}
	return nil
}

// ─── Internal helpers ───────────────────────────────────────────────

// persistTimerLocked writes the countdown fields. Caller holds the
// lock. Writes before Restore are silently skipped.
func (s *SessionService) persistTimerLocked(ctx context.Context) error {
	if s.phase == phaseUninitialized {
		return nil
	}
	if err := s.stateRepo.SetInt(ctx, repository.KeyTimeLeft, s.secondsRemaining); err != nil {
		return err
	}
	if err := s.stateRepo.SetBool(ctx, repository.KeyTimerActive, s.active); err != nil {
		return err
	}
	return s.stateRepo.SetTime(ctx, repository.KeyLastTimestamp, s.clk.Now())
}

// clearAfterSubmitLocked wipes the submitted session and reseeds the
// countdown. The default duration survives the wipe.
func (s *SessionService) clearAfterSubmitLocked(ctx context.Context) error {
	defaultDuration := s.defaultDuration
	if err := s.stateRepo.ClearAll(ctx); err != nil {
		return err
	}
	if err := s.stateRepo.SetInt(ctx, repository.KeyDefaultDuration, defaultDuration); err != nil {
		return err
	}

	s.answerText = ""
	s.memoContent = ""
	s.questionLoaded = false
	s.active = false
	s.secondsRemaining = defaultDuration
	s.blobRepo.Clear()

	return s.persistTimerLocked(ctx)
}

func (s *SessionService) stateLocked() *model.SessionState {
	return &model.SessionState{
		Loaded:           s.questionLoaded,
		Active:           s.active,
		SecondsRemaining: s.secondsRemaining,
		DefaultDuration:  s.defaultDuration,
		Generation:       s.generation,
		AnswerText:       s.answerText,
		MemoContent:      s.memoContent,
	}
}

func (s *SessionService) notify(fn func(Notifier)) {
	if s.notifier != nil {
		fn(s.notifier)
	}
}

// AnswerMetricsFor measures a draft against the 184-line, 5,520
// character sheet budget at 30 characters per line.
func AnswerMetricsFor(text string) *model.AnswerMetrics {
	chars := utf8.RuneCountInString(strings.ReplaceAll(text, "\n", ""))
	lines := pdf.CountLines(text, model.AnswerLineWidth)
	return &model.AnswerMetrics{
		Chars:      chars,
		Lines:      lines,
		OverBudget: lines > model.AnswerMaxLines || chars > model.AnswerMaxChars,
	}
}

// ParseTimeInput normalizes and parses a countdown edit. Full-width
// digits and colons are folded to ASCII, every other character is
// stripped, and the remainder is read as HH:MM:SS, MM:SS or SS.
func ParseTimeInput(input string) (int, error) {
	var b strings.Builder
	for _, r := range input {
		// Full-width forms (０-９, ：) sit 0xFEE0 above ASCII.
		if r >= '０' && r <= '９' {
			r -= 0xFEE0
		}
		if r == '：' {
			r = ':'
		}
		if (r >= '0' && r <= '9') || r == ':' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return 0, ErrInvalidTime
	}

	parts := strings.Split(cleaned, ":")
	if len(parts) > 3 {
		return 0, ErrInvalidTime
	}

	total := 0
	for _, part := range parts {
		if part == "" || len(part) > 6 {
			return 0, ErrInvalidTime
		}
		n := 0
		for _, r := range part {
			n = n*10 + int(r-'0')
		}
		total = total*60 + n
	}
	return total, nil
}

// isPDF accepts a declared PDF content type or a sniffed %PDF header.
func isPDF(data []byte, contentType string) bool {
	if strings.Contains(contentType, "pdf") {
		return true
	}
	return len(data) >= 4 && string(data[:4]) == "%PDF"
}
