package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"

	"github.com/law-cbt/cbt-backend/internal/clock"
	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/database"
	"github.com/law-cbt/cbt-backend/internal/repository"
)

// recordingNotifier captures session events for assertions.
type recordingNotifier struct {
	ticks     []int
	resets    []int64
	submitted []string
	expired   int
}

func (n *recordingNotifier) NotifyTick(seconds int, active bool)    { n.ticks = append(n.ticks, seconds) }
func (n *recordingNotifier) NotifyReset(generation int64)           { n.resets = append(n.resets, generation) }
func (n *recordingNotifier) NotifySubmitted(filename string, _ bool) {
	n.submitted = append(n.submitted, filename)
}
func (n *recordingNotifier) NotifyExpired() { n.expired++ }

type sessionFixture struct {
	service   *SessionService
	stateRepo *repository.StateRepository
	notifier  *recordingNotifier
	clk       *clock.Fake
	cfg       *config.Config
	db        *sql.DB
}

func newSessionFixture(t *testing.T, defaultDuration int) *sessionFixture {
	t.Helper()

	db, err := database.NewSQLiteInMemory()
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	dataDir := t.TempDir()
	cfg := &config.Config{
		DataDir:                dataDir,
		ExportDir:              t.TempDir(),
		DefaultDurationSeconds: defaultDuration,
		// FontPath starts empty so export attempts fail with
		// ErrFontMissing; tests that need a successful export point it
		// at the testdata fixture.
	}

	log := zerolog.Nop()
	stateRepo := repository.NewStateRepository(db)
	blobRepo := repository.NewBlobRepository(dataDir, log)
	notifier := &recordingNotifier{}
	clk := clock.NewFake(time.Date(2026, 5, 17, 9, 0, 0, 0, time.UTC))

	svc := NewSessionService(stateRepo, blobRepo, NewExportService(cfg, log), clk, notifier, cfg, log)
	return &sessionFixture{service: svc, stateRepo: stateRepo, notifier: notifier, clk: clk, cfg: cfg, db: db}
}

// questionPDF builds a small valid PDF without loading any font.
func questionPDF(t *testing.T) []byte {
	t.Helper()
	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	doc.AddPage()
	doc.Line(50, 50, 200, 50)
	out, err := doc.GetBytesPdfReturnErr()
	if err != nil {
		t.Fatalf("build question pdf: %v", err)
	}
	return out
}

func TestRestoreFreshStore(t *testing.T) {
	f := newSessionFixture(t, 7200)
	ctx := context.Background()

	if err := f.service.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	state, err := f.service.State(ctx)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Active || state.Loaded {
		t.Errorf("fresh session should be idle: %+v", state)
	}
	if state.SecondsRemaining != 7200 {
		t.Errorf("seconds = %d, want default 7200", state.SecondsRemaining)
	}
}

func TestRestoreActiveSessionAges(t *testing.T) {
	f := newSessionFixture(t, 7200)
	ctx := context.Background()

	// A running session persisted 100 seconds before the restart.
	f.stateRepo.SetInt(ctx, repository.KeyTimeLeft, 600)
	f.stateRepo.SetBool(ctx, repository.KeyTimerActive, true)
	f.stateRepo.SetTime(ctx, repository.KeyLastTimestamp, f.clk.Now().Add(-100*time.Second))

	if err := f.service.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	state, _ := f.service.State(ctx)
	if !state.Active {
		t.Error("session with time left should resume running")
	}
	if state.SecondsRemaining != 500 {
		t.Errorf("seconds = %d, want 500 (aged by downtime)", state.SecondsRemaining)
	}
}

func TestRestorePausedSessionDoesNotAge(t *testing.T) {
	f := newSessionFixture(t, 7200)
	ctx := context.Background()

	f.stateRepo.SetInt(ctx, repository.KeyTimeLeft, 600)
	f.stateRepo.SetBool(ctx, repository.KeyTimerActive, false)
	f.stateRepo.SetTime(ctx, repository.KeyLastTimestamp, f.clk.Now().Add(-24*time.Hour))

	if err := f.service.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	state, _ := f.service.State(ctx)
	if state.Active {
		t.Error("paused session must stay paused")
	}
	if state.SecondsRemaining != 600 {
		t.Errorf("seconds = %d, want 600 untouched", state.SecondsRemaining)
	}
}

func TestRestoreExpiredWhileAway(t *testing.T) {
	f := newSessionFixture(t, 7200)
	ctx := context.Background()

	f.stateRepo.Set(ctx, repository.KeyAnswerText, "書きかけの答案")
	f.stateRepo.SetInt(ctx, repository.KeyTimeLeft, 50)
	f.stateRepo.SetBool(ctx, repository.KeyTimerActive, true)
	f.stateRepo.SetTime(ctx, repository.KeyLastTimestamp, f.clk.Now().Add(-10*time.Minute))

	if err := f.service.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	state, _ := f.service.State(ctx)
	if state.Active {
		t.Error("expired session must come back inactive")
	}
	if state.SecondsRemaining != 0 {
		t.Errorf("seconds = %d, want clamped 0", state.SecondsRemaining)
	}
	if state.AnswerText != "書きかけの答案" {
		t.Errorf("draft lost on expired restore: %q", state.AnswerText)
	}
	if len(f.notifier.submitted) != 0 {
		t.Error("an expiry discovered at restore must not auto-export")
	}
}

func TestStateBeforeRestore(t *testing.T) {
	f := newSessionFixture(t, 7200)
	if _, err := f.service.State(context.Background()); !errors.Is(err, ErrNotRestored) {
		t.Errorf("State before Restore = %v, want ErrNotRestored", err)
	}
}

func TestEditTime(t *testing.T) {
	f := newSessionFixture(t, 7200)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	t.Run("sets countdown and default", func(t *testing.T) {
		seconds, err := f.service.EditTime(ctx, "01:30:00")
		if err != nil {
			t.Fatalf("EditTime: %v", err)
		}
		if seconds != 5400 {
			t.Errorf("seconds = %d, want 5400", seconds)
		}
		state, _ := f.service.State(ctx)
		if state.DefaultDuration != 5400 {
			t.Errorf("default duration = %d, want 5400", state.DefaultDuration)
		}
	})

	t.Run("rejected while running", func(t *testing.T) {
		if _, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf"); err != nil {
			t.Fatalf("LoadQuestion: %v", err)
		}
		if _, err := f.service.EditTime(ctx, "10:00"); !errors.Is(err, ErrTimerRunning) {
			t.Errorf("EditTime while running = %v, want ErrTimerRunning", err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		fx := newSessionFixture(t, 60)
		if err := fx.service.Restore(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := fx.service.EditTime(ctx, "時間なし"); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("EditTime(garbage) = %v, want ErrInvalidTime", err)
		}
	})
}

func TestLoadQuestionResetsSession(t *testing.T) {
	f := newSessionFixture(t, 3600)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := f.service.SetAnswer(ctx, "古い答案"); err != nil {
		t.Fatal(err)
	}
	if err := f.service.SetMemo(ctx, "古いメモ"); err != nil {
		t.Fatal(err)
	}

	state, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf")
	if err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}

	if !state.Loaded || !state.Active {
		t.Errorf("session should be running after load: %+v", state)
	}
	if state.SecondsRemaining != 3600 {
		t.Errorf("seconds = %d, want reseeded 3600", state.SecondsRemaining)
	}
	if state.AnswerText != "" || state.MemoContent != "" {
		t.Errorf("drafts must be cleared on load: %q / %q", state.AnswerText, state.MemoContent)
	}
	if state.Generation != 1 {
		t.Errorf("generation = %d, want 1", state.Generation)
	}
	if len(f.notifier.resets) != 1 || f.notifier.resets[0] != 1 {
		t.Errorf("reset notifications = %v, want [1]", f.notifier.resets)
	}

	// Loading again mid-session resets unconditionally.
	state, err = f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf")
	if err != nil {
		t.Fatalf("second LoadQuestion: %v", err)
	}
	if state.Generation != 2 {
		t.Errorf("generation = %d, want 2 after reload", state.Generation)
	}
}

func TestLoadQuestionValidation(t *testing.T) {
	f := newSessionFixture(t, 3600)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.SetAnswer(ctx, "答案"); err != nil {
		t.Fatal(err)
	}

	t.Run("rejects non-pdf", func(t *testing.T) {
		_, err := f.service.LoadQuestion(ctx, []byte("plain text"), "text/plain")
		if !errors.Is(err, ErrUnsupportedFile) {
			t.Errorf("err = %v, want ErrUnsupportedFile", err)
		}
	})

	t.Run("rejects corrupt pdf", func(t *testing.T) {
		_, err := f.service.LoadQuestion(ctx, []byte("%PDF-1.4 garbage"), "application/pdf")
		if !errors.Is(err, ErrCorruptQuestion) {
			t.Errorf("err = %v, want ErrCorruptQuestion", err)
		}
	})

	t.Run("failed load leaves state untouched", func(t *testing.T) {
		state, _ := f.service.State(ctx)
		if state.Loaded || state.Active || state.Generation != 0 {
			t.Errorf("state mutated by rejected load: %+v", state)
		}
		if state.AnswerText != "答案" {
			t.Errorf("draft lost: %q", state.AnswerText)
		}
	})
}

func TestTickCountsDownAndPersists(t *testing.T) {
	f := newSessionFixture(t, 3)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf"); err != nil {
		t.Fatal(err)
	}

	f.service.Tick(ctx)

	state, _ := f.service.State(ctx)
	if state.SecondsRemaining != 2 || !state.Active {
		t.Errorf("after tick: seconds = %d active = %t, want 2 running", state.SecondsRemaining, state.Active)
	}
	if len(f.notifier.ticks) == 0 || f.notifier.ticks[len(f.notifier.ticks)-1] != 2 {
		t.Errorf("tick notifications = %v, want last 2", f.notifier.ticks)
	}

	value, found, err := f.stateRepo.Get(ctx, repository.KeyTimeLeft)
	if err != nil || !found {
		t.Fatalf("time_left not persisted: %q %t %v", value, found, err)
	}
	if value != "2" {
		t.Errorf("persisted time_left = %q, want 2", value)
	}
}

func TestTickIgnoredWhileIdle(t *testing.T) {
	f := newSessionFixture(t, 60)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	f.service.Tick(ctx)

	state, _ := f.service.State(ctx)
	if state.SecondsRemaining != 60 {
		t.Errorf("idle tick changed the countdown: %d", state.SecondsRemaining)
	}
	if len(f.notifier.ticks) != 0 {
		t.Errorf("idle tick notified: %v", f.notifier.ticks)
	}
}

func TestTickExpiryStopsExactlyOnce(t *testing.T) {
	f := newSessionFixture(t, 1)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.SetAnswer(ctx, "最後の答案"); err != nil {
		t.Fatal(err)
	}

	// The fixture has no font, so the auto-submit export fails. The
	// countdown must still stop and the drafts must survive.
	f.service.Tick(ctx)

	state, _ := f.service.State(ctx)
	if state.Active || state.SecondsRemaining != 0 {
		t.Errorf("after expiry: seconds = %d active = %t, want stopped at 0", state.SecondsRemaining, state.Active)
	}
	if f.notifier.expired != 1 {
		t.Errorf("expired notifications = %d, want 1", f.notifier.expired)
	}
	if len(f.notifier.submitted) != 0 {
		t.Error("failed export must not announce a submission")
	}
	if state.AnswerText != "最後の答案" {
		t.Errorf("draft lost after failed auto-submit: %q", state.AnswerText)
	}

	// Further ticks on the stopped session are no-ops.
	f.service.Tick(ctx)
	f.service.Tick(ctx)
	if f.notifier.expired != 1 {
		t.Errorf("expiry fired again: %d", f.notifier.expired)
	}
}

func TestTickExpiryAutoSubmits(t *testing.T) {
	f := newSessionFixture(t, 1)
	f.cfg.FontPath = fixtureFontPath(t)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.SetAnswer(ctx, "Answer finished just in time"); err != nil {
		t.Fatal(err)
	}

	f.service.Tick(ctx)

	if got := f.notifier.submitted; len(got) != 1 || got[0] != SubmissionTimeoutFilename {
		t.Fatalf("submitted = %v, want [%s]", got, SubmissionTimeoutFilename)
	}
	state, _ := f.service.State(ctx)
	if state.Active || state.Loaded {
		t.Errorf("session should be cleared after auto-submit: %+v", state)
	}
	if state.AnswerText != "" {
		t.Errorf("draft survived the submit: %q", state.AnswerText)
	}
	if state.SecondsRemaining != 1 {
		t.Errorf("seconds = %d, want reseeded default 1", state.SecondsRemaining)
	}

	// Further ticks must not produce a second submission.
	f.service.Tick(ctx)
	f.service.Tick(ctx)
	if len(f.notifier.submitted) != 1 {
		t.Errorf("submitted = %v, want exactly one", f.notifier.submitted)
	}
}

func TestFinishSuccessClearsSession(t *testing.T) {
	f := newSessionFixture(t, 60)
	f.cfg.FontPath = fixtureFontPath(t)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.SetAnswer(ctx, "Answer handed in early"); err != nil {
		t.Fatal(err)
	}

	result, data, err := f.service.Finish(ctx, false)
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if result.Filename != SubmissionFilename {
		t.Errorf("filename = %q, want %q", result.Filename, SubmissionFilename)
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		t.Error("submission is not a pdf")
	}

	state, _ := f.service.State(ctx)
	if state.Active || state.Loaded {
		t.Errorf("session should be cleared after submit: %+v", state)
	}
	if state.AnswerText != "" {
		t.Errorf("draft survived the submit: %q", state.AnswerText)
	}
	if state.SecondsRemaining != 60 {
		t.Errorf("seconds = %d, want reseeded default 60", state.SecondsRemaining)
	}
	question, err := f.service.Question()
	if err != nil {
		t.Fatal(err)
	}
	if question != nil {
		t.Error("question blob should be cleared after submit")
	}
	if got := f.notifier.submitted; len(got) != 1 || got[0] != SubmissionFilename {
		t.Errorf("submitted = %v, want [%s]", got, SubmissionFilename)
	}
}

func TestFinishPreconditions(t *testing.T) {
	f := newSessionFixture(t, 60)
	ctx := context.Background()

	t.Run("before restore", func(t *testing.T) {
		if _, _, err := f.service.Finish(ctx, false); !errors.Is(err, ErrNotRestored) {
			t.Errorf("err = %v, want ErrNotRestored", err)
		}
	})

	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	t.Run("while idle", func(t *testing.T) {
		if _, _, err := f.service.Finish(ctx, false); !errors.Is(err, ErrSessionInactive) {
			t.Errorf("err = %v, want ErrSessionInactive", err)
		}
	})
}

func TestFinishExportFailurePausesSession(t *testing.T) {
	f := newSessionFixture(t, 60)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.LoadQuestion(ctx, questionPDF(t), "application/pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.service.SetAnswer(ctx, "答案"); err != nil {
		t.Fatal(err)
	}

	// No font in the fixture: the export fails.
	_, _, err := f.service.Finish(ctx, false)
	if !errors.Is(err, ErrFontMissing) {
		t.Fatalf("err = %v, want ErrFontMissing", err)
	}

	state, _ := f.service.State(ctx)
	if state.Active {
		t.Error("session should pause after a failed export")
	}
	if state.AnswerText != "答案" {
		t.Errorf("draft lost after failed export: %q", state.AnswerText)
	}
	if len(f.notifier.submitted) != 0 {
		t.Error("failed export must not announce a submission")
	}
}

func TestSetAnswerReportsBudget(t *testing.T) {
	f := newSessionFixture(t, 60)
	ctx := context.Background()
	if err := f.service.Restore(ctx); err != nil {
		t.Fatal(err)
	}

	metrics, err := f.service.SetAnswer(ctx, "三十文字未満の答案")
	if err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if metrics.Chars != 9 || metrics.Lines != 1 || metrics.OverBudget {
		t.Errorf("metrics = %+v, want 9 chars, 1 line, within budget", metrics)
	}

	// Over-budget drafts are still saved; the budget is advisory.
	long := make([]rune, 5521)
	for i := range long {
		long[i] = 'あ'
	}
	metrics, err = f.service.SetAnswer(ctx, string(long))
	if err != nil {
		t.Fatalf("SetAnswer over budget: %v", err)
	}
	if !metrics.OverBudget {
		t.Errorf("metrics = %+v, want over budget", metrics)
	}
	state, _ := f.service.State(ctx)
	if len([]rune(state.AnswerText)) != 5521 {
		t.Error("over-budget draft was not saved")
	}
}

func TestParseTimeInput(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"01:30:00", 5400, false},
		{"90:00", 5400, false},
		{"45", 45, false},
		{"1:2:3", 3723, false},
		{"１２０：００", 7200, false}, // Full-width input
		{"  02:00:00  ", 7200, false},
		{"2時間", 2, false}, // Non-digits stripped, remainder parsed
		{"", 0, true},
		{"時間なし", 0, true},
		{"1:2:3:4", 0, true},
		{"::", 0, true},
		{"1234567", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeInput(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTime) {
					t.Errorf("ParseTimeInput(%q) err = %v, want ErrInvalidTime", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeInput(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeInput(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestAnswerMetricsFor(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantChars  int
		wantLines  int
		overBudget bool
	}{
		{"empty", "", 0, 1, false},
		{"single line", "短い答案", 4, 1, false},
		{"newlines not counted as chars", "あ\nい", 2, 2, false},
		{"wraps at thirty runes", string(make30(31)), 31, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := AnswerMetricsFor(tt.text)
			if m.Chars != tt.wantChars || m.Lines != tt.wantLines || m.OverBudget != tt.overBudget {
				t.Errorf("AnswerMetricsFor = %+v, want chars=%d lines=%d over=%t",
					m, tt.wantChars, tt.wantLines, tt.overBudget)
			}
		})
	}
}

func make30(n int) []rune {
	out := make([]rune, n)
	for i := range out {
		out[i] = 'あ'
	}
	return out
}
