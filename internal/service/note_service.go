package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/clock"
	"github.com/law-cbt/cbt-backend/internal/lawtext"
	"github.com/law-cbt/cbt-backend/internal/model"
	"github.com/law-cbt/cbt-backend/internal/repository"
)

// Jump polling bounds. The law panel needs a moment to render a
// freshly switched document before its anchors exist.
const (
	jumpMaxAttempts = 10
	jumpRetryDelay  = 200 * time.Millisecond
)

// ErrAnnotationDisabled is returned when a toggle arrives outside a
// running exam session.
var ErrAnnotationDisabled = errors.New("annotation requires a running session")

// anchorResolver is the slice of LawService the note service needs.
type anchorResolver interface {
	AnchorExists(ctx context.Context, lawID, anchor string) (bool, error)
	Current(ctx context.Context) (id, name string, err error)
}

// sessionGate reports whether the exam is currently running. Toggling
// notes is gated by the same flag as editing.
type sessionGate interface {
	Active() bool
}

// NoteService manages sticky notes pinned to statute locations. Notes
// are independent of the exam session and survive question resets.
type NoteService struct {
	noteRepo *repository.NoteRepository
	laws     anchorResolver
	gate     sessionGate
	clk      clock.Clock
	log      zerolog.Logger
}

func NewNoteService(noteRepo *repository.NoteRepository, laws anchorResolver, gate sessionGate, clk clock.Clock, log zerolog.Logger) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		laws:     laws,
		gate:     gate,
		clk:      clk,
		log:      log.With().Str("component", "note_service").Logger(),
	}
}

// Toggle adds a note at the location, or removes it when one already
// exists there. The toggle key is (location id, law id). Outside a
// running session the store must not be mutated.
func (s *NoteService) Toggle(ctx context.Context, req *model.ToggleNoteRequest) (*model.ToggleNoteResult, error) {
	if s.gate != nil && !s.gate.Active() {
		return nil, ErrAnnotationDisabled
	}

	loc := lawtext.Location{
		Article:   req.Article,
		Paragraph: req.Paragraph,
		Item:      req.Item,
		Caption:   req.Caption,
	}
	locationID := loc.NoteID()

	exists, err := s.noteRepo.Exists(ctx, locationID, req.LawID)
	if err != nil {
		return nil, fmt.Errorf("check note: %w", err)
	}

	if exists {
		if err := s.noteRepo.Delete(ctx, locationID, req.LawID); err != nil {
			return nil, fmt.Errorf("remove note: %w", err)
		}
		return &model.ToggleNoteResult{Added: false}, nil
	}

	note := &model.StickyNote{
		LocationID:   locationID,
		LawID:        req.LawID,
		LawName:      req.LawName,
		DisplayLabel: loc.Label(),
		CapturedText: req.CapturedText,
	}
	if err := s.noteRepo.Upsert(ctx, note); err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return &model.ToggleNoteResult{Added: true, Note: note}, nil
}

// Remove deletes a note directly, e.g. from the note list panel.
func (s *NoteService) Remove(ctx context.Context, locationID, lawID string) error {
	if err := s.noteRepo.Delete(ctx, locationID, lawID); err != nil {
		return fmt.Errorf("remove note: %w", err)
	}
	return nil
}

// ListForLaw returns the notes pinned inside one statute.
func (s *NoteService) ListForLaw(ctx context.Context, lawID string) ([]model.StickyNote, error) {
	return s.noteRepo.ListByLaw(ctx, lawID)
}

// ListAll returns every note across all statutes, oldest first.
func (s *NoteService) ListAll(ctx context.Context) ([]model.StickyNote, error) {
	return s.noteRepo.ListAll(ctx)
}

// ResolveJump turns a stored note into a scroll target. When the
// note's law differs from the displayed one the UI must switch
// documents first, so the anchor is polled with a bounded retry until
// the new document is available. Retry exhaustion is not an error; the
// jump just reports the anchor as not found.
func (s *NoteService) ResolveJump(ctx context.Context, locationID, lawID string) (*model.JumpResult, error) {
	note, err := s.noteRepo.Get(ctx, locationID, lawID)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	if note == nil {
		return nil, fmt.Errorf("note %s/%s not found", lawID, locationID)
	}

	loc, err := lawtext.ParseNoteID(note.LocationID)
	if err != nil {
		return nil, err
	}
	anchor := loc.Anchor()

	currentLawID, _, err := s.laws.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current law: %w", err)
	}
	switched := currentLawID != note.LawID

	result := &model.JumpResult{
		LawID:      note.LawID,
		LawName:    note.LawName,
		Anchor:     anchor,
		SwitchedTo: switched,
	}

	for attempt := 0; attempt < jumpMaxAttempts; attempt++ {
		found, err := s.laws.AnchorExists(ctx, note.LawID, anchor)
		if err != nil {
			s.log.Warn().Err(err).Str("anchor", anchor).Msg("Anchor poll failed")
			return result, nil
		}
		if found {
			result.Found = true
			return result, nil
		}
		s.clk.Sleep(jumpRetryDelay)
	}

	s.log.Debug().Str("anchor", anchor).Str("law_id", note.LawID).Msg("Anchor not found after retries")
	return result, nil
}
