package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/law-cbt/cbt-backend/internal/model"
)

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Upsert(ctx context.Context, n *model.StickyNote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sticky_notes (location_id, law_id, law_name, display_label, captured_text, created_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (location_id, law_id) DO UPDATE
		 SET law_name = excluded.law_name,
		     display_label = excluded.display_label,
		     captured_text = excluded.captured_text`,
		n.LocationID, n.LawID, n.LawName, n.DisplayLabel, n.CapturedText)
	return err
}

func (r *NoteRepository) Delete(ctx context.Context, locationID, lawID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sticky_notes WHERE location_id = ? AND law_id = ?`,
		locationID, lawID)
	return err
}

func (r *NoteRepository) Get(ctx context.Context, locationID, lawID string) (*model.StickyNote, error) {
	n := &model.StickyNote{}
	err := r.db.QueryRowContext(ctx,
		`SELECT location_id, law_id, law_name, display_label, captured_text, created_at
		 FROM sticky_notes WHERE location_id = ? AND law_id = ?`,
		locationID, lawID).
		Scan(&n.LocationID, &n.LawID, &n.LawName, &n.DisplayLabel, &n.CapturedText, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *NoteRepository) Exists(ctx context.Context, locationID, lawID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM sticky_notes WHERE location_id = ? AND law_id = ?`,
		locationID, lawID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *NoteRepository) ListByLaw(ctx context.Context, lawID string) ([]model.StickyNote, error) {
	return r.list(ctx,
		`SELECT location_id, law_id, law_name, display_label, captured_text, created_at
		 FROM sticky_notes WHERE law_id = ? ORDER BY created_at ASC`, lawID)
}

func (r *NoteRepository) ListAll(ctx context.Context) ([]model.StickyNote, error) {
	return r.list(ctx,
		`SELECT location_id, law_id, law_name, display_label, captured_text, created_at
		 FROM sticky_notes ORDER BY created_at ASC`)
}

func (r *NoteRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.StickyNote, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.StickyNote
	for rows.Next() {
		var n model.StickyNote
		if err := rows.Scan(&n.LocationID, &n.LawID, &n.LawName, &n.DisplayLabel, &n.CapturedText, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
