package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// Session state keys. Everything the countdown and the draft editors
// persist lives in the session_state key-value table.
const (
	KeyAnswerText      = "answer_text"
	KeyMemoContent     = "memo_content"
	KeyTimeLeft        = "time_left"
	KeyTimerActive     = "timer_active"
	KeyLastTimestamp   = "last_timestamp"
	KeyDefaultDuration = "default_duration"
	KeyLastLawID       = "last_law_id"
	KeyLastLawName     = "last_law_name"
)

// SessionFields is the persisted session snapshot. Pointer fields are
// nil when the key has never been written (first run).
type SessionFields struct {
	AnswerText      string
	MemoContent     string
	TimeLeft        *int
	TimerActive     *bool
	LastTimestamp   *time.Time
	DefaultDuration *int
	LastLawID       string
	LastLawName     string
}

type StateRepository struct {
	db *sql.DB
}

func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the value for key and whether it exists.
func (r *StateRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *StateRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

func (r *StateRepository) SetInt(ctx context.Context, key string, value int) error {
	return r.Set(ctx, key, strconv.Itoa(value))
}

func (r *StateRepository) SetBool(ctx context.Context, key string, value bool) error {
	return r.Set(ctx, key, strconv.FormatBool(value))
}

func (r *StateRepository) SetTime(ctx context.Context, key string, value time.Time) error {
	return r.Set(ctx, key, value.UTC().Format(time.RFC3339))
}

func (r *StateRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_state WHERE key = ?`, key)
	return err
}

// ClearAll wipes every session field. Sticky notes live in their own
// table and are untouched. Callers that want to keep the default
// duration must read it before and re-seed it after.
func (r *StateRepository) ClearAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_state`)
	return err
}

// LoadSessionFields reads the whole snapshot in one query. Missing keys
// stay at their zero (or nil) value; a fresh store yields an all-empty
// snapshot, not an error.
func (r *StateRepository) LoadSessionFields(ctx context.Context) (*SessionFields, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM session_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	f := &SessionFields{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		switch key {
		case KeyAnswerText:
			f.AnswerText = value
		case KeyMemoContent:
			f.MemoContent = value
		case KeyTimeLeft:
			if n, err := strconv.Atoi(value); err == nil {
				f.TimeLeft = &n
			}
		case KeyTimerActive:
			if b, err := strconv.ParseBool(value); err == nil {
				f.TimerActive = &b
			}
		case KeyLastTimestamp:
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				f.LastTimestamp = &t
			}
		case KeyDefaultDuration:
			if n, err := strconv.Atoi(value); err == nil {
				f.DefaultDuration = &n
			}
		case KeyLastLawID:
			f.LastLawID = value
		case KeyLastLawName:
			f.LastLawName = value
		}
	}
	return f, rows.Err()
}
