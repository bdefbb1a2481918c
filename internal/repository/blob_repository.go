package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const questionFilename = "question.pdf"

// BlobRepository stores the single loaded question document as a file
// under the data directory. There is exactly one slot; loading a new
// question overwrites it.
type BlobRepository struct {
	dir string
	log zerolog.Logger
}

func NewBlobRepository(dir string, log zerolog.Logger) *BlobRepository {
	return &BlobRepository{
		dir: dir,
		log: log.With().Str("component", "blob_repository").Logger(),
	}
}

func (r *BlobRepository) path() string {
	return filepath.Join(r.dir, questionFilename)
}

// Save writes the question bytes atomically (temp file + rename).
func (r *BlobRepository) Save(data []byte) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	tmp := r.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write question blob: %w", err)
	}
	if err := os.Rename(tmp, r.path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit question blob: %w", err)
	}
	return nil
}

// Load returns the stored question bytes, or (nil, nil) when no
// question has been saved.
func (r *BlobRepository) Load() ([]byte, error) {
	data, err := os.ReadFile(r.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read question blob: %w", err)
	}
	return data, nil
}

// Clear removes the stored question. A missing file is not an error;
// other failures are logged and swallowed so a session reset never
// fails on blob cleanup.
func (r *BlobRepository) Clear() {
	if err := os.Remove(r.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.log.Warn().Err(err).Msg("Failed to clear question blob")
	}
}
