package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/law-cbt/cbt-backend/internal/config"
	"github.com/law-cbt/cbt-backend/internal/model"
	"github.com/law-cbt/cbt-backend/internal/pdf"
)

// Export errors.
var (
	ErrFontMissing  = errors.New("answer font could not be loaded")
	ErrExportFailed = errors.New("submission export failed")
)

// Submission filenames. The timeout variant marks an auto-submit.
const (
	SubmissionFilename        = "cbt-submission.pdf"
	SubmissionTimeoutFilename = "cbt-submission-timeout.pdf"
)

// ExportService builds the merged submission PDF: all question pages
// first, byte-level, then the rendered answer pages. A failure at any
// step aborts the whole export with no partial output.
type ExportService struct {
	cfg *config.Config
	log zerolog.Logger
}

func NewExportService(cfg *config.Config, log zerolog.Logger) *ExportService {
	return &ExportService{
		cfg: cfg,
		log: log.With().Str("component", "export_service").Logger(),
	}
}

// Build assembles the submission document. questionPDF may be nil.
// The returned bytes are streamed to the client; a copy is written to
// the export directory.
func (s *ExportService) Build(answerText string, questionPDF []byte, isAuto bool) (*model.FinishResult, []byte, error) {
	fontData, err := os.ReadFile(s.cfg.FontPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrFontMissing, s.cfg.FontPath)
	}

	builder := pdf.NewBuilder(fontData)
	out, pages, err := builder.Build(answerText, questionPDF)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	filename := SubmissionFilename
	if isAuto {
		filename = SubmissionTimeoutFilename
	}

	if err := s.writeCopy(filename, out); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	s.log.Info().
		Str("filename", filename).
		Int("pages", pages).
		Bool("auto", isAuto).
		Msg("Submission exported")

	return &model.FinishResult{Filename: filename, Auto: isAuto, Pages: pages}, out, nil
}

// BuildRaster is the pixel-split variant: the answer is rasterized to
// a tall bitmap, sliced at blank rows near each page boundary, and the
// JPEG slices are placed one per page after the question pages.
func (s *ExportService) BuildRaster(answerText string, questionPDF []byte, isAuto bool) (*model.FinishResult, []byte, error) {
	fontData, err := os.ReadFile(s.cfg.FontPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrFontMissing, s.cfg.FontPath)
	}

	opts := pdf.DefaultRenderOptions()
	lines := pdf.WrapText(answerText, model.AnswerLineWidth)
	img, err := pdf.RenderText(fontData, lines, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	slices, err := pdf.DefaultSplitter(opts.WidthPx).Split(img)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	answerDoc, err := pdf.BuildFromSlices(slices)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	// Merge question pages in front of the rasterized answer pages.
	out := answerDoc
	pages := len(slices)
	if questionPDF != nil {
		merged, total, err := pdf.MergeDocuments(questionPDF, answerDoc)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
		}
		out = merged
		pages = total
	}

	filename := SubmissionFilename
	if isAuto {
		filename = SubmissionTimeoutFilename
	}
	if err := s.writeCopy(filename, out); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	s.log.Info().
		Str("filename", filename).
		Int("pages", pages).
		Bool("auto", isAuto).
		Msg("Submission exported (raster)")

	return &model.FinishResult{Filename: filename, Auto: isAuto, Pages: pages}, out, nil
}

func (s *ExportService) writeCopy(filename string, data []byte) error {
	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(s.cfg.ExportDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export copy: %w", err)
	}
	return nil
}
