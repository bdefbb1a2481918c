package pdf

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/signintech/gopdf"
	rscpdf "rsc.io/pdf"

	"github.com/law-cbt/cbt-backend/internal/model"
)

const answerFontName = "answer"

// Builder assembles submission documents: the question pages byte-for-
// byte first, then the rendered answer pages.
type Builder struct {
	fontData []byte
}

// NewBuilder wraps an already loaded TTF. The font is parsed lazily by
// gopdf on each Build so a bad font surfaces as a build error.
func NewBuilder(fontData []byte) *Builder {
	return &Builder{fontData: fontData}
}

// ValidateQuestion parses data as a PDF and returns its page count.
func ValidateQuestion(data []byte) (int, error) {
	reader, err := rscpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse question pdf: %w", err)
	}
	n := reader.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("question pdf has no pages")
	}
	return n, nil
}

// Build produces the merged submission PDF and its total page count.
// questionPDF may be nil, yielding an answer-only document. Any
// failure aborts the whole build.
func (b *Builder) Build(answerText string, questionPDF []byte) ([]byte, int, error) {
	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	questionPages := 0
	if questionPDF != nil {
		n, err := ValidateQuestion(questionPDF)
		if err != nil {
			return nil, 0, err
		}
		if err := doc.ImportPagesFromSource(bytes.NewReader(questionPDF), "/MediaBox"); err != nil {
			return nil, 0, fmt.Errorf("import question pages: %w", err)
		}
		questionPages = n
	}

	answerPages, err := b.drawAnswerPages(doc, answerText)
	if err != nil {
		return nil, 0, err
	}

	out, err := doc.GetBytesPdfReturnErr()
	if err != nil {
		return nil, 0, fmt.Errorf("serialize pdf: %w", err)
	}
	return out, questionPages + answerPages, nil
}

// drawAnswerPages lays out the answer text and returns how many pages
// it produced. Every page carries the sheet header.
func (b *Builder) drawAnswerPages(doc *gopdf.GoPdf, answerText string) (int, error) {
	if err := doc.AddTTFFontData(answerFontName, b.fontData); err != nil {
		return 0, fmt.Errorf("load answer font: %w", err)
	}
	if err := doc.SetFont(answerFontName, "", FontSize); err != nil {
		return 0, fmt.Errorf("set answer font: %w", err)
	}

	lines := WrapText(answerText, model.AnswerLineWidth)
	pages := Paginate(lines, model.AnswerLinesPerPage)

	for i, page := range pages {
		doc.AddPage()

		doc.SetXY(MarginLeft, MarginTop)
		header := fmt.Sprintf("答案用紙　%d / %d", i+1, len(pages))
		if err := doc.Text(header); err != nil {
			return 0, fmt.Errorf("draw header: %w", err)
		}

		y := MarginTop + HeaderGap
		for _, line := range page {
			doc.SetXY(MarginLeft, y)
			if line != "" {
				if err := doc.Text(line); err != nil {
					return 0, fmt.Errorf("draw answer line: %w", err)
				}
			}
			y += LineHeight
		}
	}
	return len(pages), nil
}

// MergeDocuments concatenates two PDF documents byte-level, first
// before second, and returns the merged bytes plus total page count.
func MergeDocuments(first, second []byte) ([]byte, int, error) {
	firstPages, err := ValidateQuestion(first)
	if err != nil {
		return nil, 0, err
	}
	secondPages, err := ValidateQuestion(second)
	if err != nil {
		return nil, 0, err
	}

	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	if err := doc.ImportPagesFromSource(bytes.NewReader(first), "/MediaBox"); err != nil {
		return nil, 0, fmt.Errorf("import first document: %w", err)
	}
	if err := doc.ImportPagesFromSource(bytes.NewReader(second), "/MediaBox"); err != nil {
		return nil, 0, fmt.Errorf("import second document: %w", err)
	}

	out, err := doc.GetBytesPdfReturnErr()
	if err != nil {
		return nil, 0, fmt.Errorf("serialize merged pdf: %w", err)
	}
	return out, firstPages + secondPages, nil
}

// BuildFromSlices places pre-rendered page images into a PDF, one per
// page, inside the sheet margins. Used by the pixel-split path.
func BuildFromSlices(slices [][]byte) ([]byte, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("no page slices to place")
	}

	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})

	contentWidth := PageWidth - MarginLeft - MarginRight
	for _, slice := range slices {
		img, err := jpeg.DecodeConfig(bytes.NewReader(slice))
		if err != nil {
			return nil, fmt.Errorf("decode page slice: %w", err)
		}

		doc.AddPage()
		holder, err := gopdf.ImageHolderByBytes(slice)
		if err != nil {
			return nil, fmt.Errorf("wrap page slice: %w", err)
		}

		scale := contentWidth / float64(img.Width)
		rect := &gopdf.Rect{W: contentWidth, H: float64(img.Height) * scale}
		if err := doc.ImageByHolder(holder, MarginLeft, MarginTop, rect); err != nil {
			return nil, fmt.Errorf("place page slice: %w", err)
		}
	}

	out, err := doc.GetBytesPdfReturnErr()
	if err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	return out, nil
}
