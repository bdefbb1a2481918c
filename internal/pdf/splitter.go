package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Splitter slices a tall content bitmap into page-height chunks,
// nudging each cut up to the nearest blank row so lines of text are
// never cut through mid-glyph.
type Splitter struct {
	// PageHeightPx is the nominal slice height.
	PageHeightPx int
	// ScanWindow is the fraction of the slice, measured up from its
	// bottom edge, searched for a blank row. 0.2 scans the bottom 20%.
	ScanWindow float64
	// WhiteThreshold is the minimum channel value for a pixel to count
	// as blank.
	WhiteThreshold uint8
	// SampleStride is the horizontal sampling step when testing a row.
	// Sampling every nth pixel is enough to detect glyph ink.
	SampleStride int
	// JPEGQuality for the encoded slices.
	JPEGQuality int
}

// DefaultSplitter mirrors the on-screen export: A4 aspect at the
// render width, bottom 20% window, near-white threshold.
func DefaultSplitter(widthPx int) Splitter {
	return Splitter{
		PageHeightPx:   int(float64(widthPx) * PageHeight / PageWidth),
		ScanWindow:     0.2,
		WhiteThreshold: 240,
		SampleStride:   8,
		JPEGQuality:    80,
	}
}

// Split cuts img into JPEG-encoded page slices. When no blank row is
// found inside the scan window the nominal cut is used as is; a torn
// line is accepted, not an error.
func (s Splitter) Split(img *image.RGBA) ([][]byte, error) {
	bounds := img.Bounds()
	if s.PageHeightPx <= 0 {
		return nil, fmt.Errorf("invalid page height %d", s.PageHeightPx)
	}

	var slices [][]byte
	top := bounds.Min.Y
	for top < bounds.Max.Y {
		cut := top + s.PageHeightPx
		if cut >= bounds.Max.Y {
			cut = bounds.Max.Y
		} else {
			cut = s.findBreak(img, top, cut)
		}

		sub := img.SubImage(image.Rect(bounds.Min.X, top, bounds.Max.X, cut))
		encoded, err := s.encode(sub)
		if err != nil {
			return nil, err
		}
		slices = append(slices, encoded)
		top = cut
	}
	return slices, nil
}

// findBreak scans upward from the nominal cut through the scan window
// for the first fully blank row. Returns the nominal cut when every
// sampled row carries ink.
func (s Splitter) findBreak(img *image.RGBA, top, nominalCut int) int {
	window := int(float64(nominalCut-top) * s.ScanWindow)
	limit := nominalCut - window
	if limit <= top {
		limit = top + 1
	}

	for y := nominalCut - 1; y >= limit; y-- {
		if s.rowIsBlank(img, y) {
			return y
		}
	}
	return nominalCut
}

func (s Splitter) rowIsBlank(img *image.RGBA, y int) bool {
	bounds := img.Bounds()
	stride := s.SampleStride
	if stride <= 0 {
		stride = 1
	}
	for x := bounds.Min.X; x < bounds.Max.X; x += stride {
		r, g, b, _ := img.At(x, y).RGBA()
		if uint8(r>>8) < s.WhiteThreshold ||
			uint8(g>>8) < s.WhiteThreshold ||
			uint8(b>>8) < s.WhiteThreshold {
			return false
		}
	}
	return true
}

func (s Splitter) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode page slice: %w", err)
	}
	return buf.Bytes(), nil
}
