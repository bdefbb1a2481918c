package pdf

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RenderOptions controls offscreen rasterization of answer text.
type RenderOptions struct {
	WidthPx      int
	FontSizePx   float64
	LineHeightPx int
	MarginPx     int
}

// DefaultRenderOptions matches the on-screen editor at roughly 150 dpi.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		WidthPx:      1240,
		FontSizePx:   28,
		LineHeightPx: 48,
		MarginPx:     40,
	}
}

// RenderText rasterizes lines onto a white, fixed-width bitmap whose
// height follows the content. The bitmap feeds the page splitter.
func RenderText(fontData []byte, lines []string, opts RenderOptions) (*image.RGBA, error) {
	parsed, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse render font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    opts.FontSizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build render face: %w", err)
	}
	defer face.Close()

	height := len(lines)*opts.LineHeightPx + 2*opts.MarginPx
	if height < opts.LineHeightPx {
		height = opts.LineHeightPx
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.WidthPx, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		baseline := opts.MarginPx + (i+1)*opts.LineHeightPx - opts.LineHeightPx/4
		drawer.Dot = fixed.P(opts.MarginPx, baseline)
		drawer.DrawString(line)
	}
	return img, nil
}
