package imagerender

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/mupdf"
)

// OCRDPI is the resolution pages are rasterized at before OCR.
const OCRDPI = 300

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// RenderPagePNG rasterizes a page (0-based) of an open document and encodes
// it as PNG. Returns PNG bytes, width, height, error.
func RenderPagePNG(doc mupdf.Doc, page, dpi int, mode ColorMode) ([]byte, int, int, error) {
	if dpi <= 0 {
		dpi = OCRDPI
	}
	img, err := doc.Image(page, float64(dpi))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var finalImg image.Image = img
	if mode == ColorGray {
		grayImg := image.NewGray(bounds)
		draw.Draw(grayImg, bounds, img, bounds.Min, draw.Src)
		finalImg = grayImg
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, finalImg); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode PNG: %w", err)
	}

	log.Debug().
		Int("page", page+1).
		Int("width", width).
		Int("height", height).
		Int("dpi", dpi).
		Str("color", string(mode)).
		Int("png_size", buf.Len()).
		Msg("rendered page for OCR")

	return buf.Bytes(), width, height, nil
}
