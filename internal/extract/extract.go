// Package extract turns a PDF into plain text, reading the embedded text
// layer first and falling back to OCR of rendered pages when there is none.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/imagerender"
	"github.com/local/pdfsorter/internal/metrics"
	"github.com/local/pdfsorter/internal/mupdf"
	"github.com/local/pdfsorter/internal/ocr"
	"github.com/local/pdfsorter/internal/status"
)

// Method tells where the returned text came from.
type Method string

const (
	MethodNative Method = "native"
	MethodOCR    Method = "ocr"
	MethodNone   Method = "none"
)

// OCRStatus records what happened on the OCR path.
type OCRStatus string

const (
	OCRNotNeeded     OCRStatus = "not_needed"
	OCRUnavailable   OCRStatus = "unavailable"
	OCREngineMissing OCRStatus = "engine_missing"
	OCRFailed        OCRStatus = "failed"
	OCROK            OCRStatus = "ok"
)

// Result is the outcome of one extraction.
type Result struct {
	Text      string
	Method    Method
	OCRStatus OCRStatus
	Pages     int
}

// ExtractionError reports a document that could not be opened or read.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Options configures an Extractor.
type Options struct {
	// DPI used to rasterize pages for OCR.
	DPI  int
	Mode imagerender.ColorMode
	// Sink receives OCR progress events. May be nil.
	Sink status.Sink
}

// Extractor reads text from PDFs. A nil engine disables OCR.
type Extractor struct {
	opener mupdf.Opener
	engine ocr.Engine
	opts   Options
}

// New creates an Extractor.
func New(opener mupdf.Opener, engine ocr.Engine, opts Options) *Extractor {
	if opener == nil {
		opener = mupdf.NewFitzOpener()
	}
	if opts.DPI <= 0 {
		opts.DPI = imagerender.OCRDPI
	}
	if opts.Mode == "" {
		opts.Mode = imagerender.ColorGray
	}
	return &Extractor{opener: opener, engine: engine, opts: opts}
}

// OCREnabled reports whether an OCR engine is configured.
func (e *Extractor) OCREnabled() bool { return e.engine != nil }

// Extract returns the text of path, or "" on any failure. It never fails.
func (e *Extractor) Extract(ctx context.Context, path string, firstPageOnly bool) string {
	res, err := e.ExtractDetailed(ctx, path, firstPageOnly)
	if err != nil {
		return ""
	}
	return res.Text
}

// ExtractDetailed reads the native text layer and, if it is empty, falls back
// to OCR. Open or read failures return *ExtractionError; a cancelled ctx
// returns ctx.Err(). OCR problems are never errors: they show up in
// Result.OCRStatus with empty text.
func (e *Extractor) ExtractDetailed(ctx context.Context, path string, firstPageOnly bool) (Result, error) {
	start := time.Now()
	res := Result{Method: MethodNone, OCRStatus: OCRNotNeeded}

	doc, err := e.opener.Open(path)
	if err != nil {
		return res, &ExtractionError{Path: path, Err: err}
	}
	defer doc.Close()

	pages := mupdf.SelectPages(doc.NumPage(), firstPageOnly)
	res.Pages = len(pages)
	if len(pages) == 0 {
		return res, &ExtractionError{Path: path, Err: errors.New("document has no pages")}
	}

	text, err := readNative(doc, pages)
	if err != nil {
		return res, &ExtractionError{Path: path, Err: err}
	}
	if text != "" {
		res.Text = text
		res.Method = MethodNative
		metrics.ObserveExtraction(string(MethodNative), time.Since(start))
		return res, nil
	}

	if e.engine == nil {
		res.OCRStatus = OCRUnavailable
		status.Emit(e.opts.Sink, status.Event{Kind: status.KindOCR, File: path, Message: "No text layer and OCR is not available"})
		return res, nil
	}

	text, err = e.ocrPages(ctx, path, doc, pages)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return res, err
	case ocr.IsEngineMissing(err):
		res.OCRStatus = OCREngineMissing
		status.Emit(e.opts.Sink, status.Event{Kind: status.KindOCR, File: path, Message: "OCR engine not installed; install Tesseract to read scanned PDFs"})
		log.Warn().Err(err).Str("file", path).Msg("OCR engine missing")
		return res, nil
	case err != nil:
		res.OCRStatus = OCRFailed
		status.Emit(e.opts.Sink, status.Event{Kind: status.KindOCR, File: path, Message: fmt.Sprintf("OCR attempted and failed (%v)", err)})
		log.Warn().Err(err).Str("file", path).Msg("OCR failed")
		return res, nil
	}

	res.OCRStatus = OCROK
	res.Text = text
	if text != "" {
		res.Method = MethodOCR
	}
	metrics.ObserveExtraction(string(MethodOCR), time.Since(start))
	return res, nil
}

func readNative(doc mupdf.Doc, pages []int) (string, error) {
	text, err := mupdf.PageText(doc, pages)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ocrPages renders and recognizes each page in turn, checking ctx between
// pages. Per-page texts are joined with newlines.
func (e *Extractor) ocrPages(ctx context.Context, path string, doc mupdf.Doc, pages []int) (string, error) {
	parts := make([]string, 0, len(pages))
	for i, p := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		status.Emit(e.opts.Sink, status.Event{
			Kind:    status.KindOCRPage,
			File:    path,
			Message: fmt.Sprintf("OCR page %d/%d", i+1, len(pages)),
		})
		img, _, _, err := imagerender.RenderPagePNG(doc, p, e.opts.DPI, e.opts.Mode)
		if err != nil {
			metrics.IncOCRPage("render_failed")
			return "", err
		}
		text, err := e.engine.Recognize(ctx, img)
		if err != nil {
			metrics.IncOCRPage("failed")
			return "", err
		}
		metrics.IncOCRPage("ok")
		if t := strings.TrimSpace(text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), nil
}
