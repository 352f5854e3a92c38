package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsorter/internal/mupdf/mupdftest"
	"github.com/local/pdfsorter/internal/ocr"
	"github.com/local/pdfsorter/internal/status"
)

type recorder struct {
	mu     sync.Mutex
	events []status.Event
}

func (r *recorder) Emit(ev status.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []status.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]status.Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func newOpener() *mupdftest.Opener {
	return mupdftest.NewOpener().
		Add("native.pdf", "  Tax Invoice  ", "second page").
		Add("scanned.pdf", "", " ").
		Add("late.pdf", "", "text on page two").
		Add("empty.pdf").
		AddDoc("broken.pdf", &mupdftest.Doc{Pages: []string{"x"}, TextErr: errors.New("bad stream")}).
		Corrupt("corrupt.pdf")
}

func TestNativeText(t *testing.T) {
	ex := New(newOpener(), nil, Options{})

	res, err := ex.ExtractDetailed(context.Background(), "/in/native.pdf", true)
	require.NoError(t, err)
	assert.Equal(t, "Tax Invoice", res.Text)
	assert.Equal(t, MethodNative, res.Method)
	assert.Equal(t, OCRNotNeeded, res.OCRStatus)
	assert.Equal(t, 1, res.Pages)

	res, err = ex.ExtractDetailed(context.Background(), "/in/native.pdf", false)
	require.NoError(t, err)
	assert.Equal(t, "Tax Invoice  \nsecond page", res.Text)
	assert.Equal(t, 2, res.Pages)
}

func TestNativeTextSkipsOCR(t *testing.T) {
	eng := &mupdftest.OCR{Text: "ocr text"}
	ex := New(newOpener(), eng, Options{})
	res, err := ex.ExtractDetailed(context.Background(), "native.pdf", true)
	require.NoError(t, err)
	assert.Equal(t, MethodNative, res.Method)
	assert.Zero(t, eng.Calls())
}

func TestFirstPageOnlyIgnoresLaterPages(t *testing.T) {
	ex := New(newOpener(), nil, Options{})

	res, err := ex.ExtractDetailed(context.Background(), "late.pdf", true)
	require.NoError(t, err)
	assert.Empty(t, res.Text)

	res, err = ex.ExtractDetailed(context.Background(), "late.pdf", false)
	require.NoError(t, err)
	assert.Equal(t, "text on page two", res.Text)
}

func TestNoTextWithoutOCR(t *testing.T) {
	rec := &recorder{}
	ex := New(newOpener(), nil, Options{Sink: rec})
	assert.False(t, ex.OCREnabled())

	res, err := ex.ExtractDetailed(context.Background(), "scanned.pdf", false)
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Equal(t, MethodNone, res.Method)
	assert.Equal(t, OCRUnavailable, res.OCRStatus)
	assert.Equal(t, []status.Kind{status.KindOCR}, rec.kinds())
}

func TestOCRFallback(t *testing.T) {
	rec := &recorder{}
	eng := &mupdftest.OCR{Text: " Scanned Invoice "}
	ex := New(newOpener(), eng, Options{Sink: rec, DPI: 72})
	assert.True(t, ex.OCREnabled())

	res, err := ex.ExtractDetailed(context.Background(), "scanned.pdf", false)
	require.NoError(t, err)
	assert.Equal(t, "Scanned Invoice\nScanned Invoice", res.Text)
	assert.Equal(t, MethodOCR, res.Method)
	assert.Equal(t, OCROK, res.OCRStatus)
	assert.Equal(t, 2, eng.Calls())
	assert.Equal(t, []status.Kind{status.KindOCRPage, status.KindOCRPage}, rec.kinds())
	assert.Equal(t, "OCR page 2/2", rec.events[1].Message)
}

func TestOCRFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want OCRStatus
	}{
		{"engine missing", fmt.Errorf("init: %w", ocr.ErrEngineMissing), OCREngineMissing},
		{"recognition failed", errors.New("tesseract crashed"), OCRFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			ex := New(newOpener(), &mupdftest.OCR{Err: tt.err}, Options{Sink: rec})
			res, err := ex.ExtractDetailed(context.Background(), "scanned.pdf", true)
			require.NoError(t, err)
			assert.Empty(t, res.Text)
			assert.Equal(t, tt.want, res.OCRStatus)
			assert.Contains(t, rec.kinds(), status.KindOCR)
		})
	}
}

func TestUnusableEngineReportsMissing(t *testing.T) {
	ex := New(newOpener(), ocr.Unusable("tesseract", ocr.ErrEngineMissing), Options{})
	res, err := ex.ExtractDetailed(context.Background(), "scanned.pdf", true)
	require.NoError(t, err)
	assert.Equal(t, OCREngineMissing, res.OCRStatus)
}

func TestOCRCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := &mupdftest.OCR{Text: "x"}
	ex := New(newOpener(), eng, Options{})

	_, err := ex.ExtractDetailed(ctx, "scanned.pdf", false)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, eng.Calls())
}

func TestUnreadableDocuments(t *testing.T) {
	ex := New(newOpener(), nil, Options{})
	for _, name := range []string{"corrupt.pdf", "empty.pdf", "broken.pdf", "unknown.pdf"} {
		t.Run(name, func(t *testing.T) {
			_, err := ex.ExtractDetailed(context.Background(), name, true)
			var exErr *ExtractionError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, name, exErr.Path)

			assert.Empty(t, ex.Extract(context.Background(), name, true))
		})
	}
}

func TestExtractFailSoft(t *testing.T) {
	ex := New(newOpener(), nil, Options{})
	assert.Equal(t, "Tax Invoice", ex.Extract(context.Background(), "native.pdf", true))
}
