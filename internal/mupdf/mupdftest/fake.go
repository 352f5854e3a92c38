// Package mupdftest provides in-memory documents for tests of code that
// reads PDFs through mupdf.Opener.
package mupdftest

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"github.com/local/pdfsorter/internal/mupdf"
)

// ErrCorrupt is returned by Opener for paths registered with Corrupt.
var ErrCorrupt = errors.New("cannot open document: corrupt file")

// Doc is a fake document whose pages hold fixed text. A page with no text
// stands for a scanned page.
type Doc struct {
	Pages []string
	// TextErr, when set, fails every Text call.
	TextErr error
	closed  bool
}

func (d *Doc) NumPage() int { return len(d.Pages) }

func (d *Doc) Text(page int) (string, error) {
	if d.TextErr != nil {
		return "", d.TextErr
	}
	if page < 0 || page >= len(d.Pages) {
		return "", fmt.Errorf("page %d out of range", page+1)
	}
	return d.Pages[page], nil
}

// Image renders a tiny blank page.
func (d *Doc) Image(page int, dpi float64) (image.Image, error) {
	if page < 0 || page >= len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range", page+1)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.White)
		}
	}
	return img, nil
}

func (d *Doc) Close() error {
	d.closed = true
	return nil
}

// Opener serves fake documents keyed by base file name.
type Opener struct {
	mu      sync.Mutex
	docs    map[string]*Doc
	corrupt map[string]bool
	Opened  []string
}

// NewOpener returns an empty Opener.
func NewOpener() *Opener {
	return &Opener{docs: map[string]*Doc{}, corrupt: map[string]bool{}}
}

// Add registers the pages of a document by base name.
func (o *Opener) Add(name string, pages ...string) *Opener {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.docs[name] = &Doc{Pages: pages}
	return o
}

// AddDoc registers a prepared document by base name.
func (o *Opener) AddDoc(name string, d *Doc) *Opener {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.docs[name] = d
	return o
}

// Corrupt makes Open fail for name.
func (o *Opener) Corrupt(name string) *Opener {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.corrupt[name] = true
	return o
}

func (o *Opener) Open(path string) (mupdf.Doc, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	name := filepath.Base(path)
	o.Opened = append(o.Opened, name)
	if o.corrupt[name] {
		return nil, ErrCorrupt
	}
	d, ok := o.docs[name]
	if !ok {
		return nil, fmt.Errorf("no such document %q", name)
	}
	cp := *d
	return &cp, nil
}

// WritePDF writes a file that passes PDF signature sniffing and returns its
// path. The content is not a valid document; pair it with an Opener.
func WritePDF(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	body := []byte("%PDF-1.4\n% " + name + "\n%%EOF\n")
	return p, os.WriteFile(p, body, 0o644)
}

// OCR is a fake OCR engine that returns Text for every page, or Err.
type OCR struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls int
}

func (e *OCR) Name() string { return "fake" }

func (e *OCR) Recognize(ctx context.Context, _ []byte) (string, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.Text, e.Err
}

// Calls reports how many pages were recognized.
func (e *OCR) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
