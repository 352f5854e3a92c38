// Package filetype tells real PDFs from files that only carry the extension.
package filetype

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const pdfMIME = "application/pdf"

// Info is the result of sniffing a file's leading bytes.
type Info struct {
	MIME  string
	IsPDF bool
}

// Detector sniffs content by magic bytes; the file name is never consulted.
type Detector struct{}

func New() *Detector { return &Detector{} }

// Sniff reads the head of path and reports its content type.
func (d *Detector) Sniff(path string) (Info, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("sniff %s: %w", path, err)
	}
	in := Info{MIME: mt.String(), IsPDF: mt.Is(pdfMIME)}
	log.Debug().Str("file", path).Str("mime", in.MIME).Msg("sniffed")
	return in, nil
}

// CheckPDF fails unless path starts with a PDF signature.
func (d *Detector) CheckPDF(path string) error {
	in, err := d.Sniff(path)
	if err != nil {
		return err
	}
	if !in.IsPDF {
		return fmt.Errorf("not a PDF document (detected %s)", in.MIME)
	}
	return nil
}
