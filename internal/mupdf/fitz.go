package mupdf

import (
	"fmt"
	"image"

	fitz "github.com/gen2brain/go-fitz"
)

// FitzOpener opens documents with the embedded MuPDF library.
type FitzOpener struct{}

// NewFitzOpener returns the go-fitz backed Opener.
func NewFitzOpener() FitzOpener { return FitzOpener{} }

func (FitzOpener) Open(path string) (Doc, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return fitzDoc{doc}, nil
}

type fitzDoc struct{ *fitz.Document }

func (d fitzDoc) Text(page int) (string, error) {
	if page < 0 || page >= d.Document.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d pages)", page+1, d.Document.NumPage())
	}
	return d.Document.Text(page)
}

func (d fitzDoc) Image(page int, dpi float64) (image.Image, error) {
	if page < 0 || page >= d.Document.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page+1, d.Document.NumPage())
	}
	img, err := d.Document.ImageDPI(page, dpi)
	if err != nil {
		return nil, err
	}
	return img, nil
}
