// Package mupdf opens PDF documents through MuPDF (go-fitz) behind small
// interfaces so callers can substitute documents in tests.
package mupdf

import (
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog/log"
)

// Doc is an open PDF document. Page indices are 0-based.
type Doc interface {
	NumPage() int
	Text(page int) (string, error)
	Image(page int, dpi float64) (image.Image, error)
	Close() error
}

// Opener opens a PDF path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(path string) (Doc, error)

func (f OpenerFunc) Open(path string) (Doc, error) { return f(path) }

// PageText extracts the text of the given pages and joins them with a newline.
// A page that fails to extract aborts the whole read.
func PageText(doc Doc, pages []int) (string, error) {
	var result strings.Builder
	for i, p := range pages {
		text, err := doc.Text(p)
		if err != nil {
			return "", fmt.Errorf("text page %d: %w", p+1, err)
		}
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString(text)
	}
	log.Debug().Int("pages", len(pages)).Int("chars", result.Len()).Msg("extracted native text")
	return result.String(), nil
}

// SelectPages returns the page indices to read: only the first page, or all.
func SelectPages(total int, firstPageOnly bool) []int {
	if total <= 0 {
		return nil
	}
	if firstPageOnly {
		return []int{0}
	}
	pages := make([]int, total)
	for i := range pages {
		pages[i] = i
	}
	return pages
}
