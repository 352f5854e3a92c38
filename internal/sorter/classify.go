package sorter

import (
	"context"
	"errors"
	"fmt"

	"github.com/local/pdfsorter/internal/extract"
	"github.com/local/pdfsorter/internal/router"
)

// notPDFError marks a .pdf file whose content is not a PDF.
type notPDFError struct{ err error }

func (e *notPDFError) Error() string { return e.err.Error() }
func (e *notPDFError) Unwrap() error { return e.err }

// isCancellation checks if err stems from a cancelled or expired context
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// describe turns a per-file error into a short status prefix
func describe(err error) string {
	var (
		notPDF *notPDFError
		exErr  *extract.ExtractionError
		fsErr  *router.FileSystemError
	)
	switch {
	case errors.As(err, &notPDF):
		return "Error, not a PDF document"
	case errors.As(err, &exErr):
		return "Error reading PDF"
	case errors.Is(err, router.ErrTargetExists):
		return "Error, destination already exists"
	case errors.As(err, &fsErr):
		return "Error moving file"
	default:
		return "Error processing file"
	}
}

func errInternal(r any) error {
	return fmt.Errorf("internal error: %v", r)
}
