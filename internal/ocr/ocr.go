// Package ocr recognizes text in rendered page images.
//
// The Tesseract backend is compiled in with the "ocr" build tag and requires
// the Tesseract library and language data:
//
//	go build -tags ocr ./cmd/pdfsorter
//
// Without the tag every engine constructor returns ErrUnavailable.
package ocr

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnavailable means no OCR backend is configured in this build.
	ErrUnavailable = errors.New("OCR support not available")

	// ErrEngineMissing means the OCR engine or its language data is not
	// installed. Callers surface it as an "install Tesseract" hint.
	ErrEngineMissing = errors.New("OCR engine not installed")
)

// Engine recognizes the text in one encoded page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Options configures an engine.
type Options struct {
	Languages      []string
	TessdataPrefix string
	DPI            int
}

// DefaultLanguages is used when Options.Languages is empty.
var DefaultLanguages = []string{"eng"}

// IsEngineMissing reports whether err says the engine is not installed.
func IsEngineMissing(err error) bool {
	return errors.Is(err, ErrEngineMissing)
}

// ParseLanguages splits a "+" or "," separated language list.
func ParseLanguages(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Unusable returns an Engine whose Recognize always fails with err. It lets
// an engine that failed to initialize still be reported per document.
func Unusable(name string, err error) Engine {
	return unusable{name: name, err: err}
}

type unusable struct {
	name string
	err  error
}

func (u unusable) Name() string { return u.name }

func (u unusable) Recognize(context.Context, []byte) (string, error) { return "", u.err }
