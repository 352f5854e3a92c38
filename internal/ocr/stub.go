//go:build !ocr

package ocr

// New reports ErrUnavailable: this build carries no OCR backend.
func New(opts Options) (Engine, error) {
	return nil, ErrUnavailable
}
