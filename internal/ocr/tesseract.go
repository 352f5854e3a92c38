//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"
)

// TesseractEngine runs OCR through the gosseract client.
type TesseractEngine struct {
	opts          Options
	clientFactory func() *gosseract.Client
}

// New constructs the Tesseract-backed engine. It fails with ErrEngineMissing
// when the language data cannot be found.
func New(opts Options) (Engine, error) {
	if len(opts.Languages) == 0 {
		opts.Languages = DefaultLanguages
	}
	if opts.TessdataPrefix != "" {
		for _, lang := range opts.Languages {
			p := filepath.Join(opts.TessdataPrefix, lang+".traineddata")
			if _, err := os.Stat(p); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrEngineMissing, p)
			}
		}
	}
	return &TesseractEngine{opts: opts, clientFactory: gosseract.NewClient}, nil
}

func (e *TesseractEngine) Name() string { return "tesseract" }

const preserveSpaces gosseract.SettableVariable = "preserve_interword_spaces"

// configure applies the engine options to a fresh client. Only the optional
// spacing variable may fail without failing recognition.
func (e *TesseractEngine) configure(c *gosseract.Client) error {
	if e.opts.TessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.opts.TessdataPrefix); err != nil {
			return fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(e.opts.Languages...); err != nil {
		return fmt.Errorf("set languages: %w", err)
	}
	if e.opts.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.opts.DPI)); err != nil {
			return fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetVariable(preserveSpaces, "1"); err != nil {
		log.Debug().Err(err).Str("variable", string(preserveSpaces)).Msg("tesseract variable not applied")
	}
	return nil
}

// Recognize performs OCR on a single encoded image.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if err := e.configure(c); err != nil {
		return "", err
	}

	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		if looksMissing(err) {
			log.Warn().Err(err).Msg("tesseract could not initialize")
			return "", fmt.Errorf("%w: %v", ErrEngineMissing, err)
		}
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// looksMissing matches the initialization failures Tesseract reports when the
// engine or its language data is not installed.
func looksMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "initialize") ||
		strings.Contains(msg, "failed loading language") ||
		strings.Contains(msg, "tessdata")
}
