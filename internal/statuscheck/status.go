package statuscheck

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/local/pdfsorter/internal/mapping"
	"github.com/local/pdfsorter/internal/ocr"
)

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the doctor command.
type Summary struct {
	MuPDF     Status `json:"mupdf"`
	OCR       Status `json:"ocr"`
	Tesseract Status `json:"tesseract"`
	Mapping   Status `json:"mapping"`
	Template  Status `json:"template"`
}

// Options configures the Checker.
type Options struct {
	OCREnabled  bool
	OCR         ocr.Options
	MappingPath string
}

// Checker inspects the local environment a sort depends on.
type Checker struct {
	opts    Options
	newOCR  func(ocr.Options) (ocr.Engine, error)
	lookBin func(string) (string, error)
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	return &Checker{opts: opts, newOCR: ocr.New, lookBin: exec.LookPath}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary() Summary {
	return Summary{
		MuPDF:     Status{OK: true, Message: "Embedded"},
		OCR:       c.checkOCR(),
		Tesseract: c.checkTesseract(),
		Mapping:   c.checkMapping(),
		Template:  c.checkTemplate(),
	}
}

// OK reports whether every check that matters for sorting passed.
func (s Summary) OK() bool {
	return s.MuPDF.OK && s.Mapping.OK && s.Template.OK
}

func (c *Checker) checkOCR() Status {
	if !c.opts.OCREnabled {
		return Status{OK: false, Message: "Disabled by configuration"}
	}
	eng, err := c.newOCR(c.opts.OCR)
	switch {
	case err == nil:
		return Status{OK: true, Message: fmt.Sprintf("Available (%s)", eng.Name())}
	case ocr.IsEngineMissing(err):
		return Status{OK: false, Message: "Engine not installed"}
	default:
		return Status{OK: false, Message: trimError(err)}
	}
}

func (c *Checker) checkTesseract() Status {
	if _, err := c.lookBin("tesseract"); err != nil {
		return Status{OK: false, Message: "Binary not found"}
	}
	return Status{OK: true, Message: "Installed"}
}

func (c *Checker) checkMapping() Status {
	if c.opts.MappingPath == "" {
		return Status{OK: false, Message: "No mapping selected"}
	}
	m, err := mapping.Load(c.opts.MappingPath)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: fmt.Sprintf("%d rules", m.Len())}
}

func (c *Checker) checkTemplate() Status {
	if c.opts.MappingPath == "" {
		return Status{OK: false, Message: "No mapping selected"}
	}
	dir := mapping.TemplateDirFor(c.opts.MappingPath)
	fi, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Status{OK: true, Message: "Will be created on first sort"}
		}
		return Status{OK: false, Message: trimError(err)}
	}
	if !fi.IsDir() {
		return Status{OK: false, Message: "Not a directory"}
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Status{OK: false, Message: "Not writable"}
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return Status{OK: true, Message: "Writable: " + filepath.Clean(dir)}
}

const maxErrorRunes = 120

func trimError(err error) string {
	if err == nil {
		return ""
	}
	msg := []rune(err.Error())
	if len(msg) > maxErrorRunes {
		return string(msg[:maxErrorRunes])
	}
	return string(msg)
}
