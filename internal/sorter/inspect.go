package sorter

import (
	"context"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/mapping"
	"github.com/local/pdfsorter/internal/match"
	"github.com/local/pdfsorter/internal/pdftest"
	"github.com/local/pdfsorter/internal/router"
)

// pageCounter reads the page count from the PDF structure, independently of
// MuPDF.
var pageCounter = api.PageCountFile

// Inspection is a dry run of the sort pipeline for one file.
type Inspection struct {
	Path         string          `json:"path"`
	Pages        int             `json:"pages"`
	HasTextLayer bool            `json:"has_text_layer"`
	Probe        *pdftest.Report `json:"probe,omitempty"`
	Method       string          `json:"method"`
	OCRStatus    string          `json:"ocr_status,omitempty"`
	TextPreview  string          `json:"text_preview,omitempty"`
	Rule         *mapping.Rule   `json:"rule,omitempty"`
	Destination  string          `json:"destination,omitempty"`
	Err          string          `json:"error,omitempty"`
}

const previewLen = 120

// Inspect reports what a sort would do with each file without moving
// anything.
func (e *Engine) Inspect(ctx context.Context, paths []string, m *mapping.Mapping, opts Options) []Inspection {
	if m == nil {
		m = &mapping.Mapping{}
	}
	mt := match.New(m)
	// Without a template root the destination stays empty.
	templateDir, err := templateDirOf(m, opts)
	if err != nil {
		log.Debug().Err(err).Msg("inspect without destinations")
	}
	now := e.cfg.Now()

	out := make([]Inspection, 0, len(paths))
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		out = append(out, e.inspectFile(ctx, p, mt, templateDir, m.NamingScheme, opts, now))
	}
	return out
}

func (e *Engine) inspectFile(ctx context.Context, path string, mt *match.Matcher, templateDir, scheme string, opts Options, now time.Time) Inspection {
	in := Inspection{Path: path}

	if e.deps.Sniffer != nil {
		if err := e.deps.Sniffer.CheckPDF(path); err != nil {
			in.Err = err.Error()
			return in
		}
	}

	if n, err := pageCounter(path); err != nil {
		log.Debug().Err(err).Str("file", path).Msg("page count failed")
	} else {
		in.Pages = n
	}

	if rep, err := pdftest.TextLayer(e.deps.Opener, path, 0); err == nil {
		in.Probe = rep
		in.HasTextLayer = rep.HasTextLayer
		if in.Pages == 0 {
			in.Pages = rep.TotalPages
		}
	}

	res, err := e.deps.Extractor.ExtractDetailed(ctx, path, opts.FirstPageOnly)
	if err != nil {
		in.Err = err.Error()
		return in
	}
	in.Method = string(res.Method)
	in.OCRStatus = string(res.OCRStatus)
	in.TextPreview = preview(match.Normalize(res.Text))
	if res.Text == "" {
		return in
	}

	rule, ok := mt.Match(res.Text)
	if !ok {
		return in
	}
	in.Rule = &rule
	if templateDir == "" {
		return in
	}
	dir, err := router.ResolveDir(rule, templateDir)
	if err != nil {
		in.Err = err.Error()
		return in
	}
	in.Destination = filepath.Join(dir, router.GenerateFilename(rule, path, scheme, now))
	return in
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen]) + "…"
}
