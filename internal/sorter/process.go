package sorter

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/extract"
	"github.com/local/pdfsorter/internal/match"
	"github.com/local/pdfsorter/internal/router"
	"github.com/local/pdfsorter/internal/status"
)

// processFile classifies and, when matched, moves one PDF. The returned error
// is non-nil only when ctx was cancelled before the file was finished; the
// file is then untouched and not recorded.
func (e *Engine) processFile(ctx context.Context, path string, mt *match.Matcher, templateDir, scheme string, opts Options) (res FileResult, cancelErr error) {
	res = FileResult{Path: path}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("file", path).Msg("panic while processing file")
			res = e.fail(res, errInternal(r))
			cancelErr = nil
		}
	}()

	e.emitf(status.KindScan, path, "Scanning")

	if e.deps.Sniffer != nil {
		if err := e.deps.Sniffer.CheckPDF(path); err != nil {
			return e.fail(res, &notPDFError{err: err}), nil
		}
	}

	ext, err := e.deps.Extractor.ExtractDetailed(ctx, path, opts.FirstPageOnly)
	if err != nil {
		if isCancellation(err) {
			return res, err
		}
		return e.fail(res, err), nil
	}
	res.Method = string(ext.Method)

	if ext.Text == "" {
		res.Outcome = OutcomeSkipped
		e.emitf(status.KindSkipped, path, "%s", skipReason(ext.OCRStatus))
		return res, nil
	}

	rule, ok := mt.Match(ext.Text)
	if !ok {
		res.Outcome = OutcomeUnmatched
		e.emitf(status.KindNoMatch, path, "No match found")
		return res, nil
	}
	res.Rule = &rule
	e.emitf(status.KindMatched, path, "Matched on phrase %q (%s)", rule.Phrase, rule.Name)

	// Do not start a move once cancellation has been requested.
	if err := ctx.Err(); err != nil {
		return FileResult{Path: path}, err
	}
	dest, err := router.Route(rule, path, templateDir, scheme, e.cfg.Now())
	if err != nil {
		return e.fail(res, err), nil
	}
	res.Outcome = OutcomeSorted
	res.Dest = dest
	e.emitf(status.KindMoved, path, "Moved to %s", filepath.Dir(dest))
	return res, nil
}

func (e *Engine) fail(res FileResult, err error) FileResult {
	res.Outcome = OutcomeError
	res.Err = err.Error()
	log.Warn().Err(err).Str("file", res.Path).Msg("file failed")
	e.emitf(status.KindError, res.Path, "%s (%v)", describe(err), err)
	return res
}

func skipReason(s extract.OCRStatus) string {
	switch s {
	case extract.OCRUnavailable:
		return "Skipped, no text layer and OCR is not available"
	case extract.OCREngineMissing:
		return "Skipped, OCR engine not installed"
	case extract.OCRFailed:
		return "Skipped, OCR attempted and failed"
	default:
		return "Skipped, no text found"
	}
}
