package sorter

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/mapping"
	"github.com/local/pdfsorter/internal/match"
	"github.com/local/pdfsorter/internal/metrics"
	"github.com/local/pdfsorter/internal/router"
	"github.com/local/pdfsorter/internal/status"
)

// Audit walks templateDir and moves every PDF whose content now matches a
// different destination than the folder it sits in. Unmatched files and
// files without text are left alone.
func (e *Engine) Audit(ctx context.Context, templateDir string, m *mapping.Mapping, opts Options) *SortRun {
	run := newRun(e.cfg.Now())
	if m == nil {
		m = &mapping.Mapping{}
	}
	if templateDir == "" {
		dir, err := templateDirOf(m, opts)
		if err != nil {
			log.Error().Err(err).Str("run", run.ID).Msg("audit aborted")
			e.emitf(status.KindError, "", "Cannot audit (%v)", err)
			run.FolderErrors = append(run.FolderErrors, err.Error())
			return e.finish(ctx, run)
		}
		templateDir = dir
	}
	e.audit(ctx, run, templateDir, match.New(m), opts)
	return e.finish(ctx, run)
}

func (e *Engine) audit(ctx context.Context, run *SortRun, templateDir string, mt *match.Matcher, opts Options) {
	e.emitf(status.KindAudit, "", "Auditing %s", templateDir)
	files, err := walkPDFs(templateDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("template", templateDir).Msg("template folder does not exist yet")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("template", templateDir).Msg("audit walk failed")
		e.emitf(status.KindError, templateDir, "Cannot walk template folder (%v)", err)
		run.FolderErrors = append(run.FolderErrors, templateDir)
	}
	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		res, err := e.auditFile(ctx, f, mt, templateDir, opts)
		if err != nil {
			return
		}
		res.Audit = true
		run.record(res)
		if res.Outcome == OutcomeSorted {
			metrics.IncRelocated()
		}
	}
}

func (e *Engine) auditFile(ctx context.Context, path string, mt *match.Matcher, templateDir string, opts Options) (res FileResult, cancelErr error) {
	res = FileResult{Path: path}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("file", path).Msg("panic while auditing file")
			res = e.fail(res, errInternal(r))
			cancelErr = nil
		}
	}()

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
		return res, nil
	}
	rule, ok := mt.Match(ext.Text)
	if !ok {
		res.Outcome = OutcomeUnmatched
		return res, nil
	}
	res.Rule = &rule

	want, err := router.ResolveDir(rule, templateDir)
	if err != nil {
		return e.fail(res, err), nil
	}
	if samePath(want, filepath.Dir(path)) {
		res.Outcome = OutcomeInPlace
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return FileResult{Path: path}, err
	}
	dir, err := router.DestinationDir(rule, templateDir)
	if err != nil {
		return e.fail(res, err), nil
	}
	target := router.ResolveCollision(dir, filepath.Base(path))
	if err := router.Move(path, target); err != nil {
		return e.fail(res, err), nil
	}
	res.Outcome = OutcomeSorted
	res.Dest = target
	e.emitf(status.KindAudit, path, "Relocated to %s", dir)
	return res, nil
}

// walkPDFs lists every PDF below root in walk order, skipping hidden entries.
// The list is collected up front so relocations do not disturb the walk.
func walkPDFs(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			log.Debug().Err(err).Str("path", p).Msg("audit skip")
			return nil
		}
		if p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && d.Type().IsRegular() && isPDFName(d.Name()) {
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func samePath(a, b string) bool {
	a, errA := filepath.Abs(a)
	b, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return a == b
}
