// Package sorter runs a batch: it enumerates PDFs, extracts their text,
// matches it against the mapping and moves matched files into the template
// tree. One failing file never stops the batch.
package sorter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/extract"
	"github.com/local/pdfsorter/internal/mapping"
	"github.com/local/pdfsorter/internal/match"
	"github.com/local/pdfsorter/internal/metrics"
	"github.com/local/pdfsorter/internal/mupdf"
	"github.com/local/pdfsorter/internal/status"
)

// Extractor reads the text of one PDF.
type Extractor interface {
	ExtractDetailed(ctx context.Context, path string, firstPageOnly bool) (extract.Result, error)
}

// Sniffer rejects files that are not PDFs despite their extension.
type Sniffer interface {
	CheckPDF(path string) error
}

// Options controls one run.
type Options struct {
	FirstPageOnly bool
	DeepAudit     bool
	// TemplateDir overrides the template directory derived from the mapping path.
	TemplateDir string
}

// Config is fixed for the lifetime of an Engine.
type Config struct {
	// Now stamps generated file names. Defaults to time.Now.
	Now func() time.Time
	// MetricsTextfile receives a metrics snapshot after every run when set.
	MetricsTextfile string
}

// Dependencies are the collaborators of an Engine. Extractor is required.
type Dependencies struct {
	Extractor Extractor
	Sniffer   Sniffer
	Opener    mupdf.Opener
	Sink      status.Sink
}

// Engine sorts batches of PDFs. It performs no internal parallelism.
type Engine struct {
	cfg  Config
	deps Dependencies
}

// New creates an Engine.
func New(cfg Config, deps Dependencies) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if deps.Sink == nil {
		deps.Sink = status.Discard
	}
	if deps.Opener == nil {
		deps.Opener = mupdf.NewFitzOpener()
	}
	return &Engine{cfg: cfg, deps: deps}
}

// SortWithMappingPath loads the mapping at mappingPath once and sorts folders
// with it. A mapping that cannot be loaded is reported and replaced by an
// empty one, so every PDF ends up unmatched.
func (e *Engine) SortWithMappingPath(ctx context.Context, folders []string, mappingPath string, opts Options) *SortRun {
	e.emitf(status.KindMapping, "", "Loading mapping from %s", mappingPath)
	m, err := mapping.Load(mappingPath)
	if err != nil {
		log.Warn().Err(err).Str("mapping", mappingPath).Msg("mapping load failed")
		e.emitf(status.KindError, mappingPath, "Could not load mapping (%v); using an empty mapping", err)
	} else {
		e.emitf(status.KindMapping, "", "Mapping loaded from %s (%d rules)", mappingPath, m.Len())
	}
	return e.Sort(ctx, folders, m, opts)
}

// Sort processes the top level of every folder with m.
func (e *Engine) Sort(ctx context.Context, folders []string, m *mapping.Mapping, opts Options) *SortRun {
	run := newRun(e.cfg.Now())
	if m == nil {
		m = &mapping.Mapping{}
	}
	templateDir, err := templateDirOf(m, opts)
	if err != nil {
		log.Error().Err(err).Str("run", run.ID).Msg("sort aborted")
		e.emitf(status.KindError, "", "Cannot sort (%v)", err)
		run.FolderErrors = append(run.FolderErrors, folders...)
		return e.finish(ctx, run)
	}
	mt := match.New(m)

	log.Info().Str("run", run.ID).Int("folders", len(folders)).Int("rules", m.Len()).
		Str("template", templateDir).Bool("first_page_only", opts.FirstPageOnly).
		Bool("deep_audit", opts.DeepAudit).Msg("sort started")

folders:
	for _, folder := range folders {
		if ctx.Err() != nil {
			break
		}
		e.emitf(status.KindFolder, "", "Sorting folder: %s", folder)
		files, err := listPDFs(folder)
		if err != nil {
			log.Warn().Err(err).Str("folder", folder).Msg("cannot list folder")
			e.emitf(status.KindError, folder, "Cannot read folder (%v)", err)
			run.FolderErrors = append(run.FolderErrors, folder)
			continue
		}
		for _, f := range files {
			if ctx.Err() != nil {
				break folders
			}
			res, err := e.processFile(ctx, f, mt, templateDir, m.NamingScheme, opts)
			if err != nil {
				break folders
			}
			run.record(res)
			metrics.IncFile(string(res.Outcome))
		}
	}

	if opts.DeepAudit && ctx.Err() == nil {
		e.audit(ctx, run, templateDir, mt, opts)
	}
	return e.finish(ctx, run)
}

func (e *Engine) finish(ctx context.Context, run *SortRun) *SortRun {
	run.Finished = e.cfg.Now()
	if ctx.Err() != nil {
		run.Cancelled = true
		e.emitf(status.KindCancelled, "", "Sort cancelled")
	}
	c := run.Counts
	e.emitf(status.KindSummary, "", "Done: %d scanned, %d sorted, %d unmatched, %d skipped, %d errors",
		c.Scanned, c.Sorted, c.Unmatched, c.Skipped, c.Errored)
	log.Info().Str("run", run.ID).Int("scanned", c.Scanned).Int("sorted", c.Sorted).
		Int("unmatched", c.Unmatched).Int("skipped", c.Skipped).Int("errored", c.Errored).
		Int("audited", c.Audited).Int("relocated", c.Relocated).Bool("cancelled", run.Cancelled).
		Dur("took", run.Finished.Sub(run.Started)).Msg("sort finished")

	metrics.RunFinished(run.Finished)
	if err := metrics.WriteTextfile(e.cfg.MetricsTextfile); err != nil {
		log.Warn().Err(err).Str("path", e.cfg.MetricsTextfile).Msg("metrics textfile write failed")
	}
	return run
}

func (e *Engine) emitf(kind status.Kind, file, format string, args ...any) {
	status.Emitf(e.deps.Sink, kind, file, format, args...)
}

// ErrNoTemplateDir is returned when neither the options nor the mapping say
// where the template tree lives.
var ErrNoTemplateDir = errors.New("no template directory: mapping has no path and none was given")

func templateDirOf(m *mapping.Mapping, opts Options) (string, error) {
	if opts.TemplateDir != "" {
		return opts.TemplateDir, nil
	}
	if m.Path == "" {
		return "", ErrNoTemplateDir
	}
	return mapping.TemplateDirFor(m.Path), nil
}

// listPDFs returns the PDFs directly inside folder in name order, skipping
// subdirectories and hidden entries.
func listPDFs(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		name := ent.Name()
		if ent.IsDir() || !isPDFName(name) {
			continue
		}
		out = append(out, filepath.Join(folder, name))
	}
	sort.Strings(out)
	return out, nil
}

func isPDFName(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), ".pdf")
}

func newRun(now time.Time) *SortRun {
	return &SortRun{ID: uuid.NewString(), Started: now}
}
