package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/pdfsorter/internal/config"
	"github.com/local/pdfsorter/internal/extract"
	"github.com/local/pdfsorter/internal/filetype"
	logpkg "github.com/local/pdfsorter/internal/logger"
	"github.com/local/pdfsorter/internal/metrics"
	"github.com/local/pdfsorter/internal/mupdf"
	"github.com/local/pdfsorter/internal/ocr"
	"github.com/local/pdfsorter/internal/sorter"
	"github.com/local/pdfsorter/internal/status"
)

// app is shared by all subcommands.
type app struct {
	cfg      cfgpkg.Config
	mapping  string
	logLevel string
	noOCR    bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "pdfsorter",
		Short:         "Sort PDFs into a folder tree by the phrases they contain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logpkg.Close()
		},
	}
	root.PersistentFlags().StringVarP(&a.mapping, "mapping", "m", "", "mapping file, or a name under MAPPINGS_DIR")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override LOG_LEVEL")
	root.PersistentFlags().BoolVar(&a.noOCR, "no-ocr", false, "disable the OCR fallback")

	root.AddCommand(
		newSortCmd(a),
		newAuditCmd(a),
		newInspectCmd(a),
		newDoctorCmd(a),
		newRulesCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := cfgpkg.Load()
	if err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.noOCR {
		cfg.OCR.Enabled = false
	}
	a.cfg = cfg

	if err := logpkg.Init(logpkg.Options{
		Level:      cfg.Logging.Level,
		Pretty:     cfg.Logging.Pretty,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return err
	}
	metrics.Init()
	return nil
}

// mappingPath resolves --mapping: a bare name is looked up in MAPPINGS_DIR.
func (a *app) mappingPath() (string, error) {
	m := strings.TrimSpace(a.mapping)
	if m == "" {
		return "", errors.New("no mapping given (use --mapping)")
	}
	if strings.ContainsRune(m, filepath.Separator) || strings.ContainsRune(m, '/') || strings.EqualFold(filepath.Ext(m), ".json") {
		return m, nil
	}
	return filepath.Join(a.cfg.Sort.MappingsDir, m+".json"), nil
}

func (a *app) ocrEngine() ocr.Engine {
	if !a.cfg.OCR.Enabled {
		return nil
	}
	eng, err := ocr.New(ocr.Options{
		Languages:      ocr.ParseLanguages(a.cfg.OCR.Languages),
		TessdataPrefix: a.cfg.OCR.TessdataPrefix,
		DPI:            a.cfg.OCR.DPI,
	})
	switch {
	case err == nil:
		return eng
	case ocr.IsEngineMissing(err):
		log.Warn().Err(err).Msg("OCR engine missing")
		return ocr.Unusable("tesseract", err)
	default:
		log.Info().Err(err).Msg("OCR disabled")
		return nil
	}
}

// newEngine wires a sort engine whose status events are printed to out.
// The returned func flushes pending events and must be called when done.
func (a *app) newEngine(out io.Writer) (*sorter.Engine, func()) {
	printer := status.NewChanSink(a.cfg.StatusBuffer)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range printer.Events() {
			fmt.Fprintln(out, ev.String())
		}
	}()
	sink := status.Multi{printer, status.LogSink{Logger: log.Logger}}

	opener := mupdf.NewFitzOpener()
	ex := extract.New(opener, a.ocrEngine(), extract.Options{DPI: a.cfg.OCR.DPI, Sink: sink})
	eng := sorter.New(
		sorter.Config{MetricsTextfile: a.cfg.MetricsTextfile},
		sorter.Dependencies{Extractor: ex, Sniffer: filetype.New(), Opener: opener, Sink: sink},
	)
	done := func() {
		printer.Close()
		wg.Wait()
		if n := printer.Dropped(); n > 0 {
			log.Warn().Int64("dropped", n).Msg("status events dropped")
		}
	}
	return eng, done
}
