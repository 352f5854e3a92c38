package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/local/pdfsorter/internal/mapping"
	"github.com/local/pdfsorter/internal/report"
	"github.com/local/pdfsorter/internal/sorter"
)

type runFlags struct {
	firstPageOnly bool
	allPages      bool
	deepAudit     bool
	save          bool
}

func (f runFlags) options(a *app) sorter.Options {
	opts := sorter.Options{FirstPageOnly: a.cfg.Sort.FirstPageOnly, DeepAudit: f.deepAudit}
	if f.firstPageOnly {
		opts.FirstPageOnly = true
	}
	if f.allPages {
		opts.FirstPageOnly = false
	}
	return opts
}

func newSortCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "sort [flags] folder...",
		Short: "Sort the PDFs in each folder into the mapping's template tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.mappingPath()
			if err != nil {
				return err
			}
			eng, done := a.newEngine(cmd.OutOrStdout())
			run := eng.SortWithMappingPath(cmd.Context(), args, path, f.options(a))
			done()
			return a.finishRun(cmd.OutOrStdout(), run, f.save)
		},
	}
	addRunFlags(cmd, &f)
	cmd.Flags().BoolVar(&f.deepAudit, "deep-audit", false, "re-check the whole template tree after sorting")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Move misplaced PDFs inside the template tree to where the mapping routes them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := a.mappingPath()
			if err != nil {
				return err
			}
			m, err := mapping.Load(path)
			if err != nil {
				return err
			}
			eng, done := a.newEngine(cmd.OutOrStdout())
			run := eng.Audit(cmd.Context(), mapping.TemplateDirFor(path), m, f.options(a))
			done()
			return a.finishRun(cmd.OutOrStdout(), run, f.save)
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().BoolVar(&f.firstPageOnly, "first-page-only", false, "read only the first page of each PDF")
	cmd.Flags().BoolVar(&f.allPages, "all-pages", false, "read every page of each PDF")
	cmd.Flags().BoolVar(&f.save, "report", false, "save the run as JSON under RESULT_DIR")
	cmd.MarkFlagsMutuallyExclusive("first-page-only", "all-pages")
}

func (a *app) finishRun(out io.Writer, run *sorter.SortRun, save bool) error {
	c := run.Counts
	fmt.Fprintf(out, "scanned=%d sorted=%d unmatched=%d skipped=%d errored=%d",
		c.Scanned, c.Sorted, c.Unmatched, c.Skipped, c.Errored)
	if c.Audited > 0 {
		fmt.Fprintf(out, " audited=%d relocated=%d", c.Audited, c.Relocated)
	}
	fmt.Fprintln(out)
	if save {
		p, err := report.SaveRun(a.cfg.Sort.ResultDir, run)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		log.Info().Str("path", p).Msg("report saved")
		fmt.Fprintln(out, "report:", p)
	}
	if run.Cancelled {
		return fmt.Errorf("cancelled")
	}
	return nil
}
