package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/local/pdfsorter/internal/mapping"
	"github.com/local/pdfsorter/internal/report"
)

func newInspectCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "inspect [flags] file.pdf...",
		Short: "Show what sort would do with each file without moving anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := &mapping.Mapping{}
			if a.mapping != "" {
				path, err := a.mappingPath()
				if err != nil {
					return err
				}
				if m, err = mapping.Load(path); err != nil {
					return err
				}
			}
			eng, done := a.newEngine(cmd.ErrOrStderr())
			res := eng.Inspect(cmd.Context(), args, m, f.options(a))
			done()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tPAGES\tTEXT LAYER\tMETHOD\tRULE\tDESTINATION")
			for _, in := range res {
				rule, dest := "-", "-"
				if in.Rule != nil {
					rule, dest = in.Rule.Name, in.Destination
				}
				if in.Err != "" {
					dest = "error: " + in.Err
				}
				fmt.Fprintf(tw, "%s\t%d\t%t\t%s\t%s\t%s\n",
					filepath.Base(in.Path), in.Pages, in.HasTextLayer, in.Method, rule, dest)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if f.save {
				p, err := report.SaveInspections(a.cfg.Sort.ResultDir, res, time.Now())
				if err != nil {
					return fmt.Errorf("save report: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "report:", p)
			}
			return nil
		},
	}
	addRunFlags(cmd, &f)
	return cmd
}
