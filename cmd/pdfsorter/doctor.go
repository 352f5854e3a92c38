package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/local/pdfsorter/internal/ocr"
	"github.com/local/pdfsorter/internal/statuscheck"
)

func newDoctorCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check OCR, MuPDF and the selected mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ""
			if a.mapping != "" {
				p, err := a.mappingPath()
				if err != nil {
					return err
				}
				path = p
			}
			sum := statuscheck.New(statuscheck.Options{
				OCREnabled: a.cfg.OCR.Enabled,
				OCR: ocr.Options{
					Languages:      ocr.ParseLanguages(a.cfg.OCR.Languages),
					TessdataPrefix: a.cfg.OCR.TessdataPrefix,
					DPI:            a.cfg.OCR.DPI,
				},
				MappingPath: path,
			}).Summary()

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, row := range []struct {
				name string
				st   statuscheck.Status
			}{
				{"mupdf", sum.MuPDF},
				{"ocr", sum.OCR},
				{"tesseract", sum.Tesseract},
				{"mapping", sum.Mapping},
				{"template", sum.Template},
			} {
				mark := "ok"
				if !row.st.OK {
					mark = "--"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row.name, mark, row.st.Message)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
