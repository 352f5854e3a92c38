// Package pdftest probes whether a PDF carries a usable text layer without
// reading every page.
package pdftest

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/local/pdfsorter/internal/mupdf"
)

// MinChars is the number of non-space characters a sample needs before the
// document counts as having a text layer.
const MinChars = 16

// PageProbe is the result for one sampled page.
type PageProbe struct {
	Page      int    `json:"page"`
	CharCount int    `json:"char_count"`
	Err       string `json:"err,omitempty"`
}

// Report describes a text-layer probe.
type Report struct {
	FilePath     string      `json:"file_path"`
	TotalPages   int         `json:"total_pages"`
	SampledPages []int       `json:"sampled_pages"`
	Chars        int         `json:"chars"`
	Probes       []PageProbe `json:"probes"`
	HasTextLayer bool        `json:"has_text_layer"`
	DurationMs   int64       `json:"duration_ms"`
}

// TextLayer samples pages of pdfPath and reports whether native text is
// present. minChars <= 0 selects MinChars.
func TextLayer(opener mupdf.Opener, pdfPath string, minChars int) (*Report, error) {
	if minChars <= 0 {
		minChars = MinChars
	}
	if opener == nil {
		opener = mupdf.NewFitzOpener()
	}

	start := time.Now()
	doc, err := opener.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	rep := &Report{FilePath: pdfPath, TotalPages: doc.NumPage()}
	rep.SampledPages = samplePages(rep.TotalPages)

	for _, idx := range rep.SampledPages {
		probe := PageProbe{Page: idx + 1}
		text, err := doc.Text(idx)
		if err != nil {
			probe.Err = err.Error()
		} else {
			probe.CharCount = countVisible(text)
			rep.Chars += probe.CharCount
		}
		rep.Probes = append(rep.Probes, probe)
		if rep.Chars >= minChars {
			break
		}
	}
	rep.HasTextLayer = rep.Chars >= minChars
	rep.DurationMs = time.Since(start).Milliseconds()
	return rep, nil
}

func countVisible(s string) int {
	return len([]rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)))
}

// samplePages picks every page of short documents; for six or more pages it
// takes the first, middle and last page plus two random others.
func samplePages(total int) []int {
	if total <= 0 {
		return nil
	}
	if total <= 5 {
		return mupdf.SelectPages(total, false)
	}
	picked := map[int]struct{}{0: {}, total / 2: {}, total - 1: {}}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	for len(picked) < 5 {
		picked[rnd.Intn(total)] = struct{}{}
	}
	out := make([]int, 0, len(picked))
	for i := range picked {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
