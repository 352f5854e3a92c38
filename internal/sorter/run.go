package sorter

import (
	"time"

	"github.com/local/pdfsorter/internal/mapping"
)

// Outcome classifies one processed file.
type Outcome string

const (
	OutcomeSorted    Outcome = "sorted"
	OutcomeUnmatched Outcome = "unmatched"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
	// OutcomeInPlace is used by deep audit for files already where they belong.
	OutcomeInPlace Outcome = "in_place"
)

// FileResult is the outcome for one file.
type FileResult struct {
	Path    string        `json:"path"`
	Outcome Outcome       `json:"outcome"`
	Rule    *mapping.Rule `json:"rule,omitempty"`
	Dest    string        `json:"dest,omitempty"`
	Method  string        `json:"method,omitempty"`
	Err     string        `json:"error,omitempty"`
	Audit   bool          `json:"audit,omitempty"`
}

// Counts aggregates a run.
type Counts struct {
	Scanned   int `json:"scanned"`
	Sorted    int `json:"sorted"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
	Errored   int `json:"errored"`
	Audited   int `json:"audited,omitempty"`
	Relocated int `json:"relocated,omitempty"`
}

// SortRun is the in-memory record of one batch. It is never persisted by the
// engine itself.
type SortRun struct {
	ID           string       `json:"id"`
	Started      time.Time    `json:"started"`
	Finished     time.Time    `json:"finished"`
	Cancelled    bool         `json:"cancelled,omitempty"`
	FolderErrors []string     `json:"folder_errors,omitempty"`
	Results      []FileResult `json:"results"`
	Counts       Counts       `json:"counts"`
}

func (r *SortRun) record(res FileResult) {
	r.Results = append(r.Results, res)
	if res.Audit {
		r.Counts.Audited++
		switch res.Outcome {
		case OutcomeSorted:
			r.Counts.Relocated++
		case OutcomeError:
			r.Counts.Errored++
		}
		return
	}
	r.Counts.Scanned++
	switch res.Outcome {
	case OutcomeSorted:
		r.Counts.Sorted++
	case OutcomeUnmatched:
		r.Counts.Unmatched++
	case OutcomeSkipped:
		r.Counts.Skipped++
	case OutcomeError:
		r.Counts.Errored++
	}
}

// ResultsWith returns the results with the given outcome.
func (r *SortRun) ResultsWith(o Outcome) []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Outcome == o {
			out = append(out, res)
		}
	}
	return out
}
