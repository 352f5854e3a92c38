// Package report writes run results to a local results directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/local/pdfsorter/internal/sorter"
)

// DefaultDir is used when no results directory is configured.
const DefaultDir = "results"

// SaveRun stores run as indented JSON in dir and returns the file path.
func SaveRun(dir string, run *sorter.SortRun) (string, error) {
	if run == nil {
		return "", fmt.Errorf("nil run")
	}
	return save(dir, fmt.Sprintf("%s_sort.json", run.ID), run)
}

// SaveInspections stores an inspect result in dir and returns the file path.
func SaveInspections(dir string, in []sorter.Inspection, now time.Time) (string, error) {
	return save(dir, fmt.Sprintf("inspect_%s.json", now.Format("20060102-150405")), in)
}

func save(dir, name string, v any) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return p, nil
}
