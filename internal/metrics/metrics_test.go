package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	Init()
	Init()

	before := testutil.ToFloat64(filesProcessed.WithLabelValues("sorted"))
	IncFile("sorted")
	IncFile("sorted")
	assert.Equal(t, before+2, testutil.ToFloat64(filesProcessed.WithLabelValues("sorted")))

	rel := testutil.ToFloat64(filesRelocated)
	IncRelocated()
	assert.Equal(t, rel+1, testutil.ToFloat64(filesRelocated))

	IncOCRPage("ok")
	assert.GreaterOrEqual(t, testutil.ToFloat64(ocrPages.WithLabelValues("ok")), 1.0)

	RunFinished(time.Unix(1700000000, 0))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(lastRun))
}

func TestWriteTextfile(t *testing.T) {
	require.NoError(t, WriteTextfile(""))

	IncFile("unmatched")
	ObserveExtraction("native", 20*time.Millisecond)
	path := filepath.Join(t.TempDir(), "pdfsorter.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `pdfsorter_files_processed_total{outcome="unmatched"}`)
	assert.Contains(t, string(data), "pdfsorter_extraction_duration_seconds_bucket")
}
