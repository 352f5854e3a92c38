package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	filesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsorter",
			Name:      "files_processed_total",
			Help:      "Files processed by outcome (sorted, unmatched, skipped, error)",
		},
		[]string{"outcome"},
	)

	extractionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfsorter",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of text extraction by method",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ocrPages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfsorter",
			Name:      "ocr_pages_total",
			Help:      "Pages sent through OCR by result",
		},
		[]string{"result"},
	)

	filesRelocated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfsorter",
			Name:      "audit_relocated_total",
			Help:      "Files moved by deep audit",
		},
	)

	lastRun = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfsorter",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last sort run finished",
		},
	)

	registry = prometheus.NewRegistry()
	once     sync.Once
)

// Init registers collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		registry.MustRegister(filesProcessed, extractionLatency, ocrPages, filesRelocated, lastRun)
	})
}

// Registry returns the registry the collectors live in.
func Registry() *prometheus.Registry { return registry }

// WriteTextfile writes the current metrics in the node-exporter textfile
// format. An empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	Init()
	return prometheus.WriteToTextfile(path, registry)
}

func IncFile(outcome string) { filesProcessed.WithLabelValues(outcome).Inc() }

func ObserveExtraction(method string, dur time.Duration) {
	extractionLatency.WithLabelValues(method).Observe(dur.Seconds())
}

func IncOCRPage(result string) { ocrPages.WithLabelValues(result).Inc() }
func IncRelocated()            { filesRelocated.Inc() }
func RunFinished(t time.Time)  { lastRun.Set(float64(t.Unix())) }
