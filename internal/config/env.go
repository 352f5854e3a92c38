package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// OCRConfig controls the OCR fallback for PDFs without a text layer.
type OCRConfig struct {
	Enabled        bool
	Languages      string // "eng+deu" or "eng,deu"
	DPI            int
	TessdataPrefix string
}

// SortConfig holds sorting defaults that CLI flags may override.
type SortConfig struct {
	FirstPageOnly bool
	MappingsDir   string
	ResultDir     string
}

// Config is the top-level configuration.
type Config struct {
	Logging         LoggingConfig
	OCR             OCRConfig
	Sort            SortConfig
	MetricsTextfile string
	StatusBuffer    int
}

// Load reads an optional .env file from the working directory and then the
// environment. A missing .env is not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return FromEnv(), err
	}
	return FromEnv(), nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "20"), 20),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "5"), 5),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	cfg.OCR = OCRConfig{
		Enabled:        parseBool(getEnv("OCR_ENABLED", "true")),
		Languages:      getEnv("OCR_LANGUAGES", "eng"),
		DPI:            parseInt(getEnv("OCR_DPI", "300"), 300),
		TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
	}
	if cfg.OCR.DPI <= 0 {
		cfg.OCR.DPI = 300
	}

	cfg.Sort = SortConfig{
		FirstPageOnly: parseBool(getEnv("SORT_FIRST_PAGE_ONLY", "true")),
		MappingsDir:   getEnv("MAPPINGS_DIR", "mappings"),
		ResultDir:     getEnv("RESULT_DIR", ""),
	}

	cfg.MetricsTextfile = getEnv("METRICS_TEXTFILE", "")
	cfg.StatusBuffer = parseInt(getEnv("STATUS_BUFFER", "256"), 256)
	if cfg.StatusBuffer < 1 {
		cfg.StatusBuffer = 1
	}
	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
