package router

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsorter/internal/mapping"
)

var (
	ErrOutsideTemplate = errors.New("destination escapes the template directory")
	ErrTargetExists    = errors.New("target already exists")
)

// DestinationDir returns the folder a rule routes into, creating it if absent.
func DestinationDir(rule mapping.Rule, templateDir string) (string, error) {
	dir, err := ResolveDir(rule, templateDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &FileSystemError{Op: "mkdir", Path: dir, Err: err}
	}
	return dir, nil
}

// ResolveDir resolves a rule's destination folder without touching the disk.
func ResolveDir(rule mapping.Rule, templateDir string) (string, error) {
	dest := strings.TrimSpace(rule.Destination)
	if dest == "" || dest == mapping.RootDestination {
		return filepath.Clean(templateDir), nil
	}
	if !mapping.IsLocalDestination(dest) {
		return "", &FileSystemError{Op: "resolve", Path: dest, Err: ErrOutsideTemplate}
	}
	return filepath.Join(templateDir, filepath.FromSlash(dest)), nil
}

// ResolveCollision returns a path in destDir for filename that does not exist
// yet, appending " (n)" before the extension with n counting up from 1.
func ResolveCollision(destDir, filename string) string {
	target := filepath.Join(destDir, filename)
	if !exists(target) {
		return target
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for n := 1; ; n++ {
		target = filepath.Join(destDir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if !exists(target) {
			return target
		}
	}
}

// Route computes the final path for src under rule and moves it there.
func Route(rule mapping.Rule, src, templateDir, scheme string, now time.Time) (string, error) {
	dir, err := DestinationDir(rule, templateDir)
	if err != nil {
		return "", err
	}
	name := GenerateFilename(rule, src, scheme, now)
	target := ResolveCollision(dir, name)
	if err := Move(src, target); err != nil {
		return "", err
	}
	log.Debug().Str("file", src).Str("rule", rule.Name).Str("dest", target).Msg("routed")
	return target, nil
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
