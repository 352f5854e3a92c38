package router

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// removeFile is replaceable in tests.
var removeFile = os.Remove

// Move relocates src to dest. It never overwrites an existing dest. The
// destination is complete before the source is removed; on failure the
// source is left untouched and no partial destination remains.
func Move(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &FileSystemError{Op: "stat", Path: src, Err: err}
	}
	if info.IsDir() {
		return &FileSystemError{Op: "move", Path: src, Err: fmt.Errorf("source is a directory")}
	}
	if exists(dest) {
		return &FileSystemError{Op: "move", Path: dest, Err: ErrTargetExists}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return &FileSystemError{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
	}

	err = os.Rename(src, dest)
	if err == nil {
		return nil
	}
	// Rename fails across devices; fall back to copy and remove.
	log.Debug().Err(err).Str("src", src).Str("dest", dest).Msg("rename failed; copying")
	return copyThenRemove(src, dest, info.Mode().Perm())
}

func copyThenRemove(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return &FileSystemError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".pdfsorter-*.tmp")
	if err != nil {
		return &FileSystemError{Op: "create", Path: dest, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		cleanup()
		return &FileSystemError{Op: "copy", Path: dest, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return &FileSystemError{Op: "sync", Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &FileSystemError{Op: "close", Path: dest, Err: err}
	}
	_ = os.Chmod(tmpName, perm)

	if exists(dest) {
		cleanup()
		return &FileSystemError{Op: "move", Path: dest, Err: ErrTargetExists}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		cleanup()
		return &FileSystemError{Op: "rename", Path: dest, Err: err}
	}

	in.Close()
	if err := removeFile(src); err != nil {
		// Roll back so the file exists in exactly one place.
		if rbErr := removeFile(dest); rbErr != nil {
			log.Error().Err(rbErr).Str("dest", dest).Msg("rollback of copied file failed")
		}
		return &FileSystemError{Op: "remove", Path: src, Err: err}
	}
	return nil
}
