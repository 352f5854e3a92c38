package mapping

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicatePhrase = errors.New("this phrase or keyword already exists")
	ErrRuleNotFound    = errors.New("rule not found")
	ErrCannotMove      = errors.New("rule cannot move further")
	ErrFolderExists    = errors.New("a folder with that name already exists")
)

// ConfigError reports a mapping file that could not be loaded. Load recovers
// from it by returning an empty mapping.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mapping %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError rejects a mapping before anything is written to disk.
type ValidationError struct {
	Phrase  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Phrase == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: rule %q: %s", e.Phrase, e.Message)
}
