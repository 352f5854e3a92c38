package router

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/local/pdfsorter/internal/mapping"
)

// Placeholders understood by GenerateFilename.
const (
	PlaceholderRuleName     = "{rule_name}"
	PlaceholderPhrase       = "{phrase}"
	PlaceholderOriginalName = "{original_filename}"
	PlaceholderDate         = "{date}"
	PlaceholderTime         = "{time}"
	PlaceholderExt          = "{ext}"
)

const illegalChars = `<>:"/\|?*`

// GenerateFilename renders scheme for a file routed by rule. An empty scheme
// keeps the original file name. {original_filename} is the name without its
// extension and {ext} the extension without the dot; when the scheme has no
// {ext} the original extension is appended.
func GenerateFilename(rule mapping.Rule, originalPath, scheme string, now time.Time) string {
	base := filepath.Base(originalPath)
	if strings.TrimSpace(scheme) == "" {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	name := strings.NewReplacer(
		PlaceholderRuleName, rule.Name,
		PlaceholderPhrase, rule.Phrase,
		PlaceholderOriginalName, stem,
		PlaceholderDate, now.Format("20060102"),
		PlaceholderTime, now.Format("15-04-05"),
		PlaceholderExt, strings.TrimPrefix(ext, "."),
	).Replace(scheme)

	name = sanitize(name)
	if name == "" {
		return base
	}
	if !strings.Contains(scheme, PlaceholderExt) && ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}

// sanitize strips characters that are illegal in file names on common
// filesystems and trims leading and trailing spaces and dots.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalChars, r) || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.Trim(name, " .")
}
