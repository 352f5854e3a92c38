package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	templateSuffix = "_template"
	settingsSuffix = "_settings.yaml"
)

// Settings holds per-mapping options stored next to the mapping file.
type Settings struct {
	NamingScheme string `yaml:"naming_scheme,omitempty"`
}

// Load reads the mapping at path. On a missing file or any parse error it
// returns an empty mapping together with a *ConfigError; the mapping is never
// nil, so callers that only want fail-soft behaviour may ignore the error.
func Load(path string) (*Mapping, error) {
	m := &Mapping{Path: path, Rules: []Rule{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return m, &ConfigError{Path: path, Err: err}
	}
	var parsed Mapping
	if err := json.Unmarshal(data, &parsed); err != nil {
		log.Warn().Err(err).Str("mapping", path).Msg("mapping unreadable; using empty mapping")
		return m, &ConfigError{Path: path, Err: err}
	}
	m.Rules = parsed.Rules

	s, err := LoadSettings(path)
	if err != nil {
		log.Warn().Err(err).Str("mapping", path).Msg("settings unreadable; ignoring")
	} else {
		m.NamingScheme = s.NamingScheme
	}

	log.Debug().Str("mapping", path).Int("rules", len(m.Rules)).Msg("mapping loaded")
	return m, nil
}

// LoadOrEmpty is Load without the diagnostic error.
func LoadOrEmpty(path string) *Mapping {
	m, _ := Load(path)
	return m
}

// Save validates m and writes it to path as 4-space indented JSON in rule
// order. An invalid mapping is rejected before any write.
func Save(path string, m *Mapping) error {
	if err := Validate(m); err != nil {
		return err
	}
	raw, err := m.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return fmt.Errorf("indent mapping: %w", err)
	}
	out.WriteByte('\n')
	if err := writeFileAtomic(path, out.Bytes()); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}

	if m.NamingScheme != "" || fileExists(SettingsPathFor(path)) {
		if err := SaveSettings(path, Settings{NamingScheme: m.NamingScheme}); err != nil {
			return err
		}
	}
	log.Debug().Str("mapping", path).Int("rules", len(m.Rules)).Msg("mapping saved")
	return nil
}

// Validate checks that every rule has a phrase and a destination, that
// phrases are unique and that destinations stay inside the template root.
func Validate(m *Mapping) error {
	if m == nil {
		return &ValidationError{Message: "mapping is nil"}
	}
	seen := make(map[string]struct{}, len(m.Rules))
	for _, r := range m.Rules {
		if strings.TrimSpace(r.Phrase) == "" {
			return &ValidationError{Message: "phrase must not be empty"}
		}
		if strings.TrimSpace(r.Destination) == "" {
			return &ValidationError{Phrase: r.Phrase, Message: "destination must not be empty"}
		}
		if !IsLocalDestination(r.Destination) {
			return &ValidationError{Phrase: r.Phrase, Message: fmt.Sprintf("destination %q escapes the template directory", r.Destination)}
		}
		key := phraseKey(r.Phrase)
		if _, dup := seen[key]; dup {
			return &ValidationError{Phrase: r.Phrase, Message: ErrDuplicatePhrase.Error()}
		}
		seen[key] = struct{}{}
	}
	return nil
}

// IsLocalDestination reports whether dest resolves inside the template root.
func IsLocalDestination(dest string) bool {
	if dest == RootDestination {
		return true
	}
	return filepath.IsLocal(filepath.FromSlash(dest))
}

// TemplateDirFor derives the template directory of a mapping file.
func TemplateDirFor(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + templateSuffix
}

// EnsureTemplateDir creates the template directory if it is missing.
func EnsureTemplateDir(path string) (string, error) {
	dir := TemplateDirFor(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create template dir: %w", err)
	}
	return dir, nil
}

// SettingsPathFor derives the settings sidecar of a mapping file.
func SettingsPathFor(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + settingsSuffix
}

// LoadSettings reads the settings sidecar. A missing sidecar yields zero
// settings and no error.
func LoadSettings(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(SettingsPathFor(path))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// SaveSettings writes the settings sidecar of the mapping at path.
func SaveSettings(path string, s Settings) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := writeFileAtomic(SettingsPathFor(path), data); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func phraseKey(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}
