package mapping

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AutobuildTemplateTree creates a folder under templateDir for every distinct
// destination of m and returns how many were created.
func AutobuildTemplateTree(templateDir string, m *Mapping) (int, error) {
	if templateDir == "" {
		return 0, nil
	}
	created := 0
	for _, dest := range m.Destinations() {
		if dest == "" || dest == RootDestination {
			continue
		}
		if !IsLocalDestination(dest) {
			return created, &ValidationError{Message: fmt.Sprintf("destination %q escapes the template directory", dest)}
		}
		dir := filepath.Join(templateDir, filepath.FromSlash(dest))
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", dir, err)
		}
		created++
	}
	return created, nil
}

// RenameTemplateFolder renames oldRel (relative to templateDir) to newName in
// the same parent folder and rewrites every destination equal to or nested
// under it. The rewritten mapping is validated before anything on disk moves.
func RenameTemplateFolder(templateDir string, m *Mapping, oldRel, newName string) error {
	_, err := renameTemplateFolder(templateDir, m, oldRel, newName)
	return err
}

// RenameFolder renames a folder of the template tree that belongs to the
// mapping at path and saves the rewritten mapping. When the save fails the
// folder is renamed back and m keeps its old destinations.
func RenameFolder(path string, m *Mapping, oldRel, newName string) error {
	before := append([]Rule(nil), m.Rules...)
	undo, err := renameTemplateFolder(TemplateDirFor(path), m, oldRel, newName)
	if err != nil {
		return err
	}
	if err := Save(path, m); err != nil {
		m.Rules = before
		if uerr := undo(); uerr != nil {
			return fmt.Errorf("%w (restoring folder also failed: %v)", err, uerr)
		}
		return err
	}
	return nil
}

func renameTemplateFolder(templateDir string, m *Mapping, oldRel, newName string) (undo func() error, err error) {
	if strings.ContainsAny(newName, `/\`) || newName == "" || newName == "." || newName == ".." {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid folder name %q", newName)}
	}
	if !IsLocalDestination(oldRel) || oldRel == RootDestination {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid folder %q", oldRel)}
	}
	oldNorm := filepath.Clean(filepath.FromSlash(oldRel))
	newRel := filepath.Join(filepath.Dir(oldNorm), newName)

	rules := append([]Rule(nil), m.Rules...)
	for i, r := range rules {
		if r.Destination == "" || r.Destination == RootDestination {
			continue
		}
		dest := filepath.Clean(filepath.FromSlash(r.Destination))
		switch {
		case dest == oldNorm:
			rules[i].Destination = filepath.ToSlash(newRel)
		case strings.HasPrefix(dest, oldNorm+string(filepath.Separator)):
			rules[i].Destination = filepath.ToSlash(newRel + dest[len(oldNorm):])
		}
	}
	if err := Validate(&Mapping{Rules: rules}); err != nil {
		return nil, err
	}

	oldAbs := filepath.Join(templateDir, oldNorm)
	newAbs := filepath.Join(templateDir, newRel)
	if _, err := os.Stat(newAbs); err == nil {
		return nil, ErrFolderExists
	}
	if err := os.Rename(oldAbs, newAbs); err != nil {
		return nil, fmt.Errorf("could not rename folder: %w", err)
	}
	m.Rules = rules
	return func() error { return os.Rename(newAbs, oldAbs) }, nil
}
