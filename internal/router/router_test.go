package router

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfsorter/internal/mapping"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func touch(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveDir(t *testing.T) {
	tpl := filepath.Join("base", "tpl")
	tests := []struct {
		dest    string
		want    string
		wantErr bool
	}{
		{".", tpl, false},
		{"", tpl, false},
		{"Finance/Tax", filepath.Join(tpl, "Finance", "Tax"), false},
		{"../escape", "", true},
		{"/abs", "", true},
	}
	for _, tt := range tests {
		got, err := ResolveDir(mapping.Rule{Destination: tt.dest}, tpl)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrOutsideTemplate, tt.dest)
			var fsErr *FileSystemError
			assert.True(t, errors.As(err, &fsErr))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestDestinationDirCreates(t *testing.T) {
	tpl := t.TempDir()
	dir, err := DestinationDir(mapping.Rule{Destination: "A/B"}, tpl)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestResolveCollision(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "doc.pdf"), ResolveCollision(dir, "doc.pdf"))

	touch(t, filepath.Join(dir, "doc.pdf"), "x")
	assert.Equal(t, filepath.Join(dir, "doc (1).pdf"), ResolveCollision(dir, "doc.pdf"))

	touch(t, filepath.Join(dir, "doc (1).pdf"), "x")
	assert.Equal(t, filepath.Join(dir, "doc (2).pdf"), ResolveCollision(dir, "doc.pdf"))
}

func TestGenerateFilename(t *testing.T) {
	rule := mapping.Rule{Phrase: "tax invoice", Name: "Tax/Invoice", Destination: "Tax"}
	tests := []struct {
		name   string
		scheme string
		want   string
	}{
		{"no scheme", "", "scan 01.pdf"},
		{"blank scheme", "   ", "scan 01.pdf"},
		{"date and rule", "{date}_{rule_name}", "20240309_TaxInvoice.pdf"},
		{"time", "{time} {original_filename}", "14-05-07 scan 01.pdf"},
		{"explicit ext", "{phrase}.{ext}", "tax invoice.pdf"},
		{"illegal chars", `a<b>:"c|?*`, "abc.pdf"},
		{"only illegal", `<>?`, "scan 01.pdf"},
		{"trailing dots", " {phrase}.. ", "tax invoice.pdf"},
		{"unknown placeholder kept", "{foo}", "{foo}.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateFilename(rule, filepath.Join("in", "scan 01.pdf"), tt.scheme, fixedNow))
		})
	}
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "a.pdf")
	touch(t, src, "content")
	dest := filepath.Join(dir, "out", "sub", "a.pdf")

	require.NoError(t, Move(src, dest))
	assert.NoFileExists(t, src)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestMoveRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.pdf")
	dest := filepath.Join(dir, "b.pdf")
	touch(t, src, "new")
	touch(t, dest, "old")

	err := Move(src, dest)
	assert.ErrorIs(t, err, ErrTargetExists)
	assert.FileExists(t, src)
	data, _ := os.ReadFile(dest)
	assert.Equal(t, "old", string(data))
}

func TestMoveMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Move(filepath.Join(dir, "nope.pdf"), filepath.Join(dir, "x.pdf"))
	var fsErr *FileSystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, "stat", fsErr.Op)
}

func TestCopyThenRemove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.pdf")
	touch(t, src, "payload")
	dest := filepath.Join(dir, "b.pdf")

	require.NoError(t, copyThenRemove(src, dest, 0o600))
	assert.NoFileExists(t, src)
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestCopyThenRemoveFailures(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, dir string) (src string)
		op     string
		srcDir bool
	}{
		{
			name: "copy fails",
			setup: func(t *testing.T, dir string) string {
				src := filepath.Join(dir, "folder.pdf")
				require.NoError(t, os.Mkdir(src, 0o755))
				return src
			},
			op:     "copy",
			srcDir: true,
		},
		{
			name: "source removal fails",
			setup: func(t *testing.T, dir string) string {
				src := filepath.Join(dir, "a.pdf")
				touch(t, src, "payload")
				orig := removeFile
				t.Cleanup(func() { removeFile = orig })
				removeFile = func(p string) error {
					if p == src {
						return os.ErrPermission
					}
					return orig(p)
				}
				return src
			},
			op: "remove",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := tt.setup(t, dir)
			out := filepath.Join(dir, "out")
			require.NoError(t, os.Mkdir(out, 0o755))
			dest := filepath.Join(out, "b.pdf")

			err := copyThenRemove(src, dest, 0o644)
			var fsErr *FileSystemError
			require.ErrorAs(t, err, &fsErr)
			assert.Equal(t, tt.op, fsErr.Op)

			if tt.srcDir {
				assert.DirExists(t, src)
			} else {
				assert.FileExists(t, src)
			}
			assert.NoFileExists(t, dest)
			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			assert.Empty(t, entries, "partial destination left behind")
		})
	}
}

func TestCopyThenRemoveReadOnlySource(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	src := filepath.Join(in, "a.pdf")
	touch(t, src, "payload")
	require.NoError(t, os.Chmod(in, 0o555))
	t.Cleanup(func() { _ = os.Chmod(in, 0o755) })
	dest := filepath.Join(dir, "b.pdf")

	err := copyThenRemove(src, dest, 0o644)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.FileExists(t, src)
	assert.NoFileExists(t, dest)
}

func TestRouteCollisionFree(t *testing.T) {
	root := t.TempDir()
	tpl := filepath.Join(root, "tpl")
	rule := mapping.Rule{Phrase: "invoice", Name: "Invoice", Destination: "Finance"}

	var dests []string
	for i := 0; i < 3; i++ {
		src := filepath.Join(root, "in", "doc.pdf")
		touch(t, src, "x")
		dest, err := Route(rule, src, tpl, "", fixedNow)
		require.NoError(t, err)
		dests = append(dests, filepath.Base(dest))
		assert.NoFileExists(t, src)
	}
	assert.Equal(t, []string{"doc.pdf", "doc (1).pdf", "doc (2).pdf"}, dests)
}

func TestRouteToRoot(t *testing.T) {
	root := t.TempDir()
	tpl := filepath.Join(root, "tpl")
	src := filepath.Join(root, "in", "doc.pdf")
	touch(t, src, "x")

	dest, err := Route(mapping.Rule{Phrase: "x", Destination: "."}, src, tpl, "{rule_name}", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tpl, "doc.pdf"), dest)
}
