// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout owns the on-disk corpus tree. Every artifact path is derived
// from the forum identifier, and all writes go through a temp file that is
// renamed into place, so a path either holds a complete file or nothing.
package layout

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

const (
	MetadataFile = "metadata.csv"
	ForumIDsFile = "forum_ids.txt"
	ManifestFile = "manifest.db"

	PDFDir           = "pdfs"
	ReviewDir        = "reviews"
	SupplementaryDir = "supplementary"
	CodeDir          = "code"
)

// Layout resolves artifact paths below Root on Fs.
type Layout struct {
	Fs   afero.Fs
	Root string
}

// New returns a Layout rooted at root on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, root string) *Layout {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Layout{Fs: fs, Root: root}
}

// Prepare creates the root and every category directory.
func (l *Layout) Prepare() error {
	for _, dir := range []string{l.Root, l.dir(PDFDir), l.dir(ReviewDir), l.dir(SupplementaryDir), l.dir(CodeDir)} {
		if err := l.Fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

func (l *Layout) dir(name string) string { return filepath.Join(l.Root, name) }

// Path returns a root-level file path such as metadata.csv.
func (l *Layout) Path(name string) string { return filepath.Join(l.Root, name) }

// PDFPath is pdfs/<id>.pdf.
func (l *Layout) PDFPath(forumID string) string {
	return filepath.Join(l.dir(PDFDir), forumID+".pdf")
}

// ReviewPath is reviews/<id>.json.
func (l *Layout) ReviewPath(forumID string) string {
	return filepath.Join(l.dir(ReviewDir), forumID+".json")
}

// SupplementaryPath is supplementary/<id><ext>.
func (l *Layout) SupplementaryPath(forumID, ext string) string {
	return filepath.Join(l.dir(SupplementaryDir), forumID+ext)
}

// CodePath is code/<id>.
func (l *Layout) CodePath(forumID string) string {
	return filepath.Join(l.dir(CodeDir), forumID)
}

// ArtifactPath returns the canonical path for category; supplementary files
// have no fixed extension, so the existing file (if any) is returned.
func (l *Layout) ArtifactPath(forumID string, c types.Category) string {
	switch c {
	case types.CategoryPDF:
		return l.PDFPath(forumID)
	case types.CategoryReview:
		return l.ReviewPath(forumID)
	case types.CategoryCode:
		return l.CodePath(forumID)
	case types.CategorySupplementary:
		p, _ := l.FindSupplementary(forumID)
		return p
	default:
		return ""
	}
}

// Exists reports whether path exists.
func (l *Layout) Exists(path string) bool {
	_, err := l.Fs.Stat(path)
	return err == nil
}

// NonEmpty reports whether path is a regular file with at least one byte.
func (l *Layout) NonEmpty(path string) bool {
	info, err := l.Fs.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// FindSupplementary returns the first supplementary/<id>.* file. Temp files
// left by an interrupted write are ignored.
func (l *Layout) FindSupplementary(forumID string) (string, bool) {
	matches, err := afero.Glob(l.Fs, filepath.Join(l.dir(SupplementaryDir), globEscape(forumID)+".*"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if !strings.HasPrefix(filepath.Base(m), ".") {
			return m, true
		}
	}
	return "", false
}

// WriteFile writes data to path atomically.
func (l *Layout) WriteFile(path string, data []byte) error {
	return l.WriteFrom(path, strings.NewReader(string(data)))
}

// WriteFrom streams r to path atomically: temp file in the same directory,
// sync, close, rename. On any failure the temp file is removed and path is
// left untouched.
func (l *Layout) WriteFrom(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := l.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(l.Fs, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer l.Fs.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := l.Fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the contents of path.
func (l *Layout) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(l.Fs, path)
}

// RemoveAll deletes path and anything below it. Removing a missing path is
// not an error.
func (l *Layout) RemoveAll(path string) error {
	err := l.Fs.RemoveAll(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// globEscape quotes glob metacharacters in a forum identifier.
func globEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`).Replace(s)
}
