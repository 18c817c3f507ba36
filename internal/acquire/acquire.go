// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire fetches the per-paper artifacts of the corpus: the review
// history, the paper PDF and the supplementary material. Every fetcher treats
// an existing file at the destination as complete and leaves it untouched;
// downloads stream to a temp file that is renamed into place.
package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/openreview-corpus/internal/httputil"
	"github.com/pdiddy/openreview-corpus/internal/layout"
)

var (
	// ErrNoNotes means the API returned an empty note history.
	ErrNoNotes = errors.New("no notes for forum")
	// ErrNoPDF means no note carries a pdf field.
	ErrNoPDF = errors.New("no pdf resource in notes")
	// ErrNoSupplementary means neither the table nor the forum page names a
	// supplementary file.
	ErrNoSupplementary = errors.New("no supplementary material found")
	// ErrDuplicateArchive means the supplementary candidate is the same file
	// as the paper's OpenReview-hosted code archive.
	ErrDuplicateArchive = errors.New("supplementary material duplicates code archive")
)

// Skipped reports whether err is one of the "nothing to fetch" outcomes that
// are logged but not counted as failures.
func Skipped(err error) bool {
	return errors.Is(err, ErrNoNotes) ||
		errors.Is(err, ErrNoPDF) ||
		errors.Is(err, ErrNoSupplementary) ||
		errors.Is(err, ErrDuplicateArchive)
}

// Result describes a fetched artifact.
type Result struct {
	Path string
	// Existing is set when the artifact was already on disk and no request
	// was made.
	Existing bool
}

// NotesSource returns the full note history of a forum.
type NotesSource interface {
	GetAllNotes(ctx context.Context, forumID string) ([]json.RawMessage, error)
}

// Fetcher downloads artifacts for one corpus layout.
type Fetcher struct {
	Layout      *layout.Layout
	HTTP        *httputil.Client
	Notes       NotesSource
	APIBaseURL  string
	SiteBaseURL string
	Log         logrus.FieldLogger
}

// download fetches url with retries and streams the body to destPath.
func (f *Fetcher) download(ctx context.Context, url, destPath, accept string) error {
	resp, err := f.get(ctx, url, accept)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return f.save(resp.Body, destPath)
}

func (f *Fetcher) save(r io.Reader, destPath string) error {
	if err := f.Layout.WriteFrom(destPath, r); err != nil {
		return fmt.Errorf("saving %s: %w", destPath, err)
	}
	return nil
}

func (f *Fetcher) logger() logrus.FieldLogger {
	if f.Log != nil {
		return f.Log
	}
	return logrus.StandardLogger()
}
