// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"

	"github.com/pdiddy/openreview-corpus/internal/openreview"
)

// FetchPDF downloads the paper PDF named by the first note with a pdf field
// to pdfs/<id>.pdf. A non-empty file at the destination is kept as is, even
// when notes is empty.
func (f *Fetcher) FetchPDF(ctx context.Context, forumID string, notes []json.RawMessage) (Result, error) {
	dest := f.Layout.PDFPath(forumID)
	if f.Layout.NonEmpty(dest) {
		f.logger().WithField("forum", forumID).Debug("PDF already present")
		return Result{Path: dest, Existing: true}, nil
	}

	resource := openreview.PDFResource(openreview.DecodeNotes(notes))
	if resource == "" {
		return Result{}, ErrNoPDF
	}
	pdfURL := openreview.ResolvePDFURL(f.APIBaseURL, resource)

	if err := f.download(ctx, pdfURL, dest, "application/pdf"); err != nil {
		return Result{}, err
	}
	f.logger().WithField("forum", forumID).Debugf("downloaded PDF from %s", pdfURL)
	return Result{Path: dest}, nil
}
