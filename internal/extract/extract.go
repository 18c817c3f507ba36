// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract builds the ordered list of papers to process from a saved
// table snapshot or, failing that, from the conference submissions page.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/openreview-corpus/internal/httputil"
	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Source names where the records came from.
type Source string

const (
	SourceNone         Source = "none"
	SourceSnapshotCSV  Source = "snapshot-csv"
	SourceSnapshotJSON Source = "snapshot-json"
	SourceForumIDs     Source = "forum-ids"
	SourcePageTable    Source = "page-table"
	SourcePageData     Source = "page-data-csv"
	SourcePageLinks    Source = "page-links"
	SourceInvitations  Source = "api-invitations"
)

// dataCSVPath is the backing data file of the submissions page, relative to it.
const dataCSVPath = "data/papers.csv"

// ForumLister enumerates forum identifiers for a submission invitation.
type ForumLister interface {
	ListForums(ctx context.Context, invitation string) ([]string, error)
}

// Result is the outcome of an extraction.
type Result struct {
	Records []types.PaperRecord
	Source  Source
	// Skipped counts rows dropped for being short, id-less, or duplicated.
	Skipped int
}

// Extractor locates and parses the submissions table.
type Extractor struct {
	Layout         *layout.Layout
	HTTP           *httputil.Client
	SubmissionsURL string
	Lister         ForumLister
	Invitations    []string
	Log            logrus.FieldLogger
}

// Extract tries, in order: table_data.csv, table_data.json and forum_ids.txt
// under the download root, the submissions page table, the page's data CSV,
// forum links anywhere on the page, and finally the configured invitations.
// Finding nothing is not an error; Result.Records is empty and Source is
// SourceNone. A non-nil error is returned only when ctx is cancelled.
func (e *Extractor) Extract(ctx context.Context) (Result, error) {
	steps := []struct {
		source Source
		run    func(context.Context) ([]types.PaperRecord, int, error)
	}{
		{SourceSnapshotCSV, e.fromFile(SnapshotCSV, func(b []byte) ([]types.PaperRecord, int, error) {
			return parseCSVSnapshot(bytes.NewReader(b))
		})},
		{SourceSnapshotJSON, e.fromFile(SnapshotJSON, func(b []byte) ([]types.PaperRecord, int, error) {
			recs, err := parseJSONSnapshot(bytes.NewReader(b))
			return recs, 0, err
		})},
		{SourceForumIDs, e.fromFile(layout.ForumIDsFile, func(b []byte) ([]types.PaperRecord, int, error) {
			recs, err := parseForumIDs(bytes.NewReader(b))
			return recs, 0, err
		})},
		{SourcePageTable, nil},
		{SourceInvitations, e.fromInvitations},
	}

	var page *pageResult
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return Result{Source: SourceNone}, err
		}

		var (
			recs    []types.PaperRecord
			skipped int
			source  = step.source
			err     error
		)
		if step.run == nil {
			page = e.fromPage(ctx)
			recs, skipped, source = page.records, page.skipped, page.source
		} else {
			recs, skipped, err = step.run(ctx)
		}
		if err != nil {
			e.logger().WithField("source", source).Warnf("extraction source failed: %v", err)
			continue
		}

		kept, dropped := finalize(recs)
		if len(kept) == 0 {
			continue
		}
		res := Result{Records: kept, Source: source, Skipped: skipped + dropped}
		e.logger().WithField("source", source).Infof("extracted %d papers (%d rows skipped)", len(kept), res.Skipped)
		if source != SourceForumIDs {
			e.saveForumIDs(kept)
		}
		return res, nil
	}

	e.logger().Warn("no paper identifiers found in any source")
	return Result{Source: SourceNone}, ctx.Err()
}

type pageResult struct {
	records []types.PaperRecord
	skipped int
	source  Source
}

// fromPage fetches the submissions page and tries its table, its data CSV and
// finally a scan for forum links.
func (e *Extractor) fromPage(ctx context.Context) *pageResult {
	res := &pageResult{source: SourcePageTable}
	if e.HTTP == nil || e.SubmissionsURL == "" {
		return res
	}
	log := e.logger().WithField("url", e.SubmissionsURL)

	base, err := url.Parse(e.SubmissionsURL)
	if err != nil {
		log.Warnf("invalid submissions URL: %v", err)
		return res
	}

	body, err := e.HTTP.GetBody(ctx, e.SubmissionsURL)
	if err != nil {
		log.Warnf("fetching submissions page: %v", err)
		return res
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Warnf("parsing submissions page: %v", err)
		return res
	}

	if t := parseTable(doc, base); t.found {
		if kept, _ := finalize(t.records); len(kept) > 0 {
			res.records, res.skipped = t.records, t.skipped
			return res
		}
		log.Info("submissions table has no usable rows")
	}

	dataURL := base.ResolveReference(&url.URL{Path: dataCSVPath}).String()
	if data, err := e.HTTP.GetBody(ctx, dataURL); err == nil {
		recs, skipped, err := parseDataCSV(bytes.NewReader(data))
		if err == nil && len(recs) > 0 {
			res.records, res.skipped, res.source = recs, skipped, SourcePageData
			return res
		}
	} else {
		log.WithField("data_url", dataURL).Debugf("no page data CSV: %v", err)
	}

	res.records, res.source = scanForumIDs(string(body)), SourcePageLinks
	return res
}

func (e *Extractor) fromInvitations(ctx context.Context) ([]types.PaperRecord, int, error) {
	if e.Lister == nil || len(e.Invitations) == 0 {
		return nil, 0, nil
	}
	var recs []types.PaperRecord
	for _, inv := range e.Invitations {
		ids, err := e.Lister.ListForums(ctx, inv)
		if err != nil {
			e.logger().WithField("invitation", inv).Warnf("listing forums: %v", err)
			continue
		}
		for _, id := range ids {
			recs = append(recs, types.PaperRecord{ForumID: id})
		}
		if len(ids) > 0 {
			break
		}
	}
	return recs, 0, nil
}

func (e *Extractor) fromFile(name string, parse func([]byte) ([]types.PaperRecord, int, error)) func(context.Context) ([]types.PaperRecord, int, error) {
	return func(context.Context) ([]types.PaperRecord, int, error) {
		if e.Layout == nil {
			return nil, 0, nil
		}
		data, err := e.Layout.ReadFile(e.Layout.Path(name))
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, 0, nil
		}
		recs, skipped, err := parse(data)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing %s: %w", name, err)
		}
		return recs, skipped, nil
	}
}

// saveForumIDs rewrites forum_ids.txt as a backup of the identifier list.
func (e *Extractor) saveForumIDs(records []types.PaperRecord) {
	if e.Layout == nil {
		return
	}
	path := e.Layout.Path(layout.ForumIDsFile)
	if err := e.Layout.WriteFile(path, formatForumIDs(records)); err != nil {
		e.logger().Warnf("saving %s: %v", layout.ForumIDsFile, err)
	}
}

func (e *Extractor) logger() logrus.FieldLogger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}
