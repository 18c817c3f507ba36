// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a corpus build: extract the paper list, write the
// metadata table, then fetch reviews, PDF, supplementary material and code
// for each paper in turn. A failure on one artifact of one paper is logged
// and counted; it never stops the batch.
package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/openreview-corpus/internal/acquire"
	"github.com/pdiddy/openreview-corpus/internal/clone"
	"github.com/pdiddy/openreview-corpus/internal/codelink"
	"github.com/pdiddy/openreview-corpus/internal/extract"
	"github.com/pdiddy/openreview-corpus/internal/httputil"
	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/internal/manifest"
	"github.com/pdiddy/openreview-corpus/internal/metadata"
	"github.com/pdiddy/openreview-corpus/internal/openreview"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Extractor produces the paper list.
type Extractor interface {
	Extract(ctx context.Context) (extract.Result, error)
}

// Fetcher downloads per-paper artifacts.
type Fetcher interface {
	FetchReviews(ctx context.Context, forumID string) ([]json.RawMessage, acquire.Result, error)
	FetchPDF(ctx context.Context, forumID string, notes []json.RawMessage) (acquire.Result, error)
	FetchSupplementary(ctx context.Context, forumID, knownLink string, code codelink.Link) (acquire.Result, error)
}

// Cloner clones code repositories.
type Cloner interface {
	Clone(ctx context.Context, forumID string, link codelink.Link) (clone.Result, error)
}

// Recorder receives per-artifact outcomes. *manifest.Store implements it.
type Recorder interface {
	StartRun(ctx context.Context, runID string, started time.Time) error
	FinishRun(ctx context.Context, runID string, finished time.Time, c manifest.RunCounts) error
	RecordPaper(ctx context.Context, runID string, p types.PaperRecord) error
	RecordArtifact(ctx context.Context, a manifest.Artifact) error
}

// Pipeline wires the stages of one run. Recorder may be nil.
type Pipeline struct {
	Layout    *layout.Layout
	Extractor Extractor
	Fetcher   Fetcher
	Cloner    Cloner
	Recorder  Recorder

	PaperDelay        time.Duration
	SkipCode          bool
	SkipSupplementary bool

	Log logrus.FieldLogger
	Now func() time.Time
}

// Run executes the whole batch and returns its summary. Cancelling ctx stops
// the run between stages; the partial summary is returned with Interrupted
// set and metadata.csv is still rewritten. Only setup and metadata write
// failures are returned as errors.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	started := p.now()
	sum := newSummary(newRunID(started), started)
	log := p.logger().WithField("run", sum.RunID)

	if err := p.Layout.Prepare(); err != nil {
		return sum, err
	}

	res, err := p.Extractor.Extract(ctx)
	sum.Source = res.Source
	if err != nil {
		sum.Interrupted = true
		sum.Finished = p.now()
		return sum, nil
	}
	records := res.Records
	if len(records) == 0 {
		log.Warn("no papers to process")
	}

	tally, err := metadata.Write(p.Layout, records)
	if err != nil {
		return sum, err
	}
	log.Infof("wrote metadata for %d papers (%d accepted, %d rejected, %d other)",
		tally.Total, tally.Accepted, tally.Rejected, tally.Unknown)

	if p.Recorder != nil {
		if err := p.Recorder.StartRun(ctx, sum.RunID, started); err != nil {
			log.Warnf("manifest: %v", err)
		}
	}

	for i := range records {
		if i > 0 {
			if err := httputil.Sleep(ctx, p.PaperDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		log.WithField("forum", records[i].ForumID).Infof("processing paper %d/%d", i+1, len(records))
		p.processPaper(ctx, &records[i], &sum)
		sum.Papers++
	}
	sum.Interrupted = ctx.Err() != nil

	if _, err := metadata.Write(p.Layout, records); err != nil {
		return sum, fmt.Errorf("rewriting metadata: %w", err)
	}

	sum.Finished = p.now()
	if p.Recorder != nil {
		counts := manifest.RunCounts{
			Papers:        sum.Papers,
			PDFs:          sum.PDFs,
			Reviews:       sum.Reviews,
			Supplementary: sum.Supplementary,
			Repos:         sum.Repos,
			Failed:        sum.TotalFailed(),
		}
		if err := p.Recorder.FinishRun(context.WithoutCancel(ctx), sum.RunID, sum.Finished, counts); err != nil {
			log.Warnf("manifest: %v", err)
		}
	}
	log.Infof("run finished in %v", sum.Finished.Sub(sum.Started).Round(time.Millisecond))
	return sum, nil
}

// processPaper fetches every artifact of one paper and folds each outcome
// into sum. rec is enriched in place with fields from the submission note.
func (p *Pipeline) processPaper(ctx context.Context, rec *types.PaperRecord, sum *Summary) {
	id := rec.ForumID
	code := codelink.Classify(rec.CodeLink)

	notes, res, err := p.Fetcher.FetchReviews(ctx, id)
	if !p.record(ctx, sum, id, types.CategoryReview, res.Path, res.Existing, err) {
		return
	}
	if err == nil {
		enrich(rec, notes)
	}
	p.recordPaper(ctx, sum.RunID, *rec)

	res, err = p.Fetcher.FetchPDF(ctx, id, notes)
	if !p.record(ctx, sum, id, types.CategoryPDF, res.Path, res.Existing, err) {
		return
	}

	if !p.SkipSupplementary {
		res, err = p.Fetcher.FetchSupplementary(ctx, id, rec.SupplementaryLink, code)
		if !p.record(ctx, sum, id, types.CategorySupplementary, res.Path, res.Existing, err) {
			return
		}
	}

	if p.SkipCode || p.Cloner == nil {
		return
	}
	switch {
	case code.Kind != codelink.KindRepository:
		p.logger().WithField("forum", id).Debugf("code link is %s, nothing to clone", code.Kind)
		p.recordArtifact(ctx, sum.RunID, id, types.CategoryCode, manifest.StatusSkipped, "", code.Kind.String())
	case codelink.SameFile(rec.SupplementaryLink, rec.CodeLink):
		p.logger().WithField("forum", id).Info("code link is the supplementary attachment, not cloning")
		p.recordArtifact(ctx, sum.RunID, id, types.CategoryCode, manifest.StatusSkipped, "", "same as supplementary")
	default:
		cres, err := p.Cloner.Clone(ctx, id, code)
		p.record(ctx, sum, id, types.CategoryCode, cres.Path, cres.Existing, err)
	}
}

// record folds one stage outcome into sum and the manifest. It returns false
// when ctx was cancelled and the paper should be abandoned.
func (p *Pipeline) record(ctx context.Context, sum *Summary, id string, c types.Category, path string, existing bool, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	log := p.logger().WithFields(logrus.Fields{"forum": id, "artifact": c})

	switch {
	case err == nil:
		sum.saved(c, existing)
		status := manifest.StatusSaved
		if existing {
			status = manifest.StatusExisting
		}
		p.recordArtifact(ctx, sum.RunID, id, c, status, path, "")
	case acquire.Skipped(err) || errors.Is(err, clone.ErrNotRepository):
		log.Infof("skipped: %v", err)
		p.recordArtifact(ctx, sum.RunID, id, c, manifest.StatusSkipped, "", err.Error())
	default:
		sum.Failed[c]++
		log.Errorf("failed: %v", err)
		p.recordArtifact(ctx, sum.RunID, id, c, manifest.StatusFailed, "", err.Error())
	}
	return true
}

func (p *Pipeline) recordArtifact(ctx context.Context, runID, id string, c types.Category, status manifest.Status, path, detail string) {
	if p.Recorder == nil {
		return
	}
	err := p.Recorder.RecordArtifact(ctx, manifest.Artifact{
		ForumID:  id,
		Category: c,
		Status:   status,
		Path:     path,
		Detail:   detail,
		RunID:    runID,
	})
	if err != nil {
		p.logger().Warnf("manifest: %v", err)
	}
}

func (p *Pipeline) recordPaper(ctx context.Context, runID string, rec types.PaperRecord) {
	if p.Recorder == nil {
		return
	}
	if err := p.Recorder.RecordPaper(ctx, runID, rec); err != nil {
		p.logger().Warnf("manifest: %v", err)
	}
}

// enrich fills empty title and authors from the submission note.
func enrich(rec *types.PaperRecord, notes []json.RawMessage) {
	sub, ok := openreview.Submission(openreview.DecodeNotes(notes), rec.ForumID)
	if !ok {
		return
	}
	if rec.Authors == "" {
		rec.Authors = sub.ContentString("authors")
	}
	if rec.Title == "" {
		rec.Title = sub.ContentString("title")
	}
}

func newRunID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log != nil {
		return p.Log
	}
	return logrus.StandardLogger()
}
