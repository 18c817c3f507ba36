// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/openreview-corpus/internal/codelink"
	"github.com/pdiddy/openreview-corpus/internal/openreview"
)

// FetchSupplementary downloads one supplementary file to
// supplementary/<id><ext>. The candidate is knownLink when set, otherwise the
// first supplementary anchor on the forum page. A candidate that is the same
// file as a non-repository code link is not downloaded.
func (f *Fetcher) FetchSupplementary(ctx context.Context, forumID, knownLink string, code codelink.Link) (Result, error) {
	log := f.logger().WithField("forum", forumID)
	if existing, ok := f.Layout.FindSupplementary(forumID); ok {
		log.Debug("supplementary material already present")
		return Result{Path: existing, Existing: true}, nil
	}

	forumURL := openreview.ForumURL(f.SiteBaseURL, forumID)
	candidate := strings.TrimSpace(knownLink)
	if candidate != "" {
		candidate = resolveAgainst(forumURL, candidate)
	} else {
		found, err := f.findOnForumPage(ctx, forumURL)
		if err != nil {
			return Result{}, err
		}
		candidate = found
	}
	if candidate == "" {
		return Result{}, ErrNoSupplementary
	}

	if (code.Kind == codelink.KindArchive || code.Kind == codelink.KindExternal) && codelink.SameFile(candidate, code.URL) {
		log.Infof("supplementary %s is the code link, not downloading twice", candidate)
		return Result{}, ErrDuplicateArchive
	}

	resp, err := f.get(ctx, candidate, "")
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	dest := f.Layout.SupplementaryPath(forumID, fileExtension(resp.Header, candidate))
	if err := f.save(resp.Body, dest); err != nil {
		return Result{}, err
	}
	log.Debugf("downloaded supplementary material from %s", candidate)
	return Result{Path: dest}, nil
}

// findOnForumPage fetches the forum page and returns the resolved href of
// the first supplementary anchor, or "" when there is none.
func (f *Fetcher) findOnForumPage(ctx context.Context, forumURL string) (string, error) {
	resp, err := f.get(ctx, forumURL, "text/html")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing forum page: %w", err)
	}
	href := supplementaryAnchor(doc)
	if href == "" {
		return "", nil
	}
	return resolveAgainst(forumURL, href), nil
}

// supplementaryAnchor returns the href of the first attachment anchor whose
// href or visible text contains "supp". Without one it falls back to the
// first anchor of any kind that mentions "supp". In-page and script links are
// ignored.
func supplementaryAnchor(doc *goquery.Document) string {
	var attachment, loose string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(lower, "#") || strings.HasPrefix(lower, "javascript:") {
			return true
		}
		text := strings.ToLower(a.Text())
		if !strings.Contains(lower, "supp") && !strings.Contains(text, "supp") {
			return true
		}
		if strings.Contains(lower, "attachment") {
			attachment = href
			return false
		}
		if loose == "" {
			loose = href
		}
		return true
	})
	if attachment != "" {
		return attachment
	}
	return loose
}

func resolveAgainst(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
