// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// positionalColumns is the cell order of the submissions table when it has
// no recognizable header row.
var positionalColumns = []string{
	types.FieldTitle,
	types.FieldStatus,
	types.FieldPrimaryTopic,
	types.FieldSecondaryTopic,
	types.FieldHumanReviewScore,
	types.FieldAIReviewer1Score,
	types.FieldAIReviewer2Score,
	types.FieldAIReviewer3Score,
	types.FieldHypothesisDevelopment,
}

// tableResult is what parseTable found on a page.
type tableResult struct {
	found   bool
	records []types.PaperRecord
	skipped int
}

// parseTable reads the first <table> in doc. Header cells are mapped through
// headerAliases; without any recognized header the cells map positionally.
// Rows with fewer cells than the expected column count are skipped.
func parseTable(doc *goquery.Document, base *url.URL) tableResult {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return tableResult{}
	}
	res := tableResult{found: true}

	headerCells := table.Find("thead th")
	if headerCells.Length() == 0 {
		headerCells = table.Find("tr").First().Find("th")
	}
	var columns []string
	recognized := false
	headerCells.Each(func(_ int, s *goquery.Selection) {
		f := mapHeader(cellText(s))
		if f != "" {
			recognized = true
		}
		columns = append(columns, f)
	})
	if !recognized {
		columns = positionalColumns
	}

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr")
	}
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}
		if cells.Length() < len(columns) {
			res.skipped++
			return
		}

		var rec types.PaperRecord
		cells.Each(func(i int, td *goquery.Selection) {
			if i >= len(columns) || columns[i] == "" {
				return
			}
			f := columns[i]
			if linkFields[f] {
				rec.Set(f, firstHref(td, base))
				return
			}
			rec.Set(f, cellText(td))
		})
		fillRowLinks(&rec, tr, base)
		res.records = append(res.records, rec)
	})
	return res
}

// fillRowLinks fills empty link fields from anchors anywhere in the row:
// OpenReview forum links, GitHub repositories, and supplementary attachments.
func fillRowLinks(rec *types.PaperRecord, tr *goquery.Selection, base *url.URL) {
	tr.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := resolve(base, a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		text := strings.ToLower(cellText(a))
		switch {
		case strings.Contains(lower, "openreview") && strings.Contains(lower, "forum"):
			if rec.OpenReviewLink == "" {
				rec.OpenReviewLink = href
			}
		case strings.Contains(lower, "github.com"):
			if rec.CodeLink == "" {
				rec.CodeLink = href
			}
		case strings.Contains(lower, "supp") || strings.Contains(text, "supp"):
			if rec.SupplementaryLink == "" {
				rec.SupplementaryLink = href
			}
		}
	})
}

func firstHref(s *goquery.Selection, base *url.URL) string {
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return cellText(s)
	}
	return resolve(base, href)
}

// cellText returns the visible text of s with whitespace collapsed.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// resolve makes href absolute against base. Unparsable hrefs are returned trimmed.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil || href == "" {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// parseDataCSV maps the page's backing data file onto records. Its columns
// are title, link, airevN_score, human_score, status, hypothesis_development,
// primary_topic and secondary_topic; unknown columns are ignored.
func parseDataCSV(r io.Reader) ([]types.PaperRecord, int, error) {
	return parseCSVSnapshot(r)
}

// scanForumIDs finds every forum?id= token in body in first-seen order.
func scanForumIDs(body string) []types.PaperRecord {
	var records []types.PaperRecord
	seen := map[string]bool{}
	for _, m := range forumIDPattern.FindAllStringSubmatch(body, -1) {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		records = append(records, types.PaperRecord{ForumID: id})
	}
	return records
}
