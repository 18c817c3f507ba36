// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// headerAliases maps normalized column headers and snapshot keys to
// PaperRecord field names. Keys are case-folded with non-alphanumerics dropped.
var headerAliases = map[string]string{
	"forumid": types.FieldForumID,
	"forum":   types.FieldForumID,
	"id":      types.FieldForumID,

	"title":    types.FieldTitle,
	"authors":  types.FieldAuthors,
	"status":   types.FieldStatus,
	"decision": types.FieldStatus,

	"primarytopic":   types.FieldPrimaryTopic,
	"secondarytopic": types.FieldSecondaryTopic,

	"humanreviewscore": types.FieldHumanReviewScore,
	"humanreview":      types.FieldHumanReviewScore,
	"humanscore":       types.FieldHumanReviewScore,
	"aireviewer1score": types.FieldAIReviewer1Score,
	"aireviewer1":      types.FieldAIReviewer1Score,
	"airev1score":      types.FieldAIReviewer1Score,
	"aireviewer2score": types.FieldAIReviewer2Score,
	"aireviewer2":      types.FieldAIReviewer2Score,
	"airev2score":      types.FieldAIReviewer2Score,
	"aireviewer3score": types.FieldAIReviewer3Score,
	"aireviewer3":      types.FieldAIReviewer3Score,
	"airev3score":      types.FieldAIReviewer3Score,

	"hypothesisdevelopmentlabel": types.FieldHypothesisDevelopment,
	"hypothesisdevelopment":      types.FieldHypothesisDevelopment,

	"openreviewlink":    types.FieldOpenReviewLink,
	"openreview":        types.FieldOpenReviewLink,
	"link":              types.FieldOpenReviewLink,
	"supplementarylink": types.FieldSupplementaryLink,
	"supplementary":     types.FieldSupplementaryLink,
	"codelink":          types.FieldCodeLink,
	"code":              types.FieldCodeLink,
}

// linkFields take the anchor href rather than the cell text.
var linkFields = map[string]bool{
	types.FieldOpenReviewLink:    true,
	types.FieldSupplementaryLink: true,
	types.FieldCodeLink:          true,
}

// normalizeHeader case-folds h and keeps only letters and digits.
func normalizeHeader(h string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cases.Fold().String(h))
}

// mapHeader returns the field for a header, or "" when it is not recognized.
func mapHeader(h string) string {
	return headerAliases[normalizeHeader(h)]
}

var (
	forumIDPattern = regexp.MustCompile(`forum\?id=([^&\s"'#<>]+)`)
	validForumID   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// ForumIDFromLink extracts the forum identifier from an OpenReview link
// such as https://openreview.net/forum?id=abc or /forum?id=abc&noteId=x. It
// returns "" when no identifier can be found.
func ForumIDFromLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if u, err := url.Parse(link); err == nil {
		if id := u.Query().Get("id"); id != "" && strings.Contains(u.Path, "forum") {
			return id
		}
	}
	if m := forumIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

// finalize derives missing forum ids from links, drops rows without one or
// with an id that is not a plain token (letters, digits, '_' and '-'), and
// removes duplicate identifiers keeping the first occurrence.
func finalize(records []types.PaperRecord) (kept []types.PaperRecord, dropped int) {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.ForumID == "" && r.OpenReviewLink != "" {
			r.ForumID = ForumIDFromLink(r.OpenReviewLink)
		}
		if !validForumID.MatchString(r.ForumID) || seen[r.ForumID] {
			dropped++
			continue
		}
		seen[r.ForumID] = true
		kept = append(kept, r)
	}
	return kept, dropped
}
