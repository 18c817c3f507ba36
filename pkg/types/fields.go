// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Field names of a PaperRecord as they appear in metadata.csv.
const (
	FieldForumID               = "forum_id"
	FieldTitle                 = "title"
	FieldAuthors               = "authors"
	FieldStatus                = "status"
	FieldPrimaryTopic          = "primary_topic"
	FieldSecondaryTopic        = "secondary_topic"
	FieldHumanReviewScore      = "human_review_score"
	FieldAIReviewer1Score      = "ai_reviewer_1_score"
	FieldAIReviewer2Score      = "ai_reviewer_2_score"
	FieldAIReviewer3Score      = "ai_reviewer_3_score"
	FieldHypothesisDevelopment = "hypothesis_development_label"
	FieldOpenReviewLink        = "openreview_link"
	FieldSupplementaryLink     = "supplementary_link"
	FieldCodeLink              = "code_link"
)

// Columns is the fixed column order of metadata.csv.
var Columns = []string{
	FieldForumID,
	FieldTitle,
	FieldAuthors,
	FieldStatus,
	FieldPrimaryTopic,
	FieldSecondaryTopic,
	FieldHumanReviewScore,
	FieldAIReviewer1Score,
	FieldAIReviewer2Score,
	FieldAIReviewer3Score,
	FieldHypothesisDevelopment,
	FieldOpenReviewLink,
	FieldSupplementaryLink,
	FieldCodeLink,
}

// Field returns the textual value of the named field, "" for unknown names.
func (p *PaperRecord) Field(name string) string {
	switch name {
	case FieldForumID:
		return p.ForumID
	case FieldTitle:
		return p.Title
	case FieldAuthors:
		return p.Authors
	case FieldStatus:
		if p.StatusText != "" {
			return p.StatusText
		}
		return string(p.Status)
	case FieldPrimaryTopic:
		return p.PrimaryTopic
	case FieldSecondaryTopic:
		return p.SecondaryTopic
	case FieldHumanReviewScore:
		return FormatScore(p.HumanReviewScore)
	case FieldAIReviewer1Score:
		return FormatScore(p.AIReviewer1Score)
	case FieldAIReviewer2Score:
		return FormatScore(p.AIReviewer2Score)
	case FieldAIReviewer3Score:
		return FormatScore(p.AIReviewer3Score)
	case FieldHypothesisDevelopment:
		return p.HypothesisDevelopment
	case FieldOpenReviewLink:
		return p.OpenReviewLink
	case FieldSupplementaryLink:
		return p.SupplementaryLink
	case FieldCodeLink:
		return p.CodeLink
	default:
		return ""
	}
}

// Set assigns the named field from text and reports whether the name is known.
func (p *PaperRecord) Set(name, value string) bool {
	value = strings.TrimSpace(value)
	switch name {
	case FieldForumID:
		p.ForumID = value
	case FieldTitle:
		p.Title = value
	case FieldAuthors:
		p.Authors = value
	case FieldStatus:
		p.StatusText = value
		p.Status = ParseStatus(value)
	case FieldPrimaryTopic:
		p.PrimaryTopic = value
	case FieldSecondaryTopic:
		p.SecondaryTopic = value
	case FieldHumanReviewScore:
		p.HumanReviewScore = ParseScore(value)
	case FieldAIReviewer1Score:
		p.AIReviewer1Score = ParseScore(value)
	case FieldAIReviewer2Score:
		p.AIReviewer2Score = ParseScore(value)
	case FieldAIReviewer3Score:
		p.AIReviewer3Score = ParseScore(value)
	case FieldHypothesisDevelopment:
		p.HypothesisDevelopment = value
	case FieldOpenReviewLink:
		p.OpenReviewLink = value
	case FieldSupplementaryLink:
		p.SupplementaryLink = value
	case FieldCodeLink:
		p.CodeLink = value
	default:
		return false
	}
	return true
}
