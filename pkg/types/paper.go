// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records and configuration shared by the corpus
// pipeline stages: the submissions-table row, artifact categories, and the
// run configuration.
package types

import (
	"strconv"
	"strings"
)

// Status is the acceptance decision listed in the submissions table.
type Status string

const (
	StatusUnknown  Status = ""
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// ParseStatus maps free-form status text onto a Status by its leading word,
// so "Accept (Oral)" is accepted and "Reject" is rejected. Anything else
// yields StatusUnknown.
func ParseStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "accept"):
		return StatusAccepted
	case strings.HasPrefix(s, "reject"):
		return StatusRejected
	default:
		return StatusUnknown
	}
}

// PaperRecord is one row of the submissions table. The extractor builds it
// once; fetch stages read it and never modify it.
type PaperRecord struct {
	// ForumID is the OpenReview forum identifier. Every artifact is keyed by it.
	ForumID string `json:"forum_id" yaml:"forum_id"`

	Title   string `json:"title" yaml:"title"`
	Authors string `json:"authors" yaml:"authors"`
	Status  Status `json:"status" yaml:"status"`

	// StatusText is the status cell as published; Status is parsed from it.
	StatusText string `json:"status_text,omitempty" yaml:"status_text,omitempty"`

	PrimaryTopic   string `json:"primary_topic" yaml:"primary_topic"`
	SecondaryTopic string `json:"secondary_topic" yaml:"secondary_topic"`

	// Scores are nil when the table cell is blank or not a number.
	HumanReviewScore *float64 `json:"human_review_score,omitempty" yaml:"human_review_score,omitempty"`
	AIReviewer1Score *float64 `json:"ai_reviewer_1_score,omitempty" yaml:"ai_reviewer_1_score,omitempty"`
	AIReviewer2Score *float64 `json:"ai_reviewer_2_score,omitempty" yaml:"ai_reviewer_2_score,omitempty"`
	AIReviewer3Score *float64 `json:"ai_reviewer_3_score,omitempty" yaml:"ai_reviewer_3_score,omitempty"`

	// HypothesisDevelopment is the categorical hypothesis-development label.
	HypothesisDevelopment string `json:"hypothesis_development_label" yaml:"hypothesis_development_label"`

	OpenReviewLink    string `json:"openreview_link,omitempty" yaml:"openreview_link,omitempty"`
	SupplementaryLink string `json:"supplementary_link,omitempty" yaml:"supplementary_link,omitempty"`
	CodeLink          string `json:"code_link,omitempty" yaml:"code_link,omitempty"`
}

// ParseScore converts a table cell into a score. Blank or non-numeric cells
// return nil.
func ParseScore(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FormatScore renders a score for tabular output; nil renders as "".
func FormatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Category names one kind of per-paper artifact.
type Category string

const (
	CategoryPDF           Category = "pdf"
	CategoryReview        Category = "review"
	CategorySupplementary Category = "supplementary"
	CategoryCode          Category = "code"
)

// Categories lists every artifact category in processing order.
var Categories = []Category{CategoryReview, CategoryPDF, CategorySupplementary, CategoryCode}
