// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openreview

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Note holds the fields of an API v2 note that the corpus builder reads.
// Content values are left raw because v2 wraps each one as {"value": ...}.
type Note struct {
	ID          string                     `json:"id"`
	Forum       string                     `json:"forum"`
	Invitations []string                   `json:"invitations"`
	Content     map[string]json.RawMessage `json:"content"`
	Cdate       int64                      `json:"cdate"`
}

// ContentString returns field name of the note as text. Wrapped and bare
// values are both accepted; string lists are joined with ", ".
func (n *Note) ContentString(name string) string {
	raw, ok := n.Content[name]
	if !ok {
		return ""
	}
	return valueString(raw)
}

func valueString(raw json.RawMessage) string {
	var wrapped struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Value) > 0 {
		raw = wrapped.Value
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, ", ")
	}
	return ""
}

// DecodeNotes decodes raw notes, dropping any that are not JSON objects.
func DecodeNotes(raw []json.RawMessage) []Note {
	notes := make([]Note, 0, len(raw))
	for _, r := range raw {
		var n Note
		if err := json.Unmarshal(r, &n); err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes
}

// PDFResource returns the content.pdf value of the first note that has one.
func PDFResource(notes []Note) string {
	for i := range notes {
		if v := notes[i].ContentString("pdf"); v != "" {
			return v
		}
	}
	return ""
}

// Submission returns the note whose id equals the forum id, which is the
// submission itself in API v2.
func Submission(notes []Note, forumID string) (Note, bool) {
	for _, n := range notes {
		if n.ID == forumID {
			return n, true
		}
	}
	return Note{}, false
}

// ResolvePDFURL turns a content.pdf value into a download URL. Absolute
// URLs pass through, paths are joined to apiBase and bare ids become
// <apiBase>/pdf/<id>.
func ResolvePDFURL(apiBase, resource string) string {
	resource = strings.TrimSpace(resource)
	if resource == "" {
		return ""
	}
	if u, err := url.Parse(resource); err == nil && u.Scheme != "" && u.Host != "" {
		return resource
	}
	base := strings.TrimRight(apiBase, "/")
	if strings.HasPrefix(resource, "/") {
		return base + resource
	}
	return base + "/pdf/" + url.PathEscape(resource)
}

// ForumURL is the public forum page of id on siteBase.
func ForumURL(siteBase, id string) string {
	return strings.TrimRight(siteBase, "/") + "/forum?id=" + url.QueryEscape(id)
}
