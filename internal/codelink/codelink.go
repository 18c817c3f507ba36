// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package codelink classifies the code link of a paper. The decision is made
// once per paper and carried as a tagged Link so later stages branch on Kind
// instead of re-parsing the URL.
package codelink

import (
	"net/url"
	"path"
	"strings"
)

// Kind is the class of a code link.
type Kind int

const (
	// KindNone is an empty or unparsable link.
	KindNone Kind = iota
	// KindRepository is a clonable repository on a known hosting platform.
	KindRepository
	// KindArchive is a file hosted by OpenReview itself.
	KindArchive
	// KindExternal is any other URL.
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindRepository:
		return "repository"
	case KindArchive:
		return "archive"
	case KindExternal:
		return "external"
	default:
		return "none"
	}
}

// Link is a classified code link. For repositories URL is the normalized
// https clone URL; otherwise it is the trimmed raw link.
type Link struct {
	Kind Kind
	URL  string
	Raw  string
}

var repoHosts = map[string]bool{
	"github.com":    true,
	"gitlab.com":    true,
	"bitbucket.org": true,
}

var archiveSuffixes = []string{".zip", ".tar.gz", ".tgz", ".tar", ".gz", ".7z", ".rar"}

// Classify decides the Kind of raw.
func Classify(raw string) Link {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{Kind: KindNone}
	}
	if repo, ok := NormalizeRepository(raw); ok {
		return Link{Kind: KindRepository, URL: repo, Raw: raw}
	}
	u, err := parseLoose(raw)
	if err != nil || u.Host == "" {
		return Link{Kind: KindNone, Raw: raw}
	}
	if IsOpenReviewArchive(u) {
		return Link{Kind: KindArchive, URL: raw, Raw: raw}
	}
	return Link{Kind: KindExternal, URL: raw, Raw: raw}
}

// NormalizeRepository rewrites a repository reference to
// https://host/owner/repo. Accepted forms are https and scheme-less URLs,
// git@host:owner/repo(.git) and ssh://git@host/owner/repo(.git). Deep links
// such as /tree/main are cut back to the repository root.
func NormalizeRepository(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	var host, p string
	switch {
	case strings.HasPrefix(raw, "git@"):
		rest := strings.TrimPrefix(raw, "git@")
		i := strings.Index(rest, ":")
		if i < 0 {
			return "", false
		}
		host, p = rest[:i], rest[i+1:]
	default:
		u, err := parseLoose(raw)
		if err != nil {
			return "", false
		}
		host, p = u.Host, u.Path
	}

	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}
	if !repoHosts[host] {
		return "", false
	}

	parts := splitPath(p)
	if host == "gitlab.com" {
		// GitLab nests groups; the project path ends where "/-/" begins.
		for i, seg := range parts {
			if seg == "-" {
				parts = parts[:i]
				break
			}
		}
	} else if len(parts) > 2 {
		parts = parts[:2]
	}
	if len(parts) < 2 {
		return "", false
	}
	last := len(parts) - 1
	parts[last] = strings.TrimSuffix(parts[last], ".git")
	if parts[last] == "" {
		return "", false
	}
	return "https://" + host + "/" + strings.Join(parts, "/"), true
}

// IsOpenReviewArchive reports whether u is a file served by OpenReview: an
// attachment endpoint or a path with an archive suffix.
func IsOpenReviewArchive(u *url.URL) bool {
	if !isOpenReviewHost(u.Host) {
		return false
	}
	if isAttachment(u) {
		return true
	}
	lower := strings.ToLower(u.Path)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func isOpenReviewHost(host string) bool {
	host = strings.ToLower(host)
	return host == "openreview.net" || strings.HasSuffix(host, ".openreview.net")
}

func isAttachment(u *url.URL) bool {
	return strings.Contains(strings.ToLower(u.Path), "attachment")
}

// parseLoose parses raw, assuming https when no scheme is given.
func parseLoose(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return url.Parse(raw)
}

func splitPath(p string) []string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

// genericNames are file stems too common to identify a file on their own.
var genericNames = map[string]bool{
	"attachment":             true,
	"download":               true,
	"file":                   true,
	"index":                  true,
	"code":                   true,
	"supplementary":          true,
	"supplementary_material": true,
}

// SameFile reports whether a and b denote the same downloadable file. Two
// attachment URLs that both carry an id match on that id (and name when both
// carry one). Anything else matches on host and path, or on a shared
// non-generic filename.
func SameFile(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	ua, errA := parseLoose(a)
	ub, errB := parseLoose(b)
	if errA != nil || errB != nil {
		return false
	}

	if isAttachment(ua) && isAttachment(ub) {
		idA, idB := ua.Query().Get("id"), ub.Query().Get("id")
		if idA != "" && idB != "" {
			if idA != idB {
				return false
			}
			nameA, nameB := ua.Query().Get("name"), ub.Query().Get("name")
			return nameA == "" || nameB == "" || nameA == nameB
		}
	}

	if hostPath(ua) == hostPath(ub) {
		return true
	}
	fa, fb := fileName(ua), fileName(ub)
	return fa != "" && fa == fb
}

func hostPath(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.") + strings.TrimRight(u.Path, "/")
}

// fileName returns the last path segment when it looks like a specific file:
// it has an extension and its stem is not generic.
func fileName(u *url.URL) string {
	base := path.Base(u.Path)
	ext := path.Ext(base)
	if ext == "" || base == "/" || base == "." {
		return ""
	}
	stem := strings.ToLower(strings.TrimSuffix(base, ext))
	stem = strings.TrimSuffix(stem, ".tar")
	if genericNames[stem] {
		return ""
	}
	return strings.ToLower(base)
}
