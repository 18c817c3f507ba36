// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// get issues a GET with retries. accept may be empty.
func (f *Fetcher) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := f.HTTP.DoWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	return resp, nil
}

// contentTypeExt maps the media types OpenReview serves for attachments.
var contentTypeExt = map[string]string{
	"application/zip":              ".zip",
	"application/x-zip-compressed": ".zip",
	"application/pdf":              ".pdf",
	"application/gzip":             ".gz",
	"application/x-gzip":           ".gz",
	"application/x-tar":            ".tar",
	"application/x-7z-compressed":  ".7z",
	"application/vnd.rar":          ".rar",
	"application/x-rar-compressed": ".rar",
	"application/json":             ".json",
	"text/plain":                   ".txt",
	"text/csv":                     ".csv",
}

// fileExtension picks the extension for a downloaded file from, in order,
// the Content-Disposition filename, the URL path, the Content-Type and
// finally ".bin".
func fileExtension(h http.Header, rawURL string) string {
	if cd := h.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if ext := nameExt(params["filename"]); ext != "" {
				return ext
			}
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if ext := nameExt(u.Path); ext != "" {
			return ext
		}
	}
	if ct := h.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			if ext, ok := contentTypeExt[mt]; ok {
				return ext
			}
		}
	}
	return ".bin"
}

// nameExt returns the extension of a file name or path, keeping .tar.gz
// whole. Anything that does not look like a short alphanumeric suffix is
// rejected.
func nameExt(name string) string {
	name = strings.ToLower(path.Base(strings.TrimSpace(name)))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	if strings.HasSuffix(name, ".tar.gz") {
		return ".tar.gz"
	}
	ext := path.Ext(name)
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
