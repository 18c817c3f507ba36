// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openreview-corpus/internal/codelink"
	"github.com/pdiddy/openreview-corpus/internal/httputil"
	"github.com/pdiddy/openreview-corpus/internal/layout"
)

// stubNotes is a NotesSource backed by a map.
type stubNotes struct {
	notes map[string][]json.RawMessage
	err   error
	calls int32
}

func (s *stubNotes) GetAllNotes(_ context.Context, forumID string) ([]json.RawMessage, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.notes[forumID], nil
}

func newFetcher(t *testing.T, ts *httptest.Server, notes NotesSource) (*Fetcher, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	log, _ := test.NewNullLogger()
	f := &Fetcher{
		Layout: layout.New(fs, "downloads"),
		HTTP: &httputil.Client{
			MaxAttempts: 3,
			RetryDelay:  time.Millisecond,
			Log:         log,
		},
		Notes:       notes,
		APIBaseURL:  "https://api.invalid",
		SiteBaseURL: "https://site.invalid",
		Log:         log,
	}
	if ts != nil {
		f.HTTP.HTTP = ts.Client()
		f.APIBaseURL = ts.URL
		f.SiteBaseURL = ts.URL
	}
	require.NoError(t, f.Layout.Prepare())
	return f, fs
}

func raw(docs ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		out[i] = json.RawMessage(d)
	}
	return out
}

func TestSkipped(t *testing.T) {
	assert.True(t, Skipped(ErrNoPDF))
	assert.True(t, Skipped(errors.Join(errors.New("x"), ErrDuplicateArchive)))
	assert.True(t, Skipped(ErrNoSupplementary))
	assert.True(t, Skipped(ErrNoNotes))
	assert.False(t, Skipped(errors.New("HTTP 500")))
	assert.False(t, Skipped(nil))
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		url    string
		want   string
	}{
		{"content disposition", http.Header{"Content-Disposition": {`attachment; filename="supp.tar.gz"`}}, "https://x/attachment?id=1", ".tar.gz"},
		{"disposition beats url", http.Header{"Content-Disposition": {`attachment; filename=data.zip`}}, "https://x/files/data.pdf", ".zip"},
		{"url tar.gz", nil, "https://x/files/code.TAR.GZ", ".tar.gz"},
		{"url tar", nil, "https://x/files/code.tar", ".tar"},
		{"url suffix", nil, "https://x/files/appendix.pdf?dl=1", ".pdf"},
		{"content type", http.Header{"Content-Type": {"application/zip; charset=binary"}}, "https://x/attachment?id=1", ".zip"},
		{"unknown content type", http.Header{"Content-Type": {"application/octet-stream"}}, "https://x/attachment", ".bin"},
		{"odd suffix ignored", nil, "https://x/files/v1.2-beta_final", ".bin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.header
			if h == nil {
				h = http.Header{}
			}
			assert.Equal(t, tt.want, fileExtension(h, tt.url))
		})
	}
}

func TestFetchReviews_SavesIndentedArray(t *testing.T) {
	src := &stubNotes{notes: map[string][]json.RawMessage{
		"f1": raw(`{"id":"f1","content":{"title":{"value":"T"}}}`, `{"id":"r1"}`),
	}}
	f, fs := newFetcher(t, nil, src)

	notes, res, err := f.FetchReviews(context.Background(), "f1")
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.False(t, res.Existing)

	data, err := afero.ReadFile(fs, "downloads/reviews/f1.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"id\": \"f1\"")

	var back []map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Len(t, back, 2)
}

func TestFetchReviews_ExistingFileLoadedWithoutRequest(t *testing.T) {
	src := &stubNotes{}
	f, fs := newFetcher(t, nil, src)
	require.NoError(t, afero.WriteFile(fs, "downloads/reviews/f1.json", []byte(`[{"id":"f1","content":{"pdf":"/pdf/a.pdf"}}]`), 0o644))

	notes, res, err := f.FetchReviews(context.Background(), "f1")
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Len(t, notes, 1)
	assert.Zero(t, atomic.LoadInt32(&src.calls))
}

func TestFetchReviews_CorruptFileRefetched(t *testing.T) {
	src := &stubNotes{notes: map[string][]json.RawMessage{"f1": raw(`{"id":"f1"}`)}}
	f, fs := newFetcher(t, nil, src)
	require.NoError(t, afero.WriteFile(fs, "downloads/reviews/f1.json", []byte(`[{"id":`), 0o644))

	_, res, err := f.FetchReviews(context.Background(), "f1")
	require.NoError(t, err)
	assert.False(t, res.Existing)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestFetchReviews_Errors(t *testing.T) {
	f, fs := newFetcher(t, nil, &stubNotes{err: errors.New("HTTP 503")})
	_, _, err := f.FetchReviews(context.Background(), "f1")
	require.Error(t, err)
	assert.False(t, Skipped(err))
	exists, _ := afero.Exists(fs, "downloads/reviews/f1.json")
	assert.False(t, exists)

	f, _ = newFetcher(t, nil, &stubNotes{})
	_, _, err = f.FetchReviews(context.Background(), "f1")
	assert.ErrorIs(t, err, ErrNoNotes)
}

func TestFetchPDF_DownloadsResolvedPath(t *testing.T) {
	var gotPath, gotAccept string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("%PDF-1.7 body"))
	}))
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)
	notes := raw(`{"id":"r1","content":{}}`, `{"id":"f1","content":{"pdf":{"value":"/pdf/abc123.pdf"}}}`)

	res, err := f.FetchPDF(context.Background(), "f1", notes)
	require.NoError(t, err)
	assert.False(t, res.Existing)
	assert.Equal(t, "/pdf/abc123.pdf", gotPath)
	assert.Equal(t, "application/pdf", gotAccept)

	data, err := afero.ReadFile(fs, "downloads/pdfs/f1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 body", string(data))
}

func TestFetchPDF_ExistingFileUntouched(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("new"))
	}))
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)
	require.NoError(t, afero.WriteFile(fs, "downloads/pdfs/f1.pdf", []byte("original"), 0o644))

	res, err := f.FetchPDF(context.Background(), "f1", raw(`{"id":"f1","content":{"pdf":"/pdf/x.pdf"}}`))
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Zero(t, atomic.LoadInt32(&calls))

	data, _ := afero.ReadFile(fs, "downloads/pdfs/f1.pdf")
	assert.Equal(t, "original", string(data))
}

func TestFetchPDF_EmptyFileRefetched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("pdf"))
	}))
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)
	require.NoError(t, afero.WriteFile(fs, "downloads/pdfs/f1.pdf", nil, 0o644))

	res, err := f.FetchPDF(context.Background(), "f1", raw(`{"id":"f1","content":{"pdf":"/pdf/x.pdf"}}`))
	require.NoError(t, err)
	assert.False(t, res.Existing)
	data, _ := afero.ReadFile(fs, "downloads/pdfs/f1.pdf")
	assert.Equal(t, "pdf", string(data))
}

func TestFetchPDF_NoResource(t *testing.T) {
	f, _ := newFetcher(t, nil, nil)
	_, err := f.FetchPDF(context.Background(), "f1", raw(`{"id":"f1","content":{"title":"x"}}`))
	assert.ErrorIs(t, err, ErrNoPDF)

	_, err = f.FetchPDF(context.Background(), "f1", nil)
	assert.ErrorIs(t, err, ErrNoPDF)
}

func TestFetchPDF_RetryBoundedNoPartialFile(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)
	_, err := f.FetchPDF(context.Background(), "f1", raw(`{"id":"f1","content":{"pdf":"/pdf/x.pdf"}}`))
	require.Error(t, err)
	assert.False(t, Skipped(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	exists, _ := afero.Exists(fs, "downloads/pdfs/f1.pdf")
	assert.False(t, exists)
	entries, _ := afero.ReadDir(fs, "downloads/pdfs")
	assert.Empty(t, entries, "no temp files left behind")
}

func TestFetchSupplementary_FromForumPage(t *testing.T) {
	var downloads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/forum", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "f1", r.URL.Query().Get("id"))
		w.Write([]byte(`<html><body>
			<a href="#supp">jump</a>
			<a href="/pdf?id=f1">PDF</a>
			<a href="/attachment?id=f1&amp;name=supplementary_material">Supplementary Material</a>
			<a href="/attachment?id=f1&amp;name=other_supp">later</a>
		</body></html>`))
	})
	mux.HandleFunc("/attachment", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&downloads, 1)
		assert.Equal(t, "supplementary_material", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("PK\x03\x04"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)
	res, err := f.FetchSupplementary(context.Background(), "f1", "", codelink.Link{})
	require.NoError(t, err)
	assert.Equal(t, "downloads/supplementary/f1.zip", res.Path)
	assert.Equal(t, int32(1), atomic.LoadInt32(&downloads))

	data, _ := afero.ReadFile(fs, res.Path)
	assert.Equal(t, "PK\x03\x04", string(data))
}

func TestFetchSupplementary_KnownLinkSkipsPage(t *testing.T) {
	var forum int32
	mux := http.NewServeMux()
	mux.HandleFunc("/forum", func(http.ResponseWriter, *http.Request) { atomic.AddInt32(&forum, 1) })
	mux.HandleFunc("/files/appendix.tar.gz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("tgz"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, _ := newFetcher(t, ts, nil)
	res, err := f.FetchSupplementary(context.Background(), "f1", "/files/appendix.tar.gz", codelink.Link{})
	require.NoError(t, err)
	assert.Equal(t, "downloads/supplementary/f1.tar.gz", res.Path)
	assert.Zero(t, atomic.LoadInt32(&forum))
}

func TestFetchSupplementary_DuplicateArchiveNoDownload(t *testing.T) {
	var downloads int32
	mux := http.NewServeMux()
	mux.HandleFunc("/forum", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<a href="/attachment?id=f1&amp;name=supplementary_material">Supplementary</a>`))
	})
	mux.HandleFunc("/attachment", func(http.ResponseWriter, *http.Request) { atomic.AddInt32(&downloads, 1) })
	mux.HandleFunc("/files/agent_code_v2.zip", func(http.ResponseWriter, *http.Request) { atomic.AddInt32(&downloads, 1) })
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)

	code := codelink.Classify("https://openreview.net/attachment?id=f1&name=supplementary_material")
	require.Equal(t, codelink.KindArchive, code.Kind)
	_, err := f.FetchSupplementary(context.Background(), "f1", "", code)
	assert.ErrorIs(t, err, ErrDuplicateArchive)

	code = codelink.Classify("https://openreview.net/files/agent_code_v2.zip")
	_, err = f.FetchSupplementary(context.Background(), "f2", ts.URL+"/files/agent_code_v2.zip", code)
	assert.ErrorIs(t, err, ErrDuplicateArchive)

	identical := "https://openreview.net/attachment/agent_code_v2.zip"
	code = codelink.Classify(identical)
	require.Equal(t, codelink.KindArchive, code.Kind)
	_, err = f.FetchSupplementary(context.Background(), "f3", identical, code)
	assert.ErrorIs(t, err, ErrDuplicateArchive)

	external := "https://example.org/releases/agent_code_v3.zip"
	code = codelink.Classify(external)
	require.Equal(t, codelink.KindExternal, code.Kind)
	_, err = f.FetchSupplementary(context.Background(), "f4", external, code)
	assert.ErrorIs(t, err, ErrDuplicateArchive)

	assert.Zero(t, atomic.LoadInt32(&downloads))
	_, found := f.Layout.FindSupplementary("f1")
	assert.False(t, found)
	entries, _ := afero.ReadDir(fs, "downloads/supplementary")
	assert.Empty(t, entries)
}

func TestFetchSupplementary_PrefersAttachmentAnchor(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "attachment after support link",
			page: `<a href="/help">Support</a><a href="/attachment?id=f1&amp;name=supplementary_material">Files</a>`,
			want: "supplementary_material",
		},
		{
			name: "no attachment falls back",
			page: `<a href="/help">Contact</a><a href="/files/supp.zip">Appendix</a>`,
			want: "/files/supp.zip",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			mux := http.NewServeMux()
			mux.HandleFunc("/forum", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte(tt.page)) })
			mux.HandleFunc("/help", func(http.ResponseWriter, *http.Request) { got = "/help" })
			mux.HandleFunc("/attachment", func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Query().Get("name")
				w.Write([]byte("x"))
			})
			mux.HandleFunc("/files/supp.zip", func(w http.ResponseWriter, r *http.Request) {
				got = r.URL.Path
				w.Write([]byte("x"))
			})
			ts := httptest.NewServer(mux)
			defer ts.Close()

			f, _ := newFetcher(t, ts, nil)
			_, err := f.FetchSupplementary(context.Background(), "f1", "", codelink.Link{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchSupplementary_ExistingAnyExtension(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { atomic.AddInt32(&calls, 1) }))
	defer ts.Close()

	f, fs := newFetcher(t, ts, nil)
	require.NoError(t, afero.WriteFile(fs, "downloads/supplementary/f1.7z", []byte("x"), 0o644))

	res, err := f.FetchSupplementary(context.Background(), "f1", "https://example.org/s.zip", codelink.Link{})
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Equal(t, "downloads/supplementary/f1.7z", res.Path)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFetchSupplementary_NoneOnPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<a href="/pdf?id=f1">PDF</a>`))
	}))
	defer ts.Close()

	f, _ := newFetcher(t, ts, nil)
	_, err := f.FetchSupplementary(context.Background(), "f1", "", codelink.Link{})
	assert.ErrorIs(t, err, ErrNoSupplementary)
}
