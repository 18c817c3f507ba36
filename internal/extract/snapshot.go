// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Snapshot file names, read from the download root.
const (
	SnapshotCSV  = "table_data.csv"
	SnapshotJSON = "table_data.json"
)

// parseCSVSnapshot reads a table with a header row. Rows with fewer fields
// than the header are skipped.
func parseCSVSnapshot(r io.Reader) (records []types.PaperRecord, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = mapHeader(strings.TrimPrefix(h, "\ufeff"))
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, skipped, fmt.Errorf("reading row: %w", err)
		}
		if len(row) < len(header) {
			skipped++
			continue
		}
		var rec types.PaperRecord
		for i, f := range fields {
			if f != "" {
				rec.Set(f, row[i])
			}
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// parseJSONSnapshot reads an object mapping forum identifier to a field
// dictionary. Key order in the file is the record order.
func parseJSONSnapshot(r io.Reader) ([]types.PaperRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("snapshot must be an object keyed by forum id")
	}

	var records []types.PaperRecord
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return records, fmt.Errorf("reading snapshot key: %w", err)
		}
		id, _ := tok.(string)

		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return records, fmt.Errorf("decoding snapshot entry %q: %w", id, err)
		}

		rec := types.PaperRecord{}
		for k, v := range fields {
			if f := mapHeader(k); f != "" {
				rec.Set(f, scalarString(v))
			}
		}
		rec.ForumID = strings.TrimSpace(id)
		records = append(records, rec)
	}
	return records, nil
}

// parseForumIDs reads one identifier per line, ignoring blanks and # comments.
func parseForumIDs(r io.Reader) ([]types.PaperRecord, error) {
	var records []types.PaperRecord
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		records = append(records, types.PaperRecord{ForumID: line})
	}
	return records, sc.Err()
}

// formatForumIDs renders records as a forum_ids.txt body.
func formatForumIDs(records []types.PaperRecord) []byte {
	var b bytes.Buffer
	for _, r := range records {
		b.WriteString(r.ForumID)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
