// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata writes the combined metadata table for a corpus.
package metadata

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Tally counts records by acceptance status.
type Tally struct {
	Total    int
	Accepted int
	Rejected int
	Unknown  int
}

// Encode renders records as CSV with a header row in types.Columns order.
func Encode(records []types.PaperRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(types.Columns); err != nil {
		return nil, err
	}
	row := make([]string, len(types.Columns))
	for i := range records {
		for j, col := range types.Columns {
			row[j] = records[i].Field(col)
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write replaces metadata.csv under the layout root with the full record
// list. The file is never appended to; each call produces a complete snapshot.
func Write(l *layout.Layout, records []types.PaperRecord) (Tally, error) {
	data, err := Encode(records)
	if err != nil {
		return Tally{}, fmt.Errorf("encoding metadata: %w", err)
	}
	if err := l.WriteFile(l.Path(layout.MetadataFile), data); err != nil {
		return Tally{}, fmt.Errorf("writing metadata: %w", err)
	}
	return Count(records), nil
}

// Count tallies records by status.
func Count(records []types.PaperRecord) Tally {
	t := Tally{Total: len(records)}
	for _, r := range records {
		switch r.Status {
		case types.StatusAccepted:
			t.Accepted++
		case types.StatusRejected:
			t.Rejected++
		default:
			t.Unknown++
		}
	}
	return t
}
