// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

func sampleRecords() []types.PaperRecord {
	return []types.PaperRecord{
		{
			ForumID:          "abc",
			Title:            `A "quoted", comma title`,
			Status:           types.StatusAccepted,
			HumanReviewScore: types.ParseScore("4"),
			CodeLink:         "https://github.com/o/r",
		},
		{ForumID: "def", Title: "Second", Status: types.StatusRejected},
		{ForumID: "ghi", Title: "Third"},
	}
}

func TestWriteFixedColumnOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := layout.New(fs, "downloads")

	tally, err := Write(l, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, Tally{Total: 3, Accepted: 1, Rejected: 1, Unknown: 1}, tally)

	data, err := afero.ReadFile(fs, "downloads/metadata.csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, types.Columns, rows[0])
	assert.Equal(t, "abc", rows[1][0])
	assert.Equal(t, `A "quoted", comma title`, rows[1][1])
	assert.Equal(t, "Accepted", rows[1][3])
	assert.Equal(t, "4", rows[1][6])
	assert.Equal(t, "https://github.com/o/r", rows[1][13])
	assert.Equal(t, "", rows[3][3])
}

func TestWriteReplacesWholeFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := layout.New(fs, "downloads")

	_, err := Write(l, sampleRecords())
	require.NoError(t, err)
	_, err = Write(l, sampleRecords()[:1])
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "downloads/metadata.csv")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2, "second write must not append")
}

func TestWriteEmpty(t *testing.T) {
	fs := afero.NewMemMapFs()
	tally, err := Write(layout.New(fs, "out"), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Total)

	data, err := afero.ReadFile(fs, "out/metadata.csv")
	require.NoError(t, err)
	assert.Equal(t, strings.Join(types.Columns, ",")+"\n", string(data))
}

func TestWriteKeepsStatusText(t *testing.T) {
	fs := afero.NewMemMapFs()
	var records []types.PaperRecord
	for i, s := range []string{"Accept (Oral)", "Reject (Desk)", "Withdrawn"} {
		var r types.PaperRecord
		r.Set(types.FieldForumID, string(rune('a'+i)))
		r.Set(types.FieldStatus, s)
		records = append(records, r)
	}

	tally, err := Write(layout.New(fs, "out"), records)
	require.NoError(t, err)
	assert.Equal(t, Tally{Total: 3, Accepted: 1, Rejected: 1, Unknown: 1}, tally)

	data, err := afero.ReadFile(fs, "out/metadata.csv")
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Accept (Oral)", rows[1][3])
	assert.Equal(t, "Reject (Desk)", rows[2][3])
	assert.Equal(t, "Withdrawn", rows[3][3])
}
