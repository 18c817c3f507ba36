// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/openreview-corpus/internal/extract"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// Summary accumulates the outcome of a run. The five headline counters count
// artifacts present after the run, whether fetched now or found on disk.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Source   extract.Source

	Papers        int
	PDFs          int
	Reviews       int
	Supplementary int
	Repos         int

	Failed   map[types.Category]int
	Existing map[types.Category]int

	// Interrupted is set when the context was cancelled before every paper
	// was processed.
	Interrupted bool
}

func newSummary(runID string, started time.Time) Summary {
	return Summary{
		RunID:    runID,
		Started:  started,
		Failed:   make(map[types.Category]int),
		Existing: make(map[types.Category]int),
	}
}

func (s *Summary) saved(c types.Category, existing bool) {
	switch c {
	case types.CategoryPDF:
		s.PDFs++
	case types.CategoryReview:
		s.Reviews++
	case types.CategorySupplementary:
		s.Supplementary++
	case types.CategoryCode:
		s.Repos++
	}
	if existing {
		s.Existing[c]++
	}
}

// TotalFailed sums failures over all categories.
func (s *Summary) TotalFailed() int {
	n := 0
	for _, v := range s.Failed {
		n += v
	}
	return n
}

// Print writes the run summary block.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "========== SCRAPE SUMMARY ==========")
	fmt.Fprintf(w, "Papers processed:     %d\n", s.Papers)
	fmt.Fprintf(w, "PDFs downloaded:      %d\n", s.PDFs)
	fmt.Fprintf(w, "Review JSON files:    %d\n", s.Reviews)
	fmt.Fprintf(w, "Supplementary files:  %d\n", s.Supplementary)
	fmt.Fprintf(w, "GitHub repos cloned:  %d\n", s.Repos)
	fmt.Fprintf(w, "Failures:             %s\n", perCategory(s.Failed))
	fmt.Fprintf(w, "Already present:      %s\n", perCategory(s.Existing))
	if s.Interrupted {
		fmt.Fprintln(w, "Run interrupted before all papers were processed.")
	}
}

func perCategory(m map[types.Category]int) string {
	parts := make([]string, 0, len(types.Categories))
	for _, c := range types.Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", c, m[c]))
	}
	return strings.Join(parts, " ")
}
