// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/internal/manifest"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [forum-id]",
	Short: "Show artifact outcomes recorded in the manifest",
	Long: `Status reads <download-root>/manifest.db, written by "run --manifest", and
prints the totals of the last run and artifact counts by category and status.
With a forum id it lists that paper's artifacts instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l := layout.New(nil, cfg.DownloadRoot)
		path := l.Path(layout.ManifestFile)
		if !l.Exists(path) {
			return fmt.Errorf("no manifest at %s; run with --manifest first", path)
		}
		store, err := manifest.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer tw.Flush()

		if len(args) == 1 {
			arts, err := store.Artifacts(ctx, args[0])
			if err != nil {
				return err
			}
			if len(arts) == 0 {
				return fmt.Errorf("no manifest entries for %s", args[0])
			}
			fmt.Fprintln(tw, "ARTIFACT\tSTATUS\tPATH\tDETAIL")
			for _, a := range arts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Category, a.Status, a.Path, a.Detail)
			}
			return nil
		}

		runID, last, err := store.LastRun(ctx)
		if err != nil {
			return err
		}
		if runID != "" {
			fmt.Fprintf(tw, "last run %s: %d papers, %d pdfs, %d reviews, %d supplementary, %d repos, %d failed\n\n",
				runID, last.Papers, last.PDFs, last.Reviews, last.Supplementary, last.Repos, last.Failed)
		}
		counts, err := store.StatusCounts(ctx)
		if err != nil {
			return err
		}
		statuses := []manifest.Status{manifest.StatusSaved, manifest.StatusExisting, manifest.StatusSkipped, manifest.StatusFailed}
		fmt.Fprint(tw, "ARTIFACT")
		for _, s := range statuses {
			fmt.Fprintf(tw, "\t%s", s)
		}
		fmt.Fprintln(tw)
		for _, c := range types.Categories {
			fmt.Fprint(tw, c)
			for _, s := range statuses {
				fmt.Fprintf(tw, "\t%d", counts[c][s])
			}
			fmt.Fprintln(tw)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
