// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-corpus/internal/metadata"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the paper list and write metadata.csv without downloading",
	Long: `Extract locates the submissions table (local snapshot, submissions page,
its data CSV, forum links, or invitations) and writes metadata.csv and
forum_ids.txt. No per-paper artifacts are fetched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.layout.Prepare(); err != nil {
			return err
		}
		a.login(ctx)

		res, err := a.extractor().Extract(ctx)
		if err != nil {
			return err
		}
		tally, err := metadata.Write(a.layout, res.Records)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "source:   %s\n", res.Source)
		fmt.Fprintf(w, "papers:   %d (%d accepted, %d rejected, %d other)\n",
			tally.Total, tally.Accepted, tally.Rejected, tally.Unknown)
		fmt.Fprintf(w, "skipped:  %d rows\n", res.Skipped)

		if ids, _ := cmd.Flags().GetBool("ids"); ids {
			for _, r := range res.Records {
				fmt.Fprintln(w, r.ForumID)
			}
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().Bool("ids", false, "print the extracted forum ids")
	rootCmd.AddCommand(extractCmd)
}
