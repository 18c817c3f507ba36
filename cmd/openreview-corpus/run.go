// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/openreview-corpus/internal/acquire"
	"github.com/pdiddy/openreview-corpus/internal/clone"
	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/internal/manifest"
	"github.com/pdiddy/openreview-corpus/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build or resume the corpus",
	Long: `Run extracts the paper list, writes metadata.csv, and then fetches the review
history, PDF, supplementary material, and code repository of every paper.
Artifacts already on disk are skipped, so an interrupted run can simply be
started again. A per-paper failure is logged and counted, never fatal.

Press Ctrl-C to stop after the current stage; the partial summary is printed.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Duration("paper-delay", 0, "pause between consecutive papers (default 1s)")
	runCmd.Flags().Duration("clone-timeout", 0, "timeout for one git clone (default 5m)")
	runCmd.Flags().Bool("skip-code", false, "do not clone code repositories")
	runCmd.Flags().Bool("skip-supplementary", false, "do not download supplementary material")
	runCmd.Flags().Bool("manifest", false, "record per-artifact outcomes in <download-root>/manifest.db")
	runCmd.Flags().Bool("strict", false, "exit non-zero when no paper identifiers are found")

	bindFlags(runCmd.Flags(), map[string]string{
		"paper_delay":        "paper-delay",
		"clone_timeout":      "clone-timeout",
		"skip_code":          "skip-code",
		"skip_supplementary": "skip-supplementary",
		"manifest":           "manifest",
	})

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
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

	p := &pipeline.Pipeline{
		Layout:    a.layout,
		Extractor: a.extractor(),
		Fetcher: &acquire.Fetcher{
			Layout:      a.layout,
			HTTP:        a.http,
			Notes:       a.api,
			APIBaseURL:  a.cfg.APIBaseURL,
			SiteBaseURL: a.cfg.SiteBaseURL,
			Log:         a.log,
		},
		PaperDelay:        a.cfg.PaperDelay,
		SkipCode:          a.cfg.SkipCode,
		SkipSupplementary: a.cfg.SkipSupplementary,
		Log:               a.log,
	}

	if !a.cfg.SkipCode {
		cloner := clone.New(a.layout, a.cfg.CloneTimeout, a.log)
		if !cloner.Available() {
			a.log.Warn("git not found on PATH; repository clones will fail")
		}
		p.Cloner = cloner
	}

	if a.cfg.Manifest {
		store, err := manifest.Open(a.layout.Path(layout.ManifestFile))
		if err != nil {
			return err
		}
		defer store.Close()
		p.Recorder = store
	}

	sum, err := p.Run(ctx)
	if err != nil {
		return err
	}
	sum.Print(cmd.OutOrStdout())

	if sum.Interrupted {
		a.log.Warn("run interrupted; rerun to resume")
	}
	strict, _ := cmd.Flags().GetBool("strict")
	if strict && !sum.Interrupted && sum.Papers == 0 {
		return errors.New("no paper identifiers found")
	}
	if a.cfg.Manifest {
		a.log.Infof("manifest updated at %s (run %s)", a.layout.Path(layout.ManifestFile), sum.RunID)
	}
	return nil
}
