//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Scrape builds the CLI and runs a full corpus build into downloads/.
func Scrape() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "run", "--download-root", downloadRoot)
}

// Extract builds the CLI and writes downloads/metadata.csv only.
func Extract() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "extract", "--download-root", downloadRoot)
}

// Corpus prints how many artifacts of each kind are on disk under downloads/.
func Corpus() error {
	for _, dir := range corpusDirs {
		entries, err := os.ReadDir(filepath.Join(downloadRoot, dir))
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("%-14s %d\n", dir+":", 0)
				continue
			}
			return err
		}
		n := 0
		for _, e := range entries {
			if !strings.HasPrefix(e.Name(), ".") {
				n++
			}
		}
		fmt.Printf("%-14s %d\n", dir+":", n)
	}
	return nil
}
