// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/openreview-corpus/pkg/types"
)

func TestConfigCommand(t *testing.T) {
	t.Setenv("OPENREVIEW_CORPUS_DOWNLOAD_ROOT", "/tmp/corpus")
	t.Setenv("OPENREVIEW_CORPUS_PAPER_DELAY", "250ms")
	t.Setenv("OPENREVIEW_USERNAME", "ada@example.com")
	t.Setenv("OPENREVIEW_PASSWORD", "secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--max-attempts", "5"})
	require.NoError(t, rootCmd.Execute())

	assert.NotContains(t, out.String(), "secret")

	var cfg types.CorpusConfig
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
	assert.Equal(t, "/tmp/corpus", cfg.DownloadRoot)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "250ms", cfg.PaperDelay.String())
	assert.Equal(t, types.DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, "ada@example.com", cfg.Credentials.Username)
	assert.Equal(t, redacted, cfg.Credentials.Password)
}
