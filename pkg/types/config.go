// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetryConfig bounds the linear retry loop used for downloads.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryDelay is the fixed wait between attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// Credentials authenticate against the OpenReview API. Both fields empty
// means anonymous access.
type Credentials struct {
	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	Password string `json:"-" yaml:"password,omitempty" mapstructure:"password"`
}

// CorpusConfig holds every setting of a corpus run.
type CorpusConfig struct {
	HTTPConfig  `yaml:",inline" mapstructure:",squash"`
	RetryConfig `yaml:",inline" mapstructure:",squash"`

	// DownloadRoot contains metadata.csv, pdfs/, reviews/, supplementary/, code/.
	DownloadRoot string `json:"download_root" yaml:"download_root" mapstructure:"download_root"`

	// SubmissionsURL is the conference submissions page.
	SubmissionsURL string `json:"submissions_url" yaml:"submissions_url" mapstructure:"submissions_url"`

	// APIBaseURL is the OpenReview API v2 endpoint.
	APIBaseURL string `json:"api_base_url" yaml:"api_base_url" mapstructure:"api_base_url"`

	// SiteBaseURL is the OpenReview web site used for forum pages.
	SiteBaseURL string `json:"site_base_url" yaml:"site_base_url" mapstructure:"site_base_url"`

	// RequestInterval is the minimum spacing between outbound requests.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval" mapstructure:"request_interval"`

	// PaperDelay is the pause between consecutive papers.
	PaperDelay time.Duration `json:"paper_delay" yaml:"paper_delay" mapstructure:"paper_delay"`

	// CloneTimeout bounds a single git clone (default 5m).
	CloneTimeout time.Duration `json:"clone_timeout" yaml:"clone_timeout" mapstructure:"clone_timeout"`

	SkipCode          bool `json:"skip_code" yaml:"skip_code" mapstructure:"skip_code"`
	SkipSupplementary bool `json:"skip_supplementary" yaml:"skip_supplementary" mapstructure:"skip_supplementary"`

	// Manifest enables the SQLite artifact ledger at DownloadRoot/manifest.db.
	Manifest bool `json:"manifest" yaml:"manifest" mapstructure:"manifest"`

	// Invitations are submission invitations queried when no snapshot and no
	// page yields identifiers.
	Invitations []string `json:"invitations,omitempty" yaml:"invitations,omitempty" mapstructure:"invitations"`

	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFile  string `json:"log_file,omitempty" yaml:"log_file,omitempty" mapstructure:"log_file"`

	Credentials Credentials `json:"credentials" yaml:"credentials" mapstructure:"credentials"`
}

// Default values for CorpusConfig.
const (
	DefaultDownloadRoot    = "downloads"
	DefaultSubmissionsURL  = "https://agents4science.stanford.edu/submissions.html"
	DefaultAPIBaseURL      = "https://api2.openreview.net"
	DefaultSiteBaseURL     = "https://openreview.net"
	DefaultUserAgent       = "openreview-corpus/0.1 (+https://openreview.net/)"
	DefaultTimeout         = 30 * time.Second
	DefaultRequestInterval = 300 * time.Millisecond
	DefaultPaperDelay      = 1 * time.Second
	DefaultMaxAttempts     = 3
	DefaultRetryDelay      = 2 * time.Second
	DefaultCloneTimeout    = 5 * time.Minute
	DefaultLogLevel        = "info"
)

// DefaultCorpusConfig returns a configuration with every default applied.
func DefaultCorpusConfig() CorpusConfig {
	return CorpusConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
		},
		RetryConfig: RetryConfig{
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetryDelay,
		},
		DownloadRoot:    DefaultDownloadRoot,
		SubmissionsURL:  DefaultSubmissionsURL,
		APIBaseURL:      DefaultAPIBaseURL,
		SiteBaseURL:     DefaultSiteBaseURL,
		RequestInterval: DefaultRequestInterval,
		PaperDelay:      DefaultPaperDelay,
		CloneTimeout:    DefaultCloneTimeout,
		LogLevel:        DefaultLogLevel,
	}
}

// Validate reports the first setting that cannot drive a run.
func (c CorpusConfig) Validate() error {
	if c.DownloadRoot == "" {
		return errors.New("download_root must not be empty")
	}
	for name, v := range map[string]string{
		"submissions_url": c.SubmissionsURL,
		"api_base_url":    c.APIBaseURL,
		"site_base_url":   c.SiteBaseURL,
	} {
		u, err := url.Parse(v)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, v)
		}
	}
	for name, d := range map[string]time.Duration{
		"timeout":          c.Timeout,
		"retry_delay":      c.RetryDelay,
		"request_interval": c.RequestInterval,
		"paper_delay":      c.PaperDelay,
		"clone_timeout":    c.CloneTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative, got %v", name, d)
		}
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative, got %d", c.MaxAttempts)
	}
	return nil
}
