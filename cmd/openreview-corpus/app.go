// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/openreview-corpus/internal/extract"
	"github.com/pdiddy/openreview-corpus/internal/httputil"
	"github.com/pdiddy/openreview-corpus/internal/layout"
	"github.com/pdiddy/openreview-corpus/internal/logging"
	"github.com/pdiddy/openreview-corpus/internal/openreview"
	"github.com/pdiddy/openreview-corpus/internal/secrets"
	"github.com/pdiddy/openreview-corpus/pkg/types"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg    types.CorpusConfig
	log    *logrus.Logger
	closer io.Closer
	layout *layout.Layout
	http   *httputil.Client
	api    *openreview.Client
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.New(cfg.LogLevel, cfg.LogFile, os.Stderr)
	if err != nil {
		return nil, err
	}

	httpc := &httputil.Client{
		HTTP:        &http.Client{Timeout: cfg.Timeout},
		Pacer:       httputil.NewPacer(cfg.RequestInterval),
		UserAgent:   cfg.UserAgent,
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
		Log:         log,
	}
	return &app{
		cfg:    cfg,
		log:    log,
		closer: closer,
		layout: layout.New(nil, cfg.DownloadRoot),
		http:   httpc,
		api: &openreview.Client{
			BaseURL:  cfg.APIBaseURL,
			HTTP:     httpc,
			Username: cfg.Credentials.Username,
			Password: cfg.Credentials.Password,
			Log:      log,
		},
	}, nil
}

// login authenticates when credentials are configured. A rejected login is
// logged and the run continues anonymously.
func (a *app) login(ctx context.Context) {
	if !a.api.HasCredentials() {
		a.log.Warnf("no OpenReview credentials (.secrets/%s or $%s); using anonymous access",
			secrets.KeyUsername, secrets.EnvUsername)
		return
	}
	if err := a.api.Login(ctx); err != nil {
		if errors.Is(err, openreview.ErrUnauthorized) {
			a.log.Warnf("OpenReview login rejected, continuing anonymously: %v", err)
		} else {
			a.log.Warnf("OpenReview login failed, continuing anonymously: %v", err)
		}
		a.api.Username, a.api.Password = "", ""
		return
	}
	a.log.Info("logged in to OpenReview")
}

func (a *app) extractor() *extract.Extractor {
	return &extract.Extractor{
		Layout:         a.layout,
		HTTP:           a.http,
		SubmissionsURL: a.cfg.SubmissionsURL,
		Lister:         a.api,
		Invitations:    a.cfg.Invitations,
		Log:            a.log,
	}
}

func (a *app) close() {
	if a.closer != nil {
		a.closer.Close()
	}
}
