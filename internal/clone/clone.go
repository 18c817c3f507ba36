// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clone makes shallow git clones of paper code repositories into
// code/<id>. A failed or timed out clone leaves no directory behind.
package clone

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/openreview-corpus/internal/codelink"
	"github.com/pdiddy/openreview-corpus/internal/layout"
)

const (
	binGit = "git"

	// DefaultTimeout bounds a single clone.
	DefaultTimeout = 5 * time.Minute

	stderrLimit = 400
)

var (
	// ErrNotRepository is returned for links that are not clonable repositories.
	ErrNotRepository = errors.New("code link is not a repository")
	// ErrGitNotFound is returned when no git binary is on PATH.
	ErrGitNotFound = errors.New("git not found on PATH")
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	// Run executes name with args and returns its stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	// Never block on a credential prompt for private repositories.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	err := cmd.Run()
	return stderr.Bytes(), err
}

var defaultExec executor = &osExecutor{}

// Result describes a cloned repository.
type Result struct {
	Path     string
	Existing bool
}

// Cloner clones repositories below a corpus layout.
type Cloner struct {
	Layout  *layout.Layout
	Timeout time.Duration
	Log     logrus.FieldLogger

	exec executor
}

// New returns a Cloner that runs the system git.
func New(l *layout.Layout, timeout time.Duration, log logrus.FieldLogger) *Cloner {
	return &Cloner{Layout: l, Timeout: timeout, Log: log, exec: defaultExec}
}

// Available reports whether git is on PATH.
func (c *Cloner) Available() bool {
	_, err := c.executor().LookPath(binGit)
	return err == nil
}

// Clone runs git clone --depth 1 for a repository link into code/<id>. Only
// KindRepository links are cloned; anything else returns ErrNotRepository
// without running a command. An existing target directory counts as done.
func (c *Cloner) Clone(ctx context.Context, forumID string, link codelink.Link) (Result, error) {
	if link.Kind != codelink.KindRepository {
		return Result{}, ErrNotRepository
	}

	dest := c.Layout.CodePath(forumID)
	log := c.logger().WithField("forum", forumID)
	if c.Layout.Exists(dest) {
		log.Debug("code repository already present")
		return Result{Path: dest, Existing: true}, nil
	}

	ex := c.executor()
	if _, err := ex.LookPath(binGit); err != nil {
		return Result{}, ErrGitNotFound
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stderr, err := ex.Run(cctx, binGit, "clone", "--depth", "1", "--quiet", link.URL, dest)
	if err != nil {
		if rmErr := c.Layout.RemoveAll(dest); rmErr != nil {
			log.Warnf("removing partial clone %s: %v", dest, rmErr)
		}
		switch {
		case ctx.Err() != nil:
			return Result{}, ctx.Err()
		case errors.Is(cctx.Err(), context.DeadlineExceeded):
			return Result{}, fmt.Errorf("cloning %s: timed out after %v", link.URL, timeout)
		}
		if msg := snippet(stderr); msg != "" {
			return Result{}, fmt.Errorf("cloning %s: %w: %s", link.URL, err, msg)
		}
		return Result{}, fmt.Errorf("cloning %s: %w", link.URL, err)
	}

	log.Debugf("cloned %s", link.URL)
	return Result{Path: dest}, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > stderrLimit {
		s = s[:stderrLimit] + "..."
	}
	return s
}

func (c *Cloner) executor() executor {
	if c.exec != nil {
		return c.exec
	}
	return defaultExec
}

func (c *Cloner) logger() logrus.FieldLogger {
	if c.Log != nil {
		return c.Log
	}
	return logrus.StandardLogger()
}
