// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clone

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pdiddy/openreview-corpus/internal/codelink"
	"github.com/pdiddy/openreview-corpus/internal/layout"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockExecutor records calls and runs a configurable function.
type mockExecutor struct {
	mu      sync.Mutex
	noGit   bool
	calls   [][]string
	runFunc func(ctx context.Context, args []string) ([]byte, error)
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.noGit {
		return "", errors.New("not found: " + file)
	}
	return "/usr/bin/" + file, nil
}

func (m *mockExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.mu.Unlock()
	if m.runFunc != nil {
		return m.runFunc(ctx, args)
	}
	return nil, nil
}

func newCloner(t *testing.T, ex *mockExecutor) (*Cloner, string) {
	t.Helper()
	root := t.TempDir()
	l := layout.New(nil, root)
	require.NoError(t, l.Prepare())
	log, _ := test.NewNullLogger()
	c := New(l, time.Second, log)
	c.exec = ex
	return c, root
}

func TestCloneRunsShallowGitClone(t *testing.T) {
	ex := &mockExecutor{runFunc: func(_ context.Context, args []string) ([]byte, error) {
		return nil, os.MkdirAll(args[len(args)-1], 0o755)
	}}
	c, root := newCloner(t, ex)

	link := codelink.Classify("git@github.com:owner/repo.git")
	res, err := c.Clone(context.Background(), "f1", link)
	require.NoError(t, err)
	assert.False(t, res.Existing)

	dest := filepath.Join(root, "code", "f1")
	require.Len(t, ex.calls, 1)
	assert.Equal(t, []string{"git", "clone", "--depth", "1", "--quiet", "https://github.com/owner/repo", dest}, ex.calls[0])
	assert.DirExists(t, dest)
}

func TestCloneNonRepositoryMakesNoCall(t *testing.T) {
	ex := &mockExecutor{}
	c, _ := newCloner(t, ex)

	for _, raw := range []string{
		"",
		"https://openreview.net/attachment?id=f1&name=code",
		"https://huggingface.co/spaces/x/y",
	} {
		_, err := c.Clone(context.Background(), "f1", codelink.Classify(raw))
		assert.ErrorIs(t, err, ErrNotRepository, raw)
	}
	assert.Empty(t, ex.calls)
}

func TestCloneExistingDirectorySkipped(t *testing.T) {
	ex := &mockExecutor{}
	c, root := newCloner(t, ex)
	dest := filepath.Join(root, "code", "f1")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "README"), []byte("keep"), 0o644))

	res, err := c.Clone(context.Background(), "f1", codelink.Classify("https://github.com/o/r"))
	require.NoError(t, err)
	assert.True(t, res.Existing)
	assert.Empty(t, ex.calls)
	assert.FileExists(t, filepath.Join(dest, "README"))
}

func TestCloneFailureRemovesPartialDirectory(t *testing.T) {
	ex := &mockExecutor{runFunc: func(_ context.Context, args []string) ([]byte, error) {
		dest := args[len(args)-1]
		os.MkdirAll(filepath.Join(dest, ".git"), 0o755)
		return []byte("fatal: repository 'https://github.com/o/gone/' not found\n"), errors.New("exit status 128")
	}}
	c, root := newCloner(t, ex)

	_, err := c.Clone(context.Background(), "f1", codelink.Classify("https://github.com/o/gone"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoDirExists(t, filepath.Join(root, "code", "f1"))
}

func TestCloneTimeout(t *testing.T) {
	ex := &mockExecutor{runFunc: func(ctx context.Context, args []string) ([]byte, error) {
		os.MkdirAll(args[len(args)-1], 0o755)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c, root := newCloner(t, ex)
	c.Timeout = 20 * time.Millisecond

	_, err := c.Clone(context.Background(), "f1", codelink.Classify("https://github.com/o/huge"))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timed out"), err.Error())
	assert.NoDirExists(t, filepath.Join(root, "code", "f1"))
}

func TestCloneParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ex := &mockExecutor{runFunc: func(ctx context.Context, _ []string) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c, _ := newCloner(t, ex)

	_, err := c.Clone(ctx, "f1", codelink.Classify("https://github.com/o/r"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloneGitMissing(t *testing.T) {
	ex := &mockExecutor{noGit: true}
	c, _ := newCloner(t, ex)
	assert.False(t, c.Available())

	_, err := c.Clone(context.Background(), "f1", codelink.Classify("https://github.com/o/r"))
	assert.ErrorIs(t, err, ErrGitNotFound)
	assert.Empty(t, ex.calls)
}

func TestOSExecutorCapturesStderr(t *testing.T) {
	if _, err := (&osExecutor{}).LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	stderr, err := (&osExecutor{}).Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "boom", strings.TrimSpace(string(stderr)))
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", stderrLimit+10)
	assert.Len(t, snippet([]byte(long)), stderrLimit+3)
	assert.Equal(t, "ok", snippet([]byte("  ok\n")))
}
