package contract

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipIfGitNotAvailable skips the test if git binary is not found in PATH
func skipIfGitNotAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}
}

// initSourceRepo creates a repository with one commit on main and on each extra branch,
// and returns a file:// URL for it.
func initSourceRepo(t *testing.T, extraBranches ...string) string {
	t.Helper()
	dir := t.TempDir()
	git := func(args ...string) {
		full := append([]string{"-C", dir, "-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)
		out, err := exec.Command("git", full...).CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q")
	git("symbolic-ref", "HEAD", "refs/heads/main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte("print('hi')\n"), 0o644))
	git("add", ".")
	git("commit", "-q", "-m", "init")
	for _, b := range extraBranches {
		git("branch", b)
	}
	return "file://" + dir
}

func TestMockGitClient_Run(t *testing.T) {
	mockClient := new(MockGitClient)
	ctx := context.Background()
	expectedErr := errors.New("mocked git error")

	mockClient.On("Run", ctx, "/path/to/repo", "log", "-1").Return([]byte("a1b2c3d"), expectedErr).Once()

	out, err := mockClient.Run(ctx, "/path/to/repo", "log", "-1")
	assert.Equal(t, []byte("a1b2c3d"), out)
	assert.Equal(t, expectedErr, err)
	mockClient.AssertExpectations(t)
}

func TestNewLocalGitClient(t *testing.T) {
	client := NewLocalGitClient()
	assert.NotNil(t, client, "NewLocalGitClient should return a non-nil client")
	assert.IsType(t, &LocalGitClient{}, client)
}

func TestParseRemoteHeads(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "empty output",
			output: "",
			want:   nil,
		},
		{
			name: "several heads keep remote order",
			output: "1111111111111111111111111111111111111111\trefs/heads/develop\n" +
				"2222222222222222222222222222222222222222\trefs/heads/feature/login\n" +
				"3333333333333333333333333333333333333333\trefs/heads/master\n",
			want: []string{"develop", "feature/login", "master"},
		},
		{
			name: "ignores tags and junk lines",
			output: "warning: redirecting to https://example.com\n" +
				"4444444444444444444444444444444444444444\trefs/tags/v1.0\n" +
				"5555555555555555555555555555555555555555\trefs/heads/trunk\n",
			want: []string{"trunk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRemoteHeads(tt.output))
		})
	}
}

func TestGitError_BranchNotFound(t *testing.T) {
	notFound := &GitError{
		Args:   []string{"clone"},
		Stderr: "warning: Could not find remote branch dev to clone.\nfatal: Remote branch dev not found in upstream origin",
	}
	assert.ErrorIs(t, notFound, ErrBranchNotFound)

	wrapped := &RetrievalError{Op: "clone", Err: notFound}
	assert.ErrorIs(t, wrapped, ErrBranchNotFound)

	other := &GitError{Args: []string{"clone"}, Stderr: "fatal: repository 'https://example.com/x' not found"}
	assert.NotErrorIs(t, other, ErrBranchNotFound)
}

func TestLocalGitClient_Run(t *testing.T) {
	skipIfGitNotAvailable(t)

	client := NewLocalGitClient()
	_, err := client.Run(context.Background(), t.TempDir(), "invalid-command")
	require.Error(t, err)

	var gitErr *GitError
	assert.ErrorAs(t, err, &gitErr)
}

func TestLocalGitClient_CloneBranch(t *testing.T) {
	skipIfGitNotAvailable(t)

	url := initSourceRepo(t)
	client := NewLocalGitClient()
	ctx := context.Background()

	t.Run("existing branch", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "checkout")
		require.NoError(t, client.CloneBranch(ctx, url, "main", dest))
		assert.FileExists(t, filepath.Join(dest, "app.py"))
	})

	t.Run("missing branch", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "checkout")
		err := client.CloneBranch(ctx, url, "does-not-exist", dest)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrBranchNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := client.CloneBranch(cancelled, url, "main", filepath.Join(t.TempDir(), "checkout"))
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocalGitClient_ListRemoteHeads(t *testing.T) {
	skipIfGitNotAvailable(t)

	url := initSourceRepo(t, "develop", "feature/login")
	heads, err := NewLocalGitClient().ListRemoteHeads(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []string{"develop", "feature/login", "main"}, heads)
}
