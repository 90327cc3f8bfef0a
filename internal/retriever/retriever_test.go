package retriever

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testURL = "https://example.com/org/app.git"

var branchNotFound = &contract.GitError{
	Args:   []string{"clone"},
	Stderr: "fatal: Remote branch main not found in upstream origin",
}

// noSleep is a retry policy that never waits.
func noSleep(attempts int) contract.RetryPolicy {
	return contract.RetryPolicy{Attempts: attempts, Delay: time.Second, Sleep: func(time.Duration) {}}
}

// writeCheckout simulates a clone by creating a file in the destination.
func writeCheckout(t *testing.T, name string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		dest := args.String(3)
		require.NoError(t, os.WriteFile(filepath.Join(dest, name), []byte("x"), 0o644))
	}
}

func TestTargetPath(t *testing.T) {
	r := New(new(contract.MockGitClient), "/work")

	path, err := r.TargetPath(testURL)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "app"), path)

	again, err := r.TargetPath("git@example.com:other/app")
	require.NoError(t, err)
	assert.Equal(t, path, again, "same repository name maps to the same path")

	_, err = r.TargetPath("")
	assert.ErrorIs(t, err, contract.ErrInvalidRepository)
}

func TestRetrieve_RequestedBranch(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	client := new(contract.MockGitClient)
	target := filepath.Join(workDir, "app")

	client.On("CloneBranch", ctx, testURL, "develop", target).Run(writeCheckout(t, "main.go")).Return(nil).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "develop"})
	require.NoError(t, err)

	assert.Equal(t, &contract.WorkingCopy{Root: target, Repository: testURL, Branch: "develop"}, wc)
	assert.FileExists(t, filepath.Join(target, "main.go"))
	client.AssertNotCalled(t, "ListRemoteHeads", mock.Anything, mock.Anything)

	require.NoError(t, r.Release(wc))
	assert.NoDirExists(t, target)
	client.AssertExpectations(t)
}

func TestRetrieve_DefaultsToMain(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	client := new(contract.MockGitClient)
	client.On("CloneBranch", ctx, testURL, "main", mock.Anything).Return(nil).Once()

	r := New(client, workDir)
	wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL})
	require.NoError(t, err)
	assert.Equal(t, "main", wc.Branch)
	require.NoError(t, r.Release(wc))
}

func TestRetrieve_ClearsStaleCheckout(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	target := filepath.Join(workDir, "app")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "old"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "old", "stale.txt"), []byte("x"), 0o644))

	client := new(contract.MockGitClient)
	client.On("CloneBranch", ctx, testURL, "main", target).Run(func(args mock.Arguments) {
		entries, err := os.ReadDir(args.String(3))
		require.NoError(t, err)
		assert.Empty(t, entries, "clone must start from an empty directory")
	}).Return(nil).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.NoError(t, err)
	require.NoError(t, r.Release(wc))
}

func TestRetrieve_FallbackBranches(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	target := filepath.Join(workDir, "app")
	client := new(contract.MockGitClient)

	client.On("CloneBranch", ctx, testURL, "main", target).Return(branchNotFound).Once()
	client.On("ListRemoteHeads", ctx, testURL).Return([]string{"develop", "main", "master"}, nil).Once()
	client.On("CloneBranch", ctx, testURL, "develop", target).
		Run(writeCheckout(t, "partial")).
		Return(errors.New("network reset")).Once()
	client.On("CloneBranch", ctx, testURL, "master", target).Run(func(args mock.Arguments) {
		entries, err := os.ReadDir(args.String(3))
		require.NoError(t, err)
		assert.Empty(t, entries, "each fallback attempt starts from a reset directory")
	}).Return(nil).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, "master", wc.Branch)

	require.NoError(t, r.Release(wc))
	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "CloneBranch", 3)
}

func TestRetrieve_NoClonableBranch(t *testing.T) {
	tests := []struct {
		name  string
		heads []string
	}{
		{"no heads at all", nil},
		{"every head fails", []string{"develop", "release/1.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			workDir := t.TempDir()
			target := filepath.Join(workDir, "app")
			client := new(contract.MockGitClient)

			client.On("CloneBranch", ctx, testURL, "main", target).Return(branchNotFound).Once()
			client.On("ListRemoteHeads", ctx, testURL).Return(tt.heads, nil).Once()
			for _, h := range tt.heads {
				client.On("CloneBranch", ctx, testURL, h, target).Return(errors.New("boom")).Once()
			}

			r := New(client, workDir, WithRetryPolicy(noSleep(3)))
			wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
			require.Error(t, err)
			assert.Nil(t, wc)
			assert.ErrorIs(t, err, contract.ErrNoClonableBranch)

			var retrievalErr *contract.RetrievalError
			require.ErrorAs(t, err, &retrievalErr)
			assert.Equal(t, testURL, retrievalErr.URL)
			assert.NoDirExists(t, target)
			client.AssertExpectations(t)
		})
	}
}

func TestRetrieve_OtherCloneFailureDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	target := filepath.Join(workDir, "app")
	client := new(contract.MockGitClient)

	authErr := &contract.GitError{Args: []string{"clone"}, Stderr: "fatal: Authentication failed"}
	client.On("CloneBranch", ctx, testURL, "main", target).Run(writeCheckout(t, "partial")).Return(authErr).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	_, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.Error(t, err)
	assert.ErrorIs(t, err, authErr)
	assert.NotErrorIs(t, err, contract.ErrNoClonableBranch)
	assert.NoDirExists(t, target)
	client.AssertNotCalled(t, "ListRemoteHeads", mock.Anything, mock.Anything)
}

func TestRetrieve_ListRemoteFailure(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	client := new(contract.MockGitClient)
	client.On("CloneBranch", ctx, testURL, "main", mock.Anything).Return(branchNotFound).Once()
	client.On("ListRemoteHeads", ctx, testURL).Return(nil, errors.New("unreachable")).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	_, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})

	var retrievalErr *contract.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "ls-remote", retrievalErr.Op)
	assert.NoDirExists(t, filepath.Join(workDir, "app"))
}

func TestRetrieve_ResetFailure(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	target := filepath.Join(workDir, "app")
	require.NoError(t, os.MkdirAll(target, 0o755))

	removeCalls := 0
	sleeps := 0
	policy := contract.RetryPolicy{Attempts: 3, Delay: time.Second, Sleep: func(time.Duration) { sleeps++ }}
	remover := func(string) error {
		removeCalls++
		return errors.New("device busy")
	}

	client := new(contract.MockGitClient)
	r := New(client, workDir, WithRetryPolicy(policy), WithRemover(remover))
	_, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})

	var retrievalErr *contract.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "reset", retrievalErr.Op)
	// Three attempts for the reset plus three for the cleanup.
	assert.Equal(t, 6, removeCalls)
	assert.Equal(t, 4, sleeps)
	client.AssertNotCalled(t, "CloneBranch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRetrieve_RemovalRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	target := filepath.Join(workDir, "app")
	require.NoError(t, os.MkdirAll(target, 0o755))

	failures := 1
	remover := func(path string) error {
		if failures > 0 {
			failures--
			return errors.New("transient")
		}
		return os.RemoveAll(path)
	}

	client := new(contract.MockGitClient)
	client.On("CloneBranch", ctx, testURL, "main", target).Return(nil).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)), WithRemover(remover))
	wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.NoError(t, err)
	require.NoError(t, r.Release(wc))
}

func TestRelease_RemovesReadOnlyTree(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	client := new(contract.MockGitClient)
	client.On("CloneBranch", ctx, testURL, "main", mock.Anything).Run(func(args mock.Arguments) {
		objects := filepath.Join(args.String(3), ".git", "objects")
		require.NoError(t, os.MkdirAll(objects, 0o755))
		pack := filepath.Join(objects, "pack.idx")
		require.NoError(t, os.WriteFile(pack, []byte("x"), 0o444))
		require.NoError(t, os.Chmod(objects, 0o555))
	}).Return(nil).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.NoError(t, err)

	require.NoError(t, r.Release(wc))
	assert.NoDirExists(t, wc.Root)
}

func TestRelease_Nil(t *testing.T) {
	assert.NoError(t, New(new(contract.MockGitClient), t.TempDir()).Release(nil))
}

func TestRetrieve_SerializesSameRepository(t *testing.T) {
	ctx := context.Background()
	workDir := t.TempDir()
	client := new(contract.MockGitClient)
	client.On("CloneBranch", mock.Anything, testURL, "main", mock.Anything).Return(nil)

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	first, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.NoError(t, err)

	secondDone := make(chan *contract.WorkingCopy)
	go func() {
		wc, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
		assert.NoError(t, err)
		secondDone <- wc
	}()

	select {
	case <-secondDone:
		t.Fatal("second retrieval of the same repository must wait for the first release")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, r.Release(first))

	select {
	case second := <-secondDone:
		require.NotNil(t, second)
		require.NoError(t, r.Release(second))
	case <-time.After(5 * time.Second):
		t.Fatal("second retrieval never proceeded")
	}
}

func TestRetrieve_LockHonorsContext(t *testing.T) {
	workDir := t.TempDir()
	client := new(contract.MockGitClient)
	client.On("CloneBranch", mock.Anything, testURL, "main", mock.Anything).Return(nil).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	first, err := r.Retrieve(context.Background(), schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.NoError(t, err)
	defer func() { _ = r.Release(first) }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})

	var retrievalErr *contract.RetrievalError
	require.ErrorAs(t, err, &retrievalErr)
	assert.Equal(t, "lock", retrievalErr.Op)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.DirExists(t, first.Root, "a waiting scan must not touch the active checkout")
}

func TestRetrieve_CancelledCloneCleansUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	workDir := t.TempDir()
	target := filepath.Join(workDir, "app")
	client := new(contract.MockGitClient)
	client.On("CloneBranch", ctx, testURL, "main", target).Run(func(mock.Arguments) { cancel() }).
		Return(&contract.GitError{Args: []string{"clone"}, Err: context.Canceled}).Once()

	r := New(client, workDir, WithRetryPolicy(noSleep(3)))
	_, err := r.Retrieve(ctx, schema.RepositoryReference{URL: testURL, Branch: "main"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, target)
	client.AssertNotCalled(t, "ListRemoteHeads", mock.Anything, mock.Anything)
}

func TestRetrieve_LocalGitFallback(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skipf("git binary not found in PATH: %v", err)
	}

	// Source repository whose only branch is master.
	src := filepath.Join(t.TempDir(), "legacy")
	require.NoError(t, os.MkdirAll(src, 0o755))
	git := func(args ...string) {
		full := append([]string{"-C", src, "-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)
		out, err := exec.Command("git", full...).CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q")
	git("symbolic-ref", "HEAD", "refs/heads/master")
	require.NoError(t, os.WriteFile(filepath.Join(src, "app.py"), []byte("import os\n"), 0o644))
	git("add", ".")
	git("commit", "-q", "-m", "init")

	r := New(contract.NewLocalGitClient(), t.TempDir(), WithRetryPolicy(noSleep(3)))
	wc, err := r.Retrieve(context.Background(), schema.RepositoryReference{URL: "file://" + src, Branch: "main"})
	require.NoError(t, err)
	assert.Equal(t, "master", wc.Branch)
	assert.Equal(t, "legacy", filepath.Base(wc.Root))
	assert.FileExists(t, filepath.Join(wc.Root, "app.py"))

	require.NoError(t, r.Release(wc))
	assert.NoDirExists(t, wc.Root)
}
