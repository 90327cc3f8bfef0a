package contract

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Substrings git prints when the requested branch does not exist on the remote.
var branchNotFoundMarkers = []string{
	"not found in upstream",
	"could not find remote branch",
}

// GitError is a failed git invocation with its captured stderr.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), e.Stderr)
}

func (e *GitError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrBranchNotFound) true for clone failures caused by a missing branch.
func (e *GitError) Is(target error) bool {
	if target != ErrBranchNotFound {
		return false
	}
	lower := strings.ToLower(e.Stderr)
	for _, marker := range branchNotFoundMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout.
// The process is killed when ctx is done.
func (c *LocalGitClient) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	fullArgs := args
	if dir != "" {
		fullArgs = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	// Never block on a credential prompt for private or missing repositories.
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &GitError{Args: args, Err: ctxErr}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil, &GitError{Args: args, Stderr: strings.TrimSpace(string(exitErr.Stderr)), Err: err}
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// CloneBranch implements the GitClient interface.
func (c *LocalGitClient) CloneBranch(ctx context.Context, url, branch, dest string) error {
	args := []string{
		"clone",
		"--depth", "1",
		"--single-branch",
		"--branch", branch,
		"--",
		url,
		dest,
	}
	_, err := c.Run(ctx, "", args...)
	return err
}

// ListRemoteHeads implements the GitClient interface.
func (c *LocalGitClient) ListRemoteHeads(ctx context.Context, url string) ([]string, error) {
	out, err := c.Run(ctx, "", "ls-remote", "--heads", url)
	if err != nil {
		return nil, err
	}
	return ParseRemoteHeads(string(out)), nil
}

// ParseRemoteHeads extracts branch names from `git ls-remote --heads` output.
// Names keep any slashes after refs/heads/ (e.g. "feature/login").
func ParseRemoteHeads(output string) []string {
	var heads []string
	for line := range strings.SplitSeq(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		name, ok := strings.CutPrefix(fields[1], "refs/heads/")
		if !ok || name == "" {
			continue
		}
		heads = append(heads, name)
	}
	return heads
}
