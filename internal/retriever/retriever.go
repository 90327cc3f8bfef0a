// Package retriever clones remote repositories into exclusive working copies.
package retriever

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
)

// Retriever clones repositories under a work directory. The checkout of a
// repository always lands at the same path, so scans of one repository are
// serialized by a per-path lock held from Retrieve until Release.
type Retriever struct {
	client  contract.GitClient
	workDir string
	policy  contract.RetryPolicy
	remove  func(string) error
	locks   *keyedLock

	mu   sync.Mutex
	held map[string]func() // target path -> unlock
}

var _ contract.Retriever = &Retriever{} // Compile-time check

// Option customizes a Retriever.
type Option func(*Retriever)

// WithRetryPolicy sets the policy used when deleting a checkout.
func WithRetryPolicy(p contract.RetryPolicy) Option {
	return func(r *Retriever) { r.policy = p }
}

// WithRemover replaces os.RemoveAll, mainly for tests.
func WithRemover(fn func(string) error) Option {
	return func(r *Retriever) { r.remove = fn }
}

// New creates a Retriever that checks out repositories below workDir.
func New(client contract.GitClient, workDir string, opts ...Option) *Retriever {
	r := &Retriever{
		client:  client,
		workDir: workDir,
		policy:  contract.DefaultRetryPolicy(),
		remove:  os.RemoveAll,
		locks:   newKeyedLock(),
		held:    make(map[string]func()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TargetPath returns the deterministic checkout path for url.
func (r *Retriever) TargetPath(url string) (string, error) {
	if err := contract.ValidateRepositoryURL(url); err != nil {
		return "", err
	}
	return filepath.Join(r.workDir, contract.RepositoryName(url)), nil
}

// Retrieve implements the contract.Retriever interface.
func (r *Retriever) Retrieve(ctx context.Context, ref schema.RepositoryReference) (*contract.WorkingCopy, error) {
	branch := ref.Branch
	if branch == "" {
		branch = schema.DefaultBranch
	}

	target, err := r.TargetPath(ref.URL)
	if err != nil {
		return nil, &contract.RetrievalError{URL: ref.URL, Branch: branch, Op: "resolve", Err: err}
	}

	unlock, err := r.locks.Lock(ctx, target)
	if err != nil {
		return nil, &contract.RetrievalError{URL: ref.URL, Branch: branch, Op: "lock", Err: err}
	}

	wc, err := r.retrieveLocked(ctx, ref.URL, branch, target)
	if err != nil {
		unlock()
		return nil, err
	}

	r.mu.Lock()
	r.held[target] = unlock
	r.mu.Unlock()
	return wc, nil
}

// retrieveLocked clones the requested branch, falling back to every remote
// head when the branch does not exist. Every failure leaves no directory behind.
func (r *Retriever) retrieveLocked(ctx context.Context, url, branch, target string) (*contract.WorkingCopy, error) {
	fail := func(op, attempted string, err error) error {
		r.discard(target)
		return &contract.RetrievalError{URL: url, Branch: attempted, Op: op, Err: err}
	}
	done := func(cloned string) *contract.WorkingCopy {
		return &contract.WorkingCopy{Root: target, Repository: url, Branch: cloned}
	}

	if err := r.resetDir(target); err != nil {
		return nil, fail("reset", branch, err)
	}
	err := r.client.CloneBranch(ctx, url, branch, target)
	if err == nil {
		slog.Info("cloned repository", "url", url, "branch", branch, "path", target)
		return done(branch), nil
	}
	if ctx.Err() != nil || !errors.Is(err, contract.ErrBranchNotFound) {
		return nil, fail("clone", branch, err)
	}

	slog.Warn("branch not found, trying remote heads", "url", url, "branch", branch)
	heads, err := r.client.ListRemoteHeads(ctx, url)
	if err != nil {
		return nil, fail("ls-remote", branch, err)
	}

	for _, head := range heads {
		if head == branch {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fail("clone", head, err)
		}
		if err := r.resetDir(target); err != nil {
			return nil, fail("reset", head, err)
		}
		if err := r.client.CloneBranch(ctx, url, head, target); err != nil {
			slog.Warn("fallback clone failed", "url", url, "branch", head, "error", err)
			continue
		}
		slog.Info("cloned repository from fallback branch", "url", url, "requested", branch, "branch", head, "path", target)
		return done(head), nil
	}

	return nil, fail("clone", branch, contract.ErrNoClonableBranch)
}

// Release implements the contract.Retriever interface.
// The target path is unlocked even when removal fails.
func (r *Retriever) Release(wc *contract.WorkingCopy) error {
	if wc == nil {
		return nil
	}
	err := r.removeDir(wc.Root)

	r.mu.Lock()
	unlock, ok := r.held[wc.Root]
	delete(r.held, wc.Root)
	r.mu.Unlock()
	if ok {
		unlock()
	}

	if err != nil {
		return &contract.RetrievalError{URL: wc.Repository, Branch: wc.Branch, Op: "remove", Err: err}
	}
	return nil
}
