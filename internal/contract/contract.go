// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/repoaudit/schema"
)

// GitClient defines the remote Git operations needed to retrieve a repository.
// This allows the retrieval logic to be tested without needing a real git executable.
type GitClient interface {
	// Run executes a git command inside dir and returns its stdout.
	// An empty dir runs the command in the current working directory.
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)

	// CloneBranch makes a shallow, single-branch clone of url at branch into dest.
	CloneBranch(ctx context.Context, url, branch, dest string) error

	// ListRemoteHeads returns the branch names advertised by the remote, in remote order.
	ListRemoteHeads(ctx context.Context, url string) ([]string, error)
}

// CompletionClient is the external assessment service.
// Complete sends a prompt and returns the raw textual payload of the reply.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// WorkingCopy is a local checkout owned exclusively by one scan.
type WorkingCopy struct {
	Root       string // Absolute path of the checkout
	Repository string // URL the checkout was cloned from
	Branch     string // Branch that was actually cloned
}

// Retriever materializes repositories into working copies and disposes of them.
type Retriever interface {
	// Retrieve clones ref into a fresh working copy. The caller must Release it.
	Retrieve(ctx context.Context, ref schema.RepositoryReference) (*WorkingCopy, error)

	// Release deletes the working copy and frees its target path for other scans.
	Release(wc *WorkingCopy) error
}

// Assessor turns one file into an assessment. It never fails.
type Assessor interface {
	Assess(ctx context.Context, path, content string) schema.AssessmentResult
}

// StoreManager defines the interface for managing persistence stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetReportStore() ReportStore
	GetAssessmentCache() CacheStore
}

// CacheStore defines the interface for key/value cache storage.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// ReportStore persists reports per user.
type ReportStore interface {
	// SaveReport stores report for userID and returns its generated identifier.
	SaveReport(userID string, report schema.Report) (string, error)

	// ListReports returns the summaries of all reports of userID, newest first.
	ListReports(userID string) ([]schema.ReportSummary, error)

	// GetReport returns one report of userID, or ErrReportNotFound.
	GetReport(userID, reportID string) (*schema.StoredReport, error)

	// GetStatus returns status information about the report store
	GetStatus() (schema.ReportStoreStatus, error)

	// GetAllReports returns every stored report row for export
	GetAllReports() ([]schema.ReportRecord, error)

	// GetAllFileResults returns every stored file result row for export
	GetAllFileResults() ([]schema.FileResultRecord, error)

	// Close closes the underlying connection
	Close() error
}
