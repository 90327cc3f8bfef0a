package contract

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	ErrBranchNotFound    = errors.New("remote branch not found")
	ErrNoClonableBranch  = errors.New("no clonable branch")
	ErrInvalidRepository = errors.New("invalid repository url")
	ErrNoIdentity        = errors.New("no user identity")
	ErrReportNotFound    = errors.New("report not found")
)

// RetrievalError means a working copy could not be produced.
type RetrievalError struct {
	URL    string
	Branch string
	Op     string // lock, reset, clone, ls-remote
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s@%s: %s: %v", e.URL, e.Branch, e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// AggregationError means a finished report could not be handed off.
type AggregationError struct {
	Repository string
	Err        error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %v", e.Repository, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// ScanError is the only error a scan returns to its caller.
// It wraps a RetrievalError, an AggregationError, a context error, or ErrNoIdentity.
type ScanError struct {
	Repository string
	Err        error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Repository, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
