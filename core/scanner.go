package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/walker"
	"github.com/huangsam/repoaudit/schema"
)

// Scanner runs the audit pipeline for one repository at a time:
// retrieve, walk, assess, aggregate, persist and release.
// A Scanner is safe for concurrent use; scans of the same repository are
// serialized by the Retriever.
type Scanner struct {
	retriever contract.Retriever
	assessor  contract.Assessor
	stores    contract.StoreManager
	workers   int
	excludes  []string
	model     string
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithWorkers sets how many files are assessed concurrently.
func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) { s.workers = n }
}

// WithExcludes sets gitignore-style patterns of files that are never assessed.
func WithExcludes(patterns []string) ScannerOption {
	return func(s *Scanner) { s.excludes = patterns }
}

// WithModel names the model behind the assessor. It namespaces cached assessments.
func WithModel(model string) ScannerOption {
	return func(s *Scanner) { s.model = model }
}

// NewScanner creates a Scanner. stores may be nil, in which case nothing is
// cached and every scan fails at hand-off.
func NewScanner(r contract.Retriever, a contract.Assessor, stores contract.StoreManager, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		retriever: r,
		assessor:  a,
		stores:    stores,
		workers:   contract.DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.workers = max(s.workers, 1)
	return s
}

// Scan audits the repository named by ref on behalf of the user carried by ctx.
// Every failure is returned as a *contract.ScanError. The working copy is
// released whether or not the scan succeeds.
func (s *Scanner) Scan(ctx context.Context, ref schema.RepositoryReference) (schema.ScanResult, error) {
	fail := func(err error) (schema.ScanResult, error) {
		return schema.ScanResult{}, &contract.ScanError{Repository: ref.URL, Err: err}
	}

	userID, err := contract.RequireUserID(ctx)
	if err != nil {
		return fail(err)
	}

	wc, err := s.retriever.Retrieve(ctx, ref)
	if err != nil {
		return fail(err)
	}
	defer s.release(wc)

	results, err := s.assessAll(ctx, wc.Root)
	if err != nil {
		return fail(err)
	}
	report := Aggregate(wc.Repository, wc.Branch, results)

	reportID, err := s.handOff(userID, report)
	if err != nil {
		return fail(err)
	}
	slog.Info("scan complete", "repository", report.Repository, "branch", report.Branch,
		"files", len(report.Results), "report_id", reportID)

	return schema.ScanResult{
		Repository: report.Repository,
		Results:    report.Results,
		ReportID:   reportID,
	}, nil
}

// assessAll walks root and assesses every file on a bounded pool.
// The walk only advances when a worker slot is free.
func (s *Scanner) assessAll(ctx context.Context, root string) ([]IndexedResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	var results []IndexedResult

	index := 0
	for rec := range walker.Walk(root, walker.Options{Excludes: s.excludes}) {
		if ctx.Err() != nil {
			break
		}
		i := index
		index++
		g.Go(func() error {
			result := s.assess(gctx, rec)
			mu.Lock()
			results = append(results, IndexedResult{Index: i, Result: result})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // tasks never fail

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// handOff persists the report and returns its identifier.
func (s *Scanner) handOff(userID string, report schema.Report) (string, error) {
	var store contract.ReportStore
	if s.stores != nil {
		store = s.stores.GetReportStore()
	}
	if store == nil {
		return "", &contract.AggregationError{Repository: report.Repository, Err: errors.New("report store is not initialized")}
	}

	reportID, err := store.SaveReport(userID, report)
	if err != nil {
		return "", &contract.AggregationError{Repository: report.Repository, Err: err}
	}
	return reportID, nil
}

func (s *Scanner) release(wc *contract.WorkingCopy) {
	if err := s.retriever.Release(wc); err != nil {
		contract.LogWarn("Failed to remove working copy "+wc.Root, err)
	}
}
