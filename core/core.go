// Package core has the audit pipeline and the entry points of every command.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/repoaudit/internal/assessor"
	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/outwriter"
	"github.com/huangsam/repoaudit/internal/retriever"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// NewScannerFromConfig wires a Scanner for cfg: a local git retriever under
// cfg.WorkDir and the configured completion service.
func NewScannerFromConfig(cfg *contract.Config, mgr contract.StoreManager) (*Scanner, error) {
	client, err := assessor.NewChatClient(cfg.Assessor)
	if err != nil {
		return nil, err
	}
	r := retriever.New(contract.NewLocalGitClient(), cfg.WorkDir, retriever.WithRetryPolicy(cfg.RemovePolicy()))
	a := assessor.New(client, cfg.Assessor.RequestTimeout)
	return NewScanner(r, a, mgr,
		WithWorkers(cfg.Workers),
		WithExcludes(cfg.Excludes),
		WithModel(cfg.Assessor.Model),
	), nil
}

// ExecuteScan audits cfg.RepoURL and prints the results.
// It serves as the main entry point for the 'scan' command.
func ExecuteScan(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	scanner, err := NewScannerFromConfig(cfg, mgr)
	if err != nil {
		return err
	}
	return runScan(ctx, cfg, scanner)
}

// runScan bounds the scan by cfg.ScanTimeout and prints its result.
func runScan(ctx context.Context, cfg *contract.Config, scanner *Scanner) error {
	if cfg.RepoURL == "" {
		return errors.New("a repository url is required")
	}
	start := time.Now()

	if cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ScanTimeout)
		defer cancel()
	}

	result, err := scanner.Scan(ctx, cfg.Reference())
	if err != nil {
		return err
	}
	return outwriter.WriteScanResult(result, cfg, time.Since(start))
}

// ExecuteListReports prints the reports of the current user, newest first.
func ExecuteListReports(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	userID, store, err := reportAccess(ctx, mgr)
	if err != nil {
		return err
	}
	summaries, err := store.ListReports(userID)
	if err != nil {
		return fmt.Errorf("failed to list reports: %w", err)
	}
	return outwriter.WriteReportList(summaries, cfg, time.Since(start))
}

// ExecuteShowReport prints one stored report of the current user.
func ExecuteShowReport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if cfg.ReportID == "" {
		return errors.New("a report id is required")
	}
	start := time.Now()
	userID, store, err := reportAccess(ctx, mgr)
	if err != nil {
		return err
	}
	report, err := store.GetReport(userID, cfg.ReportID)
	if err != nil {
		return fmt.Errorf("report %s: %w", cfg.ReportID, err)
	}
	return outwriter.WriteStoredReport(report, cfg, time.Since(start))
}

// reportAccess returns the authenticated user and the report store.
func reportAccess(ctx context.Context, mgr contract.StoreManager) (string, contract.ReportStore, error) {
	userID, err := contract.RequireUserID(ctx)
	if err != nil {
		return "", nil, err
	}
	var store contract.ReportStore
	if mgr != nil {
		store = mgr.GetReportStore()
	}
	if store == nil {
		return "", nil, errors.New("report store is not initialized")
	}
	return userID, store, nil
}
