package iocache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"
)

// Table names for report storage.
const (
	reportsTable     = "audit_reports"
	fileResultsTable = "audit_file_results"
)

// ReportStoreImpl implements the ReportStore interface.
type ReportStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	now     func() time.Time
}

var _ contract.ReportStore = &ReportStoreImpl{} // Compile-time check

// NewReportStore creates a new ReportStore with the specified backend.
// The report schema is migrated to the latest version on open.
func NewReportStore(backend schema.DatabaseBackend, connStr string) (*ReportStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled persistence
		return &ReportStoreImpl{backend: backend, now: time.Now}, nil
	}

	db, err := openDB(backend, connStr, GetReportDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &ReportStoreImpl{db: db, backend: backend, now: time.Now}, nil
}

func (rs *ReportStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// SaveReport stores a report and its file results in one transaction.
func (rs *ReportStoreImpl) SaveReport(userID string, report schema.Report) (string, error) {
	reportID := uuid.NewString()
	if rs.disabled() {
		return reportID, nil
	}

	totalFiles, avg := report.Summarize()

	tx, err := rs.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	reportQuery := fmt.Sprintf(
		`INSERT INTO %s (report_id, user_id, repository, branch, created_at, total_files, average_score) VALUES (%s)`,
		quoteTableName(reportsTable, rs.backend), placeholders(rs.backend, 7))
	if _, err := tx.Exec(reportQuery,
		reportID, userID, report.Repository, report.Branch,
		formatTime(rs.now(), rs.backend), totalFiles, avg,
	); err != nil {
		return "", fmt.Errorf("failed to insert report: %w", err)
	}

	resultQuery := fmt.Sprintf(
		`INSERT INTO %s (report_id, position, file_name, file_score, file_analysis, suggestion, vulnerable_lines) VALUES (%s)`,
		quoteTableName(fileResultsTable, rs.backend), placeholders(rs.backend, 7))
	stmt, err := tx.Prepare(resultQuery)
	if err != nil {
		return "", fmt.Errorf("failed to prepare file result insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range report.Results {
		findings, err := json.Marshal(r.Findings)
		if err != nil {
			return "", fmt.Errorf("failed to encode findings of %s: %w", r.FileName, err)
		}
		if _, err := stmt.Exec(reportID, i, r.FileName, r.Score, r.Analysis, r.Suggestion, string(findings)); err != nil {
			return "", fmt.Errorf("failed to insert file result %s: %w", r.FileName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit report: %w", err)
	}
	return reportID, nil
}

// ListReports returns the report summaries of a user, newest first.
func (rs *ReportStoreImpl) ListReports(userID string) ([]schema.ReportSummary, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(
		`SELECT report_id, user_id, repository, branch, created_at, total_files, average_score FROM %s WHERE user_id = %s ORDER BY created_at DESC, report_id DESC`,
		quoteTableName(reportsTable, rs.backend), placeholder(rs.backend, 1))
	rows, err := rs.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []schema.ReportSummary
	for rows.Next() {
		summary, err := rs.scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return summaries, nil
}

// GetReport returns one report of a user with its file results in walk order.
func (rs *ReportStoreImpl) GetReport(userID, reportID string) (*schema.StoredReport, error) {
	if rs.disabled() {
		return nil, contract.ErrReportNotFound
	}

	query := fmt.Sprintf(
		`SELECT report_id, user_id, repository, branch, created_at, total_files, average_score FROM %s WHERE report_id = %s AND user_id = %s`,
		quoteTableName(reportsTable, rs.backend), placeholder(rs.backend, 1), placeholder(rs.backend, 2))
	summary, err := rs.scanSummary(rs.db.QueryRow(query, reportID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contract.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	resultsQuery := fmt.Sprintf(
		`SELECT file_name, file_score, file_analysis, suggestion, vulnerable_lines FROM %s WHERE report_id = %s ORDER BY position`,
		quoteTableName(fileResultsTable, rs.backend), placeholder(rs.backend, 1))
	rows, err := rs.db.Query(resultsQuery, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to query file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	report := &schema.StoredReport{ReportSummary: summary, Results: []schema.AssessmentResult{}}
	for rows.Next() {
		var r schema.AssessmentResult
		var findings string
		if err := rows.Scan(&r.FileName, &r.Score, &r.Analysis, &r.Suggestion, &findings); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		if err := json.Unmarshal([]byte(findings), &r.Findings); err != nil {
			return nil, fmt.Errorf("failed to decode findings of %s: %w", r.FileName, err)
		}
		report.Results = append(report.Results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file results: %w", err)
	}
	return report, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (rs *ReportStoreImpl) scanSummary(row rowScanner) (schema.ReportSummary, error) {
	var s schema.ReportSummary
	created := timeScanner{backend: rs.backend}
	if err := row.Scan(&s.ReportID, &s.UserID, &s.Repository, &s.Branch, created.dest(), &s.TotalFiles, &s.AverageScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("failed to scan report: %w", err)
	}
	t, err := created.value()
	if err != nil {
		return s, err
	}
	s.CreatedAt = t
	return s, nil
}

// Close closes the underlying connection.
func (rs *ReportStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the report store.
func (rs *ReportStoreImpl) GetStatus() (schema.ReportStoreStatus, error) {
	status := schema.ReportStoreStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if rs.disabled() {
		return status, nil
	}

	for _, table := range []string{reportsTable, fileResultsTable} {
		var count int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(query).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalReports = int(status.TableSizes[reportsTable])
	status.TotalFileResults = int(status.TableSizes[fileResultsTable])

	if status.TotalReports == 0 {
		return status, nil
	}

	for _, q := range []struct {
		order string
		dest  *time.Time
	}{
		{"DESC", &status.LastReportTime},
		{"ASC", &status.OldestReportTime},
	} {
		query := fmt.Sprintf("SELECT created_at FROM %s ORDER BY created_at %s LIMIT 1", quoteTableName(reportsTable, rs.backend), q.order)
		ts := timeScanner{backend: rs.backend}
		if err := rs.db.QueryRow(query).Scan(ts.dest()); err != nil {
			return status, fmt.Errorf("failed to get report time: %w", err)
		}
		t, err := ts.value()
		if err != nil {
			return status, err
		}
		*q.dest = t
	}
	return status, nil
}

// GetAllReports retrieves every stored report row.
func (rs *ReportStoreImpl) GetAllReports() ([]schema.ReportRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT report_id, user_id, repository, branch, created_at, total_files, average_score FROM %s ORDER BY created_at, report_id",
		quoteTableName(reportsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ReportRecord
	for rows.Next() {
		summary, err := rs.scanSummary(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, schema.ReportRecord{
			ReportID:     summary.ReportID,
			UserID:       summary.UserID,
			Repository:   summary.Repository,
			Branch:       summary.Branch,
			CreatedAt:    summary.CreatedAt,
			TotalFiles:   int32(summary.TotalFiles),
			AverageScore: summary.AverageScore,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return records, nil
}

// GetAllFileResults retrieves every stored file result row.
func (rs *ReportStoreImpl) GetAllFileResults() ([]schema.FileResultRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT report_id, position, file_name, file_score, file_analysis, suggestion, vulnerable_lines FROM %s ORDER BY report_id, position",
		quoteTableName(fileResultsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query file results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.FileResultRecord
	for rows.Next() {
		var r schema.FileResultRecord
		if err := rows.Scan(&r.ReportID, &r.Position, &r.FileName, &r.FileScore, &r.FileAnalysis, &r.Suggestion, &r.VulnerableLines); err != nil {
			return nil, fmt.Errorf("failed to scan file result: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating file results: %w", err)
	}
	return records, nil
}
