// Package schema has models and constants shared by all parts of repoaudit.
package schema

import "time"

// RepositoryReference identifies the repository and branch a scan targets.
type RepositoryReference struct {
	URL    string `json:"url"`
	Branch string `json:"branch"`
}

// FileRecord is a single decoded text file produced by a walk.
// Path is relative to the working copy root and uses forward slashes.
type FileRecord struct {
	Path    string
	Content string
}

// FindingLine is one flagged source line. Index is the 1-based position of the
// entry in the service response; the sentinel uses index 0.
type FindingLine struct {
	Index int    `json:"index"`
	Line  string `json:"line"`
}

// AssessmentResult is the normalized security assessment of one file.
type AssessmentResult struct {
	FileName   string        `json:"file_name"`
	Score      int           `json:"file_score"`
	Analysis   string        `json:"file_analysis"`
	Suggestion string        `json:"suggestion"`
	Findings   []FindingLine `json:"vulnerable_lines"`
}

// Report is the ordered set of assessments for one repository.
type Report struct {
	Repository string             `json:"repository"`
	Branch     string             `json:"branch,omitempty"`
	Results    []AssessmentResult `json:"scan_results"`
}

// ScanResult is what a completed scan hands back to its caller.
type ScanResult struct {
	Repository string             `json:"repository"`
	Results    []AssessmentResult `json:"scan_results"`
	ReportID   string             `json:"report_id"`
}

// ReportSummary describes a stored report without its file results.
type ReportSummary struct {
	ReportID     string    `json:"report_id"`
	UserID       string    `json:"user_id"`
	Repository   string    `json:"repository"`
	Branch       string    `json:"branch"`
	CreatedAt    time.Time `json:"created_at"`
	TotalFiles   int       `json:"total_files"`
	AverageScore float64   `json:"average_score"`
}

// StoredReport is a persisted report with all of its file results.
type StoredReport struct {
	ReportSummary
	Results []AssessmentResult `json:"scan_results"`
}
