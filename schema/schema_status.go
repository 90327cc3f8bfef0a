package schema

import "time"

// CacheStatus represents the status of the assessment cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// ReportStoreStatus represents the status of the report store.
type ReportStoreStatus struct {
	Backend          string           `json:"backend"`
	Connected        bool             `json:"connected"`
	TotalReports     int              `json:"total_reports"`
	TotalFileResults int              `json:"total_file_results"`
	LastReportTime   time.Time        `json:"last_report_time"`
	OldestReportTime time.Time        `json:"oldest_report_time"`
	TableSizes       map[string]int64 `json:"table_sizes"`
}

// ReportRecord represents a row from the audit_reports table.
type ReportRecord struct {
	ReportID     string
	UserID       string
	Repository   string
	Branch       string
	CreatedAt    time.Time
	TotalFiles   int32
	AverageScore float64
}

// FileResultRecord represents a row from the audit_file_results table.
type FileResultRecord struct {
	ReportID        string
	Position        int32
	FileName        string
	FileScore       int32
	FileAnalysis    string
	Suggestion      string
	VulnerableLines string // JSON-encoded []FindingLine
}
