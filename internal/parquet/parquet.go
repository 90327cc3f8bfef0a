// Package parquet provides data structures and functions for exporting stored
// audit reports to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/repoaudit/schema"
)

// Report represents one stored audit report.
// This struct maps to the audit_reports database table.
type Report struct {
	// ReportID is the generated identifier of the report
	ReportID string `parquet:"report_id,snappy"`

	// UserID is the owner of the report
	UserID string `parquet:"user_id,snappy"`

	// Repository is the URL that was scanned
	Repository string `parquet:"repository,snappy"`

	// Branch is the branch that was actually cloned (nullable for older rows)
	Branch *string `parquet:"branch,optional,snappy"`

	// CreatedAt is when the report was saved (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`

	// TotalFiles is the number of assessed files
	TotalFiles int32 `parquet:"total_files,snappy"`

	// AverageScore is the mean security score over all files
	AverageScore float64 `parquet:"average_score,snappy"`
}

// FileResult represents the assessment of a single file in a report.
// This struct maps to the audit_file_results database table.
type FileResult struct {
	ReportID        string `parquet:"report_id,snappy"`
	Position        int32  `parquet:"position,snappy"`
	FileName        string `parquet:"file_name,snappy"`
	FileScore       int32  `parquet:"file_score,snappy"`
	ScoreBand       string `parquet:"score_band,snappy"`
	FileAnalysis    string `parquet:"file_analysis,snappy"`
	Suggestion      string `parquet:"suggestion,snappy"`
	VulnerableLines string `parquet:"vulnerable_lines,snappy"` // JSON-encoded
}

// WriteReportsParquet writes a slice of Report structs to a Parquet file.
func WriteReportsParquet(data []Report, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteFileResultsParquet writes a slice of FileResult structs to a Parquet file.
func WriteFileResultsParquet(data []FileResult, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using the schema derived from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Close()
}

// ConvertReportRecords converts schema.ReportRecord to Report for Parquet export.
func ConvertReportRecords(records []schema.ReportRecord) []Report {
	result := make([]Report, len(records))
	for i, record := range records {
		var branch *string
		if record.Branch != "" {
			b := record.Branch
			branch = &b
		}
		result[i] = Report{
			ReportID:     record.ReportID,
			UserID:       record.UserID,
			Repository:   record.Repository,
			Branch:       branch,
			CreatedAt:    record.CreatedAt,
			TotalFiles:   record.TotalFiles,
			AverageScore: record.AverageScore,
		}
	}
	return result
}

// ConvertFileResultRecords converts schema.FileResultRecord to FileResult for Parquet export.
func ConvertFileResultRecords(records []schema.FileResultRecord) []FileResult {
	result := make([]FileResult, len(records))
	for i, record := range records {
		result[i] = FileResult{
			ReportID:        record.ReportID,
			Position:        record.Position,
			FileName:        record.FileName,
			FileScore:       record.FileScore,
			ScoreBand:       string(schema.GetScoreBand(int(record.FileScore))),
			FileAnalysis:    record.FileAnalysis,
			Suggestion:      record.Suggestion,
			VulnerableLines: record.VulnerableLines,
		}
	}
	return result
}
