package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/internal/parquet"
)

// ExecuteReportExport writes every stored report and file result to
// <outputFile>.reports.parquet and <outputFile>.file_results.parquet.
func ExecuteReportExport(w io.Writer, store contract.ReportStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("report store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get report store status: %w", err)
	}
	if status.TotalReports == 0 {
		return errors.New("no report data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total reports: %d\n", status.TotalReports)
	_, _ = fmt.Fprintf(w, "Total file results: %d\n", status.TotalFileResults)

	reports, err := store.GetAllReports()
	if err != nil {
		return fmt.Errorf("failed to retrieve reports: %w", err)
	}
	fileResults, err := store.GetAllFileResults()
	if err != nil {
		return fmt.Errorf("failed to retrieve file results: %w", err)
	}

	parquetReports := parquet.ConvertReportRecords(reports)
	reportsFile := outputFile + ".reports.parquet"
	if err := parquet.WriteReportsParquet(parquetReports, reportsFile); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d reports to: %s\n", len(parquetReports), reportsFile)

	parquetResults := parquet.ConvertFileResultRecords(fileResults)
	resultsFile := outputFile + ".file_results.parquet"
	if err := parquet.WriteFileResultsParquet(parquetResults, resultsFile); err != nil {
		return fmt.Errorf("failed to write file results: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d file results to: %s\n", len(parquetResults), resultsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Apache Spark")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	return nil
}
