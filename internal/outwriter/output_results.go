package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// resultsView is what the result writers need to know about a report.
type resultsView struct {
	schema.ScanResult
	Branch    string
	CreatedAt time.Time // zero for a scan that just finished
}

// WriteScanResult prints a finished scan, dispatching based on the output format configured.
func WriteScanResult(result schema.ScanResult, cfg *contract.Config, duration time.Duration) error {
	return writeResults(resultsView{ScanResult: result}, cfg, duration)
}

// WriteStoredReport prints a stored report in the same layout as a scan.
func WriteStoredReport(report *schema.StoredReport, cfg *contract.Config, duration time.Duration) error {
	view := resultsView{
		ScanResult: schema.ScanResult{
			Repository: report.Repository,
			Results:    report.Results,
			ReportID:   report.ReportID,
		},
		Branch:    report.Branch,
		CreatedAt: report.CreatedAt,
	}
	return writeResults(view, cfg, duration)
}

// WriteScanJSON writes result as {"repository", "scan_results", "report_id"}.
func WriteScanJSON(w io.Writer, result schema.ScanResult) error {
	if result.Results == nil {
		result.Results = []schema.AssessmentResult{}
	}
	return writeJSON(w, result)
}

func writeResults(view resultsView, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteScanJSON(w, view.ScanResult)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeResultsCSV(w, view.Results)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeResultsTable(w, view, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// writeResultsTable generates and writes the human-readable table.
func writeResultsTable(w io.Writer, view resultsView, cfg *contract.Config, duration time.Duration) error {
	title := view.Repository
	if view.Branch != "" {
		title = fmt.Sprintf("%s (%s)", view.Repository, view.Branch)
	}
	if _, err := fmt.Fprintf(w, "Repository: %s\nReport: %s\n", title, view.ReportID); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)

	headers := []string{"#", "Path", "Score", "Band", "Findings"}
	if cfg.Detail {
		headers = append(headers, "Analysis", "Suggestion")
	}
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	pathWidth := GetMaxTablePathWidth(cfg)
	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	var data [][]string
	for i, r := range view.Results {
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncatePath(r.FileName, pathWidth),
			strconv.Itoa(r.Score),
			label(r.Score),
			strconv.Itoa(countFindings(r)),
		}
		if cfg.Detail {
			row = append(row,
				contract.TruncateText(r.Analysis, detailTextWidth),
				contract.TruncateText(r.Suggestion, detailTextWidth),
			)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	critical, fallback := summarize(view.Results)
	if _, err := fmt.Fprintf(w, "Assessed %d files (average score: %s, critical: %d, failed: %d)\n",
		len(view.Results), formatScore(schema.AverageScore(view.Results)), critical, fallback); err != nil {
		return err
	}
	if !view.CreatedAt.IsZero() {
		_, err := fmt.Fprintf(w, "Report created at %s\n", view.CreatedAt.Local().Format(contract.DateTimeFormat))
		return err
	}
	_, err := fmt.Fprintf(w, "Scan completed in %v with %d workers. Cache backend: %s\n", duration.Round(time.Millisecond), cfg.Workers, cfg.CacheBackend)
	return err
}

// writeResultsCSV writes one row per assessed file.
func writeResultsCSV(w io.Writer, results []schema.AssessmentResult) error {
	header := []string{"index", "file", "score", "band", "analysis", "suggestion", "vulnerable_lines"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, r := range results {
			rec := []string{
				strconv.Itoa(i + 1),
				r.FileName,
				strconv.Itoa(r.Score),
				contract.GetPlainLabel(r.Score),
				r.Analysis,
				r.Suggestion,
				joinFindings(r.Findings),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
