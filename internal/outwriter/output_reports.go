package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/huangsam/repoaudit/internal/contract"
	"github.com/huangsam/repoaudit/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteReportList prints stored report summaries, dispatching based on the output format configured.
func WriteReportList(summaries []schema.ReportSummary, cfg *contract.Config, duration time.Duration) error {
	if summaries == nil {
		summaries = []schema.ReportSummary{}
	}
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summaries)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportListCSV(w, summaries)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportListTable(w, summaries, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

// averageBand is the band of a rounded average score.
func averageBand(avg float64) int {
	return int(math.Round(avg))
}

func writeReportListTable(w io.Writer, summaries []schema.ReportSummary, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Report", "Repository", "Branch", "Created", "Files", "Avg Score", "Band"})

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}
	repoWidth := GetMaxTablePathWidth(cfg)

	var data [][]string
	for _, s := range summaries {
		data = append(data, []string{
			s.ReportID,
			contract.TruncatePath(s.Repository, repoWidth),
			s.Branch,
			s.CreatedAt.Local().Format(contract.DateTimeFormat),
			strconv.Itoa(s.TotalFiles),
			formatScore(s.AverageScore),
			label(averageBand(s.AverageScore)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d reports (%v)\n", len(summaries), duration.Round(time.Millisecond))
	return err
}

func writeReportListCSV(w io.Writer, summaries []schema.ReportSummary) error {
	header := []string{"report_id", "user_id", "repository", "branch", "created_at", "total_files", "average_score", "band"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range summaries {
			rec := []string{
				s.ReportID,
				s.UserID,
				s.Repository,
				s.Branch,
				s.CreatedAt.UTC().Format(contract.DateTimeFormat),
				strconv.Itoa(s.TotalFiles),
				formatScore(s.AverageScore),
				contract.GetPlainLabel(averageBand(s.AverageScore)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
