// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"strings"

	"github.com/huangsam/repoaudit/schema"
)

// detailTextWidth bounds the analysis and suggestion columns of detailed tables.
const detailTextWidth = 30

// countFindings returns how many real vulnerable lines r carries.
func countFindings(r schema.AssessmentResult) int {
	n := 0
	for _, f := range r.Findings {
		if f.Line != schema.NoVulnerableLines {
			n++
		}
	}
	return n
}

// joinFindings flattens findings into one cell, e.g. "1: eval(x) | 3: exec(y)".
func joinFindings(findings []schema.FindingLine) string {
	parts := make([]string, 0, len(findings))
	for _, f := range findings {
		if f.Index == 0 {
			parts = append(parts, f.Line)
			continue
		}
		parts = append(parts, fmt.Sprintf("%d: %s", f.Index, f.Line))
	}
	return strings.Join(parts, " | ")
}

// summarize counts the critical and fallback results of a report.
func summarize(results []schema.AssessmentResult) (critical, fallback int) {
	for _, r := range results {
		if r.IsFallback() {
			fallback++
			continue
		}
		if schema.GetScoreBand(r.Score) == schema.CriticalBand {
			critical++
		}
	}
	return critical, fallback
}
