package core

import (
	"cmp"
	"slices"

	"github.com/huangsam/repoaudit/schema"
)

// IndexedResult is an assessment tagged with the walk position of its file.
type IndexedResult struct {
	Index  int
	Result schema.AssessmentResult
}

// Aggregate builds the Report of a repository. Results may arrive in any
// order; the Report lists them in walk order.
func Aggregate(repository, branch string, results []IndexedResult) schema.Report {
	sorted := slices.SortedFunc(slices.Values(results), func(a, b IndexedResult) int {
		return cmp.Compare(a.Index, b.Index)
	})

	report := schema.Report{
		Repository: repository,
		Branch:     branch,
		Results:    make([]schema.AssessmentResult, 0, len(sorted)),
	}
	for _, r := range sorted {
		report.Results = append(report.Results, r.Result)
	}
	return report
}
