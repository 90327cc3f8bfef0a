package schema

// SentinelFinding returns the finding used when nothing vulnerable was reported.
func SentinelFinding() FindingLine {
	return FindingLine{Index: 0, Line: NoVulnerableLines}
}

// SentinelFindings returns a fresh single-element sentinel list.
func SentinelFindings() []FindingLine {
	return []FindingLine{SentinelFinding()}
}

// FallbackResult returns the record used when a file could not be assessed.
func FallbackResult(path string) AssessmentResult {
	return AssessmentResult{
		FileName:   path,
		Score:      MinScore,
		Analysis:   FallbackAnalysis,
		Suggestion: FallbackSuggestion,
		Findings:   SentinelFindings(),
	}
}

// IsFallback reports whether r is the fixed record produced for a failed assessment.
func (r AssessmentResult) IsFallback() bool {
	return r.Score == MinScore &&
		r.Analysis == FallbackAnalysis &&
		r.Suggestion == FallbackSuggestion
}

// HasFindings reports whether r carries at least one real flagged line.
func (r AssessmentResult) HasFindings() bool {
	for _, f := range r.Findings {
		if f.Line != NoVulnerableLines {
			return true
		}
	}
	return false
}

// GetScoreBand maps a 0-10 score to its severity band.
func GetScoreBand(score int) ScoreBand {
	switch {
	case score <= 3:
		return CriticalBand
	case score <= 6:
		return ModerateBand
	case score <= 8:
		return MinorBand
	default:
		return SecureBand
	}
}

// AverageScore returns the mean score of results, or 0 for an empty slice.
func AverageScore(results []AssessmentResult) float64 {
	if len(results) == 0 {
		return 0
	}
	total := 0
	for _, r := range results {
		total += r.Score
	}
	return float64(total) / float64(len(results))
}

// Summarize builds the stored summary fields for a report.
func (r Report) Summarize() (totalFiles int, averageScore float64) {
	return len(r.Results), AverageScore(r.Results)
}
