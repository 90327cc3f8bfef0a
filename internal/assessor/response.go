package assessor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/huangsam/repoaudit/schema"
)

var (
	errEmptyPayload = errors.New("empty payload")
	errNoObject     = errors.New("no JSON object in payload")
	errNotAnObject  = errors.New("reply is not a single JSON object")
)

// rawAssessment is the reply schema. Every field is optional; fields with a
// loose shape stay raw until normalized.
type rawAssessment struct {
	FileName        *string         `json:"file_name"`
	FileScore       json.RawMessage `json:"file_score"`
	FileAnalysis    *string         `json:"file_analysis"`
	Suggestion      *string         `json:"suggestion"`
	VulnerableLines json.RawMessage `json:"vulnerable_lines"`
}

// ParseResponse normalizes a service payload into an assessment of path.
// An error means the caller must use schema.FallbackResult instead.
func ParseResponse(path, payload string) (schema.AssessmentResult, error) {
	body, err := extractObject(payload)
	if err != nil {
		return schema.AssessmentResult{}, err
	}

	var raw rawAssessment
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return schema.AssessmentResult{}, fmt.Errorf("decode reply: %w", err)
	}

	score, err := parseScore(raw.FileScore)
	if err != nil {
		return schema.AssessmentResult{}, err
	}
	findings, err := parseFindings(raw.VulnerableLines)
	if err != nil {
		return schema.AssessmentResult{}, err
	}

	return schema.AssessmentResult{
		FileName:   textOr(raw.FileName, path),
		Score:      score,
		Analysis:   textOr(raw.FileAnalysis, schema.DefaultAnalysis),
		Suggestion: textOr(raw.Suggestion, schema.DefaultSuggestion),
		Findings:   findings,
	}, nil
}

// extractObject strips markdown fences and any prose around the JSON object.
func extractObject(payload string) (string, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return "", errEmptyPayload
	}

	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(s)
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s, nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", errNoObject
	}
	if strings.HasSuffix(strings.TrimSpace(s[:start]), "[") {
		return "", errNotAnObject
	}
	return s[start : end+1], nil
}

func parseScore(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return schema.MinScore, nil
	}

	var value float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("file_score: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("file_score %q is not an integer", s)
		}
		value = float64(n)
	default:
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, fmt.Errorf("file_score has an unsupported type: %s", raw)
		}
	}

	if math.IsNaN(value) || value < schema.MinScore || value > schema.MaxScore {
		return 0, fmt.Errorf("file_score %v out of range [%d, %d]", value, schema.MinScore, schema.MaxScore)
	}
	return int(math.Trunc(value)), nil
}

func parseFindings(raw json.RawMessage) ([]schema.FindingLine, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return schema.SentinelFindings(), nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("vulnerable_lines: %w", err)
		}
		if strings.TrimSpace(s) == schema.NoVulnerableLines {
			return schema.SentinelFindings(), nil
		}
		return nil, fmt.Errorf("vulnerable_lines must be a list, got string %q", s)
	case '[':
		var lines []*string
		if err := json.Unmarshal(raw, &lines); err != nil {
			return nil, fmt.Errorf("vulnerable_lines must hold strings: %w", err)
		}
		var findings []schema.FindingLine
		for i, line := range lines {
			if line == nil {
				return nil, fmt.Errorf("vulnerable_lines entry %d is null", i+1)
			}
			// Blank and sentinel entries are dropped but keep their position.
			if t := strings.TrimSpace(*line); t == "" || t == schema.NoVulnerableLines {
				continue
			}
			findings = append(findings, schema.FindingLine{Index: i + 1, Line: *line})
		}
		if len(findings) == 0 {
			return schema.SentinelFindings(), nil
		}
		return findings, nil
	default:
		return nil, fmt.Errorf("vulnerable_lines has an unsupported type: %s", raw)
	}
}

func textOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	if t := strings.TrimSpace(*s); t != "" {
		return t
	}
	return fallback
}
