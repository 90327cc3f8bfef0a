package contract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/repoaudit/schema"
)

// Color variables for console output.
var (
	CriticalColor = color.New(color.FgRed, color.Bold) // CriticalColor represents standard danger.
	ModerateColor = color.New(color.FgYellow)          // ModerateColor represents standard caution, not bold.
	MinorColor    = color.New(color.FgCyan)            // MinorColor represents informational signal.
	SecureColor   = color.New(color.FgGreen)           // SecureColor represents a clean file.
)

// GetPlainLabel returns the band label of a score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score int) string {
	return string(schema.GetScoreBand(score))
}

// GetColorLabel returns a colored band label for console output (table).
func GetColorLabel(score int) string {
	band := schema.GetScoreBand(score)
	switch band {
	case schema.CriticalBand:
		return CriticalColor.Sprint(band)
	case schema.ModerateBand:
		return ModerateColor.Sprint(band)
	case schema.MinorBand:
		return MinorColor.Sprint(band)
	default:
		return SecureColor.Sprint(band)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ParseExcludes splits a comma-separated list of gitignore-style patterns.
func ParseExcludes(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	slog.Error(msg, "error", err)
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning through the default logger.
func LogWarn(msg string, err error) {
	slog.Warn(msg, "error", err)
}

// homePath joins name onto the home directory, or returns name if there is none.
func homePath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, name)
}

// GetReportDBFilePath returns the path to the SQLite DB file for report storage.
func GetReportDBFilePath() string {
	return homePath(".repoaudit_reports.db")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for the assessment cache.
func GetCacheDBFilePath() string {
	return homePath(".repoaudit_cache.db")
}

// GetLogFilePath returns the default rotating log file path.
func GetLogFilePath() string {
	return homePath(".repoaudit.log")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// TruncateText shortens free text to maxWidth runes with an ellipsis suffix.
func TruncateText(text string, maxWidth int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
