package outwriter

import (
	"os"

	"github.com/huangsam/repoaudit/internal/contract"
	"golang.org/x/term"
)

// Bounds for the path column of result tables.
const (
	minPathWidth = 15
	maxPathWidth = 70
)

// terminalWidth returns the width override of cfg, the detected terminal
// width, or 80 when neither is known.
func terminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// GetMaxTablePathWidth calculates the maximum width for file paths in table output
// based on terminal width and table configuration.
func GetMaxTablePathWidth(cfg *contract.Config) int {
	// Reserve space for fixed columns with table formatting
	baseWidth := 30 // Rank + Score + Band + Findings with borders/padding

	if cfg.Detail {
		baseWidth += 2 * detailTextWidth // Analysis + Suggestion
	}

	// Reserve generous space for table borders, separators, and padding
	baseWidth += 20

	return min(max(terminalWidth(cfg)-baseWidth, minPathWidth), maxPathWidth)
}
