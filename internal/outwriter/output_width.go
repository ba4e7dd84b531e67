package outwriter

import (
	"os"

	"github.com/huangsam/patchpanel/internal/contract"
	"golang.org/x/term"
)

// Bounds for the name column of the panel table.
const (
	minNameWidth = 12
	maxNameWidth = 40
)

// GetMaxTableNameWidth calculates the maximum width for game names in table output
// based on terminal width and the fixed panel columns.
func GetMaxTableNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// AppID + Event + Rel + Month + Avg + Peak + Owners + Meta + Group, with borders/padding
	baseWidth := 95

	available := termWidth - baseWidth
	if available < minNameWidth {
		return minNameWidth
	}
	if available > maxNameWidth {
		return maxNameWidth
	}
	return available
}
