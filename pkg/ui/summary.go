package ui

import (
	"fmt"
	"time"

	"tumdlr/pkg/scraper"
)

// PrintSummary renders the end-of-run tally for one blog
func PrintSummary(s *scraper.Summary) {
	fmt.Println()
	PrintHighlight(fmt.Sprintf("── %s ──", s.Blog))
	PrintInfo("Downloaded", fmt.Sprintf("%d (%s)", s.Downloaded, FormatBytes(s.Bytes)))
	PrintInfo("Skipped", fmt.Sprintf("%d", s.Skipped))
	if s.Failed > 0 {
		PrintError(fmt.Sprintf("Failed: %d", s.Failed))
	} else {
		PrintInfo("Failed", "0")
	}
	PrintInfo("Elapsed", s.Elapsed.Round(10*time.Millisecond).String())

	if len(s.Failures) > 0 {
		fmt.Println()
		PrintWarning("Failures:")
		for _, f := range s.Failures {
			fmt.Printf("  %s %s\n", Red("✗"), f.ContentID)
			fmt.Printf("    %s\n", Dim(f.Err))
		}
	}
}

// FormatBytes renders a byte count in a human readable unit
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
