package ui

import (
	"fmt"
	"time"
)

// RunSummary is the per-run outcome tally shown when a scrape finishes.
type RunSummary struct {
	Category   string
	Target     int
	Saved      int
	Duplicates int
	Rejected   int
	Review     int
	Failed     int
	Elapsed    time.Duration
}

// PrintRunSummary renders the end-of-run report.
func PrintRunSummary(s RunSummary) {
	if Quiet {
		return
	}

	fmt.Println()
	PrintHighlight(fmt.Sprintf("── %s: %d/%d saved in %s ──", s.Category, s.Saved, s.Target, s.Elapsed.Round(time.Second)))
	PrintInfo("  saved", fmt.Sprintf("%d", s.Saved))
	PrintInfo("  duplicates", fmt.Sprintf("%d", s.Duplicates))
	PrintInfo("  rejected", fmt.Sprintf("%d", s.Rejected))
	if s.Review > 0 {
		PrintInfo("  needs review", fmt.Sprintf("%d", s.Review))
	}
	if s.Failed > 0 {
		PrintWarning(fmt.Sprintf("  failed: %d", s.Failed))
	}
}
