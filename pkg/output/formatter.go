package output

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/rdswitchboard/graph-exporter/pkg/export"
)

// PrintRunReport prints a nicely formatted run report with colors
func PrintRunReport(store string, summary *export.Summary) {
	// Color definitions
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	// Header
	bold.Println("Graph Exporter - Run Report")
	bold.Println("===========================")
	fmt.Printf("Store: %s\n", store)
	cyan.Printf("Run: %s\n", summary.RunID)
	fmt.Printf("Scanned: %d nodes\n", summary.Scanned)
	fmt.Printf("Eligible: %d roots\n", summary.Eligible)

	if summary.Exported > 0 {
		green.Printf("Exported: %d roots (%d documents)\n", summary.Exported, summary.Documents)
	} else {
		yellow.Printf("Exported: 0 roots\n")
	}

	if summary.Suppressed > 0 {
		yellow.Printf("Suppressed singletons: %d\n", summary.Suppressed)
	}
	if summary.Unnamed > 0 {
		yellow.Printf("Skipped unnamed: %d\n", summary.Unnamed)
	}
	if summary.Fragmented > 0 {
		yellow.Printf("Fragmented documents: %d\n", summary.Fragmented)
	}
	if summary.Failed > 0 {
		red.Printf("Failed: %d roots\n", summary.Failed)
	}

	fmt.Printf("Duration: %s\n", summary.Duration)

	if summary.Failed == 0 && summary.Eligible > 0 {
		green.Println("✓ All eligible roots processed")
	}
}
