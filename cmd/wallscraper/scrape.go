package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"wallscraper/pkg/category"
	"wallscraper/pkg/config"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/scraper"
	"wallscraper/pkg/ui"
)

var (
	// Scrape command flags
	scrapeCount   int
	scrapeWorkers int
	scrapeOutput  string
	scrapeRPM     int
	scrapeMinW    int
	scrapeMinH    int
	scrapeScoring bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <category>",
	Short: "Download wallpapers for a category",
	Long: `Search the enabled image providers for a category and run each
candidate through the download pipeline: fetch, hash-based dedup,
quality gate, and write into the collection tree.

Providers are enabled by configuring their API keys, either with
'wallscraper auth set' or environment variables (UNSPLASH_ACCESS_KEY,
PEXELS_API_KEY, PIXABAY_API_KEY, WALLHAVEN_API_KEY). Wallhaven works
without a key at a reduced rate.

Interrupting a run with Ctrl-C stops new submissions, drains the
in-flight downloads, and flushes the hash ledger so nothing is
re-downloaded next time.`,
	Example: `  # Download 10 nature wallpapers with default settings
  wallscraper scrape nature

  # Download 50 into a specific collection with more workers
  wallscraper scrape cyberpunk --count 50 --workers 6 --output ./collection

  # Enable heuristic quality scoring
  wallscraper scrape minimal --scoring`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrapeCmd(args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&scrapeCount, "count", "n", 0, "number of wallpapers to download (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeWorkers, "workers", 0, "number of concurrent download workers")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "collection root directory")
	scrapeCmd.Flags().IntVar(&scrapeRPM, "requests-per-minute", 0, "download request budget per minute")
	scrapeCmd.Flags().IntVar(&scrapeMinW, "min-width", 0, "minimum image width in pixels")
	scrapeCmd.Flags().IntVar(&scrapeMinH, "min-height", 0, "minimum image height in pixels")
	scrapeCmd.Flags().BoolVar(&scrapeScoring, "scoring", false, "enable heuristic quality scoring")

	scrapeCmd.Long += "\n\nValid categories:\n  " + strings.Join(category.Labels(), ", ")
}

func runScrapeCmd(args []string) {
	cat := strings.ToLower(strings.TrimSpace(args[0]))

	if !category.IsValid(cat) {
		ui.PrintError("Unknown category", cat)
		ui.PrintInfo("Valid categories", strings.Join(category.Labels(), ", "))
		os.Exit(1)
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if scrapeOutput != "" {
		flags["collection-root"] = scrapeOutput
	}
	if scrapeWorkers > 0 {
		flags["workers"] = scrapeWorkers
	}
	if scrapeRPM > 0 {
		flags["requests-per-minute"] = scrapeRPM
	}
	if scrapeCount > 0 {
		flags["target-count"] = scrapeCount
	}
	if scrapeMinW > 0 {
		flags["min-width"] = scrapeMinW
	}
	if scrapeMinH > 0 {
		flags["min-height"] = scrapeMinH
	}
	if scrapeScoring {
		flags["scoring"] = true
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("wallscraper starting")

	applyStoredKeys(cfg)

	s, err := scraper.New(cfg, log)
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}

	if len(s.Sources()) == 0 {
		ui.PrintError("No image sources enabled", "")
		fmt.Println("\nTo store an API key securely, run:")
		fmt.Println("  wallscraper auth set <provider>")
		fmt.Println("\nOr set environment variables:")
		fmt.Println("  export UNSPLASH_ACCESS_KEY=your_key")
		fmt.Println("  export PEXELS_API_KEY=your_key")
		os.Exit(1)
	}

	target := cfg.Download.TargetCount
	ui.PrintInfo("Category", cat)
	ui.PrintInfo("Target", fmt.Sprintf("%d", target))
	var names []string
	for _, src := range s.Sources() {
		names = append(names, src.Name())
	}
	ui.PrintInfo("Sources", strings.Join(names, ", "))

	// Ctrl-C stops submission and drains in-flight downloads.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := s.Run(ctx, cat, target)
	if report != nil {
		ui.PrintRunSummary(ui.RunSummary{
			Category:   report.Category,
			Target:     report.Target,
			Saved:      report.Saved,
			Duplicates: report.Duplicates,
			Rejected:   report.Rejected,
			Review:     report.Review,
			Failed:     report.Failed,
			Elapsed:    report.Elapsed,
		})
	}
	if err != nil {
		log.WithError(err).Error("scrape run failed")
		ui.PrintError("Scrape failed", err.Error())
		os.Exit(1)
	}

	if ctx.Err() != nil {
		ui.PrintWarning("Interrupted; progress was saved to the ledger")
		return
	}
	ui.PrintSuccess("Done")
}
