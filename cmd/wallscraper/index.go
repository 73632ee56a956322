package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"wallscraper/pkg/config"
	"wallscraper/pkg/index"
	"wallscraper/pkg/logger"
	"wallscraper/pkg/ui"
)

var (
	indexOutput  string
	indexBaseURL string
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the static JSON API from the collection tree",
	Long: `Scan the collection tree and regenerate the static JSON API under
api/v1/: the full listing, per-category listings, the featured feed,
and collection statistics.

Images without a metadata sidecar get a minimal entry synthesized from
the file itself, so the index never silently drops wallpapers. All
download URLs are recomputed from the configured base URL.`,
	Example: `  # Rebuild the API for the configured collection
  wallscraper index

  # Rebuild a specific collection with a different serving URL
  wallscraper index --output ./collection --base-url https://cdn.example.com/walls`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runIndexCmd()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "", "collection root directory")
	indexCmd.Flags().StringVar(&indexBaseURL, "base-url", "", "base URL for generated download links")
}

func runIndexCmd() {
	flags := make(map[string]interface{})
	if indexOutput != "" {
		flags["collection-root"] = indexOutput
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if indexBaseURL != "" {
		cfg.Output.BaseURL = indexBaseURL
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()

	ui.PrintInfo("Collection", cfg.Output.CollectionRoot)

	builder := index.NewBuilder(&cfg.Output, log)
	summary, err := builder.Build()
	if err != nil {
		log.WithError(err).Error("index build failed")
		ui.PrintError("Index build failed", err.Error())
		os.Exit(1)
	}

	ui.PrintInfo("Wallpapers", fmt.Sprintf("%d", summary.TotalWallpapers))
	ui.PrintInfo("Categories", fmt.Sprintf("%d", summary.TotalCategories))
	ui.PrintInfo("Files written", fmt.Sprintf("%d", summary.FilesGenerated))
	ui.PrintSuccess("API index rebuilt")
}
