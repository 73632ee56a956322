package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"wallscraper/pkg/config"
	"wallscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage wallscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created in the current directory as '.wallscraper.yaml'
unless a different path is given with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

API keys are masked.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This checks YAML syntax, value types, and value ranges. Missing API
keys are not errors; they disable that source.`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# wallscraper configuration file
#
# Source API keys can also come from environment variables
# (UNSPLASH_ACCESS_KEY, PEXELS_API_KEY, PIXABAY_API_KEY,
# WALLHAVEN_API_KEY) or from 'wallscraper auth set'.

sources:
  # An empty key disables the source. Wallhaven works without a key.
  unsplash_access_key: ""
  pexels_api_key: ""
  pixabay_api_key: ""
  wallhaven_api_key: ""

rate_limit:
  # Download request budget per minute, shared by all workers
  requests_per_minute: 60
  # Random pause between provider searches
  min_delay: 500ms
  max_delay: 2s

quality:
  # Hard checks; failing any rejects the image outright
  min_width: 1080
  min_height: 1920
  min_file_size: 51200
  max_file_size: 10485760
  min_aspect_ratio: 0.3
  max_aspect_ratio: 3.0
  # Heuristic scoring on pixel statistics
  enable_scoring: false
  auto_approve_score: 8.0
  auto_reject_score: 4.0

output:
  collection_root: "./collection"
  base_url: "https://raw.githubusercontent.com/ddh4r4m/wallpaper-collection/main"
  ledger_file: "downloaded_hashes.json"
  thumb_width: 400
  thumb_height: 600
  thumb_quality: 80

download:
  workers: 3
  download_timeout: 30s
  target_count: 10

logging:
  # debug, info, warn, error
  level: "info"
  # Optional log file; empty logs to the console only
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".wallscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to write configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Created " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Store API keys: wallscraper auth set <provider>")
	fmt.Println("  2. Verify them:    wallscraper auth test")
	fmt.Println("  3. Scrape:         wallscraper scrape nature")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	applyStoredKeys(cfg)

	// Mask key material before printing.
	masked := *cfg
	masked.Sources.UnsplashAccessKey = maskKey(cfg.Sources.UnsplashAccessKey)
	masked.Sources.PexelsAPIKey = maskKey(cfg.Sources.PexelsAPIKey)
	masked.Sources.PixabayAPIKey = maskKey(cfg.Sources.PixabayAPIKey)
	masked.Sources.WallhavenAPIKey = maskKey(cfg.Sources.WallhavenAPIKey)

	data, err := yaml.Marshal(&masked)
	if err != nil {
		ui.PrintError("Failed to render configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Effective configuration:")
	fmt.Println(string(data))
	ui.PrintInfo("Enabled sources", fmt.Sprintf("%d", cfg.EnabledSourceCount()))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()

	path := configFile
	if err := cfg.LoadFromFile(path); err != nil {
		ui.PrintError("Configuration file is invalid", err.Error())
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
