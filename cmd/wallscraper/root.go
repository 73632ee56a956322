package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"wallscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wallscraper",
	Short: "A mobile wallpaper collection builder",
	Long: `Wallscraper builds and maintains a curated mobile wallpaper collection.

It searches the configured image providers (Unsplash, Pexels, Pixabay,
Wallhaven), downloads portrait images concurrently, drops exact and
near duplicates against a persistent hash ledger, applies a quality
gate, and files accepted images into a category tree with thumbnails
and JSON metadata sidecars. A separate command regenerates the static
JSON API that serves the collection.

Features:
  - Secure API key storage using the system keychain
  - Concurrent downloads with configurable worker count
  - SHA-256 and perceptual-hash deduplication across runs
  - Heuristic quality scoring with auto approve and reject thresholds
  - Static JSON API generation for the collection tree`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.Quiet = true
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .wallscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`wallscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
