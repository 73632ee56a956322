package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"wallscraper/pkg/auth"
	"wallscraper/pkg/config"
	"wallscraper/pkg/fetch"
	"wallscraper/pkg/sources"
	"wallscraper/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage image provider API keys",
	Long: `Manage stored API keys for the image providers.

Keys are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your keys or config files!`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store an API key securely",
	Long: `Store a provider API key in the system keychain or encrypted file.

The key is read from the terminal with echo disabled. Providers:
  ` + strings.Join(auth.Providers, ", "),
	Example: `  # Store an Unsplash access key
  wallscraper auth set unsplash`,
	Args: cobra.ExactArgs(1),
	Run:  runAuthSet,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored API keys",
	Long:  `List all stored provider API keys with the key material masked.`,
	Run:   runAuthList,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove <provider>",
	Short: "Remove a stored API key",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthRemove,
}

// authTestCmd represents the auth test command
var authTestCmd = &cobra.Command{
	Use:   "test [provider]",
	Short: "Verify stored keys against the provider APIs",
	Long: `Run a one-result search against each provider to confirm its stored
key is accepted. With a provider argument only that provider is tested.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthTest,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
	authCmd.AddCommand(authTestCmd)
}

// applyStoredKeys folds keychain and encrypted-file keys into the source
// config. Keys from the environment or config file win because config.Load
// applied them already and stored keys only fill the gaps.
func applyStoredKeys(cfg *config.Config) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	creds, err := manager.List()
	if err != nil {
		return
	}
	for _, cred := range creds {
		switch cred.Provider {
		case "unsplash":
			if cfg.Sources.UnsplashAccessKey == "" {
				cfg.Sources.UnsplashAccessKey = cred.APIKey
			}
		case "pexels":
			if cfg.Sources.PexelsAPIKey == "" {
				cfg.Sources.PexelsAPIKey = cred.APIKey
			}
		case "pixabay":
			if cfg.Sources.PixabayAPIKey == "" {
				cfg.Sources.PixabayAPIKey = cred.APIKey
			}
		case "wallhaven":
			if cfg.Sources.WallhavenAPIKey == "" {
				cfg.Sources.WallhavenAPIKey = cred.APIKey
			}
		}
	}
}

func readPassword() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func runAuthSet(cmd *cobra.Command, args []string) {
	provider := strings.ToLower(strings.TrimSpace(args[0]))
	if !auth.IsKnownProvider(provider) {
		ui.PrintError("Unknown provider", provider)
		ui.PrintInfo("Known providers", strings.Join(auth.Providers, ", "))
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize key store", err.Error())
		os.Exit(1)
	}

	fmt.Printf("%s API key (input hidden): ", provider)
	key, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read key", err.Error())
		os.Exit(1)
	}
	if key == "" {
		ui.PrintError("Key is required", "")
		os.Exit(1)
	}

	cred := &auth.Credential{
		Provider:     provider,
		APIKey:       key,
		LastModified: time.Now(),
	}
	if err := manager.Store(cred); err != nil {
		ui.PrintError("Failed to store key", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Stored API key for %s", provider))
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize key store", err.Error())
		os.Exit(1)
	}

	creds, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list keys", err.Error())
		os.Exit(1)
	}
	if len(creds) == 0 {
		ui.PrintWarning("No stored API keys")
		fmt.Println("\nStore one with:")
		fmt.Println("  wallscraper auth set <provider>")
		return
	}

	for _, cred := range creds {
		masked := auth.Sanitize(cred)
		ui.PrintInfo(masked.Provider, fmt.Sprintf("%s (updated %s)",
			masked.APIKey, masked.LastModified.Format("2006-01-02")))
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	provider := strings.ToLower(strings.TrimSpace(args[0]))
	if !auth.IsKnownProvider(provider) {
		ui.PrintError("Unknown provider", provider)
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize key store", err.Error())
		os.Exit(1)
	}

	if err := manager.Delete(provider); err != nil {
		ui.PrintError("Failed to remove key", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess(fmt.Sprintf("Removed API key for %s", provider))
}

func runAuthTest(cmd *cobra.Command, args []string) {
	var only string
	if len(args) > 0 {
		only = strings.ToLower(strings.TrimSpace(args[0]))
		if !auth.IsKnownProvider(only) {
			ui.PrintError("Unknown provider", only)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	applyStoredKeys(cfg)

	client := fetch.NewClient(15*time.Second, cfg.Sources.UserAgent, nil)
	failures := 0
	for _, src := range sources.All(&cfg.Sources, client) {
		if only != "" && src.Name() != only {
			continue
		}
		if !src.Enabled() {
			ui.PrintWarning(fmt.Sprintf("%s: no API key configured", src.Name()))
			continue
		}

		if _, err := src.Search("nature wallpaper", 1); err != nil {
			ui.PrintError(fmt.Sprintf("%s: %v", src.Name(), err))
			failures++
			continue
		}
		ui.PrintSuccess(fmt.Sprintf("%s: key accepted", src.Name()))
	}

	if failures > 0 {
		os.Exit(1)
	}
}
