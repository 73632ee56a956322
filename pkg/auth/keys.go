// Package auth stores image-provider API keys. Keys live in the system
// keychain when one is available, with an encrypted file fallback, and
// environment variables as a read-only last resort.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Providers that accept an API key, in display order.
var Providers = []string{"unsplash", "pexels", "pixabay", "wallhaven"}

// Credential is one provider's stored API key.
type Credential struct {
	Provider     string    `json:"provider"`
	APIKey       string    `json:"api_key"`
	LastModified time.Time `json:"last_modified"`
}

// KeyStore is the interface for storing and retrieving provider keys.
type KeyStore interface {
	// Store saves a provider key
	Store(cred *Credential) error

	// Retrieve gets the key for a provider
	Retrieve(provider string) (*Credential, error)

	// List returns all stored credentials
	List() ([]*Credential, error)

	// Delete removes the key for a provider
	Delete(provider string) error

	// Exists checks if a key exists for a provider
	Exists(provider string) bool
}

// Manager handles key storage with fallback mechanisms.
type Manager struct {
	stores []KeyStore
}

// NewManager creates a key manager with the available storage backends.
func NewManager() (*Manager, error) {
	var stores []KeyStore

	// System keychain first.
	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "api_keys.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// IsKnownProvider reports whether the provider name is recognized.
func IsKnownProvider(provider string) bool {
	for _, p := range Providers {
		if p == provider {
			return true
		}
	}
	return false
}

// Store saves a key using the first store that accepts it.
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || cred.Provider == "" {
		return errors.New("provider is required")
	}
	if !IsKnownProvider(cred.Provider) {
		return fmt.Errorf("unknown provider: %s", cred.Provider)
	}
	if cred.APIKey == "" {
		return errors.New("API key is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(cred); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store API key: %w", lastErr)
	}
	return errors.New("no available key stores")
}

// Retrieve gets a provider's key from the first store that has it.
func (m *Manager) Retrieve(provider string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(provider); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("no API key found for provider: %s", provider)
}

// List returns all stored credentials across all stores, keeping the most
// recently modified version of each provider's key.
func (m *Manager) List() ([]*Credential, error) {
	credMap := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := credMap[cred.Provider]; !ok || cred.LastModified.After(existing.LastModified) {
				credMap[cred.Provider] = cred
			}
		}
	}

	var result []*Credential
	for _, p := range Providers {
		if cred, ok := credMap[p]; ok {
			result = append(result, cred)
		}
	}
	return result, nil
}

// Delete removes a provider's key from all stores.
func (m *Manager) Delete(provider string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(provider); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete API key: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("no API key found for provider: %s", provider)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "wallscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "wallscraper")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "wallscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "wallscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize creates a copy of the credential with the key masked for
// display.
func Sanitize(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	return &Credential{
		Provider:     cred.Provider,
		APIKey:       maskString(cred.APIKey),
		LastModified: cred.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters.
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// Errors
var (
	ErrKeyNotFound      = errors.New("API key not found")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrStoreUnavailable = errors.New("key store unavailable")
)
