package auth

import (
	"os"
	"time"
)

// envVarFor maps each provider to its canonical environment variable.
var envVarFor = map[string]string{
	"unsplash":  "UNSPLASH_ACCESS_KEY",
	"pexels":    "PEXELS_API_KEY",
	"pixabay":   "PIXABAY_API_KEY",
	"wallhaven": "WALLHAVEN_API_KEY",
}

// EnvironmentStore implements KeyStore using environment variables. It is
// read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based key store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables.
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets a provider key from its environment variable.
func (e *EnvironmentStore) Retrieve(provider string) (*Credential, error) {
	envVar, ok := envVarFor[provider]
	if !ok {
		return nil, ErrKeyNotFound
	}

	key := os.Getenv(envVar)
	if key == "" {
		return nil, ErrKeyNotFound
	}

	return &Credential{
		Provider:     provider,
		APIKey:       key,
		LastModified: time.Now(),
	}, nil
}

// List returns credentials for every provider with its variable set.
func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, provider := range Providers {
		if cred, err := e.Retrieve(provider); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete(provider string) error {
	return ErrStoreUnavailable
}

// Exists checks if the provider's environment variable is set.
func (e *EnvironmentStore) Exists(provider string) bool {
	envVar, ok := envVarFor[provider]
	return ok && os.Getenv(envVar) != ""
}
