package auth

import (
	"encoding/json"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "wallscraper"
	keyringPrefix  = "apikey_"
)

// KeyringStore implements KeyStore using the system keychain.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-based key store, probing the keychain
// once so headless systems fall through to the encrypted file store.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves a provider key to the system keychain.
func (k *KeyringStore) Store(cred *Credential) error {
	if cred == nil || cred.Provider == "" {
		return ErrInvalidKey
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	key := keyringPrefix + cred.Provider
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Retrieve gets a provider key from the system keychain.
func (k *KeyringStore) Retrieve(provider string) (*Credential, error) {
	if provider == "" {
		return nil, ErrInvalidKey
	}

	data, err := keyring.Get(keyringService, keyringPrefix+provider)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

// List enumerates the known providers; go-keyring cannot list keys, so
// each one is probed individually.
func (k *KeyringStore) List() ([]*Credential, error) {
	var creds []*Credential
	for _, provider := range Providers {
		if cred, err := k.Retrieve(provider); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete removes a provider key from the system keychain.
func (k *KeyringStore) Delete(provider string) error {
	if provider == "" {
		return ErrInvalidKey
	}

	if err := keyring.Delete(keyringService, keyringPrefix+provider); err != nil {
		if err == keyring.ErrNotFound {
			return ErrKeyNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// Exists checks if a provider key exists in the keychain.
func (k *KeyringStore) Exists(provider string) bool {
	if provider == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+provider)
	return err == nil
}
