package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the OS keyring service name inkguard stores secrets under.
	KeyringService = "inkguard"
	// KeyringLLMUser is the keyring account holding the LLM API key.
	KeyringLLMUser = "llm-api-key"
)

// ErrNoAPIKey is returned when no LLM API key is configured anywhere.
var ErrNoAPIKey = errors.New("no LLM API key configured: set llm.api_key, INKGUARD_LLM_API_KEY, or run `inkguard auth set`")

// ResolveAPIKey returns the LLM API key from config (which already includes
// the environment), falling back to the OS keyring.
func (c LLMConfig) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	key, err := keyring.Get(KeyringService, KeyringLLMUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoAPIKey
		}
		return "", fmt.Errorf("reading keyring: %w", err)
	}
	return key, nil
}

// StoreAPIKey saves the LLM API key in the OS keyring.
func StoreAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("api key is empty")
	}
	if err := keyring.Set(KeyringService, KeyringLLMUser, key); err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the LLM API key from the OS keyring. Deleting a key
// that is not stored is not an error.
func DeleteAPIKey() error {
	if err := keyring.Delete(KeyringService, KeyringLLMUser); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keyring entry: %w", err)
	}
	return nil
}

// HasStoredAPIKey reports whether the keyring holds an LLM API key.
func HasStoredAPIKey() (bool, error) {
	_, err := keyring.Get(KeyringService, KeyringLLMUser)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, keyring.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("reading keyring: %w", err)
	}
}
