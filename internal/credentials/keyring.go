// Package credentials keeps the outcome endpoint's bearer token out of config
// files: in the OS keychain where one exists, in a private JSON file where it
// does not.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	defaultService = "reelspin"
	keyToken       = "token"
)

// ErrNotFound is returned when no token is stored for a profile.
var ErrNotFound = keyring.ErrNotFound

// KeyringStore wraps OS keychain with an optional file fallback.
type KeyringStore struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewKeyringStore creates a keyring wrapper. An empty fallbackPath disables
// the file fallback.
func NewKeyringStore(serviceName, fallbackPath string) *KeyringStore {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultService
	}
	return &KeyringStore{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

func (k *KeyringStore) key(profile, part string) string {
	return fmt.Sprintf("%s/%s", profile, part)
}

// SetToken stores the endpoint token for profile.
func (k *KeyringStore) SetToken(profile, value string) error {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return fmt.Errorf("credentials: profile is required")
	}

	if err := keyring.Set(k.service, k.key(profile, keyToken), value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("credentials: keyring set %s: %w", keyToken, err)
	}
	return k.setFallback(profile, value)
}

// Token returns the stored endpoint token for profile, or ErrNotFound.
func (k *KeyringStore) Token(profile string) (string, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "", fmt.Errorf("credentials: profile is required")
	}

	val, err := keyring.Get(k.service, k.key(profile, keyToken))
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("credentials: keyring get %s: %w", keyToken, err)
	}

	fallback, ferr := k.getFallback(profile)
	if ferr == nil {
		return fallback, nil
	}
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(ferr, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return "", ferr
}

// DeleteToken removes the token for profile from both stores.
func (k *KeyringStore) DeleteToken(profile string) error {
	err := keyring.Delete(k.service, k.key(profile, keyToken))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		// Try fallback cleanup even if keyring delete failed.
		_ = k.deleteFallback(profile)
		return fmt.Errorf("credentials: keyring delete: %w", err)
	}
	return k.deleteFallback(profile)
}

// Resolve picks the token to send: an explicit value wins, otherwise the
// stored one. A missing token is not an error; the endpoint may be open.
func (k *KeyringStore) Resolve(profile, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, nil
	}
	tok, err := k.Token(profile)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return tok, err
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

type fallbackTokens map[string]string

func (k *KeyringStore) setFallback(profile, value string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("credentials: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[profile] = value
	return k.writeFallbackUnlocked(data)
}

func (k *KeyringStore) getFallback(profile string) (string, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", fmt.Errorf("credentials: fallback path not configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[profile]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return val, nil
}

func (k *KeyringStore) deleteFallback(profile string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	if _, ok := data[profile]; !ok {
		return nil
	}
	delete(data, profile)
	return k.writeFallbackUnlocked(data)
}

func (k *KeyringStore) readFallbackUnlocked() (fallbackTokens, error) {
	out := fallbackTokens{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("credentials: read fallback tokens: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("credentials: decode fallback tokens: %w", err)
	}
	return out, nil
}

func (k *KeyringStore) writeFallbackUnlocked(data fallbackTokens) error {
	if err := os.MkdirAll(filepath.Dir(k.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("credentials: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("credentials: encode fallback tokens: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("credentials: write fallback tokens: %w", err)
	}
	return nil
}
