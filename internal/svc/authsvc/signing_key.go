package authsvc

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultKeySize is the default HMAC signing key size in bytes.
const DefaultKeySize = 32

// minKeySize is the smallest accepted signing key, in bytes.
const minKeySize = 16

// ErrWeakSigningKey is returned for signing keys shorter than 16 bytes.
var ErrWeakSigningKey = errors.New("signing key too short")

// DecodeSigningKey reads a hex encoded signing key.
// Surrounding whitespace is ignored.
func DecodeSigningKey(key io.Reader) ([]byte, error) {
	buf, err := io.ReadAll(key)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	signingKey, err := hex.DecodeString(string(bytes.TrimSpace(buf)))
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}

	if len(signingKey) < minKeySize {
		return nil, ErrWeakSigningKey
	}

	return signingKey, nil
}

// GenerateSigningKey creates a random signing key of the given size in bytes.
func GenerateSigningKey(size int) ([]byte, error) {
	signingKey := make([]byte, size)
	if _, err := rand.Read(signingKey); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	return signingKey, nil
}

// GetSigningKey returns the signing key for the configuration.
// A configured secret is used as is. Otherwise the key is loaded from the
// secret file, which is created with a fresh random key if it doesn't exist.
func GetSigningKey(cfg AuthConfig) ([]byte, error) {
	if cfg.Secret != "" {
		if len(cfg.Secret) < minKeySize {
			return nil, ErrWeakSigningKey
		}

		return []byte(cfg.Secret), nil
	}

	// Try decode existing key
	keyFile, err := os.Open(cfg.SecretFile)
	if err == nil {
		defer keyFile.Close()

		signingKey, err := DecodeSigningKey(keyFile)
		if err != nil {
			return nil, fmt.Errorf("decode signing key: %w", err)
		}

		return signingKey, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open key file: %w", err)
	}

	// Generate new key
	signingKey, err := GenerateSigningKey(DefaultKeySize)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}

	if dir := filepath.Dir(cfg.SecretFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create key dir: %w", err)
		}
	}

	// Write key to file
	if err := os.WriteFile(cfg.SecretFile, []byte(hex.EncodeToString(signingKey)+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return signingKey, nil
}
