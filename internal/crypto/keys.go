package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// GenerateContentKey returns a fresh random AES-256 content key. One content
// key protects all three sections of a report; it is stored only in wrapped
// form.
func GenerateContentKey() ([]byte, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate content key: %w", err)
	}
	return key, nil
}

// DeriveOrgKey derives a per-organization wrapping key from the master key
// using HKDF-SHA256 with the organization id as info. The same (master, org)
// pair always yields the same key.
func DeriveOrgKey(masterKey []byte, orgID string) ([]byte, error) {
	if len(masterKey) != keyLength {
		return nil, fmt.Errorf("invalid master key length: must be %d bytes", keyLength)
	}
	if orgID == "" {
		return nil, errors.New("organization id cannot be empty for key derivation")
	}

	reader := hkdf.New(sha256.New, masterKey, nil, []byte("org-report-key:"+orgID))
	orgKey := make([]byte, keyLength)
	if _, err := io.ReadFull(reader, orgKey); err != nil {
		return nil, fmt.Errorf("failed to derive organization key: %w", err)
	}
	return orgKey, nil
}

// WrapKey encrypts a content key under the organization key for storage
// alongside the report.
func WrapKey(contentKey, orgKey []byte) (string, error) {
	if len(contentKey) != keyLength {
		return "", fmt.Errorf("invalid content key length: must be %d bytes", keyLength)
	}
	encoded := base64.StdEncoding.EncodeToString(contentKey)
	wrapped, err := Encrypt(encoded, orgKey)
	if err != nil {
		return "", fmt.Errorf("failed to wrap content key: %w", err)
	}
	return wrapped, nil
}

// UnwrapKey reverses WrapKey and returns the raw content key.
func UnwrapKey(wrappedKey string, orgKey []byte) ([]byte, error) {
	encoded, err := Decrypt(wrappedKey, orgKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap content key: %w", err)
	}
	contentKey, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode unwrapped content key: %w", err)
	}
	if len(contentKey) != keyLength {
		return nil, fmt.Errorf("unwrapped content key has invalid length %d", len(contentKey))
	}
	return contentKey, nil
}
