// Package crypto holds the primitives behind report encryption: AES-256-CBC
// with PKCS#7 padding for section content, plus content-key generation and
// the HKDF-based per-organization key hierarchy in keys.go.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// keyLength is the AES-256 key size in bytes.
const keyLength = 32

// Encrypt encrypts plaintext with AES-256-CBC under a fresh random IV.
// Wire format: base64(hex(iv) + hex(ciphertext)).
func Encrypt(plainText string, key []byte) (string, error) {
	if len(key) != keyLength {
		return "", fmt.Errorf("invalid key length %d: AES-256 requires %d bytes", len(key), keyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := padPKCS7([]byte(plainText), aes.BlockSize)
	cipherText := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cipherText, padded)

	combined := hex.EncodeToString(iv) + hex.EncodeToString(cipherText)
	return base64.StdEncoding.EncodeToString([]byte(combined)), nil
}

// Decrypt reverses Encrypt. Any structural defect in the input (bad base64,
// bad hex, missing IV, non-block-aligned ciphertext, inconsistent padding)
// returns an error; truncated or tampered input never yields plaintext.
func Decrypt(cipherTextBase64 string, key []byte) (string, error) {
	if len(key) != keyLength {
		return "", fmt.Errorf("invalid key length %d: AES-256 requires %d bytes", len(key), keyLength)
	}

	decoded, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 envelope: %w", err)
	}

	combined := string(decoded)
	ivHexLen := aes.BlockSize * 2
	if len(combined) < ivHexLen {
		return "", errors.New("ciphertext too short to carry an IV")
	}

	iv, err := hex.DecodeString(combined[:ivHexLen])
	if err != nil {
		return "", fmt.Errorf("failed to decode IV: %w", err)
	}
	cipherText, err := hex.DecodeString(combined[ivHexLen:])
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return "", errors.New("ciphertext length is not a multiple of the AES block size")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	padded := make([]byte, len(cipherText))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, cipherText)

	plain, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("failed to remove padding: %w", err)
	}
	return string(plain), nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("padded data length is invalid")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.New("padding marker out of range")
	}
	for _, b := range data[len(data)-n:] {
		if b != byte(n) {
			return nil, errors.New("padding bytes are inconsistent")
		}
	}
	return data[:len(data)-n], nil
}
