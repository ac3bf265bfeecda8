package crypto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := testKey(0x42)
	plaintexts := []string{
		"",
		"short",
		`{"applicationName":"example.com","passwordCount":3}`,
		strings.Repeat("block-aligned-16", 64),
	}

	for _, plain := range plaintexts {
		encrypted, err := Encrypt(plain, key)
		require.NoError(t, err)
		assert.NotEqual(t, plain, encrypted)

		decrypted, err := Decrypt(encrypted, key)
		require.NoError(t, err)
		assert.Equal(t, plain, decrypted)
	}
}

func TestEncrypt_RejectsInvalidKeyLength(t *testing.T) {
	_, err := Encrypt("data", []byte("too-short"))
	assert.Error(t, err)

	_, err = Decrypt("anything", []byte("too-short"))
	assert.Error(t, err)
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	key := testKey(0x01)
	first, err := Encrypt("same plaintext", key)
	require.NoError(t, err)
	second, err := Encrypt("same plaintext", key)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestDecrypt_RejectsTruncatedInput(t *testing.T) {
	key := testKey(0x02)
	encrypted, err := Encrypt("some content", key)
	require.NoError(t, err)

	_, err = Decrypt(encrypted[:len(encrypted)/2], key)
	assert.Error(t, err)

	_, err = Decrypt("not-base64!!!", key)
	assert.Error(t, err)
}

func TestGenerateContentKey_Length(t *testing.T) {
	key, err := GenerateContentKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)

	other, err := GenerateContentKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

// TestDeriveOrgKey verifies derivation is deterministic per organization and
// distinct across organizations.
func TestDeriveOrgKey(t *testing.T) {
	master := testKey(0x07)

	first, err := DeriveOrgKey(master, "org-1")
	require.NoError(t, err)
	again, err := DeriveOrgKey(master, "org-1")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := DeriveOrgKey(master, "org-2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.NotEqual(t, master, first)
}

func TestDeriveOrgKey_Validation(t *testing.T) {
	_, err := DeriveOrgKey([]byte("short"), "org-1")
	assert.Error(t, err)

	_, err = DeriveOrgKey(testKey(0x07), "")
	assert.Error(t, err)
}

func TestWrapUnwrapKey_RoundTrip(t *testing.T) {
	orgKey, err := DeriveOrgKey(testKey(0x09), "org-1")
	require.NoError(t, err)
	contentKey, err := GenerateContentKey()
	require.NoError(t, err)

	wrapped, err := WrapKey(contentKey, orgKey)
	require.NoError(t, err)
	assert.NotContains(t, wrapped, string(contentKey))

	unwrapped, err := UnwrapKey(wrapped, orgKey)
	require.NoError(t, err)
	assert.Equal(t, contentKey, unwrapped)
}

func TestUnwrapKey_RejectsCorruptedInput(t *testing.T) {
	orgKey, err := DeriveOrgKey(testKey(0x09), "org-1")
	require.NoError(t, err)

	_, err = UnwrapKey("garbage", orgKey)
	assert.Error(t, err)
}
