package keyring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mnemonic tests ---

func TestGenerateMnemonic_12Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, 12)
	assert.True(t, ValidateMnemonic(mnemonic))
}

func TestGenerateMnemonic_24Words(t *testing.T) {
	mnemonic, err := GenerateMnemonic(Mnemonic24Words)
	require.NoError(t, err)

	words := strings.Fields(mnemonic)
	assert.Len(t, words, 24)
	assert.True(t, ValidateMnemonic(mnemonic))
}

func TestGenerateMnemonic_InvalidEntropy(t *testing.T) {
	_, err := GenerateMnemonic(64)
	assert.ErrorIs(t, err, ErrInvalidEntropy)

	_, err = GenerateMnemonic(192)
	assert.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestGenerateMnemonic_Unique(t *testing.T) {
	m1, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	m2, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)

	assert.NotEqual(t, m1, m2)
}

func TestValidateMnemonic(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic string
		valid    bool
	}{
		{"valid 12-word", testMnemonic, true},
		{"invalid words", "foo bar baz qux quux corge grault garply waldo fred plugh xyzzy", false},
		{"empty", "", false},
		{"partial", "abandon abandon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateMnemonic(tt.mnemonic))
		})
	}
}

// --- Seed derivation tests ---

func TestSeedFromMnemonic_Deterministic(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	seed2, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	assert.Equal(t, seed1, seed2)
	assert.Len(t, seed1, 64, "BIP39 seed should be 64 bytes")
}

func TestSeedFromMnemonic_DifferentPassphrase(t *testing.T) {
	seed1, err := SeedFromMnemonic(testMnemonic, "")
	require.NoError(t, err)

	seed2, err := SeedFromMnemonic(testMnemonic, "my secret passphrase")
	require.NoError(t, err)

	assert.NotEqual(t, seed1, seed2)
}

func TestSeedFromMnemonic_Invalid(t *testing.T) {
	_, err := SeedFromMnemonic("invalid mnemonic words here", "")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

// --- Seed encryption tests ---

func TestEncryptDecryptSeed_RoundTrip(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}

	password := "test-password-123"

	encrypted, err := EncryptSeed(seed, password)
	require.NoError(t, err)
	assert.Greater(t, len(encrypted), len(seed))

	decrypted, err := DecryptSeed(encrypted, password)
	require.NoError(t, err)
	assert.Equal(t, seed, decrypted)
}

func TestDecryptSeed_WrongPassword(t *testing.T) {
	seed := make([]byte, 64)

	encrypted, err := EncryptSeed(seed, "correct-password")
	require.NoError(t, err)

	_, err = DecryptSeed(encrypted, "wrong-password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptSeed_Corrupted(t *testing.T) {
	seed := make([]byte, 64)

	encrypted, err := EncryptSeed(seed, "password")
	require.NoError(t, err)

	// Flip a ciphertext byte; GCM authentication must reject it.
	encrypted[len(encrypted)-1] ^= 0xFF
	_, err = DecryptSeed(encrypted, "password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_EmptySeed(t *testing.T) {
	_, err := EncryptSeed([]byte{}, "password")
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestDecryptSeed_TooShort(t *testing.T) {
	_, err := DecryptSeed([]byte{0x01, 0x02, 0x03}, "password")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptSeed_DifferentCiphertexts(t *testing.T) {
	seed := make([]byte, 64)
	password := "same-password"

	enc1, err := EncryptSeed(seed, password)
	require.NoError(t, err)

	enc2, err := EncryptSeed(seed, password)
	require.NoError(t, err)

	// Random salt and nonce make every encryption unique.
	assert.NotEqual(t, enc1, enc2)

	dec1, err := DecryptSeed(enc1, password)
	require.NoError(t, err)
	assert.Equal(t, seed, dec1)

	dec2, err := DecryptSeed(enc2, password)
	require.NoError(t, err)
	assert.Equal(t, seed, dec2)
}
