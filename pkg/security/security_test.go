package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkforge/inkforge-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifySecret(t *testing.T) {
	cfg := testPasswordConfig()

	encoded, err := HashSecret("hunter2!", cfg)
	require.NoError(t, err)
	assert.Contains(t, encoded, "$argon2id$")

	ok, err := VerifySecret("hunter2!", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySecret("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashSecret_DistinctSalts(t *testing.T) {
	cfg := testPasswordConfig()

	first, err := HashSecret("same-input", cfg)
	require.NoError(t, err)
	second, err := HashSecret("same-input", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifySecret_MalformedHash(t *testing.T) {
	_, err := VerifySecret("anything", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestHashSecret_Empty(t *testing.T) {
	_, err := HashSecret("", testPasswordConfig())
	assert.Error(t, err)
}

func TestGenerateOTP(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, OTPLength)
		for _, r := range code {
			assert.GreaterOrEqual(t, r, '0')
			assert.LessOrEqual(t, r, '9')
		}
		seen[code] = true
	}
	// 20 draws from a million-value space should not all collide.
	assert.Greater(t, len(seen), 1)
}
