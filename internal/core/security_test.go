// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCredentialDeterministic(t *testing.T) {
	a := HashCredential("hunter2", "saltsaltsaltsalt")
	b := HashCredential("hunter2", "saltsaltsaltsalt")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashCredential("hunter2", "othersaltothersa"))
}

func TestVerifyCredential(t *testing.T) {
	digest := HashCredential("hunter2", "abc")

	assert.True(t, VerifyCredential("hunter2", "abc", digest))
	assert.False(t, VerifyCredential("hunter3", "abc", digest))
	assert.False(t, VerifyCredential("hunter2", "abd", digest))
}

func TestEncodeCredential(t *testing.T) {
	encoded, err := EncodeCredential("correct horse")
	require.NoError(t, err)

	parts := strings.Split(encoded, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "sha2", parts[0])
	assert.Len(t, parts[2], 16)

	assert.True(t, CheckStoredCredential("correct horse", encoded))
	assert.False(t, CheckStoredCredential("wrong horse", encoded))

	again, err := EncodeCredential("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again)
}

func TestCheckStoredCredentialMalformed(t *testing.T) {
	digest := HashCredential("pw", "salt")

	cases := map[string]string{
		"empty":          "",
		"two fields":     "sha2:" + digest,
		"four fields":    "sha2:" + digest + ":salt:extra",
		"unknown scheme": "md5:" + digest + ":salt",
		"argon":          "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}

	for name, stored := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, CheckStoredCredential("pw", stored))
			})
		})
	}
}

func TestCheckCredentialTimingSafe(t *testing.T) {
	encoded, err := EncodeCredential("pw")
	require.NoError(t, err)

	assert.True(t, CheckCredentialTimingSafe("pw", &encoded))
	assert.False(t, CheckCredentialTimingSafe("nope", &encoded))
	assert.False(t, CheckCredentialTimingSafe("pw", nil))

	empty := ""
	assert.False(t, CheckCredentialTimingSafe("pw", &empty))
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(16)
	require.NoError(t, err)
	assert.Len(t, s, 16)

	for _, r := range s {
		assert.True(t, strings.ContainsRune(alphanumeric, r))
	}

	other, err := RandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, s, other)
}
