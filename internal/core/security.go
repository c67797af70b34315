// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	credentialScheme = "sha2"
	saltLength       = 16
	alphanumeric     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

func HashCredential(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func VerifyCredential(password, salt, expected string) bool {
	actual := HashCredential(password, salt)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}

// EncodeCredential returns "sha2:<digest>:<salt>" with a fresh salt.
func EncodeCredential(password string) (string, error) {
	salt, err := RandomString(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return fmt.Sprintf(
		"%s:%s:%s",
		credentialScheme,
		HashCredential(password, salt),
		salt,
	), nil
}

func CheckStoredCredential(password, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 3 || parts[0] != credentialScheme {
		return false
	}
	return VerifyCredential(password, parts[2], parts[1])
}

var dummyCredential = credentialScheme + ":" +
	HashCredential("dummy_password_for_timing_attack_prevention", "0000000000000000") +
	":0000000000000000"

// CheckCredentialTimingSafe spends the same work on unknown accounts as on
// known ones. A nil or empty stored value never verifies.
func CheckCredentialTimingSafe(password string, stored *string) bool {
	target := dummyCredential
	if stored != nil && *stored != "" {
		target = *stored
	}

	valid := CheckStoredCredential(password, target)

	if stored == nil || *stored == "" {
		return false
	}
	return valid
}

func RandomString(n int) (string, error) {
	limit := big.NewInt(int64(len(alphanumeric)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out), nil
}
