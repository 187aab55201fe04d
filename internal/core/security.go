// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLength   = 16
)

// GenerateSalt returns 16 random bytes, hex encoded.
func GenerateSalt() (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives the stored hash for password under salt.
func HashPassword(password, salt string) string {
	key := argon2.IDKey(
		[]byte(password),
		[]byte(salt),
		argonTime,
		argonMemory,
		argonThreads,
		argonKeyLen,
	)
	return hex.EncodeToString(key)
}

// NewPasswordHash generates a fresh salt and the matching hash.
func NewPasswordHash(password string) (hash, salt string, err error) {
	salt, err = GenerateSalt()
	if err != nil {
		return "", "", err
	}
	return HashPassword(password, salt), salt, nil
}

func VerifyPassword(password, salt, hash string) bool {
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) == 0 {
		return false
	}

	got, err := hex.DecodeString(HashPassword(password, salt))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(want, got) == 1
}

var dummySalt, dummyHash string

func init() {
	hash, salt, err := NewPasswordHash("dummy_password_for_timing_attack_prevention")
	if err != nil {
		panic(fmt.Sprintf("security: failed to generate dummy hash: %v", err))
	}
	dummyHash, dummySalt = hash, salt
}

// VerifyPasswordTimingSafe performs a full derivation even when the account
// has no stored hash, so a missing user costs the same as a wrong password.
func VerifyPasswordTimingSafe(password, salt, hash string) bool {
	if hash == "" {
		VerifyPassword(password, dummySalt, dummyHash)
		return false
	}
	return VerifyPassword(password, salt, hash)
}

// GenerateSecureToken returns length random bytes, hex encoded.
func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func GenerateResetToken() (string, error) {
	return GenerateSecureToken(32)
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func CompareTokenHash(token, hash string) bool {
	tokenHash := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(hash)) == 1
}
