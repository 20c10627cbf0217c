// Package cryptox derives and checks the operator password verifier.
// The server never stores the password itself, only an argon2id-derived
// verifier plus the random salt used for derivation.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches the password with argon2id using the given salt.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key into the value stored in configuration.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// VerifyPassword reports whether the password matches the stored verifier.
// Comparison is constant-time.
func VerifyPassword(password []byte, salt []byte, verifier []byte) bool {
	v := MakeVerifier(DeriveKey(password, salt))
	return subtle.ConstantTimeCompare(v, verifier) == 1
}

// NewSalt returns a fresh random salt, hex-encoded for config storage.
func NewSalt() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
