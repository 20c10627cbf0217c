package auth

import (
	"crypto/subtle"
	"encoding/hex"
	"time"

	"windykator/internal/common"
	"windykator/internal/config"
	"windykator/internal/cryptox"
)

// Authenticator checks the single operator credential pair from the config
// and mints bearer tokens for it. There is no user database: this is a
// back-office with exactly one operator identity.
type Authenticator struct {
	login     string
	salt      []byte
	verifier  []byte
	jwtSecret []byte
	validity  time.Duration
}

// NewAuthenticator builds an Authenticator from the server config. Salt and
// verifier are stored hex-encoded; a broken encoding leaves them empty,
// which makes every login fail rather than letting anyone in.
func NewAuthenticator(cfg *config.Config) *Authenticator {
	salt, err := hex.DecodeString(cfg.OperatorSalt)
	if err != nil {
		salt = nil
	}
	verifier, err := hex.DecodeString(cfg.OperatorVerifier)
	if err != nil {
		verifier = nil
	}
	return &Authenticator{
		login:     cfg.OperatorLogin,
		salt:      salt,
		verifier:  verifier,
		jwtSecret: []byte(cfg.SecretKey),
		validity:  cfg.AccessTokenValidityDuration,
	}
}

// Login verifies the credential pair and returns a fresh bearer token.
func (a *Authenticator) Login(login, password string) (string, error) {
	if len(a.verifier) == 0 || len(a.salt) == 0 {
		return "", common.ErrInvalidCredentials
	}
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(a.login)) == 1
	passwordOK := cryptox.VerifyPassword([]byte(password), a.salt, a.verifier)
	if !loginOK || !passwordOK {
		return "", common.ErrInvalidCredentials
	}
	return GenerateToken(a.login, a.jwtSecret, a.validity)
}

// Verify validates a bearer token and returns the operator login.
func (a *Authenticator) Verify(token string) (string, error) {
	return GetLoginFromToken(token, a.jwtSecret)
}
