// Package common defines shared constants and sentinel errors used across
// the windykator services. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid login/password")

	// The invoicing SaaS write failed; the local mirror must not be
	// touched for the failed record.
	ErrSaaSWrite = errors.New("invoicing api write failed")

	// Reminder flow errors.
	ErrUnknownChannel = errors.New("unknown reminder channel")
	ErrInvalidLevel   = errors.New("invalid reminder level")
)
