// Package common contains shared constants and sentinel errors used across
// windykator components.
package common

// AuthorizationHeaderName is the HTTP header carrying the operator bearer
// token on API requests.
const AuthorizationHeaderName = "Authorization"
