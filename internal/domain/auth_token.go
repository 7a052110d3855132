package domain

import "errors"

var (
	// ErrNoAuthToken is returned when an authentication token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrInvalidAuthToken is returned when a token's signature or claims are invalid.
	ErrInvalidAuthToken = errors.New("invalid auth token")
	// ErrExpiredAuthToken is returned when a token is past its expiry.
	ErrExpiredAuthToken = errors.New("expired auth token")
)

// AuthToken holds the verified claims of a bearer token.
type AuthToken struct {
	UserID    ID    `json:"sub"` // Identifier of the authenticated user
	IssuedAt  int64 `json:"iat"` // Unix timestamp when the token was created
	ExpiresAt int64 `json:"exp"` // Unix timestamp when the token expires
}

// AuthTokenResponse is returned by join and login.
type AuthTokenResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}
