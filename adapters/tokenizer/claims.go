package tokenizer

import "github.com/golang-jwt/jwt/v5"

// CorrelationClaims are the claims of a correlation token: the registered
// set carries everything (subject is the claimed address, ID the challenge
// id) plus the optional identity-store user.
type CorrelationClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid,omitempty"`
}

// SessionClaims combines standard claims with the verified-wallet assertion
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid,omitempty"`
	Verified bool   `json:"verified"`
}
