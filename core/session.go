package core

import "time"

// SessionClaims is the verified content of a session credential. Validity
// is determined purely by signature and expiry; there is no server-side
// revocation list, so the session TTL bounds the blast radius of a leaked
// token.
type SessionClaims struct {
	WalletAddress string    // Address whose ownership was proven
	UserID        string    // Optional identity-store user, empty if unbound
	Verified      bool      // Always true for minted credentials
	IssuedAt      time.Time // When the credential was minted
	ExpiresAt     time.Time // When the credential stops verifying
}

// VerificationOutcome is the structured result of a status poll.
// An unverified outcome is the normal "still waiting" response, not an
// error.
type VerificationOutcome struct {
	Verified      bool
	SessionToken  string
	WalletAddress string
	TxHash        string
}
