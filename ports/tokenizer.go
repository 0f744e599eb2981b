package ports

import "github.com/openaxm/walletgate/core"

// Tokenizer mints and verifies the two token kinds the protocol uses:
// correlation tokens (opaque polling handles) and session credentials.
type Tokenizer interface {
	// MintCorrelationToken creates a signed handle bound to a challenge
	// and its claimed address, letting a client poll status without
	// re-exposing the raw code.
	MintCorrelationToken(ch *core.Challenge) (string, error)

	// VerifyCorrelationToken checks the token's signature, expiry, and
	// that it was minted for the given address, and returns the
	// challenge id it is bound to. It fails closed with
	// core.ErrTokenInvalid without revealing which check failed.
	VerifyCorrelationToken(token, address string) (challengeID string, err error)

	// MintSessionToken creates a signed session credential asserting
	// that walletAddress has been verified, optionally bound to an
	// identity-store user.
	MintSessionToken(walletAddress, userID string) (string, error)

	// VerifySessionToken validates a session credential by signature and
	// expiry alone; no store lookup is involved. It fails closed with
	// core.ErrSessionInvalid.
	VerifySessionToken(token string) (*core.SessionClaims, error)
}
