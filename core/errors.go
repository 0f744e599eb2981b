package core

import "errors"

var (
	// ErrInvalidAddress is returned when a claimed address is malformed
	ErrInvalidAddress = errors.New("invalid address")

	// ErrTokenInvalid is returned when a correlation token is malformed,
	// mis-signed, or bound to a different address
	ErrTokenInvalid = errors.New("invalid correlation token")

	// ErrChallengeExpired is returned when a challenge's TTL has elapsed;
	// the client must issue a new one
	ErrChallengeExpired = errors.New("challenge has expired")

	// ErrLedgerUnavailable is returned when the chain read API cannot be
	// reached; transient, the caller should retry with backoff
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrSessionInvalid is returned when a session credential is expired
	// or forged; the two cases are deliberately not distinguished
	ErrSessionInvalid = errors.New("session is invalid")

	// ErrStoreUnavailable is returned when the challenge store backend
	// fails an operation
	ErrStoreUnavailable = errors.New("challenge store unavailable")
)
