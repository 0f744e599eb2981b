package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChallengeStatus is the stored lifecycle state of a challenge.
// Expiry is derived from ExpiresAt, not stored as a status.
type ChallengeStatus string

const (
	// StatusPending means the challenge is waiting for a matching transfer
	StatusPending ChallengeStatus = "PENDING"

	// StatusConsumed means a matching transfer was observed and the
	// challenge was atomically consumed
	StatusConsumed ChallengeStatus = "CONSUMED"
)

// Challenge represents a pending proof-of-ownership request
type Challenge struct {
	ID             string          // Unique identifier, also carried by the correlation token
	Address        string          // Address the requester claims to control
	UserID         string          // Optional identity-store user to bind the wallet to
	Code           string          // One-time code the claimant must place in the transfer memo
	DepositAddress string          // Server-controlled address the transfer must be sent to
	RequiredAmount decimal.Decimal // Advertised minimal transfer amount
	CreatedAt      time.Time       // When the challenge was issued
	ExpiresAt      time.Time       // When the challenge stops being matchable
	Status         ChallengeStatus // PENDING or CONSUMED
	ConsumedTxHash string          // Hash of the consuming transfer, empty until consumed
}

// Expired reports whether the challenge can no longer be consumed at now.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// MatchesMemo reports whether a transfer memo carries this challenge's code.
// Memo fields are free text typed through variable wallet UIs, so the
// comparison ignores case and surrounding whitespace.
func (c *Challenge) MatchesMemo(memo string) bool {
	return NormalizeMemo(memo) == NormalizeMemo(c.Code)
}

// NormalizeMemo trims and case-folds a memo value for comparison.
func NormalizeMemo(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
