package ports

import (
	"context"
	"time"

	"github.com/openaxm/walletgate/core"
)

// Store holds pending challenges and owns the single-active-challenge-per-
// address invariant.
type Store interface {
	// Put persists a freshly issued challenge. Any existing pending
	// challenge for the same address is discarded, not merely expired:
	// it must never be matchable again.
	Put(ctx context.Context, ch *core.Challenge) error

	// GetByID retrieves a challenge by its id. Returns (nil, nil) when
	// the challenge does not exist (evicted or superseded).
	GetByID(ctx context.Context, id string) (*core.Challenge, error)

	// FindPendingByCode returns the pending, unexpired challenge whose
	// code matches, or (nil, nil). Used to detect code collisions among
	// currently pending challenges.
	FindPendingByCode(ctx context.Context, code string, now time.Time) (*core.Challenge, error)

	// TryConsume atomically transitions a challenge from PENDING to
	// CONSUMED, recording the consuming transaction hash. It returns
	// false when the challenge is missing, already consumed, or expired.
	// Under concurrent callers racing on the same challenge exactly one
	// observes true.
	TryConsume(ctx context.Context, id, txHash string, now time.Time) (bool, error)

	// Sweep removes challenges whose expiry (plus the store's grace
	// period) has passed. Best-effort housekeeping: lazy expiry checks on
	// read already prevent late consumption.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
