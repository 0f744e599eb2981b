package ports

import (
	"context"
	"time"

	"github.com/openaxm/walletgate/core"
)

// LedgerReader is the narrow read contract against the external chain API.
// The service depends only on inbound-transfer lookups, not on any broader
// indexing capability.
type LedgerReader interface {
	// InboundTransfers returns transfers received by recipient since the
	// given time, in chain order. Network or upstream failures are
	// reported as core.ErrLedgerUnavailable so callers can distinguish
	// "try again" from "not verified".
	InboundTransfers(ctx context.Context, recipient string, since time.Time) ([]core.Transfer, error)
}
