package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is an observed inbound native-currency transfer on the chain.
// It is the narrow read contract this service needs from the ledger; no
// broader indexing capability is assumed.
type Transfer struct {
	Sender    string          // Originating address
	Recipient string          // Destination address
	Memo      string          // Free-text memo attached to the transfer
	Amount    decimal.Decimal // Transferred amount in the chain's native unit
	Hash      string          // Transaction hash
	Timestamp time.Time       // Block timestamp
}
