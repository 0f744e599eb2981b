package ports

import "context"

// EventPublisher notifies external collaborators about protocol outcomes.
type EventPublisher interface {
	// PublishWalletVerified emits a wallet-verified event for the
	// identity store to persist the (user, wallet) association.
	PublishWalletVerified(ctx context.Context, address, userID, txHash string) error
}
