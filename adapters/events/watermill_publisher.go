package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/openaxm/walletgate/ports"
)

// WalletVerifiedEvent tells the identity store that a wallet address has
// been proven for a user, so it can persist the wallet record and update
// primary-wallet flags. Multi-wallet bookkeeping stays on the consumer
// side.
type WalletVerifiedEvent struct {
	Address    string    `json:"address"`
	UserID     string    `json:"user_id,omitempty"`
	TxHash     string    `json:"tx_hash"`
	VerifiedAt time.Time `json:"verified_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     "walletgate.wallet.verified",
	}
}

// PublishWalletVerified publishes a wallet-verified event
func (p *WatermillPublisher) PublishWalletVerified(ctx context.Context, address, userID, txHash string) error {
	event := WalletVerifiedEvent{
		Address:    address,
		UserID:     userID,
		TxHash:     txHash,
		VerifiedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(txHash, payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
