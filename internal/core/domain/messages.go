package domain

import (
	"time"

	"github.com/google/uuid"
)

// Broker topics for integration events.
const (
	TopicWalletCreated  = "wallet-created"
	TopicBalanceChanged = "balance-changed"
)

// WalletCreatedMessage is published after a wallet-creation command commits.
// Consumed by the read projection to seed the wallet document.
type WalletCreatedMessage struct {
	AggregateID uuid.UUID `json:"aggregate_id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	Balance     *int64    `json:"balance,omitempty"`
}

// BalanceChangedMessage is published after a deposit or withdrawal commits,
// carrying the wallet's new balance.
type BalanceChangedMessage struct {
	WalletID uuid.UUID `json:"wallet_id"`
	Balance  int64     `json:"balance"`
}
