package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletDocument is the denormalized read-model view of one wallet,
// eventually consistent with the ledger. Balance is nil until the projection
// has observed a balance for the wallet.
type WalletDocument struct {
	WalletID  uuid.UUID `json:"wallet_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	Balance   *int64    `json:"balance,omitempty"`
}
