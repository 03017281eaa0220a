package ports

import (
	"context"

	"github.com/google/uuid"
)

// WalletService is the command/query surface consumed by the HTTP layer.
//
// Writes go through the event-sourced ledger with optimistic concurrency;
// a conflicting concurrent writer surfaces as a CON_001 error and the caller
// owns the retry decision. GetBalance replays the full stream (strictly
// consistent, higher latency); GetOwnerBalance reads the asynchronous
// read model (lower latency, eventually consistent).
type WalletService interface {
	CreateWallet(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error)
	Deposit(ctx context.Context, walletID, ownerID uuid.UUID, amount int64) error
	Withdraw(ctx context.Context, walletID, ownerID uuid.UUID, amount int64) error
	GetBalance(ctx context.Context, walletID, ownerID uuid.UUID) (int64, error)
	GetOwnerBalance(ctx context.Context, ownerID uuid.UUID) (*int64, error)
}

// ProjectionService consumes integration events and maintains the wallet
// read model. Both handlers are idempotent with respect to at-least-once
// delivery.
type ProjectionService interface {
	HandleWalletCreated(ctx context.Context, payload []byte) error
	HandleBalanceChanged(ctx context.Context, payload []byte) error
}
