package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type tags under which events are persisted and dispatched.
const (
	EventTypeWalletCreated  = "WalletCreated"
	EventTypeBalanceChanged = "BalanceChanged"
)

// OperationKind represents the direction of a balance change.
type OperationKind string

const (
	OperationDeposit  OperationKind = "DEPOSIT"
	OperationWithdraw OperationKind = "WITHDRAW"
)

// Event is the closed set of wallet domain events. Events are immutable once
// emitted; new variants must be added to every exhaustive switch.
type Event interface {
	isEvent()
	OccurredAt() time.Time
}

// WalletCreated records the creation of a wallet for an owner.
type WalletCreated struct {
	OwnerID   uuid.UUID
	CreatedAt time.Time // UTC
}

func (WalletCreated) isEvent() {}

func (e WalletCreated) OccurredAt() time.Time { return e.CreatedAt }

// BalanceChanged records a deposit to or withdrawal from a wallet.
// Amount is in minor currency units and is always positive; the direction
// is carried by Operation.
type BalanceChanged struct {
	Amount    int64
	Operation OperationKind
	CreatedAt time.Time // UTC
}

func (BalanceChanged) isEvent() {}

func (e BalanceChanged) OccurredAt() time.Time { return e.CreatedAt }

// eventTypeName maps an event to its persisted type tag. Unrecognized
// variants fall back to the Go type name for diagnostics.
func eventTypeName(e Event) string {
	switch e.(type) {
	case WalletCreated:
		return EventTypeWalletCreated
	case BalanceChanged:
		return EventTypeBalanceChanged
	default:
		return fmt.Sprintf("%T", e)
	}
}

// EventData is the storage-ready representation of a domain event before it
// is assigned a position in a stream: a type tag plus JSON payload/metadata.
type EventData struct {
	Type     string
	Payload  []byte
	Metadata []byte
}

// EventRecord is one persisted row of the append-only event store. Rows are
// never updated or deleted.
type EventRecord struct {
	StreamID  uuid.UUID
	Version   int64
	Type      string
	Payload   []byte
	Metadata  []byte
	CreatedAt time.Time // server-stamped, UTC
	EventID   uuid.UUID
}
