// Package codec maps between typed domain events and their stored
// (type tag, JSON payload, JSON metadata) representation.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

type walletCreatedPayload struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type balanceChangedPayload struct {
	Amount    int64                `json:"amount"`
	Operation domain.OperationKind `json:"operation"`
	CreatedAt time.Time            `json:"created_at"`
}

// JSONCodec implements ports.EventCodec with JSON payloads. Payloads carry
// exactly the fields needed to reconstruct the event; metadata is currently
// unused and left nil (the store defaults it to "{}").
type JSONCodec struct{}

// NewJSONCodec creates a JSONCodec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Encode selects the type tag and serializes the payload for a domain event.
func (c *JSONCodec) Encode(event domain.Event) (domain.EventData, error) {
	switch e := event.(type) {
	case domain.WalletCreated:
		payload, err := json.Marshal(walletCreatedPayload{
			OwnerID:   e.OwnerID,
			CreatedAt: e.CreatedAt.UTC(),
		})
		if err != nil {
			return domain.EventData{}, fmt.Errorf("marshal %s: %w", domain.EventTypeWalletCreated, err)
		}
		return domain.EventData{Type: domain.EventTypeWalletCreated, Payload: payload}, nil

	case domain.BalanceChanged:
		payload, err := json.Marshal(balanceChangedPayload{
			Amount:    e.Amount,
			Operation: e.Operation,
			CreatedAt: e.CreatedAt.UTC(),
		})
		if err != nil {
			return domain.EventData{}, fmt.Errorf("marshal %s: %w", domain.EventTypeBalanceChanged, err)
		}
		return domain.EventData{Type: domain.EventTypeBalanceChanged, Payload: payload}, nil

	default:
		return domain.EventData{}, fmt.Errorf("%w: %T", domain.ErrUnknownEventType, event)
	}
}

// Decode dispatches on the record's type tag and reconstructs the domain
// event. Timestamps are normalized to UTC; a zero payload timestamp falls
// back to the record's own CreatedAt (legacy/partial payloads).
func (c *JSONCodec) Decode(record domain.EventRecord) (domain.Event, error) {
	switch record.Type {
	case domain.EventTypeWalletCreated:
		var p walletCreatedPayload
		if err := json.Unmarshal(record.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidPayload, record.Type, err)
		}
		if p.OwnerID == uuid.Nil {
			return nil, fmt.Errorf("%w: %s: missing owner_id", domain.ErrInvalidPayload, record.Type)
		}
		return domain.WalletCreated{
			OwnerID:   p.OwnerID,
			CreatedAt: timestampOrFallback(p.CreatedAt, record.CreatedAt),
		}, nil

	case domain.EventTypeBalanceChanged:
		var p balanceChangedPayload
		if err := json.Unmarshal(record.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidPayload, record.Type, err)
		}
		if p.Amount <= 0 {
			return nil, fmt.Errorf("%w: %s: missing or non-positive amount", domain.ErrInvalidPayload, record.Type)
		}
		if p.Operation != domain.OperationDeposit && p.Operation != domain.OperationWithdraw {
			return nil, fmt.Errorf("%w: %s: unknown operation %q", domain.ErrInvalidPayload, record.Type, p.Operation)
		}
		return domain.BalanceChanged{
			Amount:    p.Amount,
			Operation: p.Operation,
			CreatedAt: timestampOrFallback(p.CreatedAt, record.CreatedAt),
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEventType, record.Type)
	}
}

func timestampOrFallback(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback.UTC()
	}
	return t.UTC()
}
