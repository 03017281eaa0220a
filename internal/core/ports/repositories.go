package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// EventStore is the append-only, per-stream event log. Streams are keyed by
// aggregate id and versioned contiguously from 0.
type EventStore interface {
	// ReadStream returns the stream's records with version strictly greater
	// than fromExclusiveVersion, ordered ascending. A nonexistent stream
	// yields an empty slice, not an error. Pass -1 for the full stream.
	ReadStream(ctx context.Context, streamID uuid.UUID, fromExclusiveVersion int64) ([]domain.EventRecord, error)

	// Append atomically persists the batch at consecutive versions starting
	// at expectedVersion+1, stamping a server-side UTC timestamp and a fresh
	// event id per row. If the stream head does not match expectedVersion it
	// fails with *domain.ConflictError and writes nothing. An empty batch is
	// a no-op. Returns the fully materialized inserted rows.
	Append(ctx context.Context, streamID uuid.UUID, expectedVersion int64, events []domain.EventData) ([]domain.EventRecord, error)
}

// EventCodec converts between typed domain events and their stored
// representation. It is the only place that understands the wire format.
type EventCodec interface {
	// Encode selects the type tag and JSON payload for a domain event.
	Encode(event domain.Event) (domain.EventData, error)
	// Decode dispatches on the record's type tag and reconstructs the domain
	// event. Fails with domain.ErrUnknownEventType for an unrecognized tag
	// and domain.ErrInvalidPayload for missing required fields.
	Decode(record domain.EventRecord) (domain.Event, error)
}

// WalletReadModel is the denormalized document store maintained by the read
// projection. It is eventually consistent with the ledger.
type WalletReadModel interface {
	// Upsert writes the document keyed by its wallet id.
	Upsert(ctx context.Context, doc *domain.WalletDocument) error
	// Get returns the document for a wallet id, or nil if absent.
	Get(ctx context.Context, walletID uuid.UUID) (*domain.WalletDocument, error)
	// LatestByOwner returns the owner's most recently created wallet
	// document, or nil if the projection has none for that owner.
	LatestByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.WalletDocument, error)
}
