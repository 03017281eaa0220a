package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix   = "wallet:doc:"
	ownerKeyPrefix = "wallet:owner:"
)

// ReadModelStore implements ports.WalletReadModel on Redis. Documents are
// JSON values keyed by wallet id; a per-owner sorted set scored by creation
// time serves the latest-wallet-by-owner lookup.
type ReadModelStore struct {
	client *goredis.Client
}

// NewReadModelStore creates a Redis-backed wallet read model.
func NewReadModelStore(client *goredis.Client) *ReadModelStore {
	return &ReadModelStore{client: client}
}

// Upsert writes the document and refreshes the owner index. Re-applying the
// same document is harmless, which keeps the projection idempotent under
// at-least-once delivery.
func (s *ReadModelStore) Upsert(ctx context.Context, doc *domain.WalletDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal wallet document: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKeyPrefix+doc.WalletID.String(), raw, 0)
	pipe.ZAdd(ctx, ownerKeyPrefix+doc.OwnerID.String(), goredis.Z{
		Score:  float64(doc.CreatedAt.UTC().UnixMilli()),
		Member: doc.WalletID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("upsert wallet document: %w", err)
	}
	return nil
}

// Get returns the document for a wallet id, or nil if absent.
func (s *ReadModelStore) Get(ctx context.Context, walletID uuid.UUID) (*domain.WalletDocument, error) {
	raw, err := s.client.Get(ctx, docKeyPrefix+walletID.String()).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet document: %w", err)
	}

	var doc domain.WalletDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal wallet document: %w", err)
	}
	return &doc, nil
}

// LatestByOwner returns the owner's most recently created wallet document,
// or nil when the projection has not yet seen one.
func (s *ReadModelStore) LatestByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.WalletDocument, error) {
	ids, err := s.client.ZRevRange(ctx, ownerKeyPrefix+ownerID.String(), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("query owner index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	walletID, err := uuid.Parse(ids[0])
	if err != nil {
		return nil, fmt.Errorf("corrupt owner index entry %q: %w", ids[0], err)
	}
	return s.Get(ctx, walletID)
}
