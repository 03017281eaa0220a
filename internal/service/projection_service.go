package service

import (
	"context"
	"encoding/json"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/metrics"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProjectionServiceImpl maintains the wallet read model from published
// integration events. Handlers return an error to signal the broker that the
// message must stay pending for redelivery; a balance-changed event arriving
// before its wallet-created document is the expected out-of-order case and is
// handled by leaving the message unacked.
type ProjectionServiceImpl struct {
	readModel ports.WalletReadModel
	log       zerolog.Logger
}

// NewProjectionService creates a new ProjectionServiceImpl.
func NewProjectionService(readModel ports.WalletReadModel, log zerolog.Logger) *ProjectionServiceImpl {
	return &ProjectionServiceImpl{readModel: readModel, log: log}
}

// HandleWalletCreated inserts the read-model document for a new wallet.
// Upsert semantics make redelivery of the same message harmless.
func (p *ProjectionServiceImpl) HandleWalletCreated(ctx context.Context, payload []byte) error {
	var msg domain.WalletCreatedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicWalletCreated, "failed").Inc()
		return apperror.ErrInvalidPayload(domain.TopicWalletCreated, err)
	}
	if msg.AggregateID == uuid.Nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicWalletCreated, "failed").Inc()
		return apperror.ErrInvalidPayload(domain.TopicWalletCreated, fmt.Errorf("%w: missing aggregate id", domain.ErrInvalidPayload))
	}

	doc := &domain.WalletDocument{
		WalletID:  msg.AggregateID,
		OwnerID:   msg.OwnerID,
		CreatedAt: msg.CreatedAt,
		Balance:   msg.Balance,
	}
	if err := p.readModel.Upsert(ctx, doc); err != nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicWalletCreated, "failed").Inc()
		return apperror.ErrDatabaseError(err)
	}

	metrics.ProjectionEvents.WithLabelValues(domain.TopicWalletCreated, "success").Inc()
	p.log.Info().
		Str("wallet_id", msg.AggregateID.String()).
		Str("owner_id", msg.OwnerID.String()).
		Msg("projected wallet document")

	return nil
}

// HandleBalanceChanged updates the balance on an existing document. A missing
// document means the wallet-created message has not been consumed yet; the
// error keeps this message pending so it is retried after the insert lands.
func (p *ProjectionServiceImpl) HandleBalanceChanged(ctx context.Context, payload []byte) error {
	var msg domain.BalanceChangedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicBalanceChanged, "failed").Inc()
		return apperror.ErrInvalidPayload(domain.TopicBalanceChanged, err)
	}
	if msg.WalletID == uuid.Nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicBalanceChanged, "failed").Inc()
		return apperror.ErrInvalidPayload(domain.TopicBalanceChanged, fmt.Errorf("%w: missing wallet id", domain.ErrInvalidPayload))
	}

	doc, err := p.readModel.Get(ctx, msg.WalletID)
	if err != nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicBalanceChanged, "failed").Inc()
		return apperror.ErrDatabaseError(err)
	}
	if doc == nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicBalanceChanged, "gap").Inc()
		p.log.Warn().
			Str("wallet_id", msg.WalletID.String()).
			Msg("balance change arrived before wallet document, leaving pending")
		return apperror.ErrProjectionGap(fmt.Errorf("wallet %s: %w", msg.WalletID, domain.ErrDocumentNotFound))
	}

	balance := msg.Balance
	doc.Balance = &balance
	if err := p.readModel.Upsert(ctx, doc); err != nil {
		metrics.ProjectionEvents.WithLabelValues(domain.TopicBalanceChanged, "failed").Inc()
		return apperror.ErrDatabaseError(err)
	}

	metrics.ProjectionEvents.WithLabelValues(domain.TopicBalanceChanged, "success").Inc()
	p.log.Info().
		Str("wallet_id", msg.WalletID.String()).
		Int64("balance", msg.Balance).
		Msg("projected balance change")

	return nil
}
