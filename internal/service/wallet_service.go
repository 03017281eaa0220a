package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/metrics"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService. Each command constructs
// a fresh aggregate, rehydrates it from the event store, applies the intent,
// appends the emitted events with an expected-version check and publishes an
// integration event for the read projection. Concurrency conflicts propagate
// to the caller, who owns the retry decision.
type WalletServiceImpl struct {
	store     ports.EventStore
	codec     ports.EventCodec
	publisher ports.EventPublisher
	readModel ports.WalletReadModel
	log       zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	store ports.EventStore,
	codec ports.EventCodec,
	publisher ports.EventPublisher,
	readModel ports.WalletReadModel,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		store:     store,
		codec:     codec,
		publisher: publisher,
		readModel: readModel,
		log:       log,
	}
}

// CreateWallet creates a new wallet stream for the owner and returns the
// generated wallet id.
func (s *WalletServiceImpl) CreateWallet(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	wallet := domain.NewWallet()
	if err := wallet.CreateNew(ownerID, time.Now().UTC()); err != nil {
		metrics.CommandsProcessed.WithLabelValues("create", "rejected").Inc()
		return uuid.Nil, err
	}

	if err := s.commit(ctx, wallet); err != nil {
		metrics.CommandsProcessed.WithLabelValues("create", "failed").Inc()
		return uuid.Nil, err
	}

	balance := wallet.Balance
	err := s.publish(ctx, domain.TopicWalletCreated, domain.WalletCreatedMessage{
		AggregateID: wallet.ID,
		OwnerID:     ownerID,
		CreatedAt:   wallet.UpdatedAt,
		Balance:     &balance,
	})
	if err != nil {
		metrics.CommandsProcessed.WithLabelValues("create", "failed").Inc()
		return uuid.Nil, err
	}

	metrics.CommandsProcessed.WithLabelValues("create", "success").Inc()
	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("wallet created")

	return wallet.ID, nil
}

// Deposit adds amount to the wallet's balance.
func (s *WalletServiceImpl) Deposit(ctx context.Context, walletID, ownerID uuid.UUID, amount int64) error {
	return s.applyBalanceCommand(ctx, "deposit", walletID, ownerID, func(w *domain.Wallet) error {
		return w.Deposit(amount, time.Now().UTC())
	})
}

// Withdraw subtracts amount from the wallet's balance. Fails with WAL_002
// when the balance does not cover the amount.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, walletID, ownerID uuid.UUID, amount int64) error {
	return s.applyBalanceCommand(ctx, "withdraw", walletID, ownerID, func(w *domain.Wallet) error {
		return w.Withdraw(amount, time.Now().UTC())
	})
}

// applyBalanceCommand is the shared deposit/withdraw orchestration: load
// stream, rehydrate, mutate, append with expected-version check, publish.
func (s *WalletServiceImpl) applyBalanceCommand(ctx context.Context, command string, walletID, ownerID uuid.UUID, mutate func(*domain.Wallet) error) error {
	wallet, err := s.rehydrate(ctx, walletID, ownerID)
	if err != nil {
		metrics.CommandsProcessed.WithLabelValues(command, "failed").Inc()
		return err
	}

	if err := mutate(wallet); err != nil {
		metrics.CommandsProcessed.WithLabelValues(command, "rejected").Inc()
		return err
	}

	if err := s.commit(ctx, wallet); err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			metrics.CommandsProcessed.WithLabelValues(command, "conflict").Inc()
		} else {
			metrics.CommandsProcessed.WithLabelValues(command, "failed").Inc()
		}
		return err
	}

	err = s.publish(ctx, domain.TopicBalanceChanged, domain.BalanceChangedMessage{
		WalletID: walletID,
		Balance:  wallet.Balance,
	})
	if err != nil {
		metrics.CommandsProcessed.WithLabelValues(command, "failed").Inc()
		return err
	}

	metrics.CommandsProcessed.WithLabelValues(command, "success").Inc()
	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("command", command).
		Int64("balance", wallet.Balance).
		Int64("version", wallet.CommittedVersion()).
		Msg("balance changed")

	return nil
}

// GetBalance is the strict query: it replays the full stream on demand, so
// the result is always consistent with the ledger at the cost of latency.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, walletID, ownerID uuid.UUID) (int64, error) {
	wallet, err := s.rehydrate(ctx, walletID, ownerID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// GetOwnerBalance reads the asynchronous read model: lower latency,
// eventually consistent. Returns nil when the projection has no document for
// the owner yet.
func (s *WalletServiceImpl) GetOwnerBalance(ctx context.Context, ownerID uuid.UUID) (*int64, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.ErrInvalidArgument("owner id is required")
	}

	doc, err := s.readModel.LatestByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if doc == nil {
		return nil, nil
	}
	return doc.Balance, nil
}

// rehydrate builds a fresh aggregate from the full stream.
func (s *WalletServiceImpl) rehydrate(ctx context.Context, walletID, ownerID uuid.UUID) (*domain.Wallet, error) {
	wallet := domain.NewWallet()
	if err := wallet.Init(walletID, ownerID); err != nil {
		return nil, err
	}

	records, err := s.store.ReadStream(ctx, walletID, -1)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}

	history := make([]domain.Event, 0, len(records))
	for _, r := range records {
		event, err := s.codec.Decode(r)
		if err != nil {
			return nil, mapDecodeError(r.Type, err)
		}
		history = append(history, event)
	}

	if err := wallet.Replay(history); err != nil {
		return nil, err
	}
	return wallet, nil
}

// commit drains the aggregate's uncommitted events, encodes and appends them
// with the expected-version check, and advances the committed version. A
// drained-empty aggregate commits nothing (defensive; validated commands
// always emit).
func (s *WalletServiceImpl) commit(ctx context.Context, wallet *domain.Wallet) error {
	events := wallet.DequeueUncommitted()
	if len(events) == 0 {
		return nil
	}

	encoded := make([]domain.EventData, 0, len(events))
	for _, e := range events {
		data, err := s.codec.Encode(e)
		if err != nil {
			return apperror.ErrUnknownEventType(fmt.Sprintf("%T", e))
		}
		encoded = append(encoded, data)
	}

	start := time.Now()
	inserted, err := s.store.Append(ctx, wallet.ID, wallet.CommittedVersion(), encoded)
	metrics.AppendDuration.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			metrics.ConcurrencyConflicts.Inc()
			return apperror.ErrConcurrencyConflict(conflict.Expected, conflict.Actual, err)
		}
		return apperror.ErrDatabaseError(err)
	}

	metrics.EventsAppended.Add(float64(len(inserted)))
	wallet.MarkCommitted(len(inserted))
	return nil
}

func (s *WalletServiceImpl) publish(ctx context.Context, topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshal %s message: %w", topic, err))
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		return apperror.InternalError(fmt.Errorf("publish %s: %w", topic, err))
	}
	return nil
}

// mapDecodeError surfaces codec failures as fatal data-integrity errors.
func mapDecodeError(eventType string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownEventType):
		return apperror.ErrUnknownEventType(eventType)
	case errors.Is(err, domain.ErrInvalidPayload):
		return apperror.ErrInvalidPayload(eventType, err)
	default:
		return apperror.InternalError(err)
	}
}
