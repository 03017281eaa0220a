package domain

import (
	"time"

	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// Wallet is the event-sourced aggregate for one owner's monetary ledger.
// Instances are constructed fresh per command, rehydrated by Replay, mutated
// in memory and discarded when the command completes. The aggregate owns all
// business invariants; persistence and publishing are the handler's job.
type Wallet struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Balance   int64 // minor units, never negative
	Exists    bool
	UpdatedAt time.Time

	version     int64 // last committed version, -1 until the first append
	uncommitted []Event
}

// NewWallet returns an uninitialized aggregate with committed version -1.
func NewWallet() *Wallet {
	return &Wallet{version: -1}
}

// CreateNew assigns a fresh wallet id for the owner and emits WalletCreated.
// Calling it on an already-existing aggregate is a no-op.
func (w *Wallet) CreateNew(ownerID uuid.UUID, nowUTC time.Time) error {
	if w.Exists {
		return nil
	}
	if ownerID == uuid.Nil {
		return apperror.ErrInvalidArgument("owner id is required")
	}

	w.ID = uuid.New()
	w.OwnerID = ownerID
	w.Exists = true

	return w.emit(WalletCreated{OwnerID: ownerID, CreatedAt: ensureUTC(nowUTC)})
}

// Init primes the aggregate identity before replaying history. It is
// idempotent and emits no event.
func (w *Wallet) Init(walletID, ownerID uuid.UUID) error {
	if w.Exists {
		return nil
	}
	if walletID == uuid.Nil {
		return apperror.ErrInvalidArgument("wallet id is required")
	}
	if ownerID == uuid.Nil {
		return apperror.ErrInvalidArgument("owner id is required")
	}

	w.ID = walletID
	w.OwnerID = ownerID
	w.Exists = true
	return nil
}

// Deposit emits a BalanceChanged event adding amount to the balance.
func (w *Wallet) Deposit(amount int64, now time.Time) error {
	if err := w.ensureInitialized(); err != nil {
		return err
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}

	return w.emit(BalanceChanged{Amount: amount, Operation: OperationDeposit, CreatedAt: ensureUTC(now)})
}

// Withdraw emits a BalanceChanged event subtracting amount from the balance.
// The balance must cover the amount before the event is emitted; on failure
// no event is produced and the balance is unchanged.
func (w *Wallet) Withdraw(amount int64, now time.Time) error {
	if err := w.ensureInitialized(); err != nil {
		return err
	}
	if amount <= 0 {
		return apperror.ErrInvalidAmount()
	}
	if w.Balance < amount {
		return apperror.ErrInsufficientFunds()
	}

	return w.emit(BalanceChanged{Amount: amount, Operation: OperationWithdraw, CreatedAt: ensureUTC(now)})
}

// Replay applies historical events strictly in order, incrementing the
// committed version after each one, and resets the uncommitted buffer.
// History is trusted: withdrawal invariants were validated at emission time
// and are not re-checked here.
func (w *Wallet) Replay(history []Event) error {
	w.uncommitted = nil
	for _, e := range history {
		if err := applyEvent(w, e); err != nil {
			return err
		}
		w.version++
	}
	return nil
}

// DequeueUncommitted detaches and returns the buffer of newly emitted events
// for persistence, marking the boundary of the pending transaction.
func (w *Wallet) DequeueUncommitted() []Event {
	events := w.uncommitted
	w.uncommitted = nil
	return events
}

// MarkCommitted advances the committed version by n once the store has
// confirmed n rows were durably appended.
func (w *Wallet) MarkCommitted(n int) {
	w.version += int64(n)
}

// CommittedVersion is the expected version for the next append: one less than
// the number of rows persisted for this stream.
func (w *Wallet) CommittedVersion() int64 {
	return w.version
}

func (w *Wallet) emit(e Event) error {
	if err := applyEvent(w, e); err != nil {
		return err
	}
	w.uncommitted = append(w.uncommitted, e)
	return nil
}

func (w *Wallet) ensureInitialized() error {
	if !w.Exists || w.ID == uuid.Nil || w.OwnerID == uuid.Nil {
		return apperror.ErrNotInitialized()
	}
	return nil
}

// applyEvent is the reducer shared by live emission and replay: it advances
// wallet state for exactly one event.
func applyEvent(w *Wallet, e Event) error {
	switch ev := e.(type) {
	case WalletCreated:
		if w.OwnerID == uuid.Nil {
			w.OwnerID = ev.OwnerID
		}
		w.Exists = true
		w.UpdatedAt = ensureUTC(ev.CreatedAt)
	case BalanceChanged:
		switch ev.Operation {
		case OperationDeposit:
			w.Balance += ev.Amount
		case OperationWithdraw:
			w.Balance -= ev.Amount
		}
		w.UpdatedAt = ensureUTC(ev.CreatedAt)
	default:
		return apperror.ErrUnknownEventType(eventTypeName(e))
	}
	return nil
}

func ensureUTC(t time.Time) time.Time {
	return t.UTC()
}
