package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// EventStore implements ports.EventStore on PostgreSQL.
//
// Optimistic concurrency is checked twice: a MAX(version) read inside the
// insert transaction, and the (stream_id, version) primary key as the
// authoritative backstop. A unique violation raised by the insert itself is
// reported as the same conflict, so two writers racing past the read check
// can never both commit.
type EventStore struct {
	pool Pool
}

// NewEventStore creates an EventStore backed by the given pool.
func NewEventStore(pool Pool) *EventStore {
	return &EventStore{pool: pool}
}

// ReadStream returns the stream's records with version > fromExclusiveVersion,
// ordered ascending. An unknown stream yields an empty slice.
func (s *EventStore) ReadStream(ctx context.Context, streamID uuid.UUID, fromExclusiveVersion int64) ([]domain.EventRecord, error) {
	query := `SELECT stream_id, version, event_type, payload, metadata, created_at, event_id
		FROM wallet_events WHERE stream_id = $1 AND version > $2 ORDER BY version ASC`

	rows, err := s.pool.Query(ctx, query, streamID, fromExclusiveVersion)
	if err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	defer rows.Close()

	var records []domain.EventRecord
	for rows.Next() {
		var r domain.EventRecord
		if err := rows.Scan(&r.StreamID, &r.Version, &r.Type, &r.Payload, &r.Metadata, &r.CreatedAt, &r.EventID); err != nil {
			return nil, fmt.Errorf("scan event record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read stream rows: %w", err)
	}
	return records, nil
}

// Append persists the batch atomically at consecutive versions starting at
// expectedVersion+1. A head mismatch fails with *domain.ConflictError and
// writes nothing. An empty batch is a no-op with no version check.
func (s *EventStore) Append(ctx context.Context, streamID uuid.UUID, expectedVersion int64, events []domain.EventData) ([]domain.EventRecord, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var current int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), -1) FROM wallet_events WHERE stream_id = $1`,
		streamID,
	).Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("read stream head: %w", err)
	}

	if current != expectedVersion {
		return nil, &domain.ConflictError{Expected: expectedVersion, Actual: current}
	}

	now := time.Now().UTC()
	records := make([]domain.EventRecord, 0, len(events))
	next := current
	for _, e := range events {
		next++
		metadata := e.Metadata
		if len(metadata) == 0 {
			metadata = []byte("{}")
		}
		records = append(records, domain.EventRecord{
			StreamID:  streamID,
			Version:   next,
			Type:      e.Type,
			Payload:   e.Payload,
			Metadata:  metadata,
			CreatedAt: now,
			EventID:   uuid.New(),
		})
	}

	insert := `INSERT INTO wallet_events (stream_id, version, event_type, payload, metadata, created_at, event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, r := range records {
		if _, err := tx.Exec(ctx, insert, r.StreamID, r.Version, r.Type, r.Payload, r.Metadata, r.CreatedAt, r.EventID); err != nil {
			return nil, s.mapInsertError(ctx, streamID, expectedVersion, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, s.mapInsertError(ctx, streamID, expectedVersion, err)
	}
	return records, nil
}

// mapInsertError converts a (stream_id, version) unique violation into the
// conflict the read check would have reported, re-reading the actual head
// for the error detail. Other errors pass through wrapped.
func (s *EventStore) mapInsertError(ctx context.Context, streamID uuid.UUID, expectedVersion int64, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		actual := expectedVersion
		if headErr := s.pool.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), -1) FROM wallet_events WHERE stream_id = $1`,
			streamID,
		).Scan(&actual); headErr != nil {
			actual = -1
		}
		return &domain.ConflictError{Expected: expectedVersion, Actual: actual}
	}
	return fmt.Errorf("append events: %w", err)
}
