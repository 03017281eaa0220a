package integration

import (
	"context"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
)

// memEventStore is an in-memory ports.EventStore with the same
// expected-version contract as the PostgreSQL implementation. Appends are
// serialized by a mutex, so concurrent commands race on the version check
// exactly like they would against the unique (stream_id, version) key.
type memEventStore struct {
	mu      sync.Mutex
	streams map[uuid.UUID][]domain.EventRecord
}

func newMemEventStore() *memEventStore {
	return &memEventStore{streams: make(map[uuid.UUID][]domain.EventRecord)}
}

func (s *memEventStore) ReadStream(_ context.Context, streamID uuid.UUID, fromExclusiveVersion int64) ([]domain.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.EventRecord
	for _, r := range s.streams[streamID] {
		if r.Version > fromExclusiveVersion {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memEventStore) Append(_ context.Context, streamID uuid.UUID, expectedVersion int64, events []domain.EventData) ([]domain.EventRecord, error) {
	if len(events) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	head := int64(-1)
	if stream := s.streams[streamID]; len(stream) > 0 {
		head = stream[len(stream)-1].Version
	}
	if head != expectedVersion {
		return nil, &domain.ConflictError{Expected: expectedVersion, Actual: head}
	}

	inserted := make([]domain.EventRecord, 0, len(events))
	next := expectedVersion + 1
	for _, e := range events {
		record := domain.EventRecord{
			StreamID:  streamID,
			Version:   next,
			Type:      e.Type,
			Payload:   e.Payload,
			Metadata:  e.Metadata,
			CreatedAt: time.Now().UTC(),
			EventID:   uuid.New(),
		}
		s.streams[streamID] = append(s.streams[streamID], record)
		inserted = append(inserted, record)
		next++
	}
	return inserted, nil
}

type memMessage struct {
	topic   string
	payload []byte
}

// memBus is a ports.EventPublisher that queues messages instead of
// delivering them. Tests call Deliver explicitly, which makes the gap between
// a committed command and the projected read model observable.
type memBus struct {
	mu      sync.Mutex
	pending []memMessage
}

func newMemBus() *memBus {
	return &memBus{}
}

func (b *memBus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, memMessage{topic: topic, payload: payload})
	return nil
}

// Deliver dispatches all queued messages in publish order. Messages whose
// handler fails stay queued, matching the broker's pending-until-ack
// behaviour.
func (b *memBus) Deliver(ctx context.Context, handlers map[string]ports.MessageHandler) {
	b.mu.Lock()
	queue := b.pending
	b.pending = nil
	b.mu.Unlock()

	var kept []memMessage
	for _, msg := range queue {
		handler, ok := handlers[msg.topic]
		if !ok {
			kept = append(kept, msg)
			continue
		}
		if err := handler(ctx, msg.payload); err != nil {
			kept = append(kept, msg)
		}
	}

	if len(kept) > 0 {
		b.mu.Lock()
		b.pending = append(kept, b.pending...)
		b.mu.Unlock()
	}
}

func (b *memBus) pendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
