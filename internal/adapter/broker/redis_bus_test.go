package broker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *goredis.Client {
	s := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: s.Addr()})
}

func TestPublisher_Publish(t *testing.T) {
	client := newTestClient(t)
	pub := NewPublisher(client, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, "wallet-created", []byte(`{"aggregate_id":"a"}`)))
	require.NoError(t, pub.Publish(ctx, "wallet-created", []byte(`{"aggregate_id":"b"}`)))

	entries, err := client.XRange(ctx, "wallet-created", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, `{"aggregate_id":"a"}`, entries[0].Values["payload"])
	assert.Equal(t, `{"aggregate_id":"b"}`, entries[1].Values["payload"])
}

func TestSubscriber_DeliversAndAcks(t *testing.T) {
	client := newTestClient(t)
	pub := NewPublisher(client, zerolog.Nop())
	sub := NewSubscriber(client, "wallet-projector", "test-1", 50*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.Publish(ctx, "balance-changed", []byte(`{"balance":100}`)))
	require.NoError(t, pub.Publish(ctx, "balance-changed", []byte(`{"balance":70}`)))

	var mu sync.Mutex
	var received []string
	done := make(chan struct{})

	go func() {
		_ = sub.Subscribe(ctx, "balance-changed", func(_ context.Context, payload []byte) error {
			mu.Lock()
			received = append(received, string(payload))
			if len(received) == 2 {
				close(done)
			}
			mu.Unlock()
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{`{"balance":100}`, `{"balance":70}`}, received)
}

func TestSubscriber_FailedHandlerLeavesMessagePending(t *testing.T) {
	client := newTestClient(t)
	pub := NewPublisher(client, zerolog.Nop())
	sub := NewSubscriber(client, "wallet-projector", "test-1", 50*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.Publish(ctx, "balance-changed", []byte(`{"balance":1}`)))

	handled := make(chan struct{})
	var once sync.Once
	go func() {
		_ = sub.Subscribe(ctx, "balance-changed", func(_ context.Context, _ []byte) error {
			once.Do(func() { close(handled) })
			return fmt.Errorf("projection gap")
		})
	}()

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}
	cancel()

	// The message was never acked, so it remains in the pending entries list
	// for redelivery.
	pending, err := client.XPending(context.Background(), "balance-changed", "wallet-projector").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestSubscriber_StopsOnContextCancel(t *testing.T) {
	client := newTestClient(t)
	sub := NewSubscriber(client, "wallet-projector", "test-1", 50*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- sub.Subscribe(ctx, "wallet-created", func(_ context.Context, _ []byte) error { return nil })
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop on cancellation")
	}
}
