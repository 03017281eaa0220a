// Package broker carries integration events over Redis Streams. Each logical
// topic is one stream; consumers read through a consumer group, so delivery
// is at-least-once and unacknowledged messages are redelivered.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const payloadField = "payload"

// Publisher implements ports.EventPublisher by appending to a stream.
type Publisher struct {
	client *goredis.Client
	log    zerolog.Logger
}

// NewPublisher creates a stream-backed publisher.
func NewPublisher(client *goredis.Client, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

// Publish appends the payload to the topic's stream.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: topic,
		Values: map[string]any{payloadField: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("integration event published")
	return nil
}

// Subscriber implements ports.EventSubscriber via a consumer group. Messages
// are acknowledged only after the handler succeeds; a failed handler leaves
// the message pending for redelivery.
type Subscriber struct {
	client   *goredis.Client
	group    string
	consumer string
	block    time.Duration
	log      zerolog.Logger
}

// NewSubscriber creates a consumer-group subscriber. group names the
// projection (all replicas share it); consumer names this instance.
func NewSubscriber(client *goredis.Client, group, consumer string, block time.Duration, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		client:   client,
		group:    group,
		consumer: consumer,
		block:    block,
		log:      log,
	}
}

// Subscribe consumes the topic until the context is cancelled. It creates the
// consumer group (and the stream) if they do not exist yet.
func (s *Subscriber) Subscribe(ctx context.Context, topic string, handler ports.MessageHandler) error {
	if err := s.ensureGroup(ctx, topic); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		streams, err := s.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{topic, ">"},
			Count:    16,
			Block:    s.block,
		}).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue // read timed out with nothing new
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read %s: %w", topic, err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				s.dispatch(ctx, topic, msg, handler)
			}
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, topic string, msg goredis.XMessage, handler ports.MessageHandler) {
	raw, _ := msg.Values[payloadField].(string)

	if err := handler(ctx, []byte(raw)); err != nil {
		// Not acked: the message stays pending and will be redelivered.
		s.log.Error().
			Err(err).
			Str("topic", topic).
			Str("message_id", msg.ID).
			Msg("message handler failed")
		return
	}

	if err := s.client.XAck(ctx, topic, s.group, msg.ID).Err(); err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Str("message_id", msg.ID).Msg("ack failed")
	}
}

func (s *Subscriber) ensureGroup(ctx context.Context, topic string) error {
	err := s.client.XGroupCreateMkStream(ctx, topic, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", s.group, topic, err)
	}
	return nil
}
