package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler processes one decoded event. Returning an error leaves the message
// un-acked so the consumer group redelivers it.
type Handler func(ctx context.Context, event Envelope) error

// Subscriber reads a Redis stream through a consumer group and dispatches
// each message to a Handler. Messages are acked only after the handler
// succeeds, giving at-least-once delivery.
type Subscriber struct {
	client    *redis.Client
	stream    string
	group     string
	consumer  string
	handler   Handler
	batchSize int64
	blockFor  time.Duration
}

type SubscriberConfig struct {
	Stream    string
	Group     string
	Consumer  string
	Handler   Handler
	BatchSize int64
	BlockFor  time.Duration
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockFor == 0 {
		config.BlockFor = 5 * time.Second
	}
	return &Subscriber{
		client:    client,
		stream:    config.Stream,
		group:     config.Group,
		consumer:  config.Consumer,
		handler:   config.Handler,
		batchSize: config.BatchSize,
		blockFor:  config.BlockFor,
	}
}

// Start blocks, reading and dispatching messages until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Printf("subscriber started: stream=%s group=%s consumer=%s", s.stream, s.group, s.consumer)

	for {
		select {
		case <-ctx.Done():
			log.Printf("subscriber stopping: %s", s.stream)
			return ctx.Err()
		default:
			if err := s.poll(ctx); err != nil {
				log.Printf("subscriber %s: read error: %v", s.stream, err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (s *Subscriber) poll(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockFor,
	}).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.dispatch(ctx, message); err != nil {
				// Leave un-acked; the group will redeliver.
				log.Printf("subscriber %s: message %s failed: %v", s.stream, message.ID, err)
				continue
			}
			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				log.Printf("subscriber %s: ack of %s failed: %v", s.stream, message.ID, err)
			}
		}
	}

	return nil
}

func (s *Subscriber) dispatch(ctx context.Context, message redis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var envelope Envelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return s.handler(ctx, envelope)
}

// DecodeData re-marshals an envelope's loosely-typed Data field into a
// concrete event struct.
func DecodeData(envelope Envelope, out any) error {
	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		return fmt.Errorf("failed to re-marshal event data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s event: %w", envelope.Type, err)
	}
	return nil
}
