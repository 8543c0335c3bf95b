package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Handler processes one event. A non-nil error leaves the message unacknowledged.
type Handler func(ctx context.Context, event Event) error

// Subscriber reads one stream as a member of a Redis consumer group.
//
// The group is created at the start of the stream, so a fresh group sees
// every event already published. Each read asks only for messages never
// delivered to the group (">"). A message whose handler fails stays in the
// group's pending list: it is not retried or claimed by this subscriber and
// is left for an operator to inspect with XPENDING. The audit consumer relies
// on this for payloads it cannot decode.
type Subscriber struct {
	client        *redis.Client
	logger        *slog.Logger
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
}

func NewSubscriber(client *redis.Client, logger *slog.Logger, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}

	return &Subscriber{
		client:        client,
		logger:        logger.With("stream", config.Stream, "group", config.Group, "consumer", config.Consumer),
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
	}
}

// Start creates the group if needed, then polls until ctx is cancelled.
// Read errors are logged and retried after a second.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}

	s.logger.Info("subscriber started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber stopping")
			return ctx.Err()
		default:
			if _, err := s.Poll(ctx); err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Error("failed to read messages", "error", err)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Poll reads at most one batch of new messages, blocking up to the configured
// duration, and returns how many were handled and acknowledged.
func (s *Subscriber) Poll(ctx context.Context) (int, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	acked := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.processMessage(ctx, message); err != nil {
				// stays pending, never redelivered to this group
				s.logger.Error("failed to process message", "message_id", message.ID, "error", err)
				continue
			}

			if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
				s.logger.Error("failed to ack message", "message_id", message.ID, "error", err)
				continue
			}
			acked++
		}
	}

	return acked, nil
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	eventData, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("invalid message format")
	}

	var event Event
	if err := json.Unmarshal([]byte(eventData), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return s.handler(ctx, event)
}
