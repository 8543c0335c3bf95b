// Package audit writes one structured log line for every domain event
// published to the Redis streams.
package audit

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eaglebank/bank-api/shared/events"
	"github.com/redis/go-redis/v9"
)

const consumerGroup = "audit"

// Streams is the set of streams the audit log follows.
var Streams = []string{
	events.UserEventsStream,
	events.AccountEventsStream,
	events.TransactionEventsStream,
}

type Consumer struct {
	logger *slog.Logger
}

func NewConsumer(logger *slog.Logger) *Consumer {
	return &Consumer{logger: logger.With("component", "audit")}
}

// Handle records a single event. A payload that cannot be decoded is
// returned as an error so the message stays pending.
func (c *Consumer) Handle(ctx context.Context, event events.Event) error {
	attrs, err := describe(event)
	if err != nil {
		return err
	}
	attrs = append(attrs, slog.String("event", event.Type), slog.Time("occurred_at", event.Timestamp))
	c.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	return nil
}

func describe(event events.Event) ([]slog.Attr, error) {
	switch event.Type {
	case events.UserCreated, events.UserUpdated:
		e, err := events.Decode[events.UserCreatedEvent](event)
		if err != nil {
			return nil, err
		}
		return []slog.Attr{slog.String("user_id", e.UserID)}, nil

	case events.UserDeleted:
		e, err := events.Decode[events.UserDeletedEvent](event)
		if err != nil {
			return nil, err
		}
		return []slog.Attr{slog.String("user_id", e.UserID)}, nil

	case events.AccountCreated, events.AccountUpdated:
		e, err := events.Decode[events.AccountUpdatedEvent](event)
		if err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("user_id", e.UserID),
			slog.String("account_number", e.AccountNumber),
			slog.String("account_type", e.AccountType),
		}, nil

	case events.AccountDeleted:
		e, err := events.Decode[events.AccountDeletedEvent](event)
		if err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("user_id", e.UserID),
			slog.String("account_number", e.AccountNumber),
		}, nil

	case events.TransactionCreated:
		e, err := events.Decode[events.TransactionCreatedEvent](event)
		if err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("user_id", e.UserID),
			slog.String("account_number", e.AccountNumber),
			slog.String("transaction_id", e.TransactionID),
			slog.String("type", e.Type),
			slog.String("amount", e.Amount.StringFixed(2)),
			slog.String("currency", e.Currency),
		}, nil

	case events.BalanceUpdated:
		e, err := events.Decode[events.BalanceUpdatedEvent](event)
		if err != nil {
			return nil, err
		}
		return []slog.Attr{
			slog.String("account_number", e.AccountNumber),
			slog.String("balance", e.NewBalance.StringFixed(2)),
			slog.String("change", e.Change.StringFixed(2)),
		}, nil
	}
	return []slog.Attr{slog.Bool("unrecognised", true)}, nil
}

// Run subscribes the consumer to every audited stream and blocks until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context, client *redis.Client, consumerName string) {
	var wg sync.WaitGroup
	for _, stream := range Streams {
		sub := events.NewSubscriber(client, c.logger, events.SubscriberConfig{
			Group:    consumerGroup,
			Consumer: consumerName,
			Stream:   stream,
			Handler:  c.Handle,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sub.Start(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("audit subscriber stopped", "stream", stream, "error", err)
			}
		}()
	}
	wg.Wait()
}
