package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishAndPoll(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	var received []Event
	sub := NewSubscriber(client, discardLogger(), SubscriberConfig{
		Group:         "test-group",
		Consumer:      "c1",
		Stream:        TransactionEventsStream,
		BlockDuration: 10 * time.Millisecond,
		Handler: func(_ context.Context, e Event) error {
			received = append(received, e)
			return nil
		},
	})
	require.NoError(t, sub.ensureGroup(ctx))
	// second creation hits BUSYGROUP and must be tolerated
	require.NoError(t, sub.ensureGroup(ctx))

	pub := NewPublisher(client)
	require.NoError(t, pub.Publish(ctx, TransactionEventsStream, TransactionCreated, TransactionCreatedEvent{
		TransactionID: "tan-abc",
		AccountNumber: "01000001",
		Amount:        decimal.RequireFromString("25.50"),
		Type:          "deposit",
		Currency:      "GBP",
	}))

	acked, err := sub.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, acked)
	require.Len(t, received, 1)
	assert.Equal(t, TransactionCreated, received[0].Type)

	data, err := Decode[TransactionCreatedEvent](received[0])
	require.NoError(t, err)
	assert.Equal(t, "tan-abc", data.TransactionID)
	assert.True(t, data.Amount.Equal(decimal.RequireFromString("25.50")))
}

func TestPollLeavesFailedMessagesPending(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	calls := 0

	sub := NewSubscriber(client, discardLogger(), SubscriberConfig{
		Group:         "test-group",
		Consumer:      "c1",
		Stream:        AccountEventsStream,
		BlockDuration: 10 * time.Millisecond,
		Handler: func(context.Context, Event) error {
			calls++
			return errors.New("boom")
		},
	})
	require.NoError(t, sub.ensureGroup(ctx))
	require.NoError(t, NewPublisher(client).Publish(ctx, AccountEventsStream, AccountDeleted, AccountDeletedEvent{AccountNumber: "01000001"}))

	acked, err := sub.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, acked)

	pending, err := client.XPending(ctx, AccountEventsStream, "test-group").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)

	acked, err = sub.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, acked)
	assert.Equal(t, 1, calls)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), UserEventsStream, UserCreated, nil))
}
