package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Ensure RedisBroker implements Broker
var _ Broker = (*RedisBroker)(nil)

// RedisBroker delivers events across server instances using Redis PUBLISH/SUBSCRIBE.
// Each member has its own channel, so a subscriber only receives its member's events.
type RedisBroker struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisBroker connects to Redis at addr and verifies the connection.
// keyPrefix defaults to "bandpoints:member:" if empty.
func NewRedisBroker(addr, password string, db int, keyPrefix string) (*RedisBroker, error) {
	if keyPrefix == "" {
		keyPrefix = "bandpoints:member:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBroker{client: client, keyPrefix: keyPrefix}, nil
}

func (b *RedisBroker) channel(memberID string) string {
	return b.keyPrefix + memberID
}

// Publish sends ev on the member's channel.
func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode member event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(ev.MemberID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel(ev.MemberID), err)
	}
	return nil
}

// Subscribe listens on the member's channel until ctx is done.
func (b *RedisBroker) Subscribe(ctx context.Context, memberID string) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, b.channel(memberID))

	// Wait for the subscription confirmation so no event published after
	// Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel(memberID), err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := sonic.UnmarshalString(msg.Payload, &ev); err != nil {
					slog.Warn("Invalid member event payload", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- ev:
				default:
					slog.Warn("Dropping member event for slow subscriber", "member_id", ev.MemberID, "kind", ev.Kind)
				}
			}
		}
	}()

	return out, nil
}

// Close closes the Redis connection.
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
