package redis

import (
	"context"
	"fmt"
	"sync"

	"eventplanner/internal/domain"

	"github.com/redis/go-redis/v9"
)

type eventFeed struct {
	rdb *redis.Client
}

// NewEventFeed returns a domain.EventFeed backed by Redis pub/sub, one channel per owner.
// Every API instance sharing the Redis server sees every change.
func NewEventFeed(rdb *redis.Client) domain.EventFeed {
	return &eventFeed{rdb: rdb}
}

func ownerChannel(ownerID string) string {
	return "events:owner:" + ownerID
}

func (f *eventFeed) Publish(ctx context.Context, ownerID string) error {
	if err := f.rdb.Publish(ctx, ownerChannel(ownerID), "changed").Err(); err != nil {
		return fmt.Errorf("publish owner change: %w", err)
	}
	return nil
}

// Subscribe returns once the subscription is live. Notifications are coalesced:
// a slow reader sees at most one pending signal. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (f *eventFeed) Subscribe(ctx context.Context, ownerID string) (<-chan struct{}, func(), error) {
	pubsub := f.rdb.Subscribe(ctx, ownerChannel(ownerID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe owner changes: %w", err)
	}

	out := make(chan struct{}, 1)
	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		for range msgs {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, unsubscribe, nil
}
