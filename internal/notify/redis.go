package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisChangeChannel = "luxeshop:changes"

// RedisNotifier broadcasts change events over redis pub/sub so every
// application instance sees mutations committed by any of them.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(connectionString string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis connection string: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close() //nolint
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisNotifier{client: client}, nil
}

func (r *RedisNotifier) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	return r.client.Publish(ctx, redisChangeChannel, payload).Err()
}

func (r *RedisNotifier) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	pubsub := r.client.Subscribe(ctx, redisChangeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close() //nolint
		return nil, nil, fmt.Errorf("failed to subscribe to change channel: %w", err)
	}

	events := make(chan Event, subscriberBuffer)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case events <- event:
			default:
			}
		}
	}()

	cancel := func() {
		_ = pubsub.Close() //nolint
	}
	return events, cancel, nil
}

func (r *RedisNotifier) Close() error {
	return r.client.Close()
}
