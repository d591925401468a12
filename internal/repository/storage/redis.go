package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisChannel = "tictactoe:state-changed"

// changeEvent - published next to every write so that other contexts re-read the document.
type changeEvent struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
}

type RedisStorage struct {
	Connection *redis.Client

	logger  *slog.Logger
	channel string
	origin  string
}

func NewRedisStorage(ctx context.Context, logger *slog.Logger, addr, channel string) (*RedisStorage, error) {
	conn := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	_, err := conn.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStorageFromClient(logger, conn, channel), nil
}

// NewRedisStorageFromClient - wraps an already connected client. Every call returns a handle with its own origin.
func NewRedisStorageFromClient(logger *slog.Logger, conn *redis.Client, channel string) *RedisStorage {
	if channel == "" {
		channel = DefaultRedisChannel
	}

	return &RedisStorage{
		Connection: conn,
		logger:     logger.With("component", "redis-storage"),
		channel:    channel,
		origin:     uuid.NewString(),
	}
}

func (that *RedisStorage) Get(ctx context.Context, key string) (string, bool, error) {
	response, err := that.Connection.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return response, true, nil
}

// Set - writes the value and publishes the change event in one MULTI/EXEC.
func (that *RedisStorage) Set(ctx context.Context, key, value string) error {
	eventJSON, err := json.Marshal(changeEvent{Origin: that.origin, Key: key})
	if err != nil {
		return fmt.Errorf("could not marshal change event: %w", err)
	}

	_, err = that.Connection.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, 0)
		pipe.Publish(ctx, that.channel, eventJSON)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

func (that *RedisStorage) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	log := that.logger.With("method", "Watch", "key", key)

	pubsub := that.Connection.Subscribe(ctx, that.channel)

	// wait for the subscription confirmation so that no write is missed after Watch returns
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", that.channel, err)
	}

	changes := make(chan struct{}, 1)

	go func() {
		defer close(changes)
		defer pubsub.Close()

		messages := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var event changeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Warn("skipping malformed change event", "error", err)
					continue
				}

				if event.Key != key || event.Origin == that.origin {
					continue
				}

				notify(changes)
			}
		}
	}()

	return changes, nil
}

func (that *RedisStorage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}

	return nil
}

// notify - non-blocking send; pending signals are coalesced.
func notify(changes chan<- struct{}) {
	select {
	case changes <- struct{}{}:
	default:
	}
}
