package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rootedinspeech/internal/config"
	"rootedinspeech/internal/events"
	"rootedinspeech/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisSessionRepository keeps session records in Redis and announces every write on
// the session_changes channel so other frontend instances can notify their tabs.
type RedisSessionRepository struct {
	client     *redis.Client
	ttl        time.Duration
	instanceID string
}

// NewRedisClient builds a Redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, instanceID string) *RedisSessionRepository {
	return &RedisSessionRepository{
		client:     client,
		ttl:        ttl,
		instanceID: instanceID,
	}
}

func sessionKey(profileID string) string {
	return fmt.Sprintf(models.SessionKeyFormat, profileID)
}

func (r *RedisSessionRepository) GetSession(ctx context.Context, profileID string) ([]byte, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, sessionKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session from redis: %w", err)
	}
	return val, nil
}

func (r *RedisSessionRepository) SetSession(ctx context.Context, profileID string, record []byte) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Set(ctx, sessionKey(profileID), record, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session in redis: %w", err)
	}
	return r.announce(ctx, profileID, models.SessionActionSaved)
}

func (r *RedisSessionRepository) ClearSession(ctx context.Context, profileID string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, sessionKey(profileID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	return r.announce(ctx, profileID, models.SessionActionCleared)
}

func (r *RedisSessionRepository) announce(ctx context.Context, profileID, action string) error {
	data, err := json.Marshal(models.SessionChange{ProfileID: profileID, Action: action, InstanceID: r.instanceID})
	if err != nil {
		return fmt.Errorf("failed to marshal session change: %w", err)
	}
	if err := r.client.Publish(ctx, models.SessionChangesChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish session change: %w", err)
	}
	return nil
}

// RelaySessionChanges forwards changes made by other instances into the local bus
// until ctx is done. Changes published by instanceID itself are skipped.
func RelaySessionChanges(ctx context.Context, client *redis.Client, instanceID string, bus *events.EventBus, logger *zerolog.Logger) error {
	sub := client.Subscribe(ctx, models.SessionChangesChannel)
	defer sub.Close()

	// wait for the subscription to be confirmed
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", models.SessionChangesChannel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change models.SessionChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				logger.Warn().Err(err).Msg("skip malformed session change")
				continue
			}
			if change.InstanceID == instanceID {
				continue
			}
			if err := bus.PublishJSON(events.EventSessionChanged, change); err != nil {
				logger.Error().Err(err).Str("profile_id", change.ProfileID).Msg("relay session change")
			}
		}
	}
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
