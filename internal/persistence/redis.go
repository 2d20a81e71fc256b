package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/events"
)

// publishTimeout bounds a single relay publish so a stalled Redis cannot hold
// up the escalation sweep that emitted the event.
const publishTimeout = 2 * time.Second

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis relays complaint events to pub/sub and backs the readiness check.
type Redis struct {
	Client *redis.Client
}

var _ events.Publisher = (*Redis)(nil)

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: applicationName,
	}
}

// NewRedis builds the client. An unreachable server is logged, not fatal:
// events are still delivered to in-process handlers.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(redisOptions(cfg))

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis; event relay will retry per publish", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	return r.Client.Ping(ctx).Err()
}

// Publish sends an encoded complaint event to channel.
func (r *Redis) Publish(ctx context.Context, channel string, payload []byte) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return r.Client.Publish(ctx, channel, payload).Err()
}
