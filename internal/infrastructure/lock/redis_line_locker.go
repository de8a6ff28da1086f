package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	appstock "github.com/erp/stockreservation/internal/application/stock"
	"github.com/erp/stockreservation/internal/domain/shared"
	"go.uber.org/zap"
)

// KeyPrefix namespaces line lock keys in a shared Redis
const KeyPrefix = "stock-reservation:"

// RedisLineLockerConfig holds the lease and retry settings of RedisLineLocker
type RedisLineLockerConfig struct {
	TTL           time.Duration // lease length; must exceed the longest submit or cancel
	RetryInterval time.Duration
	RetryCount    int
}

// RedisLineLocker is a LineLocker backed by Redis leases, so instances of the
// service on different hosts serialize on the same voucher line.
type RedisLineLocker struct {
	client *redislock.Client
	config RedisLineLockerConfig
	logger *zap.Logger
}

// NewRedisLineLocker creates a RedisLineLocker over any go-redis client
func NewRedisLineLocker(client redislock.RedisClient, cfg RedisLineLockerConfig, logger *zap.Logger) *RedisLineLocker {
	return &RedisLineLocker{
		client: redislock.New(client),
		config: cfg,
		logger: logger,
	}
}

func (l *RedisLineLocker) options() *redislock.Options {
	if l.config.RetryCount <= 0 {
		return &redislock.Options{RetryStrategy: redislock.NoRetry()}
	}
	return &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.config.RetryInterval), l.config.RetryCount),
	}
}

// Acquire obtains the lease for key. A lease still held by another caller
// after all retries yields a CONCURRENCY_CONFLICT domain error.
func (l *RedisLineLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := KeyPrefix + key
	lease, err := l.client.Obtain(ctx, redisKey, l.config.TTL, l.options())
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.NewDomainError("CONCURRENCY_CONFLICT",
			fmt.Sprintf("Voucher line %s is being updated by another request, try again", key))
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock %s: %w", redisKey, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// The caller's context may already be done; the lease must still be freed.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := lease.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release voucher line lock", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}

var _ appstock.LineLocker = (*RedisLineLocker)(nil)
