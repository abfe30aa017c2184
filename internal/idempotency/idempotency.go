// Package idempotency guards checkout against duplicate submissions that carry
// the same Idempotency-Key.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix    = "checkout:idem:"
	pendingValue = "pending"
)

// Claim describes a key that was already taken.
type Claim struct {
	// OrderID is set once the original checkout committed.
	OrderID int64
	Pending bool
}

// Guard reserves (buyer, key) pairs.
type Guard interface {
	// Acquire reserves the key. When it is already reserved, ok is false and
	// prev describes the earlier claim.
	Acquire(ctx context.Context, buyerID int64, key string) (ok bool, prev Claim, err error)
	// Complete records the order created under the key.
	Complete(ctx context.Context, buyerID int64, key string, orderID int64) error
	// Release drops the reservation so the same key can be retried.
	Release(ctx context.Context, buyerID int64, key string) error
}

type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func redisKey(buyerID int64, key string) string {
	return keyPrefix + strconv.FormatInt(buyerID, 10) + ":" + key
}

func (g *RedisGuard) Acquire(ctx context.Context, buyerID int64, key string) (bool, Claim, error) {
	rk := redisKey(buyerID, key)
	ok, err := g.client.SetNX(ctx, rk, pendingValue, g.ttl).Result()
	if err != nil {
		return false, Claim{}, err
	}
	if ok {
		return true, Claim{}, nil
	}

	val, err := g.client.Get(ctx, rk).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET
		return false, Claim{Pending: true}, nil
	}
	if err != nil {
		return false, Claim{}, err
	}
	if val == pendingValue {
		return false, Claim{Pending: true}, nil
	}
	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, Claim{}, fmt.Errorf("idempotency value %q: %w", val, err)
	}
	return false, Claim{OrderID: orderID}, nil
}

func (g *RedisGuard) Complete(ctx context.Context, buyerID int64, key string, orderID int64) error {
	return g.client.Set(ctx, redisKey(buyerID, key), strconv.FormatInt(orderID, 10), g.ttl).Err()
}

func (g *RedisGuard) Release(ctx context.Context, buyerID int64, key string) error {
	return g.client.Del(ctx, redisKey(buyerID, key)).Err()
}

// Noop accepts every key. It is used when no Redis address is configured.
type Noop struct{}

func (Noop) Acquire(context.Context, int64, string) (bool, Claim, error) { return true, Claim{}, nil }
func (Noop) Complete(context.Context, int64, string, int64) error      { return nil }
func (Noop) Release(context.Context, int64, string) error              { return nil }
