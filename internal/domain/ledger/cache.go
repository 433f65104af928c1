package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const balanceCacheTTL = 5 * time.Minute

// BalanceCache is a read-through Redis cache over derived balances.
// The SQL summation stays the source of truth: the cache is populated on
// read and dropped after every committed append, so a stale value can only
// survive until the next read-through. A nil client disables caching.
type BalanceCache struct {
	client *redis.Client
}

// NewBalanceCache creates a balance cache. client may be nil.
func NewBalanceCache(client *redis.Client) *BalanceCache {
	return &BalanceCache{client: client}
}

func balanceKey(shopperID uuid.UUID) string {
	return "spirals:balance:" + shopperID.String()
}

// Get returns the cached balance and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, shopperID uuid.UUID) (int64, bool) {
	if c.client == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, balanceKey(shopperID)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("shopper_id", shopperID.String()).Msg("balance cache read failed")
		}
		return 0, false
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return balance, true
}

// Set stores a freshly derived balance.
func (c *BalanceCache) Set(ctx context.Context, shopperID uuid.UUID, balance int64) {
	if c.client == nil {
		return
	}
	if err := c.client.Set(ctx, balanceKey(shopperID), strconv.FormatInt(balance, 10), balanceCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("shopper_id", shopperID.String()).Msg("balance cache write failed")
	}
}

// Invalidate drops the cached balance after a committed append.
func (c *BalanceCache) Invalidate(ctx context.Context, shopperID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, balanceKey(shopperID)).Err(); err != nil {
		log.Warn().Err(err).Str("shopper_id", shopperID.String()).Msg("balance cache invalidation failed")
	}
}
