package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

const (
	defaultPrefix = "citeguard:verify:"
	defaultTTL    = 24 * time.Hour
)

// VerificationCache stores citation lookup outcomes in Redis.  Entries are
// keyed by the normalized citation string and carry a TTL: case law is
// append-mostly, so a day-old verified answer is still trustworthy, while
// a stale not-found must eventually be re-checked.
//
// Implements citation.VerificationCache.
type VerificationCache struct {
	client *Client
	logger logging.Logger
	prefix string
	ttl    time.Duration
}

// CacheOption customizes a VerificationCache.
type CacheOption func(*VerificationCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *VerificationCache) { c.prefix = prefix }
}

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *VerificationCache) { c.ttl = ttl }
}

// NewVerificationCache builds the cache on top of an established client.
func NewVerificationCache(client *Client, log logging.Logger, opts ...CacheOption) *VerificationCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &VerificationCache{
		client: client,
		logger: log,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached lookup result for a normalized citation.  A miss
// is not an error; the second return reports presence.
func (c *VerificationCache) Get(ctx context.Context, cite string) (*citation.LookupResult, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+cite).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "redis: get verification entry")
	}

	var res citation.LookupResult
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry is treated as a miss and dropped so the next
		// lookup repopulates it.
		c.logger.Warn("dropping corrupt verification cache entry",
			logging.String("citation", cite), logging.Err(err))
		c.client.Del(ctx, c.prefix+cite)
		return nil, false, nil
	}
	return &res, true, nil
}

// Set stores a lookup result under the normalized citation with TTL
// jitter, so a burst of lookups does not expire in one stampede.
func (c *VerificationCache) Set(ctx context.Context, cite string, res *citation.LookupResult) error {
	if res == nil {
		return errors.NewInvalidInputError("redis: nil lookup result")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "redis: marshal verification entry")
	}
	if err := c.client.Set(ctx, c.prefix+cite, data, jitterTTL(c.ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis: set verification entry")
	}
	return nil
}

// Invalidate removes a cached outcome, forcing the next lookup through to
// the external source.
func (c *VerificationCache) Invalidate(ctx context.Context, cite string) error {
	if err := c.client.Del(ctx, c.prefix+cite).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis: invalidate verification entry")
	}
	return nil
}

// jitterTTL spreads expiry by +/- 10%.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}
