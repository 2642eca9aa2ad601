// Package cache keeps recently generated routines in Redis so that repeated
// requests for the same issue skip the remote generation call.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/glowscan/skincare-admin/internal/config"
	"github.com/glowscan/skincare-admin/internal/llm"
)

// RoutineCache stores llm.Routine values keyed by the normalized issue text.
// A nil *RoutineCache, a nil Redis client or a disabled config all make the
// cache a pass-through: Get always misses and Set does nothing.
type RoutineCache struct {
	rdb     *redis.Client
	prefix  string
	ttl     time.Duration
	maxBody int
	logger  *zap.Logger
}

// NewRoutineCache returns nil when caching is disabled or Redis is missing.
func NewRoutineCache(cfg config.RoutineCacheConfig, rdb *redis.Client, logger *zap.Logger) *RoutineCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RoutineCache{
		rdb:     rdb,
		prefix:  cfg.KeyPrefix(),
		ttl:     ttl,
		maxBody: cfg.MaxBodyBytes,
		logger:  logger.Named("routine_cache"),
	}
}

// NormalizeIssue lower-cases the issue and collapses whitespace so that
// "Acne " and "  acne" share one entry.
func NormalizeIssue(issue string) string {
	return strings.Join(strings.Fields(strings.ToLower(issue)), " ")
}

// Key builds the Redis key for issue.
func (c *RoutineCache) Key(issue string) string {
	sum := sha1.Sum([]byte(NormalizeIssue(issue)))
	return fmt.Sprintf("%s:%x", c.prefix, sum[:])
}

// Get returns the cached routine for issue. Redis errors and undecodable
// payloads count as misses.
func (c *RoutineCache) Get(ctx context.Context, issue string) (llm.Routine, bool) {
	if c == nil {
		return llm.Routine{}, false
	}
	bs, err := c.rdb.Get(ctx, c.Key(issue)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("routine cache read failed", zap.Error(err))
		}
		return llm.Routine{}, false
	}
	var r llm.Routine
	if err := json.Unmarshal(bs, &r); err != nil {
		c.logger.Warn("routine cache payload corrupt", zap.Error(err))
		return llm.Routine{}, false
	}
	return r, true
}

// Set stores r for issue. Payloads larger than the configured limit are
// skipped.
func (c *RoutineCache) Set(ctx context.Context, issue string, r llm.Routine) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return
	}
	if c.maxBody > 0 && len(payload) > c.maxBody {
		c.logger.Debug("routine too large to cache", zap.Int("bytes", len(payload)))
		return
	}
	if err := c.rdb.SetEx(ctx, c.Key(issue), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("routine cache write failed", zap.Error(err))
	}
}
