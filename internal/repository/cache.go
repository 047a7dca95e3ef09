package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dechiad1/chesster/internal/adapters"
	"github.com/dechiad1/chesster/internal/bootstrap"
	analysisdomain "github.com/dechiad1/chesster/internal/domain/analysis"
)

// AnalysisCache keeps completed analysis results in Redis, keyed by a hash
// of the game notation, so re-submitting the same game skips the engine and
// the LLM entirely. Cache errors are logged and treated as misses.
type AnalysisCache struct {
	redis *adapters.AdapterRedis
	log   *zap.SugaredLogger
	ttl   time.Duration
}

func NewAnalysisCache(redisAdapter *adapters.AdapterRedis, cfg *bootstrap.Config, log *zap.SugaredLogger) *AnalysisCache {
	return &AnalysisCache{
		redis: redisAdapter,
		log:   log,
		ttl:   time.Duration(cfg.CacheTTLMinutes) * time.Minute,
	}
}

func (c *AnalysisCache) Get(ctx context.Context, pgn string) (*analysisdomain.Result, bool) {
	val, err := c.redis.GetClient().Get(ctx, cacheKey(pgn)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnw("analysis cache read failed", "error", err)
		}
		return nil, false
	}

	var res analysisdomain.Result
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		c.log.Warnw("analysis cache entry corrupt", "error", err)
		return nil, false
	}
	return &res, true
}

func (c *AnalysisCache) Put(ctx context.Context, pgn string, res analysisdomain.Result) {
	bytes, err := json.Marshal(res)
	if err != nil {
		c.log.Warnw("analysis cache marshal failed", "error", err)
		return
	}
	if err := c.redis.GetClient().Set(ctx, cacheKey(pgn), bytes, c.ttl).Err(); err != nil {
		c.log.Warnw("analysis cache write failed", "error", err)
	}
}

func cacheKey(pgn string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(pgn)))
	return "analysis:" + hex.EncodeToString(sum[:])
}
