package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"valuation-lab/internal/domain"
)

// ErrMiss is returned when no result is cached for a job.
var ErrMiss = errors.New("cache miss")

// DefaultTTL bounds how long a cached result is served.
const DefaultTTL = 24 * time.Hour

// ResultCache stores completed results as JSON strings.
//
// Key schema:
//
//	valuation:result:{jobID} - JSON-encoded SimulationResult
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResultCache creates a ResultCache. ttl <= 0 uses DefaultTTL.
func NewResultCache(c *Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{rdb: c.rdb, ttl: ttl}
}

func resultKey(jobID string) string { return "valuation:result:" + jobID }

// Get returns the cached result for a job, or ErrMiss.
func (c *ResultCache) Get(ctx context.Context, jobID string) (*domain.SimulationResult, error) {
	data, err := c.rdb.Get(ctx, resultKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis: get result %s: %w", jobID, err)
	}

	var r domain.SimulationResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("redis: unmarshal result %s: %w", jobID, err)
	}
	return &r, nil
}

// Set caches a completed result.
func (c *ResultCache) Set(ctx context.Context, jobID string, r *domain.SimulationResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("redis: marshal result %s: %w", jobID, err)
	}
	if err := c.rdb.Set(ctx, resultKey(jobID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set result %s: %w", jobID, err)
	}
	return nil
}
